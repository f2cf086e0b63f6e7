// SPDX-License-Identifier: MPL-2.0

package checks

import (
	"context"
	"fmt"
	"time"

	"conu-cli/pkg/probe"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultServerSelectionTimeout = 2 * time.Second

// mongoPing reports whether the MongoDB deployment at args["uri"] answers a
// ping on its primary.
func mongoPing(ctx context.Context, args probe.Args) (any, error) {
	uri, err := args.String("uri")
	if err != nil {
		return nil, err
	}
	timeout, err := args.Duration("server_selection_timeout", defaultServerSelectionTimeout)
	if err != nil {
		return nil, err
	}

	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout).SetConnectTimeout(timeout)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: uri: %w", probe.ErrInvalidArg, err)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: mongo connect: %w", ErrUnavailable, err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("%w: mongo ping: %w", ErrUnavailable, err)
	}
	return true, nil
}
