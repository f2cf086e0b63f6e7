// SPDX-License-Identifier: MPL-2.0

package checks

import (
	"context"
	"fmt"
	"net"

	"conu-cli/pkg/probe"
)

// tcpCheck reports whether a TCP connection to args["address"] can be opened.
func tcpCheck(ctx context.Context, args probe.Args) (any, error) {
	addr, err := args.String("address")
	if err != nil {
		return nil, err
	}
	timeout, err := args.Duration("dial_timeout", defaultRequestTimeout)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	_ = conn.Close()
	return true, nil
}

