// SPDX-License-Identifier: MPL-2.0

package checks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"conu-cli/pkg/probe"
)

const defaultRequestTimeout = 5 * time.Second

// httpCheck requests args["url"] and reports whether the response status is
// args["status"], or any 2xx status when no status is given. Transport
// failures are returned as errors so they can be listed as expected.
func httpCheck(ctx context.Context, args probe.Args) (any, error) {
	target, err := args.String("url")
	if err != nil {
		return nil, err
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("%w: url is empty", probe.ErrInvalidArg)
	}
	method, err := args.StringOr("method", http.MethodGet)
	if err != nil {
		return nil, err
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	want, err := args.IntOr("status", 0)
	if err != nil {
		return nil, err
	}
	timeout, err := args.Duration("request_timeout", defaultRequestTimeout)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", probe.ErrInvalidArg, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if want != 0 {
		return resp.StatusCode == want, nil
	}
	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}
