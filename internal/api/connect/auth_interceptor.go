// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/infra/config"
)

const (
	// ControlTokenHeader is the header name for the control token.
	ControlTokenHeader = "X-Control-Token"
)

// NewControlAuthInterceptor creates an interceptor that validates the control
// token for PlayerService methods. With no token configured every call passes.
func NewControlAuthInterceptor(cfg *config.Config) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			want := cfg.Server.ControlToken
			if want == "" {
				return next(ctx, req)
			}

			token := req.Header().Get(ControlTokenHeader)
			if token == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("missing control token"))
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(want)) != 1 {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("invalid control token"))
			}

			return next(ctx, req)
		}
	}
}
