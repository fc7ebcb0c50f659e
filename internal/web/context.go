package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/spregistry/internal/core"
)

// WithRequestMetadata adds the client address and User-Agent to ctx so run
// logs can say who triggered them.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithRemoteAddr(ctx, r.RemoteAddr) // already rewritten by TrustedRealIP
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
