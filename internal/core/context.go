package core

import "context"

type contextKey string

const (
	ctxKeyRemoteAddr contextKey = "remote_addr"
	ctxKeyUserAgent  contextKey = "user_agent"
)

// ContextWithRemoteAddr records the client address of an HTTP-triggered run.
func ContextWithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ctxKeyRemoteAddr, addr)
}

// ContextWithUserAgent records the User-Agent of an HTTP-triggered run.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// RemoteAddrFromContext returns the recorded client address, or "".
func RemoteAddrFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRemoteAddr).(string); ok {
		return v
	}
	return ""
}

// UserAgentFromContext returns the recorded User-Agent, or "".
func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
