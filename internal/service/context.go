package service

import (
	"context"
	"strings"
)

type ctxKey string

const clientIPKey ctxKey = "client_ip"

// WithClientIP attaches the originating network address to the context so
// audit entries can record it even on unauthenticated paths like login.
func WithClientIP(ctx context.Context, ip string) context.Context {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey, ip)
}

func ipFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if ip, ok := ctx.Value(clientIPKey).(string); ok {
		return ip
	}
	return ""
}
