package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type contextKeyClientIP struct{}
type contextKeyDeviceName struct{}

// ClientMetadata extracts the client IP and a human-readable device name from
// the request and adds them to the context for request logging.
// Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, contextKeyClientIP{}, ClientIPFromRequest(r))
		ctx = context.WithValue(ctx, contextKeyDeviceName{}, DeviceName(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP retrieves the client IP address from the context.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(contextKeyClientIP{}).(string); ok {
		return ip
	}
	return ""
}

// GetDeviceName retrieves the parsed device display name from the context.
func GetDeviceName(ctx context.Context) string {
	if name, ok := ctx.Value(contextKeyDeviceName{}).(string); ok {
		return name
	}
	return ""
}

// ClientIPFromRequest extracts the real client IP, handling proxies and load
// balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs; the first is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if realIP := r.Header.Get("X-Real-Ip"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

// DeviceName turns a raw User-Agent string into a short "Browser on OS"
// display name for log lines.
func DeviceName(rawUserAgent string) string {
	if rawUserAgent == "" {
		return "Unknown Device"
	}
	ua := useragent.New(rawUserAgent)
	browser, _ := ua.Browser()
	os := ua.OS()
	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "Unknown Device"
	}
}
