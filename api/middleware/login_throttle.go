package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/linarqa/linarqa-web/api/responses"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

// LoginThrottlePolicy defines the fixed window and the attempt limits.
type LoginThrottlePolicy struct {
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewLoginThrottlePolicy(window time.Duration, ipLimit, emailLimit int) LoginThrottlePolicy {
	return LoginThrottlePolicy{window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p LoginThrottlePolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

func ipKey(ip string) string {
	return fmt.Sprintf("lq:rl:login:ip:%s", ip)
}

func emailKey(hash string) string {
	return fmt.Sprintf("lq:rl:login:email:%s", hash)
}

// LoginThrottle counts sign-in posts per client IP and per email. Over the
// limit, blocked is served instead of next; a nil blocked writes a 429.
func LoginThrottle(policy LoginThrottlePolicy, store storage.Counter, blocked http.Handler, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			reject := func(scope string, count int64, limit int) {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"attempts":       count,
						"limit":          limit,
						"window_seconds": int(policy.window.Seconds()),
					}), "auth.login_throttled")
				}
				if blocked != nil {
					blocked.ServeHTTP(w, r)
					return
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many sign-in attempts"))
			}

			if ip := clientIP(r); policy.ipLimit > 0 && ip != "" {
				allowed, count, err := allow(ctx, store, ipKey(ip), policy.window, int64(policy.ipLimit))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "login throttle"))
					return
				}
				if !allowed {
					reject("ip", count, policy.ipLimit)
					return
				}
			}

			if policy.emailLimit > 0 {
				if email := normalizeEmail(r.PostFormValue("email")); email != "" {
					allowed, count, err := allow(ctx, store, emailKey(hashValue(email)), policy.window, int64(policy.emailLimit))
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "login throttle"))
						return
					}
					if !allowed {
						reject("email", count, policy.emailLimit)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allow(ctx context.Context, store storage.Counter, key string, window time.Duration, limit int64) (bool, int64, error) {
	count, err := store.IncrWithTTL(ctx, key, window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
