package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clipstream/clipstream/internal/auth"
	"github.com/clipstream/clipstream/internal/cache"
	"github.com/clipstream/clipstream/internal/model"
	"github.com/clipstream/clipstream/internal/repository"
)

// minAuthDuration is the floor on auth handling time so rejected and
// accepted requests are indistinguishable by latency.
const minAuthDuration = 200 * time.Millisecond

// AuthConfig wires the auth middleware's dependencies.
type AuthConfig struct {
	Logger     *slog.Logger
	Repository *repository.Repository
	Cache      *cache.Cache
}

// Auth authenticates service-to-service requests. The service key
// comes from Authorization: Bearer or X-API-Key; verified contexts are
// cached in Redis so the argon2 work happens once per key per TTL.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			defer func() {
				if elapsed := time.Since(start); elapsed < minAuthDuration {
					time.Sleep(minAuthDuration - elapsed)
				}
			}()

			reject := func(reason string) {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
			}

			key := extractServiceKey(r)
			if key == "" {
				reject("missing_key")
				return
			}

			parsed, err := auth.ParseServiceKey(key)
			if err != nil {
				reject("invalid_format")
				return
			}

			cacheKey := auth.QuickHash(key)
			if authCtx, _ := cfg.Cache.GetAuthContext(r.Context(), cacheKey); authCtx != nil {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), authCtx)))
				return
			}

			keys, err := cfg.Repository.GetAPIKeysByPrefix(r.Context(), parsed.Prefix)
			if err != nil {
				cfg.Logger.Error("database error during auth",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			// Prefixes can collide; verify against every candidate.
			var matched *model.APIKey
			for _, k := range keys {
				if ok, err := auth.VerifySecret(key, k.KeyHash); err == nil && ok {
					matched = k
					break
				}
			}
			if matched == nil {
				reject("invalid_key")
				return
			}

			authCtx := &model.AuthContext{
				KeyID:         matched.ID,
				KeyPrefix:     matched.KeyPrefix,
				ServiceID:     matched.ServiceID,
				Scopes:        matched.Scopes,
				RateLimitTier: matched.RateLimitTier,
			}
			_ = cfg.Cache.SetAuthContext(r.Context(), cacheKey, authCtx)

			// last_used_at is advisory; update it off the request path
			// with a context that outlives the request.
			go func(keyID string) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = cfg.Repository.UpdateAPIKeyLastUsed(ctx, keyID)
			}(matched.ID)

			cfg.Logger.Info("authentication successful",
				slog.String("key_id", authCtx.KeyID),
				slog.String("service_id", authCtx.ServiceID),
				slog.String("ip", r.RemoteAddr),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), authCtx)))
		})
	}
}

// extractServiceKey pulls the key from Authorization: Bearer, falling
// back to X-API-Key.
func extractServiceKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// writeAuthError answers 401 with one fixed body for every failure
// mode, so callers cannot probe which part of the key was wrong.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing service key"}}`))
}
