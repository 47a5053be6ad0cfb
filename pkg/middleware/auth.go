package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKeyType string

const subjectIDKey contextKeyType = "subject_id"

// ServiceTokenHeader carries the shared secret on service-to-service calls.
const ServiceTokenHeader = "X-Service-Token"

// TokenValidator validates a bearer access token and returns the subject it
// was issued to. The handler layer injects the real JWT validation.
type TokenValidator func(ctx context.Context, token string) (subjectID string, err error)

// Auth validates Bearer tokens and injects the authenticated subject into
// the request context.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			subjectID, err := validate(r.Context(), parts[1])
			if err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), subjectIDKey, subjectID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ServiceToken guards internal endpoints with a shared secret carried in the
// X-Service-Token header. The comparison is constant time.
func ServiceToken(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(ServiceTokenHeader)
			if presented == "" {
				writeAuthError(w, "missing service token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
				writeAuthError(w, "invalid service token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SubjectIDFromContext extracts the authenticated subject from the request context.
func SubjectIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(subjectIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
