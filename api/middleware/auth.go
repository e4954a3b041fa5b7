package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/pintuan-backend/api/responses"
	pkgAuth "github.com/angelmondragon/pintuan-backend/pkg/auth"
	"github.com/angelmondragon/pintuan-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/pintuan-backend/pkg/errors"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
)

// OperatorAuth validates a bearer operator token and seeds the request
// context with its claims.
func OperatorAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseOperatorToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			operatorID := claims.OperatorID.String()
			ctx := WithOperator(r.Context(), operatorID, claims.Role)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"operator_id":   operatorID,
					"operator_role": claims.Role.String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireWrite rejects read-only operators.
func RequireWrite(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !RoleFromContext(r.Context()).CanWrite() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) string {
	raw := strings.TrimSpace(header)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
