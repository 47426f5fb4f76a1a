package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/auth"
	"github.com/cmlabs-hris/geo-attendance/internal/handler/http/response"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const employeeIDKey contextKey = "employee_id"

// AuthRequired accepts access tokens that identify an employee and stores the
// employee ID in the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if tokenType != jwt.TokenTypeAccess || !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			employeeID, ok := claims["employee_id"].(string)
			if !ok || employeeID == "" {
				response.HandleError(w, auth.ErrEmployeeIDRequired)
				return
			}

			ctx := WithEmployeeID(r.Context(), employeeID)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

func WithEmployeeID(ctx context.Context, employeeID string) context.Context {
	return context.WithValue(ctx, employeeIDKey, employeeID)
}

// EmployeeID returns the authenticated employee, or "" outside AuthRequired.
func EmployeeID(ctx context.Context) string {
	employeeID, _ := ctx.Value(employeeIDKey).(string)
	return employeeID
}
