package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireCompany rejects tokens that are not scoped to a company.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, tenant.ErrCompanyIDRequired)
			return
		}

		companyID, ok := claims["company_id"].(string)
		if !ok || companyID == "" {
			response.HandleError(w, tenant.ErrCompanyIDRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
