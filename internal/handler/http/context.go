package http

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

func getCompanyIDFromContext(r *http.Request) (string, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", false
	}
	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", false
	}
	return companyID, true
}
