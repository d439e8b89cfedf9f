package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/response"
)

type ReconciliationHandler interface {
	Reconcile(w http.ResponseWriter, r *http.Request)
}

type reconciliationHandlerImpl struct {
	reconciliationService reconciliation.ReconciliationService
}

func NewReconciliationHandler(reconciliationService reconciliation.ReconciliationService) ReconciliationHandler {
	return &reconciliationHandlerImpl{
		reconciliationService: reconciliationService,
	}
}

// Reconcile implements ReconciliationHandler.
func (h *reconciliationHandlerImpl) Reconcile(w http.ResponseWriter, r *http.Request) {
	companyID, ok := getCompanyIDFromContext(r)
	if !ok {
		response.Forbidden(w, "no company associated with this user")
		return
	}

	query := r.URL.Query()
	req := reconciliation.ReconcileRequest{
		CompanyID: companyID,
		Date:      query.Get("date"),
	}
	if partial := query.Get("partial"); partial != "" {
		allow, err := strconv.ParseBool(partial)
		if err != nil {
			response.BadRequest(w, "partial must be a boolean", nil)
			return
		}
		req.AllowPartial = allow
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	report, err := h.reconciliationService.Reconcile(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, report.ToResponse())
}
