package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	ProcessDaily(w http.ResponseWriter, r *http.Request)
	ListDaily(w http.ResponseWriter, r *http.Request)
	WorkingDays(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// ProcessDaily implements AttendanceHandler.
func (h *attendanceHandlerImpl) ProcessDaily(w http.ResponseWriter, r *http.Request) {
	companyID, ok := getCompanyIDFromContext(r)
	if !ok {
		response.Forbidden(w, "no company associated with this user")
		return
	}

	var req attendance.ProcessDailyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode process request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.CompanyID = companyID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ProcessDailyAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Daily attendance processed", result)
}

// ListDaily implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListDaily(w http.ResponseWriter, r *http.Request) {
	companyID, ok := getCompanyIDFromContext(r)
	if !ok {
		response.Forbidden(w, "no company associated with this user")
		return
	}

	req := attendance.ListDailySummaryRequest{
		CompanyID: companyID,
		Date:      r.URL.Query().Get("date"),
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	summaries, err := h.attendanceService.ListDailySummaries(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summaries)
}

// WorkingDays implements AttendanceHandler.
func (h *attendanceHandlerImpl) WorkingDays(w http.ResponseWriter, r *http.Request) {
	companyID, ok := getCompanyIDFromContext(r)
	if !ok {
		response.Forbidden(w, "no company associated with this user")
		return
	}

	query := r.URL.Query()
	req := attendance.WorkingDaysRequest{
		CompanyID: companyID,
		From:      query.Get("from"),
		To:        query.Get("to"),
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.WorkingDays(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
