package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/handler/http/middleware"
	"github.com/cmlabs-hris/geo-attendance/internal/handler/http/response"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/validator"
)

type AttendanceHandler interface {
	ReportLocation(w http.ResponseWriter, r *http.Request)
	EnableMonitoring(w http.ResponseWriter, r *http.Request)
	DisableMonitoring(w http.ResponseWriter, r *http.Request)
	MonitoringStatus(w http.ResponseWriter, r *http.Request)
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	Hours(w http.ResponseWriter, r *http.Request)
	Activity(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// decodeOptionalJSON decodes a JSON body into v. An empty body is allowed.
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// requestOrigin falls back to the Origin header when the body names none.
func requestOrigin(r *http.Request, bodyOrigin string) string {
	if bodyOrigin != "" {
		return bodyOrigin
	}
	return r.Header.Get("Origin")
}

// ReportLocation implements AttendanceHandler.
func (h *attendanceHandlerImpl) ReportLocation(w http.ResponseWriter, r *http.Request) {
	var req attendance.ReportLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode location report", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = middleware.EmployeeID(r.Context())

	if err := h.attendanceService.ReportLocation(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Location received", nil)
}

// EnableMonitoring implements AttendanceHandler.
func (h *attendanceHandlerImpl) EnableMonitoring(w http.ResponseWriter, r *http.Request) {
	var req attendance.EnableMonitoringRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = middleware.EmployeeID(r.Context())
	req.Origin = requestOrigin(r, req.Origin)

	status, err := h.attendanceService.EnableMonitoring(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Location monitoring enabled", status)
}

// DisableMonitoring implements AttendanceHandler.
func (h *attendanceHandlerImpl) DisableMonitoring(w http.ResponseWriter, r *http.Request) {
	status, err := h.attendanceService.DisableMonitoring(r.Context(), middleware.EmployeeID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Location monitoring disabled", status)
}

// MonitoringStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) MonitoringStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.attendanceService.MonitoringStatus(r.Context(), middleware.EmployeeID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, status)
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	req, ok := h.punchRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.attendanceService.ClockIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clocked in", resp)
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	req, ok := h.punchRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.attendanceService.ClockOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clocked out", resp)
}

func (h *attendanceHandlerImpl) punchRequest(w http.ResponseWriter, r *http.Request) (attendance.ManualPunchRequest, bool) {
	var req attendance.ManualPunchRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return req, false
	}
	req.EmployeeID = middleware.EmployeeID(r.Context())
	req.Origin = requestOrigin(r, req.Origin)
	return req, true
}

// Today implements AttendanceHandler.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	status, err := h.attendanceService.Today(r.Context(), middleware.EmployeeID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, status)
}

// Hours implements AttendanceHandler.
func (h *attendanceHandlerImpl) Hours(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := attendance.HoursFilter{
		EmployeeID: middleware.EmployeeID(r.Context()),
		StartDate:  query.Get("start_date"),
		EndDate:    query.Get("end_date"),
	}

	hours, err := h.attendanceService.Hours(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, hours)
}

// Activity implements AttendanceHandler.
func (h *attendanceHandlerImpl) Activity(w http.ResponseWriter, r *http.Request) {
	limit, ok := validator.ParseLimit(r.URL.Query().Get("limit"), 0, maxListLimit)
	if !ok {
		response.HandleError(w, validator.ValidationErrors{{Field: "limit", Message: "limit must be a positive integer"}})
		return
	}

	activities, err := h.attendanceService.Activity(r.Context(), middleware.EmployeeID(r.Context()), limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, activities, &response.Meta{Limit: attendance.ActivityLimit(limit), Count: len(activities)})
}
