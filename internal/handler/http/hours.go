package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/cmlabs-hris/staff-hours-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

const idempotencyKeyHeader = "Idempotency-Key"

type HoursHandler interface {
	// Staff hours ledger
	GetMyLedger(w http.ResponseWriter, r *http.Request)
	GetMyDetail(w http.ResponseWriter, r *http.Request)
	ListLedgers(w http.ResponseWriter, r *http.Request)
	GetLedger(w http.ResponseWriter, r *http.Request)
	GetDetail(w http.ResponseWriter, r *http.Request)
	Recompute(w http.ResponseWriter, r *http.Request)
	Reconcile(w http.ResponseWriter, r *http.Request)

	// Extra hours requests
	SubmitExtraHours(w http.ResponseWriter, r *http.Request)
	GetMyExtraHours(w http.ResponseWriter, r *http.Request)
	ListExtraHours(w http.ResponseWriter, r *http.Request)
	GetExtraHours(w http.ResponseWriter, r *http.Request)
	DeleteExtraHours(w http.ResponseWriter, r *http.Request)
	ApproveExtraHours(w http.ResponseWriter, r *http.Request)
	RejectExtraHours(w http.ResponseWriter, r *http.Request)
}

type hoursHandlerImpl struct {
	hoursService hours.HoursService
}

func NewHoursHandler(hoursService hours.HoursService) HoursHandler {
	return &hoursHandlerImpl{hoursService: hoursService}
}

// optionalQuery returns nil for an absent or empty query parameter
func optionalQuery(r *http.Request, key string) *string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}
	return &val
}

// ============= Staff hours =============

func (h *hoursHandlerImpl) writeLedger(w http.ResponseWriter, r *http.Request, userID string) {
	ledger, err := h.hoursService.GetLedger(r.Context(), userID, r.URL.Query().Get("month"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if ledger == nil {
		response.SuccessWithMessage(w, "No staff hours recorded for this month yet", nil)
		return
	}
	response.Success(w, ledger)
}

func (h *hoursHandlerImpl) writeDetail(w http.ResponseWriter, r *http.Request, userID string) {
	report, err := h.hoursService.GetDetail(r.Context(), userID, r.URL.Query().Get("month"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, report)
}

// GetMyLedger implements HoursHandler.
func (h *hoursHandlerImpl) GetMyLedger(w http.ResponseWriter, r *http.Request) {
	h.writeLedger(w, r, "")
}

// GetMyDetail implements HoursHandler.
func (h *hoursHandlerImpl) GetMyDetail(w http.ResponseWriter, r *http.Request) {
	h.writeDetail(w, r, "")
}

// GetLedger implements HoursHandler.
func (h *hoursHandlerImpl) GetLedger(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		response.BadRequest(w, "User ID is required", nil)
		return
	}
	h.writeLedger(w, r, userID)
}

// GetDetail implements HoursHandler.
func (h *hoursHandlerImpl) GetDetail(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		response.BadRequest(w, "User ID is required", nil)
		return
	}
	h.writeDetail(w, r, userID)
}

// ListLedgers implements HoursHandler.
func (h *hoursHandlerImpl) ListLedgers(w http.ResponseWriter, r *http.Request) {
	ledgers, err := h.hoursService.ListLedgers(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, ledgers)
}

// Recompute implements HoursHandler.
func (h *hoursHandlerImpl) Recompute(w http.ResponseWriter, r *http.Request) {
	var req hours.RecomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Recompute decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	summary, err := h.hoursService.Recompute(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Staff hours recomputed", summary)
}

// Reconcile implements HoursHandler.
func (h *hoursHandlerImpl) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month string `json:"month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("Reconcile decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	summary, err := h.hoursService.Reconcile(r.Context(), req.Month)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Staff hours reconciled", summary)
}

// ============= Extra hours =============

// SubmitExtraHours implements HoursHandler.
func (h *hoursHandlerImpl) SubmitExtraHours(w http.ResponseWriter, r *http.Request) {
	var req hours.SubmitExtraHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SubmitExtraHours decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.IdempotencyKey = r.Header.Get(idempotencyKeyHeader)

	created, isNew, err := h.hoursService.SubmitExtraHours(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !isNew {
		response.SuccessWithMessage(w, "Extra hours request already submitted", created)
		return
	}
	response.Created(w, "Extra hours request submitted", created)
}

// GetMyExtraHours implements HoursHandler.
func (h *hoursHandlerImpl) GetMyExtraHours(w http.ResponseWriter, r *http.Request) {
	filter := hours.MyExtraHoursFilter{Status: optionalQuery(r, "status")}

	requests, err := h.hoursService.ListMyExtraHours(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, requests)
}

// ListExtraHours implements HoursHandler.
func (h *hoursHandlerImpl) ListExtraHours(w http.ResponseWriter, r *http.Request) {
	filter := hours.ExtraHoursFilter{
		Status: optionalQuery(r, "status"),
		UserID: optionalQuery(r, "user_id"),
		Month:  optionalQuery(r, "month"),
		Page:   getIntQueryParam(r, "page", 1),
		Limit:  getIntQueryParam(r, "limit", 20),
	}

	result, err := h.hoursService.ListExtraHours(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Requests, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

// GetExtraHours implements HoursHandler.
func (h *hoursHandlerImpl) GetExtraHours(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Extra hours request ID is required", nil)
		return
	}

	request, err := h.hoursService.GetExtraHours(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, request)
}

// DeleteExtraHours implements HoursHandler.
func (h *hoursHandlerImpl) DeleteExtraHours(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Extra hours request ID is required", nil)
		return
	}

	if err := h.hoursService.DeleteExtraHours(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Extra hours request deleted", nil)
}

// ApproveExtraHours implements HoursHandler.
func (h *hoursHandlerImpl) ApproveExtraHours(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Extra hours request ID is required", nil)
		return
	}

	approved, err := h.hoursService.ApproveExtraHours(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Extra hours request approved", approved)
}

// RejectExtraHours implements HoursHandler. The body is optional.
func (h *hoursHandlerImpl) RejectExtraHours(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Extra hours request ID is required", nil)
		return
	}

	var req hours.RejectExtraHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("RejectExtraHours decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	rejected, err := h.hoursService.RejectExtraHours(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Extra hours request rejected", rejected)
}
