package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-admission/internal/admission"
	"ms-admission/internal/auth"
	"ms-admission/internal/logger"
	"ms-admission/internal/models"
	"ms-admission/internal/utils"
)

type Handler struct {
	Service *admission.AdmissionService
	Logger  *logger.Logger
}

func NewHandler(service *admission.AdmissionService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// LiveScan resolves one gate scan.
// POST /admission/scan {token, event_id, scanned_by, scanned_at, entry_quantity?, entered_names?}
func (h *Handler) LiveScan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if req.Token == "" {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("token is required", ""))
		return
	}

	// Prefer the authenticated staff identity over the body field.
	if tokenString, err := auth.ExtractTokenFromRequest(r); err == nil {
		if staffID, err := auth.ExtractStaffIDFromJWT(tokenString); err == nil {
			req.ScannedBy = staffID
		}
	}
	if req.ScannedBy == "" {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("scanned_by is required", ""))
		return
	}

	res, err := h.Service.Scan(r.Context(), req)
	if err != nil {
		h.logError("SCAN", err)
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("scan failed", err.Error()))
		return
	}

	if h.Logger != nil {
		h.Logger.LogScan(res.Outcome, res.TicketID, res.Message)
	}

	writeJSON(w, statusForResult(res), utils.ScanResponse(res.Accepted, res.Message, res))
}

type syncRequest struct {
	Scans []models.OfflineScan `json:"scans"`
}

// SyncOfflineScans replays a disconnected scanner's queued batch.
// POST /admission/scan/sync {scans: [{local_id, token, event_id, scanned_by, scanned_at}]}
func (h *Handler) SyncOfflineScans(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if len(req.Scans) == 0 {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("scans is required", ""))
		return
	}

	res := h.Service.Reconcile(r.Context(), req.Scans)

	if h.Logger != nil {
		h.Logger.LogSync("batch", fmt.Sprintf("%d synced, %d failed of %d", res.SyncedCount, res.FailedCount, len(req.Scans)))
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("batch reconciled", res))
}

// IssueToken returns a freshly signed redemption token for an invitation.
// GET /admission/invitation/{ticketID}/token
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	signed, err := h.Service.Codec.Issue(r.Context(), ticketID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, utils.ErrorResponse("token issuance failed", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("token issued", map[string]string{
		"ticket_id": ticketID,
		"token":     signed,
	}))
}

// TicketQR renders the invitation's redemption token as a QR PNG.
// GET /admission/invitation/{ticketID}/qr
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	png, err := h.Service.Codec.IssueQR(r.Context(), ticketID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, utils.ErrorResponse("QR generation failed", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// ScanHistory returns the audit trail for an invitation.
// GET /admission/invitation/{ticketID}/scans
func (h *Handler) ScanHistory(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	scans, err := h.Service.History(r.Context(), ticketID)
	if err != nil {
		h.logError("HISTORY", err)
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to fetch scans", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("scan history", scans))
}

func (h *Handler) logError(category string, err error) {
	if h.Logger != nil {
		h.Logger.Error(category, err.Error())
	}
}

// statusForResult maps outcomes to HTTP statuses. Benign duplicates stay
// 200 so scanner UIs can show "already admitted" without error handling.
func statusForResult(res models.ScanResult) int {
	if res.Accepted {
		return http.StatusOK
	}
	switch res.Outcome {
	case models.OutcomeAlreadyFullyAdmitted:
		return http.StatusOK
	case models.OutcomeConflict:
		return http.StatusConflict
	case models.OutcomeInvalidQuantity:
		return http.StatusBadRequest
	case models.OutcomeForged:
		return http.StatusUnauthorized
	case models.OutcomeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusForbidden
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
