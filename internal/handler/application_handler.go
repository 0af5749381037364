package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobboard/internal/model"
)

// ApplicationServiceInterface は応募ハンドラーが必要とするサービスインターフェース。
type ApplicationServiceInterface interface {
	Apply(ctx context.Context, userID, jobID string) (*model.Application, error)
	ListUserApplications(ctx context.Context, userID string) ([]model.ApplicationWithJob, error)
	ListCompanyApplicants(ctx context.Context, companyID string) ([]model.ApplicationWithApplicant, error)
	SetStatus(ctx context.Context, companyID, applicationID, status string) (*model.Application, error)
}

// ApplicationHandler は応募ワークフローのHTTPハンドラー。
type ApplicationHandler struct {
	service ApplicationServiceInterface
}

// NewApplicationHandler はApplicationHandlerを生成する。
func NewApplicationHandler(service ApplicationServiceInterface) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

type applyRequest struct {
	JobID string `json:"job_id"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// Apply は求人に応募する。
// POST /api/applications
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req applyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.JobID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("job_id", "は必須項目です。"))
		return
	}

	app, err := h.service.Apply(r.Context(), identity.ID, req.JobID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"application": toApplicationResponse(*app)})
}

// ListMine は求職者自身の応募一覧を返す。
// GET /api/applications/me
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	apps, err := h.service.ListUserApplications(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"applications": toUserApplicationsResponse(apps)})
}

// ListApplicants は自社求人への応募者一覧を返す。
// GET /api/companies/me/applicants
func (h *ApplicationHandler) ListApplicants(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	apps, err := h.service.ListCompanyApplicants(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"applications": toApplicantsResponse(apps)})
}

// SetStatus は応募の選考結果を更新する。
// POST /api/applications/{id}/status
func (h *ApplicationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req setStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	app, err := h.service.SetStatus(r.Context(), identity.ID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"application": toApplicationResponse(*app)})
}
