package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobboard/internal/job"
	"github.com/hitoshi/jobboard/internal/jobfilter"
	"github.com/hitoshi/jobboard/internal/model"
)

// JobServiceInterface は求人ハンドラーが必要とするサービスインターフェース。
type JobServiceInterface interface {
	ListJobs(ctx context.Context) ([]model.JobWithCompany, error)
	SearchJobs(ctx context.Context, criteria jobfilter.Criteria, page int) (jobfilter.Page[model.JobWithCompany], error)
	GetJob(ctx context.Context, jobID string) (*model.JobWithCompany, error)
	PostJob(ctx context.Context, companyID string, in job.PostJobInput) (*model.Job, error)
	ChangeVisibility(ctx context.Context, companyID, jobID string) (*model.Job, error)
	ListCompanyJobs(ctx context.Context, companyID string) ([]model.JobWithApplicantCount, error)
}

// JobHandler は求人カタログのHTTPハンドラー。
type JobHandler struct {
	service JobServiceInterface
}

// NewJobHandler はJobHandlerを生成する。
func NewJobHandler(service JobServiceInterface) *JobHandler {
	return &JobHandler{service: service}
}

// ListJobs は公開中の求人を作成順に返す。
// GET /api/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"jobs": toJobListResponse(jobs)})
}

// SearchJobs は公開中の求人を絞り込み、新しい順にページングして返す。
// GET /api/jobs/search?title=&location=&category=..&loc=..&page=
//
// category と loc は複数指定でき、カンマ区切りも受け付ける。
// pageが数値でない場合は1ページ目とみなす。
func (h *JobHandler) SearchJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := jobfilter.Criteria{
		Title:      q.Get("title"),
		Location:   q.Get("location"),
		Categories: splitMulti(q["category"]),
		Locations:  splitMulti(q["loc"]),
	}

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		page = 1
	}

	result, err := h.service.SearchJobs(r.Context(), criteria, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": pageResponse{
		Items:      toJobListResponse(result.Items),
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
		Total:      result.Total,
	}})
}

// GetJob は公開中の求人の詳細を返す。
// GET /api/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.service.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"job": toJobWithCompanyResponse(*j, true)})
}

// PostJob は求人を投稿する。企業IDは認証済みIdentityからのみ取得する。
// POST /api/jobs
func (h *JobHandler) PostJob(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var in job.PostJobInput
	if !decodeJSON(w, r, &in) {
		return
	}

	created, err := h.service.PostJob(r.Context(), identity.ID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"job": toJobResponse(*created, true)})
}

// ChangeVisibility は自社求人の公開状態を反転する。
// POST /api/jobs/{id}/visibility
func (h *JobHandler) ChangeVisibility(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	updated, err := h.service.ChangeVisibility(r.Context(), identity.ID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"job": toJobResponse(*updated, false)})
}

// ListCompanyJobs は自社の全求人を応募者数付きで返す。
// GET /api/companies/me/jobs
func (h *JobHandler) ListCompanyJobs(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	jobs, err := h.service.ListCompanyJobs(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"jobs": toCompanyJobListResponse(jobs)})
}

// splitMulti は繰り返し指定・カンマ区切りの値を平坦化し、空要素を除く。
func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
