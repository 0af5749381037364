package handler

import "net/http"

// CompanyHandler は企業アカウントのHTTPハンドラー。
type CompanyHandler struct {
	service CompanyProfileServiceInterface
}

// NewCompanyHandler はCompanyHandlerを生成する。
func NewCompanyHandler(service CompanyProfileServiceInterface) *CompanyHandler {
	return &CompanyHandler{service: service}
}

// Profile は企業自身のプロフィールを返す。
// GET /api/companies/me
func (h *CompanyHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	company, err := h.service.GetProfile(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"profile": toCompanyResponse(company)})
}
