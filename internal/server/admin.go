package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/acchub/acchub/internal/models"
	"github.com/acchub/acchub/internal/service"
)

func (s *Server) handleAdminListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.deps.Catalog.ListWithStock(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, categories)
}

type categoryRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

func (s *Server) handleAdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	category, err := s.deps.Catalog.Create(r.Context(), &models.Category{Name: req.Name, ImageURL: req.ImageURL})
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, category)
}

type categoryUpdateRequest struct {
	Name     *string `json:"name"`
	ImageURL *string `json:"image_url"`
}

func (s *Server) handleAdminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req categoryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	existing, err := s.deps.Catalog.Get(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if existing == nil {
		http.Error(w, "category not found", http.StatusNotFound)
		return
	}
	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.ImageURL != nil {
		existing.ImageURL = *req.ImageURL
	}
	category, err := s.deps.Catalog.Update(r.Context(), existing)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleAdminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := s.deps.Catalog.Delete(r.Context(), id); err != nil {
		s.badRequest(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.deps.Accounts.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, accounts)
}

type accountRequest struct {
	CategoryID   int64  `json:"category_id"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	QualityLevel string `json:"quality_level"`
	SuccessRate  int    `json:"success_rate"`
}

func (s *Server) handleAdminCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	account, err := s.deps.Accounts.Create(r.Context(), &models.Account{
		CategoryID:   req.CategoryID,
		Email:        req.Email,
		Password:     req.Password,
		QualityLevel: models.Plan(req.QualityLevel),
		SuccessRate:  req.SuccessRate,
	})
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, account)
}

type accountUpdateRequest struct {
	CategoryID   *int64  `json:"category_id"`
	Email        *string `json:"email"`
	Password     *string `json:"password"`
	QualityLevel *string `json:"quality_level"`
	SuccessRate  *int    `json:"success_rate"`
}

func (s *Server) handleAdminUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req accountUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	existing, err := s.deps.Accounts.Get(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if existing == nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	if req.CategoryID != nil {
		existing.CategoryID = *req.CategoryID
	}
	if req.Email != nil {
		existing.Email = *req.Email
	}
	if req.Password != nil {
		existing.Password = *req.Password
	}
	if req.QualityLevel != nil {
		existing.QualityLevel = models.Plan(*req.QualityLevel)
	}
	if req.SuccessRate != nil {
		existing.SuccessRate = *req.SuccessRate
	}
	account, err := s.deps.Accounts.Update(r.Context(), existing)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, account)
}

type idsRequest struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) handleAdminDeleteAccounts(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	deleted, err := s.deps.Accounts.Delete(r.Context(), req.IDs)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

type markUsedRequest struct {
	IDs  []int64 `json:"ids"`
	Used bool    `json:"used"`
}

func (s *Server) handleAdminMarkUsed(w http.ResponseWriter, r *http.Request) {
	var req markUsedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.deps.Accounts.SetUsed(r.Context(), req.IDs, req.Used); err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"updated": len(req.IDs)})
}

type bulkImportRequest struct {
	CategoryID int64  `json:"category_id"`
	Tier       string `json:"tier"`
	Lines      string `json:"lines"`
}

func (s *Server) handleAdminBulkImport(w http.ResponseWriter, r *http.Request) {
	var req bulkImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.CategoryID <= 0 || req.Lines == "" {
		http.Error(w, "category_id and lines required", http.StatusBadRequest)
		return
	}
	inserted, err := s.deps.Accounts.BulkImport(r.Context(), req.CategoryID, models.Plan(req.Tier), req.Lines)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"imported": inserted})
}

type batchGenerateRequest struct {
	CategoryID int64  `json:"category_id"`
	Tier       string `json:"tier"`
	Count      int    `json:"count"`
}

type batchGeneratedAccount struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type batchGenerateResponse struct {
	CategoryName string                  `json:"category_name"`
	Plan         string                  `json:"plan"`
	Requested    int                     `json:"requested"`
	Generated    int                     `json:"generated"`
	Accounts     []batchGeneratedAccount `json:"accounts"`
}

func (s *Server) handleAdminBatchGenerate(w http.ResponseWriter, r *http.Request) {
	var req batchGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.CategoryID <= 0 {
		http.Error(w, "category_id required", http.StatusBadRequest)
		return
	}

	actor, _, _ := r.BasicAuth()
	result, err := s.deps.Generation.GenerateBatch(r.Context(), req.CategoryID, models.Plan(req.Tier), req.Count, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidBatchCount):
			http.Error(w, "count must be between 1 and 100", http.StatusBadRequest)
		case errors.Is(err, service.ErrCategoryNotFound):
			http.Error(w, "category not found", http.StatusNotFound)
		default:
			s.internalError(w, err)
		}
		return
	}

	resp := batchGenerateResponse{
		CategoryName: result.CategoryName,
		Plan:         string(result.Plan),
		Requested:    result.Requested,
		Generated:    len(result.Accounts),
		Accounts:     make([]batchGeneratedAccount, 0, len(result.Accounts)),
	}
	for _, acc := range result.Accounts {
		resp.Accounts = append(resp.Accounts, batchGeneratedAccount{Email: acc.Email, Password: acc.Password})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminValidateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	user, _, _ := r.BasicAuth()
	result, err := s.deps.Accounts.Validate(r.Context(), id, user)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type validationRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (s *Server) handleAdminSetValidation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req validationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	status := models.ValidationStatus(req.Status)
	switch status {
	case models.ValidationUnknown, models.ValidationValid, models.ValidationInvalid,
		models.ValidationTesting, models.ValidationExpired:
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	user, _, _ := r.BasicAuth()
	if err := s.deps.Accounts.SetValidation(r.Context(), id, status, req.Notes, user); err != nil {
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminListPromos(w http.ResponseWriter, r *http.Request) {
	promos, err := s.deps.Promos.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, promos)
}

type promoRequest struct {
	Code      string     `json:"code"`
	Plan      string     `json:"plan"`
	MaxUses   int        `json:"max_uses"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (s *Server) handleAdminCreatePromo(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	promo, err := s.deps.Promos.Create(r.Context(), &models.PromoCode{
		Code:      req.Code,
		Plan:      models.Plan(req.Plan),
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, promo)
}

type promoUpdateRequest struct {
	Code        *string    `json:"code"`
	Plan        *string    `json:"plan"`
	MaxUses     *int       `json:"max_uses"`
	CurrentUses *int       `json:"current_uses"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func (s *Server) handleAdminUpdatePromo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req promoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	existing, err := s.deps.Promos.GetByID(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if existing == nil {
		http.Error(w, "promo not found", http.StatusNotFound)
		return
	}
	if req.Code != nil && *req.Code != "" {
		existing.Code = *req.Code
	}
	if req.Plan != nil {
		existing.Plan = models.Plan(*req.Plan)
	}
	if req.MaxUses != nil && *req.MaxUses > 0 {
		existing.MaxUses = *req.MaxUses
	}
	if req.CurrentUses != nil && *req.CurrentUses >= 0 {
		existing.CurrentUses = *req.CurrentUses
	}
	if req.ExpiresAt != nil {
		existing.ExpiresAt = req.ExpiresAt
	}
	if existing.CurrentUses > existing.MaxUses {
		http.Error(w, "current_uses cannot exceed max_uses", http.StatusBadRequest)
		return
	}
	promo, err := s.deps.Promos.Update(r.Context(), existing)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, promo)
}

func (s *Server) handleAdminDeletePromo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := s.deps.Promos.Delete(r.Context(), id); err != nil {
		s.badRequest(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.History.List(r.Context(), parseLimit(r, 100))
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAdminActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Activity.List(r.Context(), parseLimit(r, 100))
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAdminGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleAdminSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req models.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.RateLimitPerMinute < 0 || req.LowStockThreshold < 0 {
		http.Error(w, "limits cannot be negative", http.StatusBadRequest)
		return
	}
	settings, err := s.deps.Settings.Save(r.Context(), &req)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleAdminListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.deps.APIKeys.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, keys)
}

type apiKeyRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAdminCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	key, err := s.deps.APIKeys.Create(r.Context(), &models.APIKey{
		Name: req.Name,
		Key:  "sk_" + uuid.NewString(),
	})
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, key)
}

func (s *Server) handleAdminDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := s.deps.APIKeys.Delete(r.Context(), id); err != nil {
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
