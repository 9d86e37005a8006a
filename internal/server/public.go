package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/acchub/acchub/internal/service"
)

type categoryEntry struct {
	service.CategoryWithStock
	LowStock bool `json:"low_stock"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.deps.Catalog.ListWithStock(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}

	threshold := 0
	if settings, err := s.deps.Settings.Get(r.Context()); err != nil {
		s.log.Error("load settings for stock annotation", "err", err)
	} else {
		threshold = settings.LowStockThreshold
	}

	out := make([]categoryEntry, 0, len(categories))
	for _, cat := range categories {
		entry := categoryEntry{CategoryWithStock: cat}
		if threshold > 0 && cat.FreeStock+cat.VIPStock < threshold {
			entry.LowStock = true
		}
		out = append(out, entry)
	}
	s.writeJSON(w, http.StatusOK, out)
}

type generateRequest struct {
	CategoryID int64  `json:"category_id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
}

type generateResponse struct {
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
	CategoryName string `json:"category_name"`
	Plan         string `json:"plan"`
	SoldOut      bool   `json:"sold_out"`
	Message      string `json:"message,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	if settings.MaintenanceMode {
		http.Error(w, "platform is under maintenance, try again later", http.StatusServiceUnavailable)
		return
	}

	ip := clientIP(r)
	if !s.limiter.Allow(ip, settings.RateLimitPerMinute) {
		http.Error(w, "too many requests, slow down", http.StatusTooManyRequests)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.CategoryID <= 0 {
		http.Error(w, "category_id required", http.StatusBadRequest)
		return
	}

	if req.UserID != "" {
		if _, err := s.deps.Profiles.Touch(r.Context(), req.UserID, req.Username, ""); err != nil {
			s.internalError(w, err)
			return
		}
	}

	result, err := s.deps.Generation.Generate(r.Context(), service.GenerateRequest{
		CategoryID: req.CategoryID,
		UserID:     req.UserID,
		Username:   req.Username,
		IP:         ip,
	})
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}
		s.internalError(w, err)
		return
	}

	resp := generateResponse{
		CategoryName: result.CategoryName,
		Plan:         string(result.Plan),
		SoldOut:      result.SoldOut,
	}
	if result.SoldOut {
		resp.Message = "No accounts available right now, check back soon!"
		s.writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Email = result.Account.Email
	resp.Password = result.Account.Password
	s.writeJSON(w, http.StatusOK, resp)
}

type redeemRequest struct {
	Code   string `json:"code"`
	UserID string `json:"user_id"`
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.UserID == "" {
		http.Error(w, "code and user_id required", http.StatusBadRequest)
		return
	}

	promo, err := s.deps.Promos.Redeem(r.Context(), req.Code, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromoInvalid):
			http.Error(w, "invalid promo code", http.StatusNotFound)
		case errors.Is(err, service.ErrPromoExpired):
			http.Error(w, "promo code expired", http.StatusGone)
		case errors.Is(err, service.ErrPromoExhausted):
			http.Error(w, "promo code has no uses left", http.StatusConflict)
		default:
			s.internalError(w, err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"code": promo.Code,
		"plan": promo.Plan,
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	profile, err := s.deps.Profiles.Get(r.Context(), userID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if profile == nil {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Stats.Snapshot(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// clientIP trusts middleware.RealIP to have rewritten RemoteAddr from the
// forwarding headers. RealIP writes a bare address with no port, so the
// host:port split has to be a fallback, not an assumption.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.Trim(r.RemoteAddr, "[]")
}
