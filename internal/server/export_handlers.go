package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/acchub/acchub/internal/export"
	"github.com/acchub/acchub/internal/models"
	"github.com/acchub/acchub/internal/service"
)

func (s *Server) handleExportCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.deps.Catalog.ListWithStock(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	plain := make([]models.Category, 0, len(categories))
	for _, cat := range categories {
		plain = append(plain, cat.Category)
	}
	setCSVHeaders(w, "categories-export.csv")
	if err := export.WriteCategories(w, plain); err != nil {
		s.log.Error("export categories", "err", err)
	}
}

func (s *Server) handleExportAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.deps.Accounts.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	names, err := s.deps.Accounts.CategoryNames(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	setCSVHeaders(w, "accounts-export.csv")
	if err := export.WriteAccounts(w, accounts, names); err != nil {
		s.log.Error("export accounts", "err", err)
	}
}

func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.History.List(r.Context(), parseLimit(r, 10000))
	if err != nil {
		s.internalError(w, err)
		return
	}
	setCSVHeaders(w, "generation-history-export.csv")
	if err := export.WriteHistory(w, entries); err != nil {
		s.log.Error("export history", "err", err)
	}
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("type")
	if period == "" {
		period = "weekly"
	}

	report, err := s.deps.Stats.BuildReport(r.Context(), period)
	if err != nil {
		if errors.Is(err, service.ErrUnknownReportPeriod) {
			http.Error(w, "type must be daily, weekly, monthly, or all", http.StatusBadRequest)
			return
		}
		s.internalError(w, err)
		return
	}

	data := export.ReportData{
		GeneratedAt:     report.GeneratedAt,
		Period:          report.Period,
		TotalAccounts:   report.Stats.TotalAccounts,
		TotalCategories: report.Stats.Categories,
		InPeriod:        report.InPeriod,
	}
	for _, cat := range report.Categories {
		data.Categories = append(data.Categories, export.ReportCategoryRow{Name: cat.Name, Accounts: cat.Accounts})
	}
	for _, entry := range report.Recent {
		data.Recent = append(data.Recent, export.ReportGenerationRow{
			GeneratedAt:  entry.GeneratedAt,
			CategoryName: entry.CategoryName,
			Email:        entry.Email,
		})
	}

	filename := fmt.Sprintf("report-%s-%s.html", period, report.GeneratedAt.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.WriteReport(w, data); err != nil {
		s.log.Error("export report", "err", err)
	}
}

func (s *Server) handleImportCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := export.ParseCategories(r.Body)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	imported := 0
	for _, row := range rows {
		if _, err := s.deps.Catalog.Create(r.Context(), &models.Category{Name: row.Name, ImageURL: row.ImageURL}); err != nil {
			s.log.Error("import category", "name", row.Name, "err", err)
			continue
		}
		imported++
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

func (s *Server) handleImportAccounts(w http.ResponseWriter, r *http.Request) {
	categoryID, _ := parseID(r.URL.Query().Get("category_id"))
	tier := models.Plan(r.URL.Query().Get("tier"))

	rows, err := export.ParseAccounts(r.Body)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	imported, err := s.deps.Accounts.ImportCSV(r.Context(), rows, categoryID, tier)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Backups.Create(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="backup.json"`)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(snap)
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	var snap service.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		http.Error(w, "invalid backup file", http.StatusBadRequest)
		return
	}
	categories, accounts, err := s.deps.Backups.Restore(r.Context(), &snap)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{
		"categories_added": categories,
		"accounts_added":   accounts,
	})
}

func (s *Server) handleBackupToS3(w http.ResponseWriter, r *http.Request) {
	key, err := s.deps.Backups.UploadToS3(r.Context())
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

func setCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}
