// Package export renders the admin data dumps and parses the matching
// imports. Column orders are fixed so exports round-trip through the
// importers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/acchub/acchub/internal/models"
)

var (
	categoryHeader = []string{"id", "name", "image_url", "created_at"}
	accountHeader  = []string{"id", "category_name", "email", "password", "is_used", "created_at", "used_at"}
	historyHeader  = []string{"id", "category_name", "email", "generated_at", "ip_address"}
)

func WriteCategories(w io.Writer, categories []models.Category) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(categoryHeader); err != nil {
		return fmt.Errorf("write categories header: %w", err)
	}
	for _, cat := range categories {
		row := []string{
			strconv.FormatInt(cat.ID, 10),
			cat.Name,
			cat.ImageURL,
			formatTime(cat.CreatedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write category row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAccounts resolves category_id through the supplied name map so the
// dump carries human-readable category names.
func WriteAccounts(w io.Writer, accounts []models.Account, categoryNames map[int64]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(accountHeader); err != nil {
		return fmt.Errorf("write accounts header: %w", err)
	}
	for _, acc := range accounts {
		usedAt := ""
		if acc.UsedAt != nil {
			usedAt = formatTime(*acc.UsedAt)
		}
		row := []string{
			strconv.FormatInt(acc.ID, 10),
			categoryNames[acc.CategoryID],
			acc.Email,
			acc.Password,
			strconv.FormatBool(acc.IsUsed),
			formatTime(acc.CreatedAt),
			usedAt,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write account row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteHistory(w io.Writer, entries []models.GenerationHistory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return fmt.Errorf("write history header: %w", err)
	}
	for _, entry := range entries {
		row := []string{
			strconv.FormatInt(entry.ID, 10),
			entry.CategoryName,
			entry.Email,
			formatTime(entry.GeneratedAt),
			entry.IPAddress,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write history row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportedCategory is a CSV row from a categories import; only name and
// image_url are honored, ids are always reassigned.
type ImportedCategory struct {
	Name     string
	ImageURL string
}

func ParseCategories(r io.Reader) ([]ImportedCategory, error) {
	records, idx, err := readWithHeader(r)
	if err != nil {
		return nil, err
	}
	nameCol, ok := idx["name"]
	if !ok {
		return nil, fmt.Errorf("categories import: missing name column")
	}
	imageCol, hasImage := idx["image_url"]

	var out []ImportedCategory
	for _, rec := range records {
		name := strings.TrimSpace(field(rec, nameCol))
		if name == "" {
			continue
		}
		cat := ImportedCategory{Name: name}
		if hasImage {
			cat.ImageURL = strings.TrimSpace(field(rec, imageCol))
		}
		out = append(out, cat)
	}
	return out, nil
}

// ImportedAccount is a CSV row from an accounts import. The category is
// carried by name and resolved to an id by the caller.
type ImportedAccount struct {
	CategoryName string
	Email        string
	Password     string
}

func ParseAccounts(r io.Reader) ([]ImportedAccount, error) {
	records, idx, err := readWithHeader(r)
	if err != nil {
		return nil, err
	}
	emailCol, okEmail := idx["email"]
	passCol, okPass := idx["password"]
	if !okEmail || !okPass {
		return nil, fmt.Errorf("accounts import: missing email or password column")
	}
	catCol, hasCat := idx["category_name"]

	var out []ImportedAccount
	for _, rec := range records {
		acc := ImportedAccount{
			Email:    strings.TrimSpace(field(rec, emailCol)),
			Password: strings.TrimSpace(field(rec, passCol)),
		}
		if acc.Email == "" || acc.Password == "" {
			continue
		}
		if hasCat {
			acc.CategoryName = strings.TrimSpace(field(rec, catCol))
		}
		out = append(out, acc)
	}
	return out, nil
}

// Credential is one parsed line of a bulk paste.
type Credential struct {
	Email    string
	Password string
}

// ParseBulkLines parses colon-separated credentials, one per line. Lines
// without both parts are skipped, matching the forgiving paste box this
// feeds.
func ParseBulkLines(text string) []Credential {
	var out []Credential
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		email, password, found := strings.Cut(line, ":")
		email = strings.TrimSpace(email)
		password = strings.TrimSpace(password)
		if !found || email == "" || password == "" {
			continue
		}
		out = append(out, Credential{Email: email, Password: password})
	}
	return out
}

func readWithHeader(r io.Reader) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("read csv: empty file")
	}
	idx := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return records[1:], idx, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
