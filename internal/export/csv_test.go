package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acchub/acchub/internal/models"
)

func TestWriteAccounts(t *testing.T) {
	usedAt := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	accounts := []models.Account{
		{
			ID:         1,
			CategoryID: 7,
			Email:      "a@b.com",
			Password:   `p"w,d`,
			IsUsed:     true,
			UsedAt:     &usedAt,
			CreatedAt:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:         2,
			CategoryID: 9,
			Email:      "c@d.com",
			Password:   "secret",
			CreatedAt:  time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	names := map[int64]string{7: "Netflix", 9: "Spotify"}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts, names))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,category_name,email,password,is_used,created_at,used_at", lines[0])
	assert.Equal(t, `1,Netflix,a@b.com,"p""w,d",true,2026-02-01T00:00:00Z,2026-03-01T10:30:00Z`, lines[1])
	assert.Equal(t, "2,Spotify,c@d.com,secret,false,2026-02-02T00:00:00Z,", lines[2])
}

func TestWriteHistoryHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, nil))
	assert.Equal(t, "id,category_name,email,generated_at,ip_address\n", buf.String())
}

func TestExportImportRoundTrip(t *testing.T) {
	accounts := []models.Account{
		{ID: 1, CategoryID: 7, Email: "a@b.com", Password: "pw1", CreatedAt: time.Now()},
		{ID: 2, CategoryID: 7, Email: "c@d.com", Password: "pw2", CreatedAt: time.Now()},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts, map[int64]string{7: "Netflix"}))

	imported, err := ParseAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, ImportedAccount{CategoryName: "Netflix", Email: "a@b.com", Password: "pw1"}, imported[0])
}

func TestParseCategories(t *testing.T) {
	in := strings.NewReader("name,image_url\nNetflix,https://img/x.png\n,skipme\nSpotify,\n")
	cats, err := ParseCategories(in)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, ImportedCategory{Name: "Netflix", ImageURL: "https://img/x.png"}, cats[0])
	assert.Equal(t, ImportedCategory{Name: "Spotify"}, cats[1])
}

func TestParseCategoriesMissingNameColumn(t *testing.T) {
	_, err := ParseCategories(strings.NewReader("id,image_url\n1,x\n"))
	assert.Error(t, err)
}

func TestParseBulkLines(t *testing.T) {
	text := "a@b.com:pass1\n\n  c@d.com : pass2  \nbroken-line\nno-pass:\n:no-email\ne@f.com:with:colon"
	creds := ParseBulkLines(text)
	require.Len(t, creds, 3)
	assert.Equal(t, Credential{Email: "a@b.com", Password: "pass1"}, creds[0])
	assert.Equal(t, Credential{Email: "c@d.com", Password: "pass2"}, creds[1])
	assert.Equal(t, Credential{Email: "e@f.com", Password: "with:colon"}, creds[2])
}
