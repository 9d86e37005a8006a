package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acchub/acchub/internal/models"
)

func TestSendGeneration(t *testing.T) {
	var got struct {
		Embeds []struct {
			Title  string `json:"title"`
			Color  int    `json:"color"`
			Fields []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"fields"`
			Footer struct {
				Text string `json:"text"`
			} `json:"footer"`
		} `json:"embeds"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotifier(5*time.Second, nil)
	err := n.SendGeneration(context.Background(), srv.URL, Generation{
		AccountEmail: "acc@mail.com",
		CategoryName: "Netflix",
		UserName:     "someone",
		Plan:         models.PlanVIP,
		At:           time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, got.Embeds, 1)
	e := got.Embeds[0]
	assert.Equal(t, "✅ Account Generated Successfully!", e.Title)
	assert.Equal(t, 0x00ff00, e.Color)
	require.Len(t, e.Fields, 3)
	assert.Equal(t, "👤 User", e.Fields[0].Name)
	assert.Equal(t, "someone", e.Fields[0].Value)
	assert.Equal(t, "👑 **VIP**", e.Fields[1].Value)
	assert.Equal(t, "Acc Hub - Account Generator Platform", e.Footer.Text)
}

func TestSendGenerationEmptyURL(t *testing.T) {
	n := NewNotifier(time.Second, nil)
	assert.NoError(t, n.SendGeneration(context.Background(), "  ", Generation{}))
}

func TestSendGenerationServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewNotifier(time.Second, nil)
	err := n.SendGeneration(context.Background(), srv.URL, Generation{Plan: models.PlanFree, At: time.Now()})
	assert.Error(t, err)
}
