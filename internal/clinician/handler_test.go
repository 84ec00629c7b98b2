package clinician

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliniclane/previsit-ai/internal/intake"
)

func seededHandler(t *testing.T) (*Handler, *intake.MemoryStore) {
	t.Helper()
	store := intake.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "line:u1", intake.Session{
		Phase:          intake.PhaseSeverity,
		Language:       intake.LanguageChinese,
		ChiefComplaint: "肚子痛",
	}))
	require.NoError(t, store.Save(ctx, "web:u2", intake.Session{})) // untouched session
	return NewHandler(store, "doctor", "secret", nil), store
}

func doRequest(h *Handler, method, path, user, pass string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if user != "" {
		req.SetBasicAuth(user, pass)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHandler_RequiresBasicAuth(t *testing.T) {
	h, _ := seededHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/summaries", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(h, http.MethodGet, "/api/summaries", "doctor", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(h, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_ListSummaries(t *testing.T) {
	h, _ := seededHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/summaries", "doctor", "secret")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []SummaryItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1, "empty sessions must be skipped")
	assert.Equal(t, "line:u1", items[0].UserID)
	assert.Equal(t, "SEVERITY", items[0].Phase)
	assert.Contains(t, items[0].Summary, "Chief complaint: 肚子痛")
}

func TestHandler_Dashboard(t *testing.T) {
	h, _ := seededHandler(t)

	rec := doRequest(h, http.MethodGet, "/", "doctor", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "醫師儀表板")
}

func TestHandler_Archive(t *testing.T) {
	h, store := seededHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/archive/line:u1", "doctor", "secret")
	require.Equal(t, http.StatusOK, rec.Code)

	ids, err := store.ListActive(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, ids, "line:u1")
}
