package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/duynguyendang/tripsim/internal/manager"
	"github.com/duynguyendang/tripsim/internal/testutil"
	"github.com/duynguyendang/tripsim/pkg/catalogue"
	"github.com/duynguyendang/tripsim/pkg/lf"
	"github.com/duynguyendang/tripsim/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tell = "((SPEECHACT V1 SA_TELL :CONTENT V2))"

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mgr, err := manager.New(t.TempDir(), 2, false)
	require.NoError(t, err)
	t.Cleanup(mgr.CloseAll)

	st, err := mgr.Create("speech", "speech acts")
	require.NoError(t, err)
	for desc, text := range map[string]string{
		"request":   "((SPEECHACT ?s SA_REQUEST :CONTENT ?c))",
		"statement": "((SPEECHACT ?s SA_TELL :CONTENT ?c))",
	} {
		rules, err := lf.ParseRules(text)
		require.NoError(t, err)
		require.NoError(t, st.Put(catalogue.Entry{Description: desc, Rules: rules}))
	}

	svc, err := service.New(testutil.Hierarchy(t), mgr, nil, service.Options{Workers: 2})
	require.NoError(t, err)
	return NewServer(svc)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	s := setupTestServer(t)

	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDEchoed(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestMatch(t *testing.T) {
	s := setupTestServer(t)
	body := map[string]any{"rules": "((SPEECHACT ?s SA_TELL :CONTENT ?c))", "parse": tell}

	w := do(t, s, http.MethodPost, "/v1/match", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, 1.0, res["score"])
	assert.Len(t, res["pairs"], 1)

	w = do(t, s, http.MethodPost, "/v1/match?format=d3", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	graph := decode(t, w)
	assert.Len(t, graph["nodes"], 2)
}

func TestMatchErrors(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name string
		body any
		code int
	}{
		{"bad body", "not an object", http.StatusBadRequest},
		{"missing parse", map[string]any{"rules": "((F ?x))"}, http.StatusBadRequest},
		{"malformed rules", map[string]any{"rules": "((F ?x", "parse": tell}, http.StatusBadRequest},
		{"too few nodes", map[string]any{"rules": "((F ?x) (F ?y))", "parse": tell}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/v1/match", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestGrade(t *testing.T) {
	s := setupTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/grade", map[string]any{"parse": tell, "catalogue": "speech"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode(t, w)
	graded := report["graded"].([]any)
	require.Len(t, graded, 2)
	best := int(report["best"].(float64))
	assert.Equal(t, "statement", graded[best].(map[string]any)["description"])
	assert.NotEmpty(t, report["run_id"])

	w = do(t, s, http.MethodPost, "/v1/grade", map[string]any{
		"parse":   tell,
		"entries": []map[string]string{{"description": "two frames", "rules": "((F ?a) (F ?b))"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = do(t, s, http.MethodPost, "/v1/grade", map[string]any{"parse": tell})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = do(t, s, http.MethodPost, "/v1/grade", map[string]any{"parse": tell, "catalogue": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestCatalogues(t *testing.T) {
	s := setupTestServer(t)

	w := do(t, s, http.MethodGet, "/v1/catalogues", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []manager.CatalogueMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []manager.CatalogueMetadata{{Name: "speech", Description: "speech acts"}}, list)

	w = do(t, s, http.MethodGet, "/v1/catalogues/speech", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []entryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Contains(t, e.Rules, "SPEECHACT")
	}

	w = do(t, s, http.MethodGet, "/v1/catalogues/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOntology(t *testing.T) {
	s := setupTestServer(t)

	w := do(t, s, http.MethodGet, "/v1/ontology/grass", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode(t, w)
	assert.Equal(t, "GRASS", info["name"])
	assert.Equal(t, []any{"PLANT", "PHYS-OBJECT", "ROOT"}, info["ancestors"])

	w = do(t, s, http.MethodGet, "/v1/ontology/GRAS", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	hints := decode(t, w)["hints"].([]any)
	require.NotEmpty(t, hints)
	assert.Contains(t, hints[0], "GRASS")
}
