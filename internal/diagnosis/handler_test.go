package diagnosis

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.GET("/", h.Status)
	r.GET("/api/symptoms", h.Symptoms)
	r.POST("/api/diagnose", h.Diagnose)
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/diagnose", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

func TestDiagnoseEndpoint_OK(t *testing.T) {
	r := newRouter(NewService(trainedModel(t)))

	w := post(r, `{"symptoms": ["Fever", "cough"], "auto_use_suggestions": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var d Diagnosis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	require.NotEmpty(t, d.Results)
	assert.Equal(t, "flu", d.Results[0].Disease)
	assert.Equal(t, []string{"fever", "cough"}, d.MatchedSymptoms)
	assert.Contains(t, w.Body.String(), `"confidence_level"`)
}

func TestDiagnoseEndpoint_StringFormMatchesList(t *testing.T) {
	r := newRouter(NewService(trainedModel(t)))

	list := post(r, `{"symptoms": ["fever", "cough"]}`)
	joined := post(r, `{"symptoms": "fever, cough"}`)

	require.Equal(t, http.StatusOK, list.Code)
	require.Equal(t, http.StatusOK, joined.Code)
	assert.JSONEq(t, list.Body.String(), joined.Body.String())
}

func TestDiagnoseEndpoint_ClientErrors(t *testing.T) {
	r := newRouter(NewService(trainedModel(t)))

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty list", `{"symptoms": []}`, "no symptoms provided"},
		{"blank string", `{"symptoms": " , "}`, "no symptoms provided"},
		{"unknown symptom", `{"symptoms": ["not_a_real_symptom"]}`, "no valid symptoms"},
		{"missing field", `{"complaint": "fever"}`, "symptoms field is required"},
		{"null field", `{"symptoms": null}`, "symptoms field is required"},
		{"wrong type", `{"symptoms": [1, 2]}`, "list of strings"},
		{"not json", `fever, cough`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, errorOf(t, w), tt.want)
		})
	}
}

func TestDiagnoseEndpoint_NotInitialized(t *testing.T) {
	r := newRouter(Uninitialized(nil))

	w := post(r, `{"symptoms": ["fever"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "model not initialized", errorOf(t, w))

	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/symptoms", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	newRouter(NewService(trainedModel(t))).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"model_loaded":true`)
	assert.Contains(t, w.Body.String(), `"diseases":2`)

	w = httptest.NewRecorder()
	newRouter(Uninitialized(nil)).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"model_loaded":false`)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestSymptomsEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/symptoms", nil)
	newRouter(NewService(trainedModel(t))).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Symptoms []string `json:"symptoms"`
		Count    int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"cough", "fever", "headache", "itching", "sneezing"}, body.Symptoms)
	assert.Equal(t, 5, body.Count)
}

func TestParseSymptoms(t *testing.T) {
	got, err := ParseSymptoms(json.RawMessage(`"a,b , c"`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b ", " c"}, got)

	got, err = ParseSymptoms(json.RawMessage(`["a"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	_, err = ParseSymptoms(nil)
	assert.ErrorIs(t, err, errMissingSymptoms)

	_, err = ParseSymptoms(json.RawMessage(`{"a":1}`))
	assert.ErrorIs(t, err, errSymptomsType)
}
