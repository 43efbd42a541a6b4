package httputil_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"employee-service/internal/httputil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	httputil.RespondWithError(w, http.StatusNotFound, "Employee not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Employee not found"}`, w.Body.String())
}

func TestRespondWithFieldErrors(t *testing.T) {
	w := httptest.NewRecorder()
	httputil.RespondWithFieldErrors(w, http.StatusBadRequest, "Invalid input", map[string]string{"name": "This field is required."})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid input", body.Error)
	assert.Equal(t, "This field is required.", body.Fields["name"])
}

func TestRespondWithJSON_Unencodable(t *testing.T) {
	w := httptest.NewRecorder()
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
