// handler/health_handler_test.go
package handler_test

import (
	"go-ledger-api/handler"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck(t *testing.T) {
	req, _ := http.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	handler.HealthCheck(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	expectedBody := `{"status":"Ledger API is healthy and running"}`
	assert.JSONEq(t, expectedBody, rr.Body.String())
}
