package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRPCMethods(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []string
	}{
		{name: "single request", body: `{"jsonrpc":"2.0","id":1,"method":"wallet_sendTransaction","params":[]}`, expected: []string{"wallet_sendTransaction"}},
		{name: "batch request", body: `[{"id":1,"method":"wallet_getCapabilities"},{"id":2,"method":"odyssey_sendTransaction"}]`, expected: []string{"wallet_getCapabilities", "odyssey_sendTransaction"}},
		{name: "empty body", body: "", expected: nil},
		{name: "not json", body: "hello", expected: nil},
		{name: "no method", body: `{"id":1}`, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rpcMethods([]byte(tt.body)))
		})
	}
}

func TestEnhancedLoggingMiddleware_PreservesBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, isDevelopment := range []bool{true, false} {
		router := gin.New()
		router.Use(CorrelationIDMiddleware(), EnhancedLoggingMiddleware(isDevelopment), RequestLoggingMiddleware())

		var received string
		router.POST("/", func(c *gin.Context) {
			body, _ := io.ReadAll(c.Request.Body)
			received = string(body)
			c.Status(http.StatusOK)
		})

		payload := `{"jsonrpc":"2.0","id":1,"method":"wallet_getCapabilities"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, payload, received)
	}
}
