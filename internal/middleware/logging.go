package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/cyphera/cyphera-relayer/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// rpcEnvelope is the part of a JSON-RPC request worth logging.
type rpcEnvelope struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// rpcMethods extracts method names from a single or batched JSON-RPC body.
func rpcMethods(body []byte) []string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	if body[0] == '[' {
		var batch []rpcEnvelope
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil
		}
		methods := make([]string, 0, len(batch))
		for _, msg := range batch {
			methods = append(methods, msg.Method)
		}
		return methods
	}

	var msg rpcEnvelope
	if err := json.Unmarshal(body, &msg); err != nil || msg.Method == "" {
		return nil
	}
	return []string{msg.Method}
}

// EnhancedLoggingMiddleware logs JSON-RPC request bodies in development mode
func EnhancedLoggingMiddleware(isDevelopment bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isDevelopment || c.Request.Body == nil || c.Request.Method != "POST" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			c.Next()
			return
		}

		logger.For(logger.ComponentMiddleware).Debug("JSON-RPC request",
			zap.String("correlation_id", GetCorrelationID(c)),
			zap.Strings("rpc_methods", rpcMethods(body)),
			zap.ByteString("body", body),
		)

		c.Next()
	}
}

// RequestLoggingMiddleware logs one line per completed request
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		logger.For(logger.ComponentMiddleware).Info("Request completed",
			zap.String("correlation_id", GetCorrelationID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(startTime)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		)
	}
}
