// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mintcart/mintcart-backend/internal/utils"
)

type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RequestLogger logs every request; failed responses include their error code.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   duration.Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if address, chainID, ok := utils.GetWalletFromContext(c); ok {
			fields["wallet"] = address
			fields["chain_id"] = chainID
		}

		entry := logrus.WithFields(fields)
		if c.Writer.Status() >= 400 {
			var resp utils.APIResponse
			if json.Unmarshal(blw.body.Bytes(), &resp) == nil && resp.Error != nil {
				entry = entry.WithField("error_code", resp.Error.Code)
			}
			if c.Writer.Status() >= 500 {
				entry.Error("Request failed")
				return
			}
			entry.Warn("Request rejected")
			return
		}
		entry.Info("Request processed")
	}
}
