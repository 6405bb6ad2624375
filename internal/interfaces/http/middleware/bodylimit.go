package middleware

import (
	"net/http"
	"strings"

	"github.com/carehours/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at maxBytes, or at uploadBytes for
// multipart uploads such as payroll CSV files
func BodyLimit(maxBytes, uploadBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if uploadBytes > 0 && strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			limit = uploadBytes
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size", c.GetString("request_id")))
			return
		}

		// Chunked bodies carry no length; MaxBytesReader stops them while reading.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
