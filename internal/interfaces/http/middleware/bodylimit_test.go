package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/carehours/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func bodyLimitRouter() *gin.Engine {
	router := gin.New()
	router.Use(BodyLimit(100, 1000))
	router.POST("/test", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, "ok")
	})
	return router
}

func postBody(router *gin.Engine, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBodyLimit(t *testing.T) {
	router := bodyLimitRouter()

	t.Run("within limit", func(t *testing.T) {
		rec := postBody(router, "application/json", strings.NewReader(`{"a":1}`))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("declared length over limit", func(t *testing.T) {
		rec := postBody(router, "application/json", strings.NewReader(strings.Repeat("x", 200)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, dto.ErrCodePayloadTooLarge, errorCode(t, rec))
	})

	t.Run("multipart gets the upload limit", func(t *testing.T) {
		rec := postBody(router, "multipart/form-data; boundary=x", strings.NewReader(strings.Repeat("x", 500)))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = postBody(router, "multipart/form-data; boundary=x", strings.NewReader(strings.Repeat("x", 1500)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("unknown length stopped while reading", func(t *testing.T) {
		body := io.MultiReader(strings.NewReader(strings.Repeat("x", 150)))
		req := httptest.NewRequest(http.MethodPost, "/test", body)
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}
