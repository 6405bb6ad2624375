package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/carehours/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entryRequest struct {
	WorkDate string          `json:"work_date" binding:"required,datetime=2006-01-02"`
	Minutes  int             `json:"minutes" binding:"required,gt=0,lte=1440"`
	Email    string          `json:"email" binding:"omitempty,email"`
	Memo     string          `json:"memo" binding:"max=5"`
	Rate     decimal.Decimal `json:"rate" binding:"money"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/entries", func(c *gin.Context) {
		var req entryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	router := newValidationRouter()

	rec := postJSON(router, `{"work_date":"03/02/2026","minutes":2000,"email":"nope","memo":"far too long"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	byField := map[string]dto.ValidationDetail{}
	for _, d := range resp.Error.Details {
		byField[d.Field] = d
	}
	require.Len(t, byField, 4)
	assert.Equal(t, "Must be a date in the format 2006-01-02", byField["work_date"].Message)
	assert.Equal(t, "Must be less than or equal to 1440", byField["minutes"].Message)
	assert.Equal(t, "Invalid email format", byField["email"].Message)
	assert.Equal(t, "Must be at most 5 characters", byField["memo"].Message)
	assert.Equal(t, "max", byField["memo"].Code)
}

func TestHandleValidationError_Required(t *testing.T) {
	router := newValidationRouter()

	rec := postJSON(router, `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Error.Details, 2)
	for _, d := range resp.Error.Details {
		assert.Equal(t, "This field is required", d.Message)
	}
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	router := newValidationRouter()

	rec := postJSON(router, `{"minutes":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}

func TestHandleValidationError_Valid(t *testing.T) {
	router := newValidationRouter()

	rec := postJSON(router, `{"work_date":"2026-03-02","minutes":90}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleValidationError_Money(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		rate string
		want int
	}{
		{`"12.50"`, http.StatusOK},
		{`0`, http.StatusOK},
		{`"12.505"`, http.StatusBadRequest},
		{`"-1"`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			rec := postJSON(router, `{"work_date":"2026-03-02","minutes":90,"rate":`+tt.rate+`}`)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want == http.StatusBadRequest {
				var resp dto.Response
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				require.Len(t, resp.Error.Details, 1)
				assert.Equal(t, "rate", resp.Error.Details[0].Field)
				assert.Equal(t, "money", resp.Error.Details[0].Code)
			}
		})
	}
}
