package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carehours/backend/internal/application/payroll"
	"github.com/carehours/backend/internal/application/timesheet"
	"github.com/carehours/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upload posts a multipart payroll file with the given form fields
func upload(t *testing.T, env *testEnv, fileName string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

var marchPeriod = map[string]string{"period_start": "2026-03-01", "period_end": "2026-03-15"}

func TestPayrollHandler_UploadProcessReconcile(t *testing.T) {
	env := newTestEnv(t, nil)

	provider := createProvider(t, env, "grace@example.com")
	client := createClient(t, env, "Ada", "Lovelace")

	// two approved hours on the books for the period
	w := testutil.Do(t, env.engine, http.MethodPost, "/api/v1/timesheets", map[string]any{
		"provider_id":  provider.ID,
		"period_start": "2026-03-01T00:00:00Z",
		"period_end":   "2026-03-15T00:00:00Z",
		"entries":      []any{entry(client.ID, "2026-03-03T00:00:00Z", 120)},
	}, nil)
	ts := testutil.RequireData[timesheet.TimesheetResponse](t, w, http.StatusCreated)
	testutil.RequireData[timesheet.TimesheetResponse](t,
		testutil.Do(t, env.engine, http.MethodPost, "/api/v1/timesheets/"+ts.ID.String()+"/submit", nil, nil), http.StatusOK)
	testutil.RequireData[timesheet.TimesheetResponse](t,
		testutil.Do(t, env.engine, http.MethodPost, "/api/v1/timesheets/"+ts.ID.String()+"/approve", nil, nil), http.StatusOK)

	csv := "provider,work_date,hours,memo\n" +
		"grace@example.com,2026-03-03,2.5,home visit\n" +
		"nobody@example.com,2026-03-04,1,\n"

	w = upload(t, env, "march.csv", []byte(csv), marchPeriod)
	imp := testutil.RequireData[payroll.ImportResponse](t, w, http.StatusCreated)
	assert.Equal(t, "march.csv", imp.FileName)
	assert.Equal(t, "validated", imp.Status)
	assert.Equal(t, 2, imp.TotalRows)
	assert.Equal(t, 1, imp.ValidRows)
	assert.Equal(t, 1, imp.ErrorRows)
	require.Len(t, imp.Rows, 2)
	assert.Contains(t, imp.Rows[1].Error, "not found")
	// pay defaults to the provider's rate
	assert.True(t, decimal.RequireFromString("80").Equal(imp.TotalPay), imp.TotalPay.String())

	path := "/api/v1/payroll/imports/" + imp.ID.String()

	w = testutil.Do(t, env.engine, http.MethodGet, path+"/reconcile", nil, nil)
	rec := testutil.RequireData[payroll.ReconcileResponse](t, w, http.StatusOK)
	assert.False(t, rec.Matched)
	require.Len(t, rec.Variances, 1)
	v := rec.Variances[0]
	assert.Equal(t, provider.ID, v.ProviderID)
	assert.Equal(t, "Grace Hopper", v.ProviderName)
	assert.True(t, decimal.RequireFromString("2.5").Equal(v.ImportedHours), v.ImportedHours.String())
	assert.True(t, decimal.NewFromInt(2).Equal(v.TimesheetHours), v.TimesheetHours.String())

	w = testutil.Do(t, env.engine, http.MethodPost, path+"/process", nil, nil)
	processed := testutil.RequireData[payroll.ImportResponse](t, w, http.StatusOK)
	assert.Equal(t, "processed", processed.Status)
	require.NotNil(t, processed.ProcessedBy)
	assert.Equal(t, env.userID, *processed.ProcessedBy)

	w = testutil.Do(t, env.engine, http.MethodPost, path+"/process", nil, nil)
	testutil.AssertError(t, w, http.StatusBadRequest, "")

	assert.Contains(t, env.publisher.Types(), "payroll.processed")
}

func TestPayrollHandler_UploadRejections(t *testing.T) {
	env := newTestEnv(t, nil)
	csv := []byte("provider,work_date,hours\ngrace@example.com,2026-03-03,1\n")

	tests := []struct {
		name       string
		fileName   string
		content    []byte
		fields     map[string]string
		wantStatus int
		wantCode   string
	}{
		{"not a csv", "hours.xlsx", csv, marchPeriod, http.StatusUnsupportedMediaType, ""},
		{"too large", "big.csv", bytes.Repeat([]byte("x"), maxPayrollFileSize+1), marchPeriod, http.StatusRequestEntityTooLarge, ""},
		{"missing period", "march.csv", csv, map[string]string{"period_start": "2026-03-01"}, http.StatusBadRequest, ""},
		{"inverted period", "march.csv", csv, map[string]string{"period_start": "2026-03-15", "period_end": "2026-03-01"}, http.StatusBadRequest, "ERR_INVALID_PERIOD"},
		{"missing columns", "march.csv", []byte("provider,hours\nx,1\n"), marchPeriod, http.StatusBadRequest, "ERR_MISSING_COLUMNS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := upload(t, env, tt.fileName, tt.content, tt.fields)
			testutil.AssertError(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}
