package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/carehours/backend/internal/application/notification"
	"github.com/carehours/backend/internal/infrastructure/scheduler"
	"github.com/carehours/backend/internal/interfaces/http/dto"
	"github.com/carehours/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockJobRunner struct {
	mock.Mock
}

func (m *mockJobRunner) TriggerManualRun(name string) error {
	return m.Called(name).Error(0)
}

func (m *mockJobRunner) GetStatus() []scheduler.JobStatus {
	args := m.Called()
	return args.Get(0).([]scheduler.JobStatus)
}

func TestEmailHandler_Drain(t *testing.T) {
	tests := []struct {
		name       string
		runErr     error
		wantStatus int
	}{
		{"started", nil, http.StatusAccepted},
		{"already running", scheduler.ErrJobRunning, http.StatusConflict},
		{"scheduler stopped", scheduler.ErrSchedulerNotRunning, http.StatusServiceUnavailable},
		{"unexpected failure", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := new(mockJobRunner)
			jobs.On("TriggerManualRun", notification.DrainJobName).Return(tt.runErr).Once()
			env := newTestEnv(t, jobs)

			w := testutil.Do(t, env.engine, http.MethodPost, "/api/v1/emails/drain", nil, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			jobs.AssertExpectations(t)
		})
	}

	t.Run("no scheduler", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := testutil.Do(t, env.engine, http.MethodPost, "/api/v1/emails/drain", nil, nil)
		testutil.AssertError(t, w, http.StatusServiceUnavailable, dto.ErrCodeInternal)

		w = testutil.Do(t, env.engine, http.MethodGet, "/api/v1/emails/drain", nil, nil)
		assert.Empty(t, testutil.RequireData[[]scheduler.JobStatus](t, w, http.StatusOK))
	})
}

func TestEmailHandler_DrainStatus(t *testing.T) {
	jobs := new(mockJobRunner)
	jobs.On("GetStatus").Return([]scheduler.JobStatus{
		{Name: notification.DrainJobName, Schedule: "@every 1m", Running: true},
	})
	env := newTestEnv(t, jobs)

	w := testutil.Do(t, env.engine, http.MethodGet, "/api/v1/emails/drain", nil, nil)
	status := testutil.RequireData[[]scheduler.JobStatus](t, w, http.StatusOK)
	require.Len(t, status, 1)
	assert.Equal(t, notification.DrainJobName, status[0].Name)
	assert.True(t, status[0].Running)
}

func TestEmailHandler_EnqueueAndCancel(t *testing.T) {
	env := newTestEnv(t, nil)

	w := testutil.Do(t, env.engine, http.MethodPost, "/api/v1/emails", map[string]any{
		"to":        []string{"family@example.com"},
		"subject":   "Statement",
		"text_body": "Your statement is attached.",
	}, nil)
	queued := testutil.RequireData[notification.EmailResponse](t, w, http.StatusCreated)
	assert.Equal(t, "pending", queued.Status)
	assert.Equal(t, []string{"family@example.com"}, queued.To)

	path := "/api/v1/emails/" + queued.ID.String()

	w = testutil.Do(t, env.engine, http.MethodPost, path+"/retry", nil, nil)
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeInvalidState)

	cancelled := testutil.RequireData[notification.EmailResponse](t,
		testutil.Do(t, env.engine, http.MethodPost, path+"/cancel", nil, nil), http.StatusOK)
	assert.Equal(t, "cancelled", cancelled.Status)

	w = testutil.Do(t, env.engine, http.MethodGet, "/api/v1/emails?status=cancelled", nil, nil)
	assert.Len(t, testutil.RequireData[[]notification.EmailResponse](t, w, http.StatusOK), 1)

	w = testutil.Do(t, env.engine, http.MethodPost, "/api/v1/emails", map[string]any{
		"to":      []string{"not-an-email"},
		"subject": "x",
	}, nil)
	testutil.AssertError(t, w, http.StatusBadRequest, "")
}
