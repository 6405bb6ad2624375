package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	documentapp "github.com/carehours/backend/internal/application/document"
	"github.com/carehours/backend/internal/domain/notification"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/mail"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmailQueueRepository struct {
	mock.Mock
}

func (m *MockEmailQueueRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*notification.EmailQueueItem, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.EmailQueueItem), args.Error(1)
}

func (m *MockEmailQueueRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]notification.EmailQueueItem, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]notification.EmailQueueItem), args.Error(1)
}

func (m *MockEmailQueueRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEmailQueueRepository) Save(ctx context.Context, item *notification.EmailQueueItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockEmailQueueRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]notification.EmailQueueItem, error) {
	args := m.Called(ctx, now, lease, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.EmailQueueItem), args.Error(1)
}

func (m *MockEmailQueueRepository) CountByStatus(ctx context.Context) (map[notification.EmailStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[notification.EmailStatus]int64), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, email *mail.Email) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockSender) Name() string { return "mock" }

type MockAttachmentLoader struct {
	mock.Mock
}

func (m *MockAttachmentLoader) LoadAttachment(ctx context.Context, tenantID, id uuid.UUID) (*documentapp.Attachment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentapp.Attachment), args.Error(1)
}

func pendingEmail(t *testing.T, tenantID uuid.UUID) *notification.EmailQueueItem {
	t.Helper()
	item, err := notification.NewEmailQueueItem(tenantID, notification.Message{
		To:       []string{"Parent@Example.com"},
		Subject:  "Invoice INV-202610-00001",
		HTMLBody: "<p>Attached</p>",
	})
	require.NoError(t, err)
	return item
}

func TestEmailService_Enqueue(t *testing.T) {
	repo := new(MockEmailQueueRepository)
	svc := NewEmailService(repo, nil)
	tenantID := uuid.New()
	docID := uuid.New()

	repo.On("Save", mock.Anything, mock.MatchedBy(func(e *notification.EmailQueueItem) bool {
		return e.TenantID == tenantID && e.Status == notification.EmailStatusPending && e.To[0] == "parent@example.com"
	})).Return(nil)

	resp, err := svc.Enqueue(context.Background(), tenantID, EnqueueEmailRequest{
		To:          []string{"Parent@Example.com"},
		Subject:     "Your invoice",
		HTMLBody:    "<p>hi</p>",
		TemplateKey: "invoice.sent",
		DocumentID:  &docID,
	})

	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, notification.DefaultMaxAttempts, resp.MaxAttempts)
	assert.Equal(t, &docID, resp.DocumentID)
	repo.AssertExpectations(t)
}

func TestEmailService_Enqueue_Invalid(t *testing.T) {
	repo := new(MockEmailQueueRepository)
	svc := NewEmailService(repo, nil)

	_, err := svc.Enqueue(context.Background(), uuid.New(), EnqueueEmailRequest{To: []string{"a@example.com"}, Subject: "x"})

	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_BODY", de.Code)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestEmailService_CancelAndRetry(t *testing.T) {
	tenantID := uuid.New()

	t.Run("cancel pending", func(t *testing.T) {
		repo := new(MockEmailQueueRepository)
		svc := NewEmailService(repo, nil)
		item := pendingEmail(t, tenantID)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, item.ID).Return(item, nil)
		repo.On("Save", mock.Anything, item).Return(nil)

		resp, err := svc.Cancel(context.Background(), tenantID, item.ID)

		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
	})

	t.Run("retry only failed", func(t *testing.T) {
		repo := new(MockEmailQueueRepository)
		svc := NewEmailService(repo, nil)
		item := pendingEmail(t, tenantID)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, item.ID).Return(item, nil)

		_, err := svc.Retry(context.Background(), tenantID, item.ID)

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("retry failed resets attempts", func(t *testing.T) {
		repo := new(MockEmailQueueRepository)
		svc := NewEmailService(repo, nil)
		item := pendingEmail(t, tenantID)
		item.MaxAttempts = 1
		require.NoError(t, item.MarkSending())
		require.NoError(t, item.MarkFailed("bounce", time.Minute, time.Now()))
		require.Equal(t, notification.EmailStatusFailed, item.Status)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, item.ID).Return(item, nil)
		repo.On("Save", mock.Anything, item).Return(nil)

		resp, err := svc.Retry(context.Background(), tenantID, item.ID)

		require.NoError(t, err)
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, 0, resp.Attempts)
		assert.Empty(t, resp.LastError)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockEmailQueueRepository)
		svc := NewEmailService(repo, nil)
		id := uuid.New()
		repo.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, shared.ErrNotFound)

		_, err := svc.Cancel(context.Background(), tenantID, id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestEmailService_List(t *testing.T) {
	repo := new(MockEmailQueueRepository)
	svc := NewEmailService(repo, nil)
	tenantID := uuid.New()
	item := pendingEmail(t, tenantID)
	match := mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["status"] == "pending" && f.Page == 2 && f.PageSize == 100
	})
	repo.On("FindAllForTenant", mock.Anything, tenantID, match).Return([]notification.EmailQueueItem{*item}, nil)
	repo.On("CountForTenant", mock.Anything, tenantID, match).Return(int64(101), nil)

	items, total, err := svc.List(context.Background(), tenantID, EmailListFilter{Page: 2, PageSize: 500, Status: "pending"})

	require.NoError(t, err)
	assert.Equal(t, int64(101), total)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
}

func TestEmailService_List_RepoError(t *testing.T) {
	repo := new(MockEmailQueueRepository)
	svc := NewEmailService(repo, nil)
	repo.On("FindAllForTenant", mock.Anything, mock.Anything, mock.Anything).Return([]notification.EmailQueueItem(nil), errors.New("db down"))

	_, _, err := svc.List(context.Background(), uuid.New(), EmailListFilter{})

	assert.ErrorContains(t, err, "db down")
}
