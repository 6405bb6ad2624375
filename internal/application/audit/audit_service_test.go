package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/carehours/backend/internal/domain/audit"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, log *audit.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *MockAuditRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter audit.Filter) ([]audit.AuditLog, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]audit.AuditLog), args.Get(1).(int64), args.Error(2)
}

func requestContext(tenantID, userID uuid.UUID) context.Context {
	ctx := logger.WithTenantID(context.Background(), tenantID.String())
	ctx = logger.WithUserID(ctx, userID.String())
	ctx = logger.WithRequestID(ctx, "req-42")
	return logger.WithClient(ctx, logger.ClientInfo{IP: "10.0.0.7", UserAgent: "curl/8"})
}

func TestAuditService_Record_EnrichesFromContext(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo, zap.NewNop())
	tenantID, userID := uuid.New(), uuid.New()

	repo.On("Append", mock.Anything, mock.MatchedBy(func(l *audit.AuditLog) bool {
		return l.TenantID == tenantID &&
			l.ActorID != nil && *l.ActorID == userID &&
			l.RequestID == "req-42" &&
			l.IPAddress == "10.0.0.7" &&
			l.UserAgent == "curl/8" &&
			l.Action == audit.ActionLogout
	})).Return(nil)

	err := svc.Record(requestContext(tenantID, userID), audit.Entry{Action: audit.ActionLogout, EntityType: audit.EntityTypeSession})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAuditService_Record_ExplicitValuesWin(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo, zap.NewNop())
	tenantID, actor := uuid.New(), uuid.New()

	repo.On("Append", mock.Anything, mock.MatchedBy(func(l *audit.AuditLog) bool {
		return l.TenantID == tenantID && *l.ActorID == actor && l.IPAddress == "192.168.1.1"
	})).Return(nil)

	err := svc.Record(requestContext(uuid.New(), uuid.New()), audit.Entry{
		TenantID:  tenantID,
		ActorID:   &actor,
		Action:    audit.ActionLogin,
		IPAddress: "192.168.1.1",
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAuditService_Record_WithoutTenantIsDropped(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo, zap.NewNop())

	require.NoError(t, svc.Record(context.Background(), audit.Entry{Action: audit.ActionLogin}))
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestAuditService_RecordQuietly(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo, zap.NewNop())
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		svc.RecordQuietly(context.Background(), audit.Entry{TenantID: uuid.New(), Action: audit.ActionLogin})
	})
	repo.AssertExpectations(t)
}

func TestAuditService_List(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo, zap.NewNop())
	tenantID := uuid.New()
	entry := audit.NewAuditLog(audit.Entry{TenantID: tenantID, Action: "invoice.sent", EntityType: "Invoice"})

	repo.On("FindAllForTenant", mock.Anything, tenantID, audit.Filter{Action: "invoice.sent", Page: 2, PageSize: 10}).
		Return([]audit.AuditLog{*entry}, int64(11), nil)

	items, total, err := svc.List(context.Background(), tenantID, AuditLogListFilter{Action: "invoice.sent", Page: 2, PageSize: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, items, 1)
	assert.Equal(t, "invoice.sent", items[0].Action)
	assert.Equal(t, entry.ID, items[0].ID)
}

type sampleEvent struct {
	shared.BaseDomainEvent
	Number string `json:"number"`
}

func TestEventHandler_Handle(t *testing.T) {
	repo := new(MockAuditRepository)
	handler := NewEventHandler(NewAuditService(repo, zap.NewNop()))
	tenantID, userID, aggID := uuid.New(), uuid.New(), uuid.New()
	ev := &sampleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("timesheet.approved", "Timesheet", aggID, tenantID),
		Number:          "TS-202610-00003",
	}

	repo.On("Append", mock.Anything, mock.MatchedBy(func(l *audit.AuditLog) bool {
		return l.TenantID == tenantID &&
			l.Action == "timesheet.approved" &&
			l.EntityType == "Timesheet" &&
			*l.EntityID == aggID &&
			*l.ActorID == userID &&
			l.Details["number"] == "TS-202610-00003" &&
			l.Details["event_id"] == ev.EventID().String() &&
			l.CreatedAt.Equal(ev.OccurredAt())
	})).Return(nil)

	assert.Nil(t, handler.EventTypes())
	require.NoError(t, handler.Handle(requestContext(tenantID, userID), ev))
	repo.AssertExpectations(t)
}

func TestEventHandler_Handle_EventActorWins(t *testing.T) {
	repo := new(MockAuditRepository)
	handler := NewEventHandler(NewAuditService(repo, zap.NewNop()))
	tenantID, raisedBy, requestUser := uuid.New(), uuid.New(), uuid.New()
	ev := &sampleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("invoice.sent", "Invoice", uuid.New(), tenantID),
	}
	ev.SetActor(raisedBy)

	repo.On("Append", mock.Anything, mock.MatchedBy(func(l *audit.AuditLog) bool {
		return *l.ActorID == raisedBy
	})).Return(nil)

	require.NoError(t, handler.Handle(requestContext(tenantID, requestUser), ev))
	repo.AssertExpectations(t)
}
