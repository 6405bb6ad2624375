package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/notification"
	"github.com/carehours/backend/internal/infrastructure/migration"
	"github.com/carehours/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrations_RoundTrip(t *testing.T) {
	tdb := NewTestDB(t)

	m, err := migration.New(tdb.SqlDB, migration.Options{}, zap.NewNop())
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.GreaterOrEqual(t, version, uint(1))

	require.NoError(t, m.Down(), "down migrations must undo the schema")
	var remaining int64
	require.NoError(t, tdb.DB.Raw(`
		SELECT count(*) FROM pg_tables
		WHERE schemaname = 'public' AND tablename != ?
	`, migration.DefaultTable).Scan(&remaining).Error)
	assert.Zero(t, remaining)

	require.NoError(t, m.Up())
	after, _, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, version, after)
}

func TestProviderRepository_EmailUniqueIgnoresCase(t *testing.T) {
	tdb := NewTestDB(t)
	tdb.CleanTables()
	repo := persistence.NewGormProviderRepository(tdb.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	first, err := directory.NewProvider(tenantID, directory.ProviderDetails{
		FirstName: "Dana", LastName: "Lee", Email: "dana.lee@example.com", PayRate: decimal.NewFromInt(30),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	exists, err := repo.ExistsByEmail(ctx, tenantID, "DANA.LEE@example.com", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	dup, err := directory.NewProvider(tenantID, directory.ProviderDetails{
		FirstName: "Dana", LastName: "Lee", Email: "Dana.Lee@Example.com",
	})
	require.NoError(t, err)
	assert.Error(t, repo.Save(ctx, dup), "unique index rejects the same address in another case")

	other, err := directory.NewProvider(uuid.New(), directory.ProviderDetails{
		FirstName: "Dana", LastName: "Lee", Email: "dana.lee@example.com",
	})
	require.NoError(t, err)
	assert.NoError(t, repo.Save(ctx, other), "other tenants may reuse the address")

	found, err := repo.FindByEmail(ctx, tenantID, "Dana.Lee@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.True(t, decimal.NewFromInt(30).Equal(found.PayRate))
}

func TestEmailQueueRepository_ConcurrentDrainersClaimDisjointRows(t *testing.T) {
	tdb := NewTestDB(t)
	tdb.CleanTables()
	repo := persistence.NewGormEmailQueueRepository(tdb.DB)
	ctx := context.Background()

	const total = 20
	for i := 0; i < total; i++ {
		item, err := notification.NewEmailQueueItem(uuid.New(), notification.Message{
			To:       []string{fmt.Sprintf("client%d@example.com", i)},
			Subject:  "Invoice ready",
			TextBody: "Your invoice is attached.",
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, item))
	}

	now := time.Now().Add(time.Second)
	var (
		mu      sync.Mutex
		seen    = make(map[uuid.UUID]int)
		wg      sync.WaitGroup
		claimed int
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				batch, err := repo.ClaimDue(ctx, now, 10*time.Minute, 3)
				if err != nil {
					t.Errorf("claim failed: %v", err)
					return
				}
				if len(batch) == 0 {
					return
				}
				mu.Lock()
				for _, item := range batch {
					seen[item.ID]++
					claimed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, total, claimed)
	assert.Len(t, seen, total)
	for id, n := range seen {
		assert.Equal(t, 1, n, "email %s claimed more than once", id)
	}

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(total), counts[notification.EmailStatusSending])
}
