package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryRepositories(t *testing.T) {
	db := newSQLiteDB(t)
	clients := NewGormClientRepository(db)
	providers := NewGormProviderRepository(db)
	insurances := NewGormInsuranceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	ins, err := directory.NewInsurance(tenantID, directory.InsuranceDetails{
		Name:        "Blue Valley Health",
		PayerID:     "bvh01",
		RatePerUnit: decimal.NewFromFloat(14.25),
	})
	require.NoError(t, err)
	require.NoError(t, insurances.Save(ctx, ins))

	client, err := directory.NewClient(tenantID, directory.ClientDetails{FirstName: "Sam", LastName: "Rivera", MemberNumber: "M-100"})
	require.NoError(t, err)
	client.AssignInsurance(&ins.ID, "M-100")
	require.NoError(t, clients.Save(ctx, client))

	provider, err := directory.NewProvider(tenantID, directory.ProviderDetails{
		FirstName:  "Dana",
		LastName:   "Lee",
		Email:      "Dana.Lee@example.com",
		Credential: "rbt",
		NPI:        "1234567890",
		PayRate:    decimal.NewFromInt(22),
	})
	require.NoError(t, err)
	require.NoError(t, providers.Save(ctx, provider))

	t.Run("insurance payer id is unique per tenant", func(t *testing.T) {
		exists, err := insurances.ExistsByPayerID(ctx, tenantID, "BVH01", nil)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = insurances.ExistsByPayerID(ctx, tenantID, "bvh01", &ins.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("active clients are counted per insurance", func(t *testing.T) {
		count, err := clients.CountActiveByInsurance(ctx, tenantID, ins.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		require.NoError(t, client.Discharge(time.Now()))
		require.NoError(t, clients.Save(ctx, client))

		count, err = clients.CountActiveByInsurance(ctx, tenantID, ins.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("clients filter by insurance and search", func(t *testing.T) {
		list, err := clients.FindAllForTenant(ctx, tenantID, shared.DefaultFilter().With("insurance_id", ins.ID))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Rivera", list[0].LastName)

		filter := shared.DefaultFilter()
		filter.Search = "riv"
		list, err = clients.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		byIDs, err := clients.FindByIDs(ctx, tenantID, []uuid.UUID{client.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, byIDs, 1)
	})

	t.Run("provider lookups", func(t *testing.T) {
		byEmail, err := providers.FindByEmail(ctx, tenantID, "DANA.LEE@example.com")
		require.NoError(t, err)
		assert.Equal(t, provider.ID, byEmail.ID)

		byNPI, err := providers.FindByNPI(ctx, tenantID, "1234567890")
		require.NoError(t, err)
		assert.Equal(t, "RBT", byNPI.Credential)
		assert.True(t, decimal.NewFromInt(22).Equal(byNPI.PayRate))

		count, err := providers.CountForTenant(ctx, tenantID, shared.DefaultFilter().With("credential", "rbt"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		_, err = providers.FindByNPI(ctx, uuid.New(), "1234567890")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("deleted providers free their email", func(t *testing.T) {
		provider.Delete()
		require.NoError(t, providers.Save(ctx, provider))

		exists, err := providers.ExistsByEmail(ctx, tenantID, "dana.lee@example.com", nil)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
