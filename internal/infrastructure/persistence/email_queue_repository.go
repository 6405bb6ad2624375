package persistence

import (
	"context"
	"time"

	"github.com/carehours/backend/internal/domain/notification"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEmailQueueRepository implements notification.EmailQueueRepository using GORM
type GormEmailQueueRepository struct {
	db *gorm.DB
}

// NewGormEmailQueueRepository creates a new GormEmailQueueRepository
func NewGormEmailQueueRepository(db *gorm.DB) *GormEmailQueueRepository {
	return &GormEmailQueueRepository{db: db}
}

// FindByIDForTenant finds a queued email by ID for a specific tenant
func (r *GormEmailQueueRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*notification.EmailQueueItem, error) {
	var model models.EmailQueueModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all queued emails for a tenant with filtering
func (r *GormEmailQueueRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]notification.EmailQueueItem, error) {
	var queueModels []models.EmailQueueModel
	query := r.db.WithContext(ctx).Model(&models.EmailQueueModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	query = applyPaging(query, filter, emailQueueSortColumns, "created_at")

	if err := query.Find(&queueModels).Error; err != nil {
		return nil, err
	}
	items := make([]notification.EmailQueueItem, len(queueModels))
	for i := range queueModels {
		items[i] = *queueModels[i].ToDomain()
	}
	return items, nil
}

// CountForTenant counts queued emails for a tenant with filtering
func (r *GormEmailQueueRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.EmailQueueModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a queued email
func (r *GormEmailQueueRepository) Save(ctx context.Context, item *notification.EmailQueueItem) error {
	return r.db.WithContext(ctx).Save(models.EmailQueueModelFromDomain(item)).Error
}

// ClaimDue locks up to limit due rows of any tenant, skipping rows another
// drainer holds, and moves them to sending. Rows whose sending lease ran out
// are taken back: retried while attempts remain, failed otherwise.
func (r *GormEmailQueueRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]notification.EmailQueueItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	var claimed []notification.EmailQueueItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Clauses(clause.Locking{
			Strength: "UPDATE",
			Options:  "SKIP LOCKED",
		})
		if lease > 0 {
			query = query.Where("(status = ? AND next_attempt_at <= ?) OR (status = ? AND updated_at <= ?)",
				notification.EmailStatusPending, now, notification.EmailStatusSending, now.Add(-lease))
		} else {
			query = query.Where("status = ? AND next_attempt_at <= ?", notification.EmailStatusPending, now)
		}

		var rows []models.EmailQueueModel
		if err := query.Order("next_attempt_at ASC").Limit(limit).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		var claimIDs, expiredIDs []uuid.UUID
		claimed = make([]notification.EmailQueueItem, 0, len(rows))
		for i := range rows {
			item := rows[i].ToDomain()
			if item.Status == notification.EmailStatusSending {
				if err := item.Reclaim(); err != nil {
					return err
				}
				if item.Status == notification.EmailStatusFailed {
					expiredIDs = append(expiredIDs, item.ID)
					continue
				}
			}
			if err := item.MarkSending(); err != nil {
				return err
			}
			claimIDs = append(claimIDs, item.ID)
			claimed = append(claimed, *item)
		}

		stamp := time.Now()
		if len(expiredIDs) > 0 {
			if err := tx.Model(&models.EmailQueueModel{}).
				Where("id IN ?", expiredIDs).
				Updates(map[string]interface{}{
					"status":     notification.EmailStatusFailed,
					"last_error": notification.DeliveryInterrupted,
					"updated_at": stamp,
				}).Error; err != nil {
				return err
			}
		}
		if len(claimIDs) == 0 {
			return nil
		}
		return tx.Model(&models.EmailQueueModel{}).
			Where("id IN ?", claimIDs).
			Updates(map[string]interface{}{
				"status":     notification.EmailStatusSending,
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": stamp,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

type emailStatusCount struct {
	Status notification.EmailStatus
	Count  int64
}

// CountByStatus returns queue depth per status across tenants
func (r *GormEmailQueueRepository) CountByStatus(ctx context.Context) (map[notification.EmailStatus]int64, error) {
	var rows []emailStatusCount
	if err := r.db.WithContext(ctx).
		Model(&models.EmailQueueModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[notification.EmailStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *GormEmailQueueRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchColumns(query, filter.Search, "subject", "to_addresses")

	if v, ok := filterString(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filterString(filter, "template_key"); ok {
		query = query.Where("template_key = ?", v)
	}
	return query
}

// Ensure GormEmailQueueRepository implements notification.EmailQueueRepository
var _ notification.EmailQueueRepository = (*GormEmailQueueRepository)(nil)
