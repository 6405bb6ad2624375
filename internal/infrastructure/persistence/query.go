package persistence

import (
	"errors"
	"fmt"
	"time"

	"github.com/carehours/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// notFoundOr maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// likeOperator returns the case-insensitive LIKE keyword for the dialect.
// SQLite's LIKE is already case-insensitive for ASCII.
func likeOperator(db *gorm.DB) string {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return "LIKE"
	}
	return "ILIKE"
}

// searchColumns adds an OR'ed pattern match over the given columns
func searchColumns(query *gorm.DB, search string, columns ...string) *gorm.DB {
	if search == "" || len(columns) == 0 {
		return query
	}
	op := likeOperator(query)
	pattern := "%" + search + "%"
	cond := ""
	args := make([]interface{}, 0, len(columns))
	for i, col := range columns {
		if i > 0 {
			cond += " OR "
		}
		cond += fmt.Sprintf("%s %s ?", col, op)
		args = append(args, pattern)
	}
	return query.Where("("+cond+")", args...)
}

// applyPaging applies whitelisted ordering and offset/limit
func applyPaging(query *gorm.DB, filter shared.Filter, allowed sortColumns, defaultField string) *gorm.DB {
	sortField := ValidateSortField(filter.OrderBy, allowed, defaultField)
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if offset := filter.Offset(); offset > 0 {
			query = query.Offset(offset)
		}
	}
	return query
}

// filterString returns a non-empty string filter value
func filterString(filter shared.Filter, key string) (string, bool) {
	v, ok := filter.Filters[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, s != ""
	case fmt.Stringer:
		return s.String(), s.String() != ""
	}
	return fmt.Sprint(v), true
}

// filterUUID returns a UUID filter value given as uuid.UUID, *uuid.UUID or string
func filterUUID(filter shared.Filter, key string) (uuid.UUID, bool) {
	v, ok := filter.Filters[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	switch id := v.(type) {
	case uuid.UUID:
		return id, id != uuid.Nil
	case *uuid.UUID:
		if id == nil {
			return uuid.Nil, false
		}
		return *id, *id != uuid.Nil
	case string:
		parsed, err := uuid.Parse(id)
		if err != nil {
			return uuid.Nil, false
		}
		return parsed, true
	}
	return uuid.Nil, false
}

// filterTime returns a time filter value given as time.Time or *time.Time
func filterTime(filter shared.Filter, key string) (time.Time, bool) {
	v, ok := filter.Filters[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	}
	return time.Time{}, false
}

// nextDocumentNumber counts this month's numbers, deleted rows included,
// and formats the next one
func nextDocumentNumber(db *gorm.DB, model interface{}, tenantID uuid.UUID, prefix string, now time.Time) (string, error) {
	var count int64
	like := shared.DocumentNumberPrefix(prefix, now) + "%"
	if err := db.Unscoped().Model(model).
		Where("tenant_id = ? AND number LIKE ?", tenantID, like).
		Count(&count).Error; err != nil {
		return "", err
	}
	return shared.DocumentNumber(prefix, now, count+1), nil
}

// versionConflict builds the error returned when an optimistic lock fails
func versionConflict(what string) error {
	return shared.NewDomainError(shared.ErrConcurrencyConflict.Code, what+" has been modified by another user")
}

// saveVersioned writes every column of model, skipping associations, when
// the stored version is the one before newVersion. A missing row is inserted.
func saveVersioned(tx *gorm.DB, model interface{}, id uuid.UUID, newVersion int, what string, omit ...string) error {
	var versions []int
	if err := tx.Model(model).Where("id = ?", id).Pluck("version", &versions).Error; err != nil {
		return err
	}
	if len(versions) == 0 {
		return tx.Omit(clause.Associations).Create(model).Error
	}
	if versions[0] != newVersion-1 {
		return versionConflict(what)
	}
	result := tx.Model(model).
		Select("*").
		Omit(append([]string{clause.Associations}, omit...)...).
		Where("version = ?", versions[0]).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return versionConflict(what)
	}
	return nil
}

// attachDocument stamps document_id on one tenant row
func attachDocument(db *gorm.DB, model interface{}, tenantID, id, documentID uuid.UUID) error {
	result := db.Model(model).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("document_id", documentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
