package persistence

import "strings"

// sortColumns whitelists the columns a list endpoint may order by. Every
// set also allows id, created_at and updated_at.
type sortColumns map[string]struct{}

func columns(names ...string) sortColumns {
	set := sortColumns{"id": {}, "created_at": {}, "updated_at": {}}
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (s sortColumns) allows(column string) bool {
	_, ok := s[column]
	return ok
}

// ValidateSortOrder returns ASC for "asc" in any case and DESC otherwise
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns the trimmed column when the whitelist has it and
// defaultField otherwise. Matching is case sensitive.
func ValidateSortField(sortField string, allowed sortColumns, defaultField string) string {
	if col := strings.TrimSpace(sortField); allowed.allows(col) {
		return col
	}
	return defaultField
}

var (
	clientSortColumns    = columns("first_name", "last_name", "status")
	providerSortColumns  = columns("first_name", "last_name", "email", "credential", "status")
	insuranceSortColumns = columns("name", "payer_id", "rate_per_unit", "status")

	timesheetSortColumns     = columns("number", "period_start", "period_end", "status", "total_minutes", "submitted_at")
	payrollImportSortColumns = columns("number", "period_start", "status", "processed_at")

	invoiceSortColumns          = columns("number", "issue_date", "due_date", "status", "total_amount")
	communityClassSortColumns   = columns("name", "scheduled_at", "status")
	communityInvoiceSortColumns = columns("number", "status", "amount")

	formDocumentSortColumns = columns("kind", "title", "status", "generated_at")
	emailQueueSortColumns   = columns("status", "attempts", "next_attempt_at", "sent_at")
)
