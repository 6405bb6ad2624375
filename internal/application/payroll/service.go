package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/carehours/backend/internal/domain/directory"
	"github.com/carehours/backend/internal/domain/payroll"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/carehours/backend/internal/infrastructure/csvimport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxRows caps the data rows of one payroll file
const MaxRows = 10000

var requiredHeaders = []string{"provider", "work_date", "hours"}

// line is the raw shape of one payroll CSV row
type line struct {
	Provider string `csv:"provider" validate:"required,max=255"`
	WorkDate string `csv:"work_date" validate:"required,datetime=2006-01-02"`
	Hours    string `csv:"hours" validate:"required,numeric"`
	Rate     string `csv:"rate" validate:"omitempty,numeric"`
	Memo     string `csv:"memo" validate:"max=500"`
}

// PayrollService imports provider hours and reconciles them with timesheets
type PayrollService struct {
	repo          payroll.ImportRepository
	providerRepo  directory.ProviderRepository
	timesheetRepo timesheet.Repository
	decoder       *csvimport.Decoder
	publisher     shared.EventPublisher
	logger        *zap.Logger
}

// NewPayrollService creates a new payroll service
func NewPayrollService(
	repo payroll.ImportRepository,
	providerRepo directory.ProviderRepository,
	timesheetRepo timesheet.Repository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *PayrollService {
	return &PayrollService{
		repo:          repo,
		providerRepo:  providerRepo,
		timesheetRepo: timesheetRepo,
		decoder:       csvimport.NewDecoder(),
		publisher:     publisher,
		logger:        logger,
	}
}

// Upload parses a payroll CSV and stores every row, valid or not. The import
// ends validated when at least one row passed, failed otherwise.
func (s *PayrollService) Upload(ctx context.Context, tenantID uuid.UUID, req UploadRequest, file io.Reader) (*ImportResponse, error) {
	if req.PeriodStart.After(req.PeriodEnd) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period start cannot be after period end")
	}
	parser, err := csvimport.NewParser(file, csvimport.WithMaxRows(MaxRows))
	if err != nil {
		return nil, fileError(err)
	}
	if err := parser.RequireHeaders(requiredHeaders...); err != nil {
		return nil, fileError(err)
	}
	rows, malformed, err := parser.ReadAll()
	if err != nil {
		return nil, fileError(err)
	}

	number, err := s.repo.GenerateNumber(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate import number: %w", err)
	}
	imp, err := payroll.NewPayrollImport(tenantID, number, req.FileName, day(req.PeriodStart), day(req.PeriodEnd))
	if err != nil {
		return nil, err
	}

	for _, re := range malformed {
		imp.AddErrorRow(re.Line, "", re.Message)
	}
	resolver := &providerResolver{repo: s.providerRepo, tenantID: tenantID, cache: map[string]resolved{}}
	for _, row := range rows {
		s.validateRow(ctx, imp, resolver, row)
	}
	if err := imp.FinishValidation(); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, imp); err != nil {
		return nil, fmt.Errorf("failed to save payroll import: %w", err)
	}
	s.publish(ctx, imp)

	s.logger.Info("Payroll file imported",
		zap.String("import_id", imp.ID.String()),
		zap.String("number", imp.Number),
		zap.String("file", imp.FileName),
		zap.Int("valid_rows", imp.ValidRows),
		zap.Int("error_rows", imp.ErrorRows))
	resp := ToImportResponse(imp, true)
	return &resp, nil
}

func (s *PayrollService) validateRow(ctx context.Context, imp *payroll.PayrollImport, resolver *providerResolver, row csvimport.Row) {
	var l line
	if err := s.decoder.Decode(row, &l); err != nil {
		imp.AddErrorRow(row.Line, row.Get("provider"), err.Error())
		return
	}

	provider, msg := resolver.resolve(ctx, l.Provider)
	if provider == nil {
		imp.AddErrorRow(row.Line, l.Provider, msg)
		return
	}

	workDate, _ := time.Parse("2006-01-02", l.WorkDate)
	if workDate.Before(imp.PeriodStart) || workDate.After(imp.PeriodEnd) {
		imp.AddErrorRow(row.Line, l.Provider, fmt.Sprintf("work_date %s is outside the payroll period", l.WorkDate))
		return
	}

	hours, err := decimal.NewFromString(l.Hours)
	if err != nil || !hours.IsPositive() || hours.GreaterThan(payroll.MaxHoursPerRow) {
		imp.AddErrorRow(row.Line, l.Provider, fmt.Sprintf("hours %q must be greater than 0 and at most 24", l.Hours))
		return
	}

	rate := provider.PayRate
	if l.Rate != "" {
		rate, err = decimal.NewFromString(l.Rate)
		if err != nil || rate.IsNegative() {
			imp.AddErrorRow(row.Line, l.Provider, fmt.Sprintf("rate %q cannot be negative", l.Rate))
			return
		}
	}

	imp.AddValidRow(row.Line, l.Provider, provider.ID, workDate, hours, rate, l.Memo)
}

// Process marks the valid rows of a validated import as processed
func (s *PayrollService) Process(ctx context.Context, tenantID, id, userID uuid.UUID) (*ImportResponse, error) {
	imp, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := imp.Process(userID); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, imp); err != nil {
		return nil, saveError(err)
	}
	s.publish(ctx, imp)

	s.logger.Info("Payroll import processed",
		zap.String("import_id", imp.ID.String()),
		zap.String("total_hours", imp.TotalHours.String()),
		zap.String("total_pay", imp.TotalPay.StringFixed(2)))
	resp := ToImportResponse(imp, true)
	return &resp, nil
}

// GetByID returns an import with its rows
func (s *PayrollService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ImportResponse, error) {
	imp, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToImportResponse(imp, true)
	return &resp, nil
}

// List returns a page of imports without rows
func (s *PayrollService) List(ctx context.Context, tenantID uuid.UUID, f ImportListFilter) ([]ImportResponse, int64, error) {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}.Normalize()
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}

	imports, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll imports: %w", err)
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll imports: %w", err)
	}
	out := make([]ImportResponse, len(imports))
	for i := range imports {
		out[i] = ToImportResponse(&imports[i], false)
	}
	return out, total, nil
}

// Delete soft-deletes an import that has not been processed
func (s *PayrollService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	imp, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := imp.Delete(); err != nil {
		return err
	}
	if err := s.repo.SaveWithLock(ctx, imp); err != nil {
		return saveError(err)
	}
	return nil
}

// Reconcile compares imported hours per provider with approved timesheet
// hours for the import's period
func (s *PayrollService) Reconcile(ctx context.Context, tenantID, id uuid.UUID) (*ReconcileResponse, error) {
	imp, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	approved, err := s.timesheetRepo.SumApprovedMinutesByProvider(ctx, tenantID, imp.PeriodStart, imp.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to sum approved minutes: %w", err)
	}

	variances := payroll.Reconcile(imp.HoursByProvider(), approved)
	resp := &ReconcileResponse{
		ImportID:    imp.ID,
		Number:      imp.Number,
		PeriodStart: imp.PeriodStart,
		PeriodEnd:   imp.PeriodEnd,
		Matched:     true,
		Variances:   make([]VarianceResponse, len(variances)),
	}
	for i, v := range variances {
		resp.Variances[i] = VarianceResponse{
			ProviderID:     v.ProviderID,
			ProviderName:   s.providerName(ctx, tenantID, v.ProviderID),
			ImportedHours:  v.ImportedHours,
			TimesheetHours: v.TimesheetHours,
			Difference:     v.Difference,
		}
		if !v.Difference.IsZero() {
			resp.Matched = false
		}
	}
	return resp, nil
}

func (s *PayrollService) providerName(ctx context.Context, tenantID, id uuid.UUID) string {
	p, err := s.providerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return ""
	}
	return p.FullName()
}

func (s *PayrollService) publish(ctx context.Context, imp *payroll.PayrollImport) {
	if err := shared.PublishAndClear(ctx, s.publisher, imp); err != nil {
		s.logger.Warn("Failed to publish payroll events", zap.String("import_id", imp.ID.String()), zap.Error(err))
	}
}

type resolved struct {
	provider *directory.Provider
	msg      string
}

// providerResolver looks a reference up by email when it contains "@" and
// by NPI otherwise, once per distinct reference
type providerResolver struct {
	repo     directory.ProviderRepository
	tenantID uuid.UUID
	cache    map[string]resolved
}

func (r *providerResolver) resolve(ctx context.Context, ref string) (*directory.Provider, string) {
	key := strings.ToLower(strings.TrimSpace(ref))
	if hit, ok := r.cache[key]; ok {
		return hit.provider, hit.msg
	}

	var p *directory.Provider
	var err error
	if strings.Contains(key, "@") {
		p, err = r.repo.FindByEmail(ctx, r.tenantID, key)
	} else {
		p, err = r.repo.FindByNPI(ctx, r.tenantID, key)
	}

	var out resolved
	switch {
	case errors.Is(err, shared.ErrNotFound):
		out.msg = fmt.Sprintf("provider %q not found", ref)
	case err != nil:
		out.msg = fmt.Sprintf("provider %q could not be looked up: %v", ref, err)
	case !p.IsActive():
		out.msg = fmt.Sprintf("provider %q is not active", ref)
	default:
		out.provider = p
	}
	r.cache[key] = out
	return out.provider, out.msg
}

// fileError turns problems with the file as a whole into input errors
func fileError(err error) error {
	var missing *csvimport.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return shared.NewDomainError("MISSING_COLUMNS", missing.Error())
	case errors.Is(err, csvimport.ErrEmptyFile),
		errors.Is(err, csvimport.ErrInvalidEncoding),
		errors.Is(err, csvimport.ErrMissingHeader):
		return shared.NewDomainError("INVALID_FILE", err.Error())
	case errors.Is(err, csvimport.ErrTooManyRows):
		return shared.NewDomainError("INVALID_FILE", fmt.Sprintf("payroll file exceeds %d rows", MaxRows))
	}
	return fmt.Errorf("failed to read payroll file: %w", err)
}

func saveError(err error) error {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return err
	}
	return fmt.Errorf("failed to save payroll import: %w", err)
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
