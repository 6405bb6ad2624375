package printing

import (
	"testing"
	"time"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/payroll"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...TemplateEngineOption) *TemplateEngine {
	t.Helper()
	e, err := NewTemplateEngine(opts...)
	require.NoError(t, err)
	return e
}

var company = Company{Name: "Bright Path Therapy", Address: "12 Elm St\nSpringfield"}

func TestTemplateEngine_Helpers(t *testing.T) {
	e := newTestEngine(t)

	t.Run("formatMoney", func(t *testing.T) {
		assert.Equal(t, "$1,234.50", e.formatMoney(decimal.RequireFromString("1234.5")))
		assert.Equal(t, "$0.00", e.formatMoney(nil))
		assert.Equal(t, "-$12.00", e.formatMoney(-12))
		assert.Equal(t, "$0.01", e.formatMoney("0.005"))
	})

	t.Run("formatUnits", func(t *testing.T) {
		assert.Equal(t, "12", e.formatUnits(12))
		assert.Equal(t, "1,200", e.formatUnits(decimal.NewFromInt(1200)))
		assert.Equal(t, "6.50", e.formatUnits(decimal.RequireFromString("6.5")))
	})

	t.Run("formatHours", func(t *testing.T) {
		assert.Equal(t, "7.50", e.formatHours(450))
		assert.Equal(t, "0.00", e.formatHours(0))
	})

	t.Run("formatDate", func(t *testing.T) {
		day := time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, "Oct 3, 2026", formatDate(day))
		assert.Equal(t, "2026-10-03", formatDate(&day, time.DateOnly))
		assert.Equal(t, "", formatDate((*time.Time)(nil)))
		assert.Equal(t, "Oct 3, 2026", formatDate("2026-10-03"))
	})

	t.Run("title", func(t *testing.T) {
		assert.Equal(t, "Partially Paid", e.title("partially_paid"))
		assert.Equal(t, "Approved", e.title(timesheet.StatusApproved))
	})

	t.Run("dict", func(t *testing.T) {
		m, err := dict("a", 1, "b", "two")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)
		_, err = dict("a")
		assert.Error(t, err)
		_, err = dict(1, 2)
		assert.Error(t, err)
	})
}

func TestTemplateEngine_Locale(t *testing.T) {
	e := newTestEngine(t, WithLocale("de-DE"), WithCurrency("EUR"))
	assert.Contains(t, e.formatMoney(decimal.RequireFromString("1234.5")), "1.234,50")

	fallback := newTestEngine(t, WithLocale("not a locale!"), WithCurrency("???"))
	assert.Equal(t, "$5.00", fallback.formatMoney(5))
}

func TestTemplateEngine_Render_UnknownTemplate(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Render("purchase_order", nil)
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeTemplateNotFound, re.Code)
}

func TestTemplateEngine_Render_Invoice(t *testing.T) {
	e := newTestEngine(t)
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	inv, err := billing.NewInvoice(uuid.New(), "INV-202610-00001", uuid.New(), start, start.AddDate(0, 0, 30))
	require.NoError(t, err)
	_, err = inv.AddLine(billing.LineInput{
		ServiceDate: start.AddDate(0, 0, 2),
		Description: "Direct therapy <ABA>",
		ServiceCode: "97153",
		Minutes:     120,
		Rate:        decimal.RequireFromString("15.25"),
	})
	require.NoError(t, err)
	inv.SetNotes("Thank you")

	html, err := e.Render("invoice", InvoiceView{Company: company, Invoice: inv, ClientName: "Sam Lee", InsuranceName: "Acme Health"})

	require.NoError(t, err)
	assert.Contains(t, html, "Invoice INV-202610-00001")
	assert.Contains(t, html, "Bright Path Therapy")
	assert.Contains(t, html, "Sam Lee")
	assert.Contains(t, html, "Insurance: Acme Health")
	assert.Contains(t, html, "Direct therapy &lt;ABA&gt;", "content is escaped")
	assert.Contains(t, html, "$122.00")
	assert.Contains(t, html, "Draft")
	assert.Contains(t, html, "Oct 1, 2026 to Oct 31, 2026")
	assert.NotContains(t, html, "Balance due")
}

func TestTemplateEngine_Render_CommunityInvoice(t *testing.T) {
	e := newTestEngine(t)
	clientID := uuid.New()
	class, err := billing.NewCommunityClass(uuid.New(), billing.ClassDetails{
		Name:          "Social skills group",
		ScheduledAt:   time.Date(2026, 10, 5, 15, 0, 0, 0, time.UTC),
		DurationHours: decimal.RequireFromString("1.5"),
		RatePerUnit:   decimal.RequireFromString("10"),
		Capacity:      8,
	})
	require.NoError(t, err)
	require.NoError(t, class.Enroll(clientID))
	require.NoError(t, class.Complete())
	ci, err := billing.NewCommunityInvoice("CINV-202610-00001", class, clientID)
	require.NoError(t, err)

	html, err := e.Render("community_invoice", CommunityInvoiceView{Company: company, Invoice: ci, Class: class, ClientName: "Ana"})

	require.NoError(t, err)
	assert.Contains(t, html, "Social skills group")
	assert.Contains(t, html, "1.50")
	assert.Contains(t, html, "$60.00")
}

func TestTemplateEngine_Render_Timesheet(t *testing.T) {
	e := newTestEngine(t)
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	ts, err := timesheet.NewTimesheet(uuid.New(), "TS-202610-00001", uuid.New(), start, start.AddDate(0, 0, 13))
	require.NoError(t, err)
	known, unknown := uuid.New(), uuid.New()
	_, err = ts.AddEntry(timesheet.EntryInput{ClientID: known, ServiceDate: start, ServiceCode: "97153", Minutes: 90, Billable: true})
	require.NoError(t, err)
	_, err = ts.AddEntry(timesheet.EntryInput{ClientID: unknown, ServiceDate: start.AddDate(0, 0, 1), ServiceCode: "97155", Minutes: 45})
	require.NoError(t, err)

	html, err := e.Render("timesheet", TimesheetView{
		Company:      company,
		Timesheet:    ts,
		ProviderName: "Jordan Smith",
		ClientNames:  map[uuid.UUID]string{known: "Sam Lee"},
	})

	require.NoError(t, err)
	assert.Contains(t, html, "Jordan Smith")
	assert.Contains(t, html, "Sam Lee")
	assert.Contains(t, html, unknown.String())
	assert.Contains(t, html, "1.50")
	assert.Contains(t, html, "2.25")
}

func TestTemplateEngine_Render_PayrollSummary(t *testing.T) {
	e := newTestEngine(t)
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	imp, err := payroll.NewPayrollImport(uuid.New(), "PAY-202610-00001", "october.csv", start, start.AddDate(0, 0, 14))
	require.NoError(t, err)
	pid := uuid.New()
	imp.AddValidRow(2, "jordan@example.com", pid, start, decimal.RequireFromString("8"), decimal.RequireFromString("25"), "")
	imp.AddErrorRow(3, "ghost@example.com", "unknown provider")
	require.NoError(t, imp.FinishValidation())

	html, err := e.Render("payroll_summary", PayrollSummaryView{
		Company:   company,
		Import:    imp,
		Providers: []ProviderTotal{{Name: "Jordan Smith", Hours: decimal.NewFromInt(8), Amount: decimal.NewFromInt(200)}},
	})

	require.NoError(t, err)
	assert.Contains(t, html, "october.csv")
	assert.Contains(t, html, "1 valid / 1 rejected")
	assert.Contains(t, html, "$200.00")
}
