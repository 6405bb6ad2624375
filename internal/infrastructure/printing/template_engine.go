package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/carehours/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

const defaultDateLayout = "Jan 2, 2006"

// TemplateEngine renders the embedded document templates. Formatting helpers
// follow the configured locale and currency.
type TemplateEngine struct {
	locale    language.Tag
	currency  currency.Unit
	printer   *message.Printer
	symbol    string
	templates *template.Template
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLocale sets the BCP 47 locale, e.g. "en-US". Unknown tags are ignored.
func WithLocale(tag string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		if t, err := language.Parse(tag); err == nil {
			e.locale = t
		}
	}
}

// WithCurrency sets the ISO 4217 currency code. Unknown codes are ignored.
func WithCurrency(code string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		if u, err := currency.ParseISO(code); err == nil {
			e.currency = u
		}
	}
}

// NewTemplateEngine parses the embedded templates
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{locale: language.AmericanEnglish, currency: currency.USD}
	for _, opt := range opts {
		opt(e)
	}
	e.printer = message.NewPrinter(e.locale)
	e.symbol = e.printer.Sprint(currency.NarrowSymbol(e.currency))

	tmpl, err := template.New("documents").Funcs(e.FuncMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse templates", err)
	}
	e.templates = tmpl
	return e, nil
}

// FuncMap returns the helpers available to templates
func (e *TemplateEngine) FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatMoney": e.formatMoney,
		"formatDate":  formatDate,
		"formatUnits": e.formatUnits,
		"formatHours": e.formatHours,
		"title":       e.title,
		"upper":       strings.ToUpper,
		"dict":        dict,
	}
}

// Has reports whether a template exists for the name
func (e *TemplateEngine) Has(name string) bool {
	return e.templates.Lookup(name+".html") != nil
}

// Render executes the template called name (without the .html suffix)
func (e *TemplateEngine) Render(name string, data any) (string, error) {
	if !e.Has(name) {
		return "", NewRenderError(ErrCodeTemplateNotFound, "no template for "+name, nil)
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template "+name, err)
	}
	return buf.String(), nil
}

// formatMoney renders an amount with the currency symbol and two decimals,
// e.g. $1,234.50 or -$12.00
func (e *TemplateEngine) formatMoney(v any) string {
	d := toDecimal(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + e.symbol + e.printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2)))
}

// formatUnits renders whole units without decimals and fractional units with two
func (e *TemplateEngine) formatUnits(v any) string {
	d := toDecimal(v)
	if d.IsInteger() {
		return e.printer.Sprint(number.Decimal(d.IntPart()))
	}
	return e.printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2)))
}

// formatHours converts minutes to hours with two decimals
func (e *TemplateEngine) formatHours(minutes int) string {
	h := valueobject.HoursFromMinutes(minutes)
	return e.printer.Sprint(number.Decimal(h.InexactFloat64(), number.Scale(2)))
}

// title turns enum values such as "partially_paid" into "Partially Paid"
func (e *TemplateEngine) title(v any) string {
	s := strings.ReplaceAll(fmt.Sprint(v), "_", " ")
	return cases.Title(e.locale).String(s)
}

func formatDate(v any, layout ...string) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	if len(layout) > 0 && layout[0] != "" {
		return t.Format(layout[0])
	}
	return t.Format(defaultDateLayout)
}

// dict builds a map from key/value pairs for passing several values to a
// nested template
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict requires key/value pairs, got %d arguments", len(pairs))
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func toTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	case string:
		for _, f := range []string{time.RFC3339, time.DateOnly} {
			if t, err := time.Parse(f, val); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
