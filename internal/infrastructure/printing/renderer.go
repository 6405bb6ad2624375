package printing

import (
	"bytes"
	"context"
	"strings"
	"time"
)

// PaperSize names a supported page format
type PaperSize string

const (
	PaperSizeLetter PaperSize = "letter"
	PaperSizeLegal  PaperSize = "legal"
	PaperSizeA4     PaperSize = "a4"
)

// ParsePaperSize accepts any casing and defaults to letter
func ParsePaperSize(s string) PaperSize {
	p := PaperSize(strings.ToLower(strings.TrimSpace(s)))
	if p.IsValid() {
		return p
	}
	return PaperSizeLetter
}

// IsValid checks if the paper size is known
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeLetter, PaperSizeLegal, PaperSizeA4:
		return true
	}
	return false
}

// Dimensions returns width and height in millimeters
func (p PaperSize) Dimensions() (float64, float64) {
	switch p {
	case PaperSizeLegal:
		return 215.9, 355.6
	case PaperSizeA4:
		return 210, 297
	default:
		return 215.9, 279.4
	}
}

// Orientation of the printed page
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Margins in millimeters
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// DefaultMargins returns 12mm on every side
func DefaultMargins() Margins {
	return Margins{Top: 12, Right: 12, Bottom: 12, Left: 12}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML        string
	Title       string
	PaperSize   PaperSize
	Orientation Orientation
	Margins     Margins
	// FooterHTML is a Chrome print footer template; it may use the pageNumber
	// and totalPages classes.
	FooterHTML string
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer converts HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during template or PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateNotFound = "TEMPLATE_NOT_FOUND"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

// estimatePageCount counts page objects in the PDF. Each page has one
// "/Type /Page" and the page tree adds "/Type /Pages".
func estimatePageCount(pdfData []byte) int {
	count := bytes.Count(pdfData, []byte("/Type /Page")) - bytes.Count(pdfData, []byte("/Type /Pages"))
	return max(count, 1)
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}
