package printing

import (
	"context"

	"go.uber.org/zap"
)

const pageFooter = `<div style="font-size:8px;width:100%;text-align:center;color:#888;">` +
	`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

// Generator renders a named template and prints it to PDF
type Generator struct {
	engine    *TemplateEngine
	renderer  PDFRenderer
	paperSize PaperSize
	logger    *zap.Logger
}

// NewGenerator combines a template engine and a PDF renderer
func NewGenerator(engine *TemplateEngine, renderer PDFRenderer, paperSize PaperSize, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !paperSize.IsValid() {
		paperSize = PaperSizeLetter
	}
	return &Generator{engine: engine, renderer: renderer, paperSize: paperSize, logger: logger}
}

// Generate renders template name with data and returns the PDF bytes
func (g *Generator) Generate(ctx context.Context, name string, data any, title string) ([]byte, error) {
	html, err := g.engine.Render(name, data)
	if err != nil {
		return nil, err
	}

	result, err := g.renderer.Render(ctx, &RenderRequest{
		HTML:        html,
		Title:       title,
		PaperSize:   g.paperSize,
		Orientation: OrientationPortrait,
		Margins:     DefaultMargins(),
		FooterHTML:  pageFooter,
	})
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Document generated",
		zap.String("template", name),
		zap.Int("pages", result.PageCount))
	return result.PDFData, nil
}
