// Package printing turns business documents into PDFs.
//
// TemplateEngine executes the embedded html/template files in templates/
// with locale-aware helpers (formatMoney, formatDate, formatUnits,
// formatHours, title). ChromedpRenderer prints the resulting HTML through
// headless Chrome, and Generator combines the two:
//
//	engine, _ := NewTemplateEngine(WithLocale("en-US"), WithCurrency("USD"))
//	renderer := NewChromedpRenderer(cfg.Printing, logger)
//	defer renderer.Close()
//	pdf, err := NewGenerator(engine, renderer, PaperSizeLetter, logger).
//		Generate(ctx, "invoice", InvoiceView{...}, "Invoice INV-202610-00001")
package printing
