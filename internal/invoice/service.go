package invoice

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dmodern/invoice-etl/internal/extraction"
	"github.com/dmodern/invoice-etl/internal/schema"
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// invoiceExtensions are the file extensions the walker picks up,
// lowercase. PDF and HEIC ride on the extraction package's conversion
// pipeline.
var invoiceExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".pdf":  true,
	".heic": true,
	".heif": true,
}

// FindInvoiceFiles walks baseDir and returns every invoice file,
// matched case-insensitively by extension and sorted lexicographically
// for stable processing order.
func FindInvoiceFiles(baseDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if invoiceExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", baseDir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Service runs the batch pipeline: walk, extract, normalize, export,
// record. Invoices are processed one at a time; a failure skips that
// invoice and the batch continues.
type Service struct {
	db            DB
	extractor     extraction.Extractor
	store         Store
	appender      RowAppender // nil disables spreadsheet export
	invoiceSchema *schema.Node
	timeSource    TimeSource
}

// NewService creates a new Service. appender may be nil when no
// spreadsheet is configured; JSON export runs regardless.
func NewService(db DB, extractor extraction.Extractor, store Store, appender RowAppender, invoiceSchema *schema.Node) *Service {
	return &Service{
		db:            db,
		extractor:     extractor,
		store:         store,
		appender:      appender,
		invoiceSchema: invoiceSchema,
		timeSource:    &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with a custom time source for
// testing
func NewServiceWithDeps(db DB, extractor extraction.Extractor, store Store, appender RowAppender, invoiceSchema *schema.Node, timeSrc TimeSource) *Service {
	s := NewService(db, extractor, store, appender, invoiceSchema)
	s.timeSource = timeSrc
	return s
}

// Run processes every invoice file under baseDir. Invoices already in
// the ledger are skipped unless force is set. The returned error covers
// setup problems only; per-invoice failures are logged and absorbed.
func (s *Service) Run(ctx context.Context, baseDir string, force bool) error {
	files, err := FindInvoiceFiles(baseDir)
	if err != nil {
		return fmt.Errorf("finding invoice files: %w", err)
	}
	if len(files) == 0 {
		slog.Warn("No invoice files found", "dir", baseDir)
		return nil
	}
	slog.Info("Starting batch", "dir", baseDir, "files", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			slog.Error("Failed to resolve relative path", "path", path, "error", err)
			continue
		}
		id := invoiceID(rel)

		if !force {
			if record, err := s.db.GetRecord(id); err == nil && record.Status == StatusDone {
				slog.Info("Skipping already processed invoice", "id", id)
				continue
			}
		}

		if err := s.ProcessInvoice(ctx, id, path, rel); err != nil {
			slog.Error("Failed to process invoice", "id", id, "path", path, "error", err)
			// failed entries never block a re-run; only done ones do
			s.recordFailure(id, path)
			continue
		}
	}

	slog.Info("Batch complete")
	return nil
}

// ProcessInvoice runs one invoice file through the whole pipeline:
// extract, normalize against the invoice schema, write JSON, flatten,
// append rows, record in the ledger.
func (s *Service) ProcessInvoice(ctx context.Context, id, path, rel string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	pages := []extraction.Page{{
		Data:        data,
		ContentType: extraction.ContentTypeForFile(path),
	}}
	raw, err := s.extractor.Extract(ctx, pages)
	if err != nil {
		return fmt.Errorf("extracting invoice: %w", err)
	}

	// whatever shape came back, the document is fully shaped after this
	doc, ok := Reconcile(raw, s.invoiceSchema).(*Object)
	if !ok {
		return fmt.Errorf("invoice schema root is not an object")
	}

	outRel := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".json"
	outPath, err := s.store.WriteDocument(outRel, doc)
	if err != nil {
		return fmt.Errorf("writing document: %w", err)
	}

	rows := Flatten(doc)
	switch {
	case len(rows) == 0:
		slog.Info("No line items to export", "id", id)
	case s.appender == nil:
		slog.Warn("Spreadsheet export not configured, skipping", "id", id)
	default:
		// JSON export already succeeded; a spreadsheet failure is logged
		// but does not fail the invoice
		if err := s.appender.AppendRows(ctx, rows); err != nil {
			slog.Error("Failed to append rows to spreadsheet", "id", id, "error", err)
		}
	}

	record := &Record{
		ID:          id,
		SourcePath:  path,
		OutputPath:  outPath,
		Rows:        len(rows),
		Status:      StatusDone,
		ProcessedAt: s.timeSource.Now(),
	}
	if err := s.db.SaveRecord(record); err != nil {
		// the ledger is advisory; losing an entry only costs a re-run
		slog.Warn("Failed to save ledger record", "id", id, "error", err)
	}

	slog.Info("Processed invoice", "id", id, "output", outPath, "rows", len(rows))
	return nil
}

func (s *Service) recordFailure(id, path string) {
	record := &Record{
		ID:          id,
		SourcePath:  path,
		Status:      StatusFailed,
		ProcessedAt: s.timeSource.Now(),
	}
	if err := s.db.SaveRecord(record); err != nil {
		slog.Warn("Failed to save ledger record", "id", id, "error", err)
	}
}

// invoiceID derives a stable invoice ID from the source path relative to
// the base directory
func invoiceID(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}
