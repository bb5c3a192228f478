package extraction

import "context"

// Page is one page of a scanned invoice
type Page struct {
	Data        []byte
	ContentType string
}

// Extractor defines the interface for invoice extraction backends. The
// returned document is the backend's decoded JSON as-is: callers are
// expected to normalize it against the invoice schema before use.
type Extractor interface {
	// Extract analyzes the pages of one invoice and returns the raw
	// extracted document
	Extract(ctx context.Context, pages []Page) (any, error)
	// Close closes the extractor and releases resources
	Close() error
}
