package invoice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dmodern/invoice-etl/internal/extraction"
	"github.com/dmodern/invoice-etl/internal/schema"
)

// mockDB is a mock implementation of DB
type mockDB struct {
	records map[string]*Record
	saveErr error
}

func newMockDB() *mockDB {
	return &mockDB{records: make(map[string]*Record)}
}

func (m *mockDB) SaveRecord(record *Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[record.ID] = record
	return nil
}

func (m *mockDB) GetRecord(id string) (*Record, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return record, nil
}

func (m *mockDB) ListRecords() ([]*Record, error) {
	records := make([]*Record, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, r)
	}
	return records, nil
}

func (m *mockDB) Close() error {
	return nil
}

// mockExtractor is a mock implementation of extraction.Extractor
type mockExtractor struct {
	doc        any
	extractErr error
	calls      int
}

func (m *mockExtractor) Extract(ctx context.Context, pages []extraction.Page) (any, error) {
	m.calls++
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.doc, nil
}

func (m *mockExtractor) Close() error {
	return nil
}

// mockStore is a mock implementation of Store
type mockStore struct {
	written  map[string]*Object
	writeErr error
}

func newMockStore() *mockStore {
	return &mockStore{written: make(map[string]*Object)}
}

func (m *mockStore) WriteDocument(relPath string, doc *Object) (string, error) {
	if m.writeErr != nil {
		return "", m.writeErr
	}
	m.written[filepath.ToSlash(relPath)] = doc
	return "/out/" + filepath.ToSlash(relPath), nil
}

// mockAppender is a mock implementation of RowAppender
type mockAppender struct {
	rows      []Row
	appendErr error
	calls     int
}

func (m *mockAppender) AppendRows(ctx context.Context, rows []Row) error {
	m.calls++
	if m.appendErr != nil {
		return m.appendErr
	}
	m.rows = append(m.rows, rows...)
	return nil
}

// fixedTimeSource provides a fixed time for testing
type fixedTimeSource struct {
	now time.Time
}

func (f *fixedTimeSource) Now() time.Time {
	return f.now
}

var _ = Describe("Service", func() {
	var (
		baseDir   string
		db        *mockDB
		extractor *mockExtractor
		store     *mockStore
		appender  *mockAppender
		service   *Service
		now       time.Time
		runErr    error
	)

	writeFile := func(rel string) {
		path := filepath.Join(baseDir, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte("fake image"), 0644)).To(Succeed())
	}

	BeforeEach(func() {
		baseDir = GinkgoT().TempDir()
		db = newMockDB()
		extractor = &mockExtractor{
			doc: map[string]any{
				"invoice_number": "INV-1",
				"line_items": []any{
					map[string]any{"item_name": "Rice", "quantity": 2.0},
				},
			},
		}
		store = newMockStore()
		appender = &mockAppender{}
		now = time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
		service = NewServiceWithDeps(db, extractor, store, appender, schema.Invoice(), &fixedTimeSource{now: now})
	})

	Describe("Run", func() {
		var force bool

		BeforeEach(func() {
			force = false
		})

		JustBeforeEach(func() {
			runErr = service.Run(context.Background(), baseDir, force)
		})

		When("the base directory has invoice files", func() {
			BeforeEach(func() {
				writeFile("2024/a.png")
				writeFile("b.jpg")
			})

			It("should not return an error", func() {
				Expect(runErr).NotTo(HaveOccurred())
			})

			It("processes every file", func() {
				Expect(extractor.calls).To(Equal(2))
			})

			It("writes one JSON document per invoice, mirroring sub-directories", func() {
				Expect(store.written).To(HaveKey("2024/a.json"))
				Expect(store.written).To(HaveKey("b.json"))
			})

			It("writes fully-shaped documents", func() {
				doc := store.written["b.json"]
				Expect(doc.Keys()).To(Equal([]string{"invoice_number", "invoice_date", "vendor", "ship_to", "line_items"}))
			})

			It("appends the flattened rows", func() {
				Expect(appender.rows).To(HaveLen(2))
				Expect(appender.rows[0][0]).To(Equal("INV-1"))
				Expect(appender.rows[0][5]).To(Equal("Rice"))
			})

			It("records each invoice in the ledger", func() {
				record, err := db.GetRecord("2024/a")
				Expect(err).NotTo(HaveOccurred())
				Expect(record.Status).To(Equal(StatusDone))
				Expect(record.Rows).To(Equal(1))
				Expect(record.ProcessedAt).To(Equal(now))
			})
		})

		When("non-invoice files are present", func() {
			BeforeEach(func() {
				writeFile("a.png")
				writeFile("notes.txt")
				writeFile("data.json")
			})

			It("ignores them", func() {
				Expect(extractor.calls).To(Equal(1))
			})
		})

		When("the base directory has no invoice files", func() {
			It("does nothing and succeeds", func() {
				Expect(runErr).NotTo(HaveOccurred())
				Expect(extractor.calls).To(BeZero())
			})
		})

		When("an invoice is already in the ledger", func() {
			BeforeEach(func() {
				writeFile("a.png")
				writeFile("b.png")
				Expect(db.SaveRecord(&Record{ID: "a", Status: StatusDone})).To(Succeed())
			})

			It("skips it", func() {
				Expect(extractor.calls).To(Equal(1))
				Expect(store.written).NotTo(HaveKey("a.json"))
				Expect(store.written).To(HaveKey("b.json"))
			})

			When("force is set", func() {
				BeforeEach(func() {
					force = true
				})

				It("reprocesses it", func() {
					Expect(extractor.calls).To(Equal(2))
					Expect(store.written).To(HaveKey("a.json"))
				})
			})
		})

		When("a previous attempt failed", func() {
			BeforeEach(func() {
				writeFile("a.png")
				Expect(db.SaveRecord(&Record{ID: "a", Status: StatusFailed})).To(Succeed())
			})

			It("retries without force", func() {
				Expect(extractor.calls).To(Equal(1))
			})
		})

		When("extraction fails", func() {
			BeforeEach(func() {
				writeFile("a.png")
				writeFile("b.png")
				extractor.extractErr = errors.New("quota exceeded")
			})

			It("skips the failing invoices and finishes the batch", func() {
				Expect(runErr).NotTo(HaveOccurred())
				Expect(extractor.calls).To(Equal(2))
				Expect(store.written).To(BeEmpty())
			})
		})

		When("the spreadsheet sink fails", func() {
			BeforeEach(func() {
				writeFile("a.png")
				appender.appendErr = errors.New("api error")
			})

			It("still writes the JSON document and records the invoice", func() {
				Expect(runErr).NotTo(HaveOccurred())
				Expect(store.written).To(HaveKey("a.json"))
				_, err := db.GetRecord("a")
				Expect(err).NotTo(HaveOccurred())
			})
		})

		When("no spreadsheet is configured", func() {
			BeforeEach(func() {
				writeFile("a.png")
				service = NewServiceWithDeps(db, extractor, store, nil, schema.Invoice(), &fixedTimeSource{now: now})
			})

			It("still writes the JSON document", func() {
				Expect(runErr).NotTo(HaveOccurred())
				Expect(store.written).To(HaveKey("a.json"))
			})
		})

		When("the extractor returns a malformed document", func() {
			BeforeEach(func() {
				writeFile("a.png")
				extractor.doc = "not an object at all"
			})

			It("exports an empty-but-fully-shaped invoice", func() {
				Expect(runErr).NotTo(HaveOccurred())
				doc := store.written["a.json"]
				Expect(doc).NotTo(BeNil())
				number, ok := doc.Get("invoice_number")
				Expect(ok).To(BeTrue())
				Expect(number).To(BeNil())
			})

			It("appends no rows", func() {
				Expect(appender.calls).To(BeZero())
			})
		})

		When("the context is cancelled", func() {
			BeforeEach(func() {
				writeFile("a.png")
			})

			It("stops before processing", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				err := service.Run(ctx, baseDir, false)
				Expect(err).To(MatchError(context.Canceled))
			})
		})
	})
})

var _ = Describe("FindInvoiceFiles", func() {
	var baseDir string

	BeforeEach(func() {
		baseDir = GinkgoT().TempDir()
	})

	write := func(rel string) {
		path := filepath.Join(baseDir, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte("x"), 0644)).To(Succeed())
	}

	It("matches extensions case-insensitively", func() {
		write("a.PNG")
		write("b.Jpeg")
		write("c.txt")

		files, err := FindInvoiceFiles(baseDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(HaveLen(2))
	})

	It("returns files sorted lexicographically", func() {
		write("z.png")
		write("a/nested.png")
		write("m.jpg")

		files, err := FindInvoiceFiles(baseDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(Equal([]string{
			filepath.Join(baseDir, "a/nested.png"),
			filepath.Join(baseDir, "m.jpg"),
			filepath.Join(baseDir, "z.png"),
		}))
	})

	It("returns the error for a missing directory", func() {
		_, err := FindInvoiceFiles(filepath.Join(baseDir, "missing"))
		Expect(err).To(HaveOccurred())
	})
})
