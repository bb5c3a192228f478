package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/dmodern/invoice-etl/internal/extraction"
	"github.com/dmodern/invoice-etl/internal/invoice"
	"github.com/dmodern/invoice-etl/internal/schema"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("invoice-etl")
	var (
		baseDir       = fs.StringLong("base-dir", "invoices", "Base directory containing raw invoice image files")
		outputDir     = fs.StringLong("output-dir", "parsed_invoices", "Output directory for parsed invoice JSON")
		dbPath        = fs.StringLong("db", "invoice-etl.db", "Run-ledger database file path")
		extractorType = fs.StringLong("extractor", "gemini", "Extraction backend: 'gemini' or 'ollama'")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.0-flash", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		sheetsID      = fs.StringLong("sheets-id", "", "Google Sheets spreadsheet ID (empty disables spreadsheet export)")
		sheetName     = fs.StringLong("sheet-name", "Invoice data", "Worksheet name to append rows to")
		credsFile     = fs.StringLong("service-account-file", "", "Path to Google service account credentials JSON file")
		force         = fs.BoolLong("force", "Reprocess invoices already in the ledger")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	invoiceSchema := schema.Invoice()
	if err := invoiceSchema.Validate(); err != nil {
		slog.Error("Invalid invoice schema", "error", err)
		os.Exit(1)
	}

	// Initialize ledger database
	slog.Info("Initializing ledger...", "path", *dbPath)
	db, err := invoice.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize ledger database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize extractor based on type
	var extractor extraction.Extractor
	switch *extractorType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		extractor, err = extraction.NewGemini(apiKey, *geminiModel, invoiceSchema)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama extractor...", "url", *ollamaURL, "model", *ollamaModel)
		extractor, err = extraction.NewOllama(*ollamaURL, *ollamaModel, invoiceSchema)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid extractor type", "type", *extractorType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer extractor.Close()

	// Initialize JSON output store
	slog.Info("Initializing output store...", "dir", *outputDir)
	store, err := invoice.NewLocalStore(*outputDir)
	if err != nil {
		slog.Error("Failed to initialize output store", "error", err)
		os.Exit(1)
	}

	// Cancel the batch on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize spreadsheet sink if configured; JSON export works
	// without it
	var appender invoice.RowAppender
	if *sheetsID != "" && *credsFile != "" {
		sheetsAppender, err := invoice.NewGoogleSheets(ctx, *credsFile, *sheetsID, *sheetName)
		if err != nil {
			slog.Error("Failed to initialize Google Sheets", "error", err)
			os.Exit(1)
		}
		appender = sheetsAppender
	} else {
		slog.Warn("Spreadsheet export disabled: --sheets-id and --service-account-file are both required")
	}

	service := invoice.NewService(db, extractor, store, appender, invoiceSchema)

	if err := service.Run(ctx, *baseDir, *force); err != nil {
		slog.Error("Batch failed", "error", err)
		os.Exit(1)
	}
}
