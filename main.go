package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/phonepe-statement-analyzer/internal/api"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/config"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/logger"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/parser"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/pipeline"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/summary"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/writer"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalf("Configuration error: %v\n", err)
	}

	// CLI flags
	csvFlag := flag.String("csv", "", "Output CSV file path (defaults to input filename with .csv extension)")
	xlsxFlag := flag.String("xlsx", "", "Output XLSX file path (defaults to input filename with .xlsx extension)")
	summaryFlag := flag.Bool("summary", true, "Print the daily credit summary")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of converting files")
	portFlag := flag.String("port", cfg.Port, "HTTP port for --serve (or set PORT env)")
	staticFlag := flag.String("static", cfg.StaticDir, "Directory of web UI files to serve (or set STATIC_DIR env)")
	logLevelFlag := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error (or set LOG_LEVEL env)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `PhonePe Statement Converter & Analyzer

Converts PhonePe PDF statements into clean CSV/XLSX files and
calculates the total amount received (credits) per day.

Usage:
  phonepe-analyzer [flags] <statement.pdf> [statement2.pdf ...]
  phonepe-analyzer --serve [--port=8080]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert and print daily credits
  phonepe-analyzer statement.pdf

  # Custom output paths
  phonepe-analyzer --csv=clean.csv --xlsx=analysis.xlsx statement.pdf

  # Run the upload API
  phonepe-analyzer --serve --port=9000
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("phonepe-analyzer v%s\n", version)
		os.Exit(0)
	}

	cfg.Port = *portFlag
	cfg.StaticDir = *staticFlag
	cfg.LogLevel = *logLevelFlag
	log := logger.New(cfg.LogLevel)

	if *serveFlag {
		if err := serve(cfg, log); err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	inputFiles := flag.Args()
	if len(inputFiles) > 1 && (*csvFlag != "" || *xlsxFlag != "") {
		fatalf("--csv and --xlsx can only be used with a single input file\n")
	}

	ctx := logger.WithContext(context.Background(), log)
	for _, inputPath := range inputFiles {
		opts := fileOptions{csvPath: *csvFlag, xlsxPath: *xlsxFlag, printSummary: *summaryFlag}
		if err := processFile(ctx, inputPath, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

type fileOptions struct {
	csvPath      string
	xlsxPath     string
	printSummary bool
}

func processFile(ctx context.Context, inputPath string, opts fileOptions) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext != ".pdf" {
		return fmt.Errorf("expected .pdf file, got %q", ext)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	res, err := pipeline.AnalyzePDF(ctx, data)
	if errors.Is(err, parser.ErrNoTransactions) {
		fmt.Printf("  Extracted text from %d page(s)\n", len(res.Pages))
		fmt.Println("  " + api.NoTransactionsMessage)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("  Extracted text from %d page(s)\n", len(res.Pages))
	fmt.Printf("  Successfully extracted %d transactions.\n", len(res.Statement.Transactions))
	fmt.Printf("  Total Money Received (Total Credits): %s\n", writer.FormatRupees(res.Summary.GrandTotal()))
	if res.Summary.Skipped > 0 {
		fmt.Printf("  Warning: %d credit(s) had an unreadable date and are not in the daily summary.\n", res.Summary.Skipped)
	}

	if opts.printSummary {
		printSummary(res.Summary)
	}

	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	csvPath := opts.csvPath
	if csvPath == "" {
		csvPath = base + ".csv"
	}
	xlsxPath := opts.xlsxPath
	if xlsxPath == "" {
		xlsxPath = base + ".xlsx"
	}

	if err := (&writer.CSVWriter{}).WriteToFile(csvPath, res.Statement.Transactions); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	fmt.Printf("  Output: %s\n", csvPath)

	if err := (&writer.XLSXWriter{}).WriteToFile(xlsxPath, res.Statement.Transactions, res.Summary); err != nil {
		return fmt.Errorf("XLSX write failed: %w", err)
	}
	fmt.Printf("  Output: %s\n", xlsxPath)

	fmt.Println("  Done.")
	return nil
}

func printSummary(s *summary.Summary) {
	if s.Empty() {
		fmt.Println("  No credits received.")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  Date\tTotal Received (₹)")
	for _, e := range s.Entries {
		fmt.Fprintf(tw, "  %s\t%.2f\n", e.Day(), e.TotalCredited)
	}
	tw.Flush()
}

func serve(cfg config.Config, log zerolog.Logger) error {
	h := &api.Handler{Log: log, StaticDir: cfg.StaticDir, Version: version}
	app := api.NewApp(cfg, h)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting HTTP server")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Info().Msg("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
