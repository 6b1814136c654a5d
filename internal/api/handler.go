package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/phonepe-statement-analyzer/internal/logger"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/models"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/parser"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/pipeline"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/summary"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/writer"
)

// PageBreak separates pages in client-side extracted text.
const PageBreak = "\n---PAGE_BREAK---\n"

// Download names for the export endpoints.
const (
	CSVFilename  = "phonepe_cleaned_data.csv"
	XLSXFilename = "phonepe_statement_analysis.xlsx"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// NoTransactionsMessage is shown when a document yields no transaction lines.
const NoTransactionsMessage = "No transactions found! Please check if the PDF format is standard."

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success              bool                 `json:"success"`
	Error                string               `json:"error,omitempty"`
	NoTransactions       bool                 `json:"noTransactions,omitempty"`
	Transactions         []models.Transaction `json:"transactions"`
	DailySummary         []summary.Entry      `json:"dailySummary"`
	TotalReceived        float64              `json:"totalReceived"`
	TotalReceivedDisplay string               `json:"totalReceivedDisplay,omitempty"`
	UndatedCredits       int                  `json:"undatedCredits,omitempty"`
	Count                int                  `json:"count"`
	Pages                int                  `json:"pages"`
	CSV                  string               `json:"csv,omitempty"`
	Version              string               `json:"version,omitempty"`
	DebugLines           []models.DebugLine   `json:"debugLines,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Log       zerolog.Logger
	StaticDir string
	Version   string
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/convert", h.HandleConvert)
	app.Post("/api/export/csv", h.HandleExportCSV)
	app.Post("/api/export/xlsx", h.HandleExportXLSX)

	if h.StaticDir != "" {
		app.Static("/", h.StaticDir)
		// SPA: unknown non-API routes get index.html
		app.Get("/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return fiber.ErrNotFound
			}
			return c.SendFile(filepath.Join(h.StaticDir, "index.html"))
		})
	}
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.Version,
		"engine":  "fiber",
	})
}

// HandleConvert parses an uploaded statement and returns transactions, the
// daily credit summary and a CSV rendering.
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	res, status, err := h.analyze(c)
	if err != nil {
		return writeFailure(c, status, res, err)
	}

	var csvBuf bytes.Buffer
	if err := (&writer.CSVWriter{}).Write(&csvBuf, res.Statement.Transactions); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	resp := newResponse(res)
	resp.Success = true
	resp.CSV = csvBuf.String()
	resp.TotalReceivedDisplay = writer.FormatRupees(resp.TotalReceived)
	resp.Version = h.Version
	if c.FormValue("debug") == "true" {
		resp.DebugLines = res.Statement.DebugLines
	}

	return c.JSON(resp)
}

// HandleExportCSV returns the cleaned transaction list as a CSV download.
func (h *Handler) HandleExportCSV(c *fiber.Ctx) error {
	res, status, err := h.analyze(c)
	if err != nil {
		return writeFailure(c, status, res, err)
	}

	var buf bytes.Buffer
	if err := (&writer.CSVWriter{}).Write(&buf, res.Statement.Transactions); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	c.Attachment(CSVFilename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

// HandleExportXLSX returns the transactions and the daily summary as a workbook.
func (h *Handler) HandleExportXLSX(c *fiber.Ctx) error {
	res, status, err := h.analyze(c)
	if err != nil {
		return writeFailure(c, status, res, err)
	}

	var buf bytes.Buffer
	if err := (&writer.XLSXWriter{}).Write(&buf, res.Statement.Transactions, res.Summary); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("XLSX generation failed: %v", err))
	}

	c.Attachment(XLSXFilename)
	c.Set(fiber.HeaderContentType, xlsxMIME)
	return c.Send(buf.Bytes())
}

// analyze reads the upload form and runs the pipeline. The returned status
// is meaningful only when err is non-nil.
func (h *Handler) analyze(c *fiber.Ctx) (*pipeline.Result, int, error) {
	log := h.Log.With().Str("request_id", requestIDFrom(c)).Logger()
	ctx := logger.WithContext(c.UserContext(), log)

	header, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.StatusBadRequest, errors.New("No file uploaded. Use form field 'file'.")
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		return nil, fiber.StatusBadRequest, errors.New("Only PDF files are supported.")
	}

	// Text already extracted client-side (pdf.js) skips server extraction.
	var res *pipeline.Result
	if text := c.FormValue("extractedText"); text != "" {
		res, err = pipeline.Analyze(ctx, strings.Split(text, PageBreak))
	} else {
		data, readErr := readUpload(header)
		if readErr != nil {
			return nil, fiber.StatusInternalServerError, errors.New("Failed to read uploaded file.")
		}
		res, err = pipeline.AnalyzePDF(ctx, data)
	}

	switch {
	case errors.Is(err, parser.ErrNoTransactions):
		log.Info().Str("file", header.Filename).Int("pages", len(res.Pages)).Msg("no transactions found")
		return res, fiber.StatusUnprocessableEntity, err
	case err != nil:
		log.Warn().Err(err).Str("file", header.Filename).Msg("statement analysis failed")
		return nil, fiber.StatusUnprocessableEntity, fmt.Errorf("An error occurred: %v", err)
	}

	log.Info().
		Str("file", header.Filename).
		Int("transactions", len(res.Statement.Transactions)).
		Float64("total_received", res.Summary.GrandTotal()).
		Msg("statement converted")
	return res, 0, nil
}

// readUpload loads the uploaded PDF into memory; the part is closed before returning.
func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func newResponse(res *pipeline.Result) ConvertResponse {
	// nil slices marshal to JSON null, not []
	txns := res.Statement.Transactions
	if txns == nil {
		txns = []models.Transaction{}
	}
	return ConvertResponse{
		Transactions:   txns,
		DailySummary:   res.Summary.Entries,
		TotalReceived:  res.Summary.GrandTotal(),
		UndatedCredits: res.Summary.Skipped,
		Count:          len(txns),
		Pages:          len(res.Pages),
	}
}

func writeFailure(c *fiber.Ctx, status int, res *pipeline.Result, err error) error {
	if errors.Is(err, parser.ErrNoTransactions) && res != nil {
		resp := newResponse(res)
		resp.Error = NoTransactionsMessage
		resp.NoTransactions = true
		return c.Status(status).JSON(resp)
	}
	return writeError(c, status, err.Error())
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success:      false,
		Error:        msg,
		Transactions: []models.Transaction{},
		DailySummary: []summary.Entry{},
	})
}
