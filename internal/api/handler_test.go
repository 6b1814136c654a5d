package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/phonepe-statement-analyzer/internal/config"
)

const extractedStatement = "Transaction Statement\n" +
	"Oct 30, 2025 Paid to John Doe CREDIT ₹1,500\n" +
	"Oct 30, 2025 Paid to John Doe DEBIT ₹500" +
	PageBreak +
	"Oct 30, 2025 Received from Jane CREDIT ₹2,300\n" +
	"Oct 29, 2025 Refund ₹100"

func setupTestApp() *fiber.App {
	h := &Handler{Log: zerolog.Nop(), Version: "test"}
	return NewApp(config.Default(), h)
}

// uploadRequest builds a multipart request with a file part and form fields.
func uploadRequest(t *testing.T, path, filename string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte("%PDF-1.4 placeholder"))
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	mw.Close()

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response) ConvertResponse {
	t.Helper()
	body, _ := io.ReadAll(resp.Body)
	var out ConvertResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", body, err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp()

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get(fiber.HeaderXRequestID) == "" {
		t.Error("expected X-Request-ID header")
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}
	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	app := setupTestApp()

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc-123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := resp.Header.Get(fiber.HeaderXRequestID); got != "abc-123" {
		t.Errorf("X-Request-ID: got %q, want %q", got, "abc-123")
	}
}

func TestConvertEndpointRequiresFile(t *testing.T) {
	app := setupTestApp()

	resp, err := app.Test(uploadRequest(t, "/api/convert", "", map[string]string{"extractedText": extractedStatement}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for missing file, got %d", resp.StatusCode)
	}
}

func TestConvertEndpointRejectsNonPDF(t *testing.T) {
	app := setupTestApp()

	resp, err := app.Test(uploadRequest(t, "/api/convert", "statement.txt", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for non-PDF upload, got %d", resp.StatusCode)
	}
}

func TestConvertEndpoint_ExtractedText(t *testing.T) {
	app := setupTestApp()

	fields := map[string]string{"extractedText": extractedStatement, "debug": "true"}
	resp, err := app.Test(uploadRequest(t, "/api/convert", "statement.pdf", fields))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	out := decode(t, resp)
	if !out.Success {
		t.Fatalf("expected success, got error %q", out.Error)
	}
	if out.Count != 3 || len(out.Transactions) != 3 {
		t.Errorf("transactions: got %d (count %d), want 3", len(out.Transactions), out.Count)
	}
	if out.Pages != 2 {
		t.Errorf("pages: got %d, want 2", out.Pages)
	}
	if len(out.DailySummary) != 1 || out.DailySummary[0].TotalCredited != 3800 {
		t.Errorf("daily summary: got %+v, want one entry of 3800", out.DailySummary)
	}
	if out.TotalReceived != 3800 {
		t.Errorf("totalReceived: got %f, want 3800", out.TotalReceived)
	}
	if out.TotalReceivedDisplay != "₹ 3,800.00" {
		t.Errorf("totalReceivedDisplay: got %q", out.TotalReceivedDisplay)
	}
	if !strings.HasPrefix(out.CSV, "Date,Transaction Details,Type,Amount\n") {
		t.Errorf("unexpected CSV: %q", out.CSV)
	}
	if len(out.DebugLines) == 0 {
		t.Error("expected debug lines when debug=true")
	}
}

func TestConvertEndpoint_NoTransactions(t *testing.T) {
	app := setupTestApp()

	fields := map[string]string{"extractedText": "PhonePe\nTransaction Statement\nPage 1 of 1"}
	resp, err := app.Test(uploadRequest(t, "/api/convert", "statement.pdf", fields))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	out := decode(t, resp)
	if !out.NoTransactions {
		t.Error("expected noTransactions=true")
	}
	if out.Error != NoTransactionsMessage {
		t.Errorf("error: got %q, want %q", out.Error, NoTransactionsMessage)
	}
	if out.Transactions == nil || len(out.Transactions) != 0 {
		t.Errorf("expected empty transaction list, got %v", out.Transactions)
	}
}

func TestConvertEndpoint_UnreadablePDF(t *testing.T) {
	app := setupTestApp()

	resp, err := app.Test(uploadRequest(t, "/api/convert", "broken.pdf", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	out := decode(t, resp)
	if out.Success || out.NoTransactions {
		t.Errorf("expected a generic failure, got %+v", out)
	}
	if !strings.HasPrefix(out.Error, "An error occurred:") {
		t.Errorf("error: got %q", out.Error)
	}
}

func TestExportCSVEndpoint(t *testing.T) {
	app := setupTestApp()

	fields := map[string]string{"extractedText": extractedStatement}
	resp, err := app.Test(uploadRequest(t, "/api/export/csv", "statement.pdf", fields))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get(fiber.HeaderContentDisposition); !strings.Contains(cd, CSVFilename) {
		t.Errorf("Content-Disposition: got %q", cd)
	}

	body, _ := io.ReadAll(resp.Body)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 4 {
		t.Errorf("expected header + 3 rows, got %d lines", len(lines))
	}
}

func TestExportXLSXEndpoint(t *testing.T) {
	app := setupTestApp()

	fields := map[string]string{"extractedText": extractedStatement}
	resp, err := app.Test(uploadRequest(t, "/api/export/xlsx", "statement.pdf", fields))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	f, err := excelize.OpenReader(resp.Body)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Daily Summary")
	if err != nil {
		t.Fatalf("read Daily Summary: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "2025-10-30" || rows[1][1] != "3800" {
		t.Errorf("Daily Summary rows: got %v", rows)
	}
}
