package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brunobiangulo/stockreport"
)

const sampleReport = "Qtde            P    M    G\n123.AC\nA PRODUZIR: 6   1    2    3\n"

func newTestServer(t *testing.T, mutate ...func(*stockreport.Config)) *httptest.Server {
	t.Helper()
	cfg := stockreport.DefaultConfig()
	cfg.History = false
	for _, m := range mutate {
		m(&cfg)
	}
	engine, err := stockreport.New(cfg)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	srv := httptest.NewServer(newRouter(engine, cfg))
	t.Cleanup(func() {
		srv.Close()
		engine.Close()
	})
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return send(t, req)
}

func send(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func upload(t *testing.T, url, filename, content string, fields map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return send(t, req)
}

// ---------------------------------------------------------------------------
// Parse endpoints
// ---------------------------------------------------------------------------

func TestParseText(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/parse/text", map[string]any{"text": sampleReport})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["variations"].(float64) != 1 {
		t.Errorf("variations = %v", body["variations"])
	}
	products := body["products"].([]any)
	p := products[0].(map[string]any)
	if p["productCode"] != "123" {
		t.Errorf("productCode = %v", p["productCode"])
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestParseTextNoVariations(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/parse/text", map[string]any{"text": "nada aqui"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["code"] != stockreport.CodeNoVariationsFound {
		t.Errorf("code = %v", body["code"])
	}
}

func TestParseTextBadRequests(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/parse/text", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing text: status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/parse/text", strings.NewReader("{"))
	resp, _ = send(t, req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid JSON: status = %d", resp.StatusCode)
	}
}

func TestParseRows(t *testing.T) {
	srv := newTestServer(t)

	rows := [][]string{
		{"123.AC", "Qtde", "04", "06", "08"},
		{"A PRODUZIR:", "40", "5", "15", "20"},
	}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/parse/rows", map[string]any{"rows": rows})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["mode"] != "rows" {
		t.Errorf("mode = %v", body["mode"])
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/parse/rows", map[string]any{"rows": [][]string{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty rows: status = %d", resp.StatusCode)
	}
}

func TestParseUpload(t *testing.T) {
	srv := newTestServer(t)

	csv := "Referência;Qtde;PP;P;M\n100.A;1;2;3\n200.A;4;5;6\n"
	resp, body := upload(t, srv.URL+"/parse", "estoque.csv", csv, map[string]string{"order": "200,100"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["filename"] != "estoque.csv" || body["format"] != "csv" {
		t.Errorf("filename/format = %v/%v", body["filename"], body["format"])
	}
	products := body["products"].([]any)
	if first := products[0].(map[string]any)["productCode"]; first != "200" {
		t.Errorf("first product = %v, want 200", first)
	}
}

func TestParseUploadErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		filename string
		content  string
		status   int
		code     string
	}{
		{"unsupported", "report.odt", "x", http.StatusUnsupportedMediaType, stockreport.CodeUnsupportedFileType},
		{"legacy", "report.xls", "x", http.StatusNotImplemented, stockreport.CodeExtractionLibraryUnavailable},
		{"corrupt", "report.xlsx", "x", http.StatusBadGateway, stockreport.CodeExtractionFailed},
		{"empty report", "report.txt", "hello", http.StatusUnprocessableEntity, stockreport.CodeNoVariationsFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := upload(t, srv.URL+"/parse", tt.filename, tt.content, nil)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if body["code"] != tt.code {
				t.Errorf("code = %v, want %s", body["code"], tt.code)
			}
		})
	}
}

func TestParseUploadMissingFile(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/parse", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	resp, _ := send(t, req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

// ---------------------------------------------------------------------------
// History and product order
// ---------------------------------------------------------------------------

func TestRunsWithoutHistory(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/runs", nil)
	if resp.StatusCode != http.StatusConflict || body["code"] != stockreport.CodeHistoryDisabled {
		t.Errorf("status = %d, body = %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/runs?limit=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d", resp.StatusCode)
	}
}

func TestProductOrder(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/product-order", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if codes := body["codes"].([]any); len(codes) != 0 {
		t.Errorf("expected empty order, got %v", codes)
	}

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/product-order", map[string]any{"codes": []string{"B", "A"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	codes := body["codes"].([]any)
	if len(codes) != 2 || codes[0] != "B" {
		t.Errorf("codes = %v", codes)
	}
}

func TestSetProductOrderBodyLimit(t *testing.T) {
	srv := newTestServer(t, func(c *stockreport.Config) { c.MaxFileSize = 64 })

	codes := make([]string, 100)
	for i := range codes {
		codes[i] = "100"
	}
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/product-order", map[string]any{"codes": codes})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/product-order", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := body["codes"].([]any); len(got) != 0 {
		t.Errorf("order changed to %v", got)
	}
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" || body["history"] != "disabled" {
		t.Errorf("body = %v", body)
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, func(c *stockreport.Config) { c.APIKey = "secret" })

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/product-order", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no key: status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/product-order", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, _ = send(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("with key: status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health without key: status = %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, func(c *stockreport.Config) { c.CORSOrigins = "https://app.example" })

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/parse/text", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		stockreport.CodeNoVariationsFound:            http.StatusUnprocessableEntity,
		stockreport.CodeUnsupportedFileType:          http.StatusUnsupportedMediaType,
		stockreport.CodeExtractionFailed:             http.StatusBadGateway,
		stockreport.CodeExtractionLibraryUnavailable: http.StatusNotImplemented,
		stockreport.CodeInvalidInput:                 http.StatusBadRequest,
		stockreport.CodeNotFound:                     http.StatusNotFound,
		stockreport.CodeInternal:                     http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
