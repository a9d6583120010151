package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brunobiangulo/stockreport"
)

type handler struct {
	engine      stockreport.Engine
	maxFileSize int64
}

func newHandler(e stockreport.Engine, maxFileSize int64) *handler {
	return &handler{engine: e, maxFileSize: maxFileSize}
}

// parseRequest holds the options shared by the JSON parse endpoints.
type parseRequest struct {
	Order     []string `json:"order,omitempty"`
	NoHistory bool     `json:"no_history,omitempty"`
}

func (p parseRequest) options() []stockreport.ParseOption {
	var opts []stockreport.ParseOption
	if len(p.Order) > 0 {
		opts = append(opts, stockreport.WithProductOrder(p.Order...))
	}
	if p.NoHistory {
		opts = append(opts, stockreport.WithoutHistory())
	}
	return opts
}

// POST /parse
// Multipart upload: "file" (required), "order" (comma-separated codes),
// "no_history" (bool).
func (h *handler) handleParseUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart form with 'file'")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	req := parseRequest{Order: stockreport.SplitCodes(r.FormValue("order"))}
	if v := r.FormValue("no_history"); v != "" {
		req.NoHistory, _ = strconv.ParseBool(v)
	}

	res, err := h.engine.ParseUpload(ctx, header.Filename, header.Header.Get("Content-Type"), file, req.options()...)
	if err != nil {
		h.fail(w, "parse upload error", err, "filename", header.Filename)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// POST /parse/text
func (h *handler) handleParseText(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	var req struct {
		parseRequest
		Text string `json:"text"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxFileSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	res, err := h.engine.ParseText(ctx, req.Text, req.options()...)
	if err != nil {
		h.fail(w, "parse text error", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// POST /parse/rows
func (h *handler) handleParseRows(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	var req struct {
		parseRequest
		Rows [][]string `json:"rows"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxFileSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "rows is required")
		return
	}

	res, err := h.engine.ParseGrid(ctx, req.Rows, req.options()...)
	if err != nil {
		h.fail(w, "parse rows error", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// GET /runs?limit=N
func (h *handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.engine.Runs(r.Context(), limit)
	if err != nil {
		h.fail(w, "list runs error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs": runs,
	})
}

// GET /runs/{id}
func (h *handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.engine.Run(r.Context(), id)
	if err != nil {
		h.fail(w, "get run error", err, "run_id", id)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// DELETE /runs/{id}
func (h *handler) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.DeleteRun(r.Context(), id); err != nil {
		h.fail(w, "delete run error", err, "run_id", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /product-order
func (h *handler) handleGetProductOrder(w http.ResponseWriter, r *http.Request) {
	codes, err := h.engine.ProductOrder(r.Context())
	if err != nil {
		h.fail(w, "get product order error", err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"codes": codes})
}

// PUT /product-order
func (h *handler) handleSetProductOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Codes []string `json:"codes"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxFileSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.engine.SetProductOrder(r.Context(), req.Codes); err != nil {
		h.fail(w, "set product order error", err)
		return
	}
	h.handleGetProductOrder(w, r)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	stats, err := h.engine.Stats(r.Context())
	switch {
	case err == nil:
		resp["history"] = stats
	case stockreport.Code(err) == stockreport.CodeHistoryDisabled:
		resp["history"] = "disabled"
	default:
		slog.Error("health check: history store", "error", err)
		resp["status"] = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

// fail logs err and writes it with the status matching its code.
func (h *handler) fail(w http.ResponseWriter, msg string, err error, attrs ...any) {
	code := stockreport.Code(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		slog.Error(msg, append(attrs, "code", code, "error", err)...)
	} else {
		slog.Info(msg, append(attrs, "code", code, "error", err)...)
	}

	text := err.Error()
	if code == stockreport.CodeInternal {
		text = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": text, "code": code})
}

func statusFor(code string) int {
	switch code {
	case stockreport.CodeNoVariationsFound:
		return http.StatusUnprocessableEntity
	case stockreport.CodeUnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case stockreport.CodeExtractionFailed:
		return http.StatusBadGateway
	case stockreport.CodeExtractionLibraryUnavailable:
		return http.StatusNotImplemented
	case stockreport.CodeInvalidInput:
		return http.StatusBadRequest
	case stockreport.CodeNotFound:
		return http.StatusNotFound
	case stockreport.CodeHistoryDisabled:
		return http.StatusConflict
	case stockreport.CodeCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
