// Package stockreport reads factory stock reports (text, word-processing,
// spreadsheet, CSV and page documents) and turns them into per-product,
// per-size production snapshots. Extraction lives in package extract, the
// parsing core in package report, and parse history in package store.
package stockreport

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brunobiangulo/stockreport/extract"
	"github.com/brunobiangulo/stockreport/report"
	"github.com/brunobiangulo/stockreport/store"
)

// Engine is the main entry point: it dispatches a report to the right
// extractor and parser and keeps the parse history.
type Engine interface {
	// ParseFile detects the format from the file extension, extracts and
	// parses the report.
	ParseFile(ctx context.Context, path string, opts ...ParseOption) (*Result, error)

	// ParseUpload parses a report read from r. The format comes from the
	// filename extension, or from the MIME type when the extension is
	// missing or unknown.
	ParseUpload(ctx context.Context, filename, mimeType string, r io.Reader, opts ...ParseOption) (*Result, error)

	// ParseText parses already linearized report text.
	ParseText(ctx context.Context, text string, opts ...ParseOption) (*Result, error)

	// ParseGrid parses a grid of cells.
	ParseGrid(ctx context.Context, rows [][]string, opts ...ParseOption) (*Result, error)

	// Runs returns recorded parses, newest first. limit <= 0 means all.
	Runs(ctx context.Context, limit int) ([]Run, error)

	// Run returns one recorded parse with its products.
	Run(ctx context.Context, id string) (*Run, error)

	// DeleteRun removes a recorded parse.
	DeleteRun(ctx context.Context, id string) error

	// ProductOrder returns the preferred product order used when a parse
	// call carries none.
	ProductOrder(ctx context.Context) ([]string, error)

	// SetProductOrder replaces the preferred product order.
	SetProductOrder(ctx context.Context, codes []string) error

	// Stats reports history database counts.
	Stats(ctx context.Context) (*store.Stats, error)

	// Close cleanly shuts down the engine.
	Close() error
}

// Result is the outcome of one parse.
type Result struct {
	RunID      string                   `json:"run_id,omitempty"`
	Filename   string                   `json:"filename,omitempty"`
	Format     string                   `json:"format"`
	Mode       string                   `json:"mode"`
	Method     string                   `json:"method,omitempty"`
	Pages      int                      `json:"pages,omitempty"`
	Products   []report.ProductSnapshot `json:"products"`
	Variations int                      `json:"variations"`
	Warnings   int                      `json:"warnings"`
}

// Run is a recorded parse.
type Run struct {
	ID          string                   `json:"id"`
	Filename    string                   `json:"filename"`
	Format      string                   `json:"format"`
	Mode        string                   `json:"mode"`
	Method      string                   `json:"method"`
	ContentHash string                   `json:"content_hash"`
	Products    int                      `json:"products"`
	Variations  int                      `json:"variations"`
	Warnings    int                      `json:"warnings"`
	Snapshots   []report.ProductSnapshot `json:"snapshots,omitempty"`
	CreatedAt   string                   `json:"created_at"`
}

// ParseOption configures a single parse call.
type ParseOption func(*parseOptions)

type parseOptions struct {
	productOrder []string
	noHistory    bool
	format       string
	filename     string
}

// WithProductOrder sorts products by the given codes for this call,
// overriding the stored preference.
func WithProductOrder(codes ...string) ParseOption {
	return func(o *parseOptions) { o.productOrder = codes }
}

// WithoutHistory skips recording this parse.
func WithoutHistory() ParseOption {
	return func(o *parseOptions) { o.noHistory = true }
}

// WithFormat overrides the format detected from the file name.
func WithFormat(format string) ParseOption {
	return func(o *parseOptions) { o.format = strings.ToLower(format) }
}

// withFilename sets the name reported for a spooled upload.
func withFilename(name string) ParseOption {
	return func(o *parseOptions) { o.filename = name }
}

// source describes where parsed content came from.
type source struct {
	filename string
	format   string
	hash     string
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg        Config
	store      *store.Store // nil when history is disabled
	extractors *extract.Registry

	mu sync.RWMutex // guards cfg.ProductOrder when store is nil
}

// New creates an engine. With cfg.History set it opens (or creates) the
// history database and seeds the stored product order from cfg.ProductOrder.
func New(cfg Config) (Engine, error) {
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultConfig().MaxFileSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &engine{cfg: cfg, extractors: extract.NewRegistry()}

	if cfg.History {
		s, err := store.New(cfg.resolveDBPath())
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		e.store = s

		if len(cfg.ProductOrder) > 0 {
			ctx := context.Background()
			stored, err := s.ProductOrder(ctx)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("reading product order: %w", err)
			}
			if len(stored) == 0 {
				if err := s.SetProductOrder(ctx, cfg.ProductOrder); err != nil {
					s.Close()
					return nil, fmt.Errorf("seeding product order: %w", err)
				}
			}
		}
	}

	return e, nil
}

// ParseFile extracts and parses the report at path.
func (e *engine) ParseFile(ctx context.Context, path string, opts ...ParseOption) (*Result, error) {
	options := buildParseOptions(opts)

	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidInput)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving path: %v", ErrInvalidInput, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidInput, path)
	}
	if info.Size() > e.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: file is %d bytes, limit is %d", ErrInvalidInput, info.Size(), e.cfg.MaxFileSize)
	}

	filename := options.filename
	if filename == "" {
		filename = filepath.Base(absPath)
	}

	format := options.format
	if format == "" {
		f, ok := e.extractors.FormatFor(absPath, "")
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
		}
		format = f
	}
	x, err := e.extractors.Get(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, format)
	}

	hash, err := fileHash(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: hashing file: %v", ErrInvalidInput, err)
	}

	slog.Info("parse: extracting", "file", filename, "format", format)
	start := time.Now()

	ext, err := x.Extract(ctx, absPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, extract.ErrLibraryUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrExtractionLibraryUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	slog.Info("parse: extraction complete",
		"file", filename, "mode", ext.Mode, "method", ext.Method,
		"pages", ext.Pages, "elapsed", time.Since(start).Round(time.Millisecond))

	return e.parse(ctx, source{filename: filename, format: format, hash: hash}, ext, options)
}

// ParseUpload spools r to a temporary file, bounded by MaxFileSize, and
// parses it like ParseFile.
func (e *engine) ParseUpload(ctx context.Context, filename, mimeType string, r io.Reader, opts ...ParseOption) (*Result, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no content", ErrInvalidInput)
	}
	safeName := filepath.Base(filename)
	if safeName == "." || safeName == string(filepath.Separator) {
		safeName = ""
	}

	format, ok := e.extractors.FormatFor(safeName, mimeType)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFileType, safeName, mimeType)
	}

	tmp, err := os.CreateTemp("", "stockreport-*."+format)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, e.cfg.MaxFileSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload: %v", ErrInvalidInput, err)
	}
	if n > e.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: upload exceeds %d bytes", ErrInvalidInput, e.cfg.MaxFileSize)
	}

	opts = append(opts, WithFormat(format), withFilename(safeName))
	return e.ParseFile(ctx, tmp.Name(), opts...)
}

// ParseText parses linearized report text.
func (e *engine) ParseText(ctx context.Context, text string, opts ...ParseOption) (*Result, error) {
	options := buildParseOptions(opts)
	ext := &extract.Extraction{Mode: extract.ModeLines, Text: text}
	return e.parse(ctx, source{filename: options.filename, format: "text", hash: contentHash([]byte(text))}, ext, options)
}

// ParseGrid parses a grid of cells.
func (e *engine) ParseGrid(ctx context.Context, rows [][]string, opts ...ParseOption) (*Result, error) {
	options := buildParseOptions(opts)
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ext := &extract.Extraction{Mode: extract.ModeRows, Rows: rows}
	return e.parse(ctx, source{filename: options.filename, format: "grid", hash: contentHash(data)}, ext, options)
}

// parse runs the report core on an extraction, enforces that at least one
// variation was found and records the run.
func (e *engine) parse(ctx context.Context, src source, ext *extract.Extraction, options *parseOptions) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order, err := e.resolveOrder(ctx, options)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var products []report.ProductSnapshot
	switch ext.Mode {
	case extract.ModeRows:
		products = report.ParseRows(ext.Rows, report.WithProductOrder(order...))
	default:
		products = report.Parse(ext.Text, report.WithProductOrder(order...))
	}

	res := &Result{
		Filename: src.filename,
		Format:   src.format,
		Mode:     string(ext.Mode),
		Method:   ext.Method,
		Pages:    ext.Pages,
		Products: products,
	}
	for _, p := range products {
		res.Variations += len(p.Variations)
		res.Warnings += len(p.Warnings)
		for _, w := range p.Warnings {
			slog.Warn("parse: grade divergence", "file", src.filename, "product", p.ProductCode, "warning", w)
		}
	}

	slog.Info("parse: complete",
		"file", src.filename, "format", src.format,
		"products", len(products), "variations", res.Variations,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if res.Variations == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoVariationsFound, describe(src))
	}

	if e.store != nil && !options.noHistory {
		res.RunID = uuid.NewString()
		if err := e.record(ctx, src, res); err != nil {
			slog.Warn("recording parse run failed (non-fatal)", "run_id", res.RunID, "error", err)
			res.RunID = ""
		}
	}

	return res, nil
}

func (e *engine) record(ctx context.Context, src source, res *Result) error {
	data, err := json.Marshal(res.Products)
	if err != nil {
		return err
	}
	return e.store.InsertRun(ctx, store.Run{
		ID:             res.RunID,
		Filename:       src.filename,
		Format:         src.format,
		Mode:           res.Mode,
		Method:         res.Method,
		ContentHash:    src.hash,
		ProductCount:   len(res.Products),
		VariationCount: res.Variations,
		WarningCount:   res.Warnings,
		Products:       data,
	})
}

// resolveOrder picks the call's order, then the stored one, then the
// configured default.
func (e *engine) resolveOrder(ctx context.Context, options *parseOptions) ([]string, error) {
	if len(options.productOrder) > 0 {
		return options.productOrder, nil
	}
	if e.store != nil {
		codes, err := e.store.ProductOrder(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading product order: %w", err)
		}
		return codes, nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.ProductOrder, nil
}

// Runs lists recorded parses.
func (e *engine) Runs(ctx context.Context, limit int) ([]Run, error) {
	if e.store == nil {
		return nil, ErrHistoryDisabled
	}
	rows, err := e.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, runFromStore(r))
	}
	return runs, nil
}

// Run returns one recorded parse with its snapshots.
func (e *engine) Run(ctx context.Context, id string) (*Run, error) {
	if e.store == nil {
		return nil, ErrHistoryDisabled
	}
	r, err := e.store.GetRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	run := runFromStore(*r)
	if err := json.Unmarshal(r.Products, &run.Snapshots); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", id, err)
	}
	return &run, nil
}

// DeleteRun removes a recorded parse.
func (e *engine) DeleteRun(ctx context.Context, id string) error {
	if e.store == nil {
		return ErrHistoryDisabled
	}
	err := e.store.DeleteRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return err
}

// ProductOrder returns the stored order, or the configured one when history
// is disabled.
func (e *engine) ProductOrder(ctx context.Context) ([]string, error) {
	if e.store == nil {
		e.mu.RLock()
		defer e.mu.RUnlock()
		return append([]string(nil), e.cfg.ProductOrder...), nil
	}
	return e.store.ProductOrder(ctx)
}

// SetProductOrder stores the order. Without history it only lasts for the
// lifetime of the engine.
func (e *engine) SetProductOrder(ctx context.Context, codes []string) error {
	if e.store == nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.cfg.ProductOrder = append([]string(nil), codes...)
		return nil
	}
	return e.store.SetProductOrder(ctx, codes)
}

// Stats reports history database counts.
func (e *engine) Stats(ctx context.Context) (*store.Stats, error) {
	if e.store == nil {
		return nil, ErrHistoryDisabled
	}
	return e.store.Stats(ctx)
}

// Close shuts down the engine and its store.
func (e *engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

func buildParseOptions(opts []ParseOption) *parseOptions {
	options := &parseOptions{}
	for _, o := range opts {
		o(options)
	}
	return options
}

func runFromStore(r store.Run) Run {
	return Run{
		ID:          r.ID,
		Filename:    r.Filename,
		Format:      r.Format,
		Mode:        r.Mode,
		Method:      r.Method,
		ContentHash: r.ContentHash,
		Products:    r.ProductCount,
		Variations:  r.VariationCount,
		Warnings:    r.WarningCount,
		CreatedAt:   r.CreatedAt,
	}
}

func describe(src source) string {
	if src.filename != "" {
		return src.filename
	}
	return src.format + " input"
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
