// Command stockparse parses one stock report and prints the production
// snapshots as JSON.
//
// Usage:
//
//	go run ./cmd/stockparse -order 200,100 ./relatorio.pdf
//	cat relatorio.txt | go run ./cmd/stockparse -no-history -
//
// Exit status is 0 on success, 2 when the report holds no variation and 1
// for every other error.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brunobiangulo/stockreport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	fs := flag.NewFlagSet("stockparse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "Path to config file (YAML or JSON)")
		order      = fs.String("order", "", "Comma-separated product codes to list first")
		noHistory  = fs.Bool("no-history", false, "Do not record this parse")
		format     = fs.String("format", "", "Force the input format (txt, csv, docx, xlsx, pdf)")
		compact    = fs.Bool("compact", false, "Print compact JSON")
		verbose    = fs.Bool("v", false, "Log progress to stderr")
	)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: stockparse [flags] <file | ->\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level})))

	cfg := stockreport.DefaultConfig()
	if *configPath != "" {
		loaded, err := stockreport.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "loading config: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		fmt.Fprintf(stderr, "applying environment: %v\n", err)
		return 1
	}
	if *noHistory {
		cfg.History = false
	}

	engine, err := stockreport.New(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "creating engine: %v\n", err)
		return 1
	}
	defer engine.Close()

	var opts []stockreport.ParseOption
	if codes := stockreport.SplitCodes(*order); len(codes) > 0 {
		opts = append(opts, stockreport.WithProductOrder(codes...))
	}

	var res *stockreport.Result
	if path := fs.Arg(0); path == "-" {
		data, rerr := io.ReadAll(io.LimitReader(stdin, cfg.MaxFileSize))
		if rerr != nil {
			fmt.Fprintf(stderr, "reading stdin: %v\n", rerr)
			return 1
		}
		res, err = engine.ParseText(ctx, string(data), opts...)
	} else {
		if *format != "" {
			opts = append(opts, stockreport.WithFormat(*format))
		}
		res, err = engine.ParseFile(ctx, path, opts...)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", stockreport.Code(err), err)
		if stockreport.Code(err) == stockreport.CodeNoVariationsFound {
			return 2
		}
		return 1
	}

	enc := json.NewEncoder(stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(stderr, "writing output: %v\n", err)
		return 1
	}
	return 0
}
