// Command ledger-export writes the ledger workbook once and exits. Without
// filter flags it runs the full export to every sink; with -from, -to or
// -type it writes a timestamped filtered workbook to the export directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"salonledger/internal/cli"
	"salonledger/internal/core"
	"salonledger/internal/log"
	"salonledger/internal/services"
)

func main() {
	var (
		from = flag.String("from", "", "first day to include, YYYY-MM-DD")
		to   = flag.String("to", "", "last day to include, YYYY-MM-DD")
		typ  = flag.String("type", "", "only this transaction type (thu, chi, tip, chi_ho)")
	)
	flag.Parse()

	filter, filtered, err := parseFlags(*from, *to, *typ)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentExport)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	store, closeStore := cli.InitStore(ctx, logger, cfg)
	defer closeStore()

	ledger, err := cli.NewLedger(ctx, logger, cfg, store)
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err)
		os.Exit(1)
	}
	defer ledger.Close()

	if filtered {
		path, err := ledger.Service.ExportFiltered(ctx, filter)
		if err != nil {
			logger.Error("Filtered export failed", log.FieldError, err)
			os.Exit(1)
		}
		fmt.Println(path)
		return
	}

	rep, err := ledger.Service.ExportAll(ctx)
	if err != nil {
		logger.Error("Export failed", log.FieldError, err)
		os.Exit(1)
	}
	for _, res := range rep.Results {
		status := "ok"
		if !res.OK {
			status = "FAILED: " + res.Error
		}
		fmt.Printf("%-8s %s (%d ms)\n", res.Sink, status, res.DurationMS)
	}
	if !rep.OK() {
		os.Exit(1)
	}
}

func parseFlags(from, to, typ string) (services.Filter, bool, error) {
	var f services.Filter
	var err error
	if from = strings.TrimSpace(from); from != "" {
		if f.From, err = core.ParseDate(from); err != nil {
			return f, false, fmt.Errorf("-from: %w", err)
		}
	}
	if to = strings.TrimSpace(to); to != "" {
		if f.To, err = core.ParseDate(to); err != nil {
			return f, false, fmt.Errorf("-to: %w", err)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.Compare(f.To) > 0 {
		return f, false, fmt.Errorf("-from %s is after -to %s", f.From, f.To)
	}
	if typ = strings.TrimSpace(typ); typ != "" {
		if f.Type, err = core.ParseType(typ); err != nil {
			return f, false, fmt.Errorf("-type: %w", err)
		}
	}
	return f, from != "" || to != "" || typ != "", nil
}
