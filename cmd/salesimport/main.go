// cmd/salesimport runs a CSV sales import against the configured database and
// prints the batch result.
//
// Usage:
//
//	go run ./cmd/salesimport -file sales.csv -batch 2024-03-eod -provenance pos_system -actor ops
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/infra"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/router"

	"github.com/olekukonko/tablewriter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	file := flag.String("file", "", "CSV file to import (required)")
	batchID := flag.String("batch", "", "batch id; re-running with the same id is idempotent")
	provenance := flag.String("provenance", model.SourceCSVImport, "csv_import | pos_system")
	actor := flag.String("actor", "cli", "name recorded in the activity log")
	pdfOut := flag.String("pdf", "", "optional path for a PDF report")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	// Shares batch locks and stored results with the server when Redis is up.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		if rdb, err = infra.NewRedis(cfg.RedisURL); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using process-local batch lock")
			rdb = nil
		}
	}

	svcs := router.BuildServices(cfg, db, rdb, nil)

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("cannot open CSV")
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := svcs.Imports.ImportCSV(ctx, f, *batchID, *provenance, *actor)
	if err != nil {
		log.Error().Err(err).Msg("import aborted")
		os.Exit(1)
	}

	printResult(os.Stdout, result)

	if *pdfOut != "" {
		if err := writePDF(*pdfOut, result); err != nil {
			log.Error().Err(err).Str("path", *pdfOut).Msg("failed to write PDF report")
			os.Exit(1)
		}
		log.Info().Str("path", *pdfOut).Msg("PDF report written")
	}
}

func printResult(w io.Writer, r *dto.BatchResultResponse) {
	fmt.Fprintf(w, "\nBatch %s (%s) by %s\n", r.BatchID, r.Provenance, r.Actor)

	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Rows", "Committed", "Duplicates", "Errors", "Warnings", "Total sales"})
	summary.Append([]string{
		strconv.Itoa(r.TotalRows),
		strconv.Itoa(r.Successful),
		strconv.Itoa(r.SkippedDuplicates),
		strconv.Itoa(len(r.Errors)),
		strconv.Itoa(len(r.Warnings)),
		r.TotalSales.StringFixed(2),
	})
	summary.Render()

	if len(r.Errors)+len(r.Warnings)+len(r.Duplicates) == 0 {
		return
	}

	issues := tablewriter.NewWriter(w)
	issues.SetHeader([]string{"Row", "Severity", "Kind", "Detail"})
	issues.SetAutoWrapText(true)
	for _, e := range r.Errors {
		issues.Append([]string{strconv.Itoa(e.Row), "error", e.Kind, e.Message})
	}
	for _, d := range r.Duplicates {
		detail := ""
		switch {
		case d.ExistingTransactionID != nil:
			detail = fmt.Sprintf("existing transaction %d", *d.ExistingTransactionID)
		case d.FirstRow != nil:
			detail = fmt.Sprintf("same as row %d", *d.FirstRow)
		}
		issues.Append([]string{strconv.Itoa(d.Row), "duplicate", d.Reason, detail})
	}
	for _, wn := range r.Warnings {
		issues.Append([]string{strconv.Itoa(wn.Row), "warning", wn.Kind, wn.Message})
	}
	issues.Render()
}

func writePDF(path string, r *dto.BatchResultResponse) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()
	return infra.WriteImportReportPDF(r, out)
}
