package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/vinodismyname/emcregs/data"
	"github.com/vinodismyname/emcregs/internal/export"
	"github.com/vinodismyname/emcregs/internal/refdata"
	"github.com/vinodismyname/emcregs/internal/security"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		out     string
		dataDir string
	)
	flag.StringVar(&out, "out", "emc-tables.xlsx", "Output workbook path")
	flag.StringVar(&dataDir, "data-dir", os.Getenv("EMC_DATA_DIR"), "On-disk table snapshot (defaults to the bundled tables)")
	flag.Parse()

	logger := zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Str("service", "emcexport").Logger()
	ctx := logger.WithContext(context.Background())

	var fsys fs.FS = data.Tables
	if dataDir != "" {
		mgr, err := security.NewManager(dataDir, nil)
		if err != nil {
			logger.Error().Err(err).Msg("invalid data directory")
			os.Exit(1)
		}
		fsys = mgr.TableFS()
	}

	store, err := refdata.Load(ctx, fsys)
	if err != nil {
		logger.Error().Err(err).Msg("load reference tables")
		os.Exit(1)
	}

	f, err := os.Create(out)
	if err != nil {
		logger.Error().Err(err).Str("out", out).Msg("create output")
		os.Exit(1)
	}
	if err := export.Write(f, store); err != nil {
		_ = f.Close()
		logger.Error().Err(err).Msg("write workbook")
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		logger.Error().Err(err).Msg("close output")
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d sheets)\n", out, len(export.Sheets))
}
