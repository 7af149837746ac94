// Command movers loads the tracked-wallet registry from a CSV file.
//
// Columns: wallet,role,name. A header row is skipped when its first cell is "wallet".
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"alpha-move/internal/config"
	"alpha-move/internal/domain"
	"alpha-move/internal/observability"
	"alpha-move/internal/solana"
	pgstore "alpha-move/internal/storage/postgres"
)

func main() {
	file := flag.String("file", "movers.csv", "CSV file with wallet,role,name rows")
	dryRun := flag.Bool("dry-run", false, "Validate the file without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := observability.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, *file, *dryRun); err != nil {
		logger.Error().Err(err).Str("file", *file).Msg("movers import failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, file string, dryRun bool) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open movers file: %w", err)
	}
	defer f.Close()

	movers, err := parseMovers(f, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("parse movers file: %w", err)
	}
	log.Info().Int("movers", len(movers)).Msg("parsed movers")

	if dryRun {
		return nil
	}
	if cfg.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, cfg.PostgresConns)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := pgstore.NewMoverRegistry(pool).Upsert(ctx, movers); err != nil {
		return fmt.Errorf("upsert movers: %w", err)
	}
	log.Info().Int("movers", len(movers)).Msg("registry updated")
	return nil
}

// parseMovers reads wallet,role,name rows. Every wallet must be a valid
// on-curve address; duplicates keep the last row.
func parseMovers(r io.Reader, now time.Time) ([]*domain.MoverWallet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	index := make(map[string]int)
	var movers []*domain.MoverWallet
	var errs []error

	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if row == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "wallet") {
			continue
		}
		if len(rec) < 2 {
			errs = append(errs, fmt.Errorf("row %d: want wallet,role[,name]", row))
			continue
		}

		wallet := strings.TrimSpace(rec[0])
		if err := solana.ValidateWallet(wallet); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", row, err))
			continue
		}
		m := &domain.MoverWallet{
			WalletAddress: wallet,
			Role:          strings.TrimSpace(rec[1]),
			CreatedAt:     now,
		}
		if len(rec) > 2 {
			m.Name = strings.TrimSpace(rec[2])
		}

		if i, ok := index[wallet]; ok {
			movers[i] = m
			continue
		}
		index[wallet] = len(movers)
		movers = append(movers, m)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return movers, nil
}
