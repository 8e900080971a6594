// Command export-sqlite copies every unit from the configured store (usually
// Postgres) into a fresh SQLite file that can be shipped with a read-only
// editor build.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/JustinWhittecar/mechforge/internal/config"
	"github.com/JustinWhittecar/mechforge/internal/db"
	"github.com/JustinWhittecar/mechforge/internal/logging"
	"github.com/JustinWhittecar/mechforge/internal/validate"
)

func main() {
	configDir := flag.String("config", ".", "Directory containing mechforge.yaml")
	outPath := flag.String("out", "mechforge-export.db", "SQLite file to write")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, true)

	src, err := db.Open(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("source connect")
	}
	defer src.Close()

	os.Remove(*outPath)
	dst, err := db.OpenSQLite(*outPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *outPath).Msg("sqlite open")
	}
	defer dst.Close()

	units, err := src.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list units")
	}

	var copied, warned int
	for _, s := range units {
		u, err := src.Get(ctx, s.ID)
		if err != nil {
			log.Fatal().Err(err).Int64("unit", s.ID).Msg("load unit")
		}
		if ws := validate.Unit(nil, u); len(ws) > 0 {
			warned++
			log.Warn().Int64("unit", u.ID).Str("name", u.FullName()).Int("warnings", len(ws)).Msg("exporting unit with warnings")
		}
		u.ID = 0
		if err := dst.Create(ctx, u); err != nil {
			log.Fatal().Err(err).Str("name", u.FullName()).Msg("insert unit")
		}
		copied++
	}

	fmt.Printf("  units: %d rows (%d with warnings)\n", copied, warned)
	log.Info().Str("path", *outPath).Msg("export complete")
}
