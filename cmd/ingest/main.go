package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JustinWhittecar/mechforge/internal/componentsync"
	"github.com/JustinWhittecar/mechforge/internal/config"
	"github.com/JustinWhittecar/mechforge/internal/db"
	"github.com/JustinWhittecar/mechforge/internal/ingestion"
	"github.com/JustinWhittecar/mechforge/internal/logging"
	"github.com/JustinWhittecar/mechforge/internal/rules"
)

func main() {
	dir := flag.String("dir", ".", "Path to mekfiles directory")
	configDir := flag.String("config", ".", "Directory containing mechforge.yaml")
	dryRun := flag.Bool("dry-run", false, "Parse and sync only, do not write to the store")
	verbose := flag.Bool("verbose", false, "Print each parsed unit")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, true)

	tables := rules.Builtin()
	if cfg.Rules.File != "" {
		if tables, err = rules.LoadFile(cfg.Rules.File); err != nil {
			log.Fatal().Err(err).Str("file", cfg.Rules.File).Msg("failed to load rule tables")
		}
	}
	rules.SetDefault(tables)
	syncer := componentsync.New(componentsync.Options{Tables: tables, Logger: log})

	var files []string
	err = filepath.Walk(*dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".mtf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("error walking directory")
	}
	log.Info().Int("files", len(files)).Msg("found .mtf files")

	ctx := context.Background()
	var store db.UnitStore
	if !*dryRun {
		store, err = db.Open(ctx, cfg.Store, log)
		if err != nil {
			log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("store connect error")
		}
		defer store.Close()
	}

	var parsed, failed, inserted int
	chassisSet := map[string]bool{}
	var errors []string

	for i, f := range files {
		data, err := ingestion.ParseMTF(f)
		if err != nil {
			failed++
			errors = append(errors, fmt.Sprintf("  %s: %v", filepath.Base(f), err))
			continue
		}
		parsed++

		u := data.ToUnit()
		update, err := syncer.Initialize(u)
		if err != nil {
			failed++
			errors = append(errors, fmt.Sprintf("  %s: %v", filepath.Base(f), err))
			continue
		}
		u.Apply(update)

		if *verbose {
			fmt.Printf("  %-40s %3dt  %-12s %-8s %s\n", u.FullName(), u.Mass, u.TechBase,
				u.SystemComponents.Engine.Type, u.Era)
		}

		if store != nil {
			if err := store.Create(ctx, u); err != nil {
				failed++
				errors = append(errors, fmt.Sprintf("  %s: %v", filepath.Base(f), err))
				continue
			}
			inserted++
			chassisSet[u.Chassis] = true
		}

		if (i+1)%500 == 0 {
			log.Info().Int("done", i+1).Int("total", len(files)).Msg("progress")
		}
	}

	fmt.Printf("\nResults:\n")
	if len(files) > 0 {
		fmt.Printf("  Parsed:   %d / %d (%.1f%%)\n", parsed, len(files), float64(parsed)/float64(len(files))*100)
	}
	fmt.Printf("  Failed:   %d\n", failed)
	if store != nil {
		fmt.Printf("  Inserted: %d units across %d chassis\n", inserted, len(chassisSet))
	}

	if len(errors) > 0 {
		fmt.Printf("\nFirst %d errors:\n", min(len(errors), 20))
		for i, e := range errors {
			if i >= 20 {
				break
			}
			fmt.Println(e)
		}
	}
}
