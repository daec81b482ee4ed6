package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/pdxscreens/marquee/app/cfg"
	"github.com/pdxscreens/marquee/app/config"
	"github.com/pdxscreens/marquee/app/database"
	"github.com/pdxscreens/marquee/app/enrich"
	"github.com/pdxscreens/marquee/app/output"
	"github.com/pdxscreens/marquee/app/pipeline"
	"github.com/pdxscreens/marquee/app/scraper"
	"github.com/pdxscreens/marquee/app/showtime"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting marquee run", "version", appCfg.Version, "timezone", appCfg.Timezone)

	if appCfg.Paused && !appCfg.Force {
		slog.Info("Scraping is paused; use --force to run anyway")
		return
	}

	start, err := appCfg.StartOfWindow()
	if err != nil {
		slog.Error("Invalid date window", "error", err)
		os.Exit(1)
	}

	theaters, err := config.NewLoader(appCfg.TheatersFile).Load()
	if err != nil {
		slog.Error("Failed to load theater directory", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded theater directory", "theaters", len(theaters), "start", start.Format(time.DateOnly), "days", appCfg.NumDays)

	// A broken cache only costs redundant enrichment calls, never the run.
	var metadataRepo database.MetadataRepository
	if db, err := database.NewConnection(appCfg.CacheDBPath); err != nil {
		slog.Warn("Metadata cache unavailable, enrichment will be uncached", "error", err)
	} else {
		defer db.Close()
		if version, dirty, err := database.RunMigrations(db); err != nil {
			slog.Warn("Metadata cache migration failed, enrichment will be uncached", "error", err)
		} else {
			slog.Info("Metadata cache ready", "version", version, "dirty", dirty)
			metadataRepo = database.NewMetadataRepository(db)
		}
	}

	browser := scraper.NewBrowser()
	defer browser.Close()

	if appCfg.TMDBAPIKey == "" {
		slog.Warn("TMDB_API_KEY not set, posters and external links will be limited")
	}
	enricher := enrich.NewClient(enrich.Options{
		APIKey:  appCfg.TMDBAPIKey,
		Rate:    appCfg.TMDBRate,
		Burst:   appCfg.TMDBBurst,
		Timeout: time.Duration(appCfg.TMDBTimeoutMs) * time.Millisecond,
		Workers: appCfg.WorkerCount,
	}, metadataRepo)

	runner := pipeline.NewRunner(
		buildRegistry(browser),
		showtime.NewMerger(showtime.DefaultKeyRules()),
		enricher,
		appCfg.Location,
		appCfg.WorkerCount,
		time.Duration(appCfg.SourceTimeout)*time.Second,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelDeadline := context.WithTimeout(ctx, time.Duration(appCfg.RunTimeout)*time.Second)
	defer cancelDeadline()

	result := runner.Run(ctx, theaters, start, appCfg.NumDays)

	if err := output.NewWriter(appCfg.OutputDir).Run(result); err != nil {
		slog.Error("Failed to write output", "error", err)
		os.Exit(1)
	}

	report(result)
}

// buildRegistry wires every theater id to its adapter. Adding a theater is
// one Register call plus a directory entry; orchestration stays untouched.
func buildRegistry(browser *scraper.Browser) *scraper.Registry {
	registry := scraper.NewRegistry()

	registry.Register("hollywood", func(t config.Theater) scraper.Adapter { return scraper.NewHollywood(t) })
	registry.Register("laurelhurst", func(t config.Theater) scraper.Adapter { return scraper.NewLaurelhurst(t) })
	registry.Register("clinton", func(t config.Theater) scraper.Adapter { return scraper.NewClinton(t) })
	registry.Register("cinemagic", func(t config.Theater) scraper.Adapter { return scraper.NewCinemagic(t) })
	registry.Register("bagdad", func(t config.Theater) scraper.Adapter { return scraper.NewBagdad(t) })
	registry.Register("cinema21", func(t config.Theater) scraper.Adapter { return scraper.NewCinema21(t, browser) })
	registry.Register("livingroom", func(t config.Theater) scraper.Adapter { return scraper.NewLivingRoom(t, browser) })

	return registry
}

// report surfaces per-source status for the external trigger without
// aborting the commit of whatever data was produced.
func report(result showtime.AggregateResult) {
	ids := make([]string, 0, len(result.SourceStatus))
	for id := range result.SourceStatus {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	okCount := 0
	for _, id := range ids {
		status := result.SourceStatus[id]
		if status.OK {
			okCount++
			slog.Info("Source status", "source", id, "status", "ok")
		} else {
			slog.Warn("Source status", "source", id, "status", "failed", "reason", status.Reason)
		}
	}

	screenings := 0
	for _, movie := range result.Movies {
		screenings += len(movie.Screenings)
	}

	slog.Info("Run complete",
		"sources_ok", okCount,
		"sources_total", len(ids),
		"movies", len(result.Movies),
		"screenings", screenings)
}
