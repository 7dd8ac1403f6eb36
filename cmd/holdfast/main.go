// Command holdfast runs the stronghold and legacy simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/talgya/holdfast/internal/api"
	"github.com/talgya/holdfast/internal/catalog"
	"github.com/talgya/holdfast/internal/config"
	"github.com/talgya/holdfast/internal/engine"
	"github.com/talgya/holdfast/internal/entropy"
	"github.com/talgya/holdfast/internal/legacy"
	"github.com/talgya/holdfast/internal/metrics"
	"github.com/talgya/holdfast/internal/persistence"
	"github.com/talgya/holdfast/internal/snapshot"
	"github.com/talgya/holdfast/internal/stronghold"
	"github.com/talgya/holdfast/internal/world"
)

func main() {
	cfgPath := flag.String("config", "holdfast.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	if err := run(cfg); err != nil {
		slog.Error("holdfast stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Catalog ───────────────────────────────────────────────────────
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		var err error
		if cat, err = catalog.Load(cfg.CatalogPath); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
	}
	slog.Info("catalog ready", "upgrades", cat.Len(), "path", cfg.CatalogPath)

	// ── Entropy ───────────────────────────────────────────────────────
	var src entropy.Source = entropy.NewSeeded(cfg.Seed)
	if ro := entropy.NewRandomOrg(cfg.RandomOrgKey); ro.Enabled() {
		src = ro
		slog.Info("using random.org entropy")
	} else {
		slog.Info("using seeded entropy", "seed", cfg.Seed)
	}

	var svcOpts []stronghold.Option
	if cfg.RegionSeed != 0 {
		svcOpts = append(svcOpts, stronghold.WithRegions(world.NewRegions(cfg.RegionSeed)))
	}

	rec := metrics.New()
	sim := engine.NewSimulation(
		stronghold.NewService(cat, src, svcOpts...),
		legacy.NewService(src, nil),
		rec,
	)

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	if db.HasState() {
		if err := db.LoadState(sim); err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		slog.Info("resuming", "day", sim.Day, "date", engine.SimDate(sim.Day+1))
	} else {
		slog.Info("no saved state found, founding a new holding")
		if err := foundStarter(sim, cfg.FamilyName); err != nil {
			return fmt.Errorf("found starter state: %w", err)
		}
		if err := db.SaveState(sim); err != nil {
			return fmt.Errorf("initial save: %w", err)
		}
		if err := db.SaveMeta(persistence.MetaSeed, strconv.FormatInt(cfg.Seed, 10)); err != nil {
			return err
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	srv := &api.Server{
		Sim:          sim,
		DB:           db,
		Metrics:      rec,
		Addr:         cfg.APIAddr,
		AdminKey:     cfg.AdminKey,
		CORSOrigins:  cfg.CORSOrigins,
		SnapshotPath: cfg.SnapshotPath,
		Seed:         cfg.Seed,
	}
	if cfg.APIAddr != "" {
		if cfg.AdminKey == "" {
			slog.Warn("admin key not set, POST endpoints disabled")
		}
		srv.Start()
	}

	// ── Run ───────────────────────────────────────────────────────────
	cal := engine.NewCalendar(sim.Day)
	sim.Attach(cal)
	cal.OnDay = func(day uint64) {
		sim.TickDay(day)
		if err := db.SaveState(sim); err != nil {
			slog.Error("daily save failed", "day", day, "error", err)
		}
	}

	for i := 0; i < cfg.Days && ctx.Err() == nil; i++ {
		srv.Do(func() { cal.Advance(1) })
	}
	if ctx.Err() != nil {
		slog.Info("interrupted", "day", sim.Day)
	}

	var snapErr error
	srv.Do(func() {
		slog.Info("run complete",
			"day", sim.Day,
			"date", engine.SimDate(sim.Day),
			"strongholds", sim.Stats.Strongholds,
			"total_gold", sim.Stats.TotalGold,
		)
		if cfg.SnapshotPath == "" {
			return
		}
		if snapErr = snapshot.Write(cfg.SnapshotPath, snapshot.FromSimulation(sim, cfg.Seed)); snapErr == nil {
			slog.Info("snapshot written", "path", cfg.SnapshotPath, "day", sim.Day)
		}
	})
	if snapErr != nil {
		return fmt.Errorf("write snapshot: %w", snapErr)
	}

	if cfg.APIAddr != "" {
		// Keep serving until the operator stops the process.
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := db.SaveState(sim); err != nil {
			return fmt.Errorf("final save: %w", err)
		}
	}
	return nil
}

// foundStarter creates the opening position: a castle with a guard and a
// steward, and a family legacy with one heir.
func foundStarter(sim *engine.Simulation, family string) error {
	actions := []engine.Action{
		engine.InitLegacy{FamilyName: family},
		engine.FoundStronghold{Name: family + " Keep", Type: stronghold.TypeCastle, LocationID: "loc_1"},
	}
	for _, a := range actions {
		if err := sim.Dispatch(a); err != nil {
			return err
		}
	}

	var keep string
	for id := range sim.Strongholds {
		keep = id
	}
	actions = []engine.Action{
		engine.RecruitStaff{StrongholdID: keep, Name: "Bram", Role: stronghold.RoleGuard},
		engine.RecruitStaff{StrongholdID: keep, Name: "Osric", Role: stronghold.RoleSteward},
		engine.RegisterHeir{Name: "Edda", Relation: "daughter", Age: 19},
	}
	for _, a := range actions {
		if err := sim.Dispatch(a); err != nil {
			return err
		}
	}
	return nil
}
