package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/crobles/tunegrab/internal/cleanup"
	"github.com/crobles/tunegrab/internal/config"
	"github.com/crobles/tunegrab/internal/fetch"
	"github.com/crobles/tunegrab/internal/history"
	"github.com/crobles/tunegrab/internal/httpapi"
	"github.com/crobles/tunegrab/internal/library"
	"github.com/crobles/tunegrab/internal/logger"
	"github.com/crobles/tunegrab/internal/service"
	"github.com/crobles/tunegrab/internal/storage"
)

const usage = `Usage: tunegrab [-config path] <command> [args]

Commands:
  download             download all pending tracks from the tracks file
  playlists            download all pending playlist tracks
  single <artist> <title>
                       download one track immediately
  retry                re-run every failed download
  resume               continue an interrupted batch from its snapshot
  dupes                list duplicate files in the library
  organize             move loose files into per-artist folders
  cleanup              remove temp files, partial downloads and empty dirs
  stats                print download history totals
  serve                run the status/history HTTP API
`

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hist := openHistory(cfg.HistoryDBPath, log)
	if hist != nil {
		defer hist.Close()
	}

	svc := service.New(cfg, fetch.NewYTDLP(log), hist, log)

	if err := run(ctx, flag.Args(), cfg, svc, hist, log); err != nil {
		log.Error("Command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

// openHistory opens the optional download history store. Any failure
// disables history with a single warning; the tool works without it.
func openHistory(dbPath string, log *logger.Logger) *history.DB {
	if dbPath == "" {
		return nil
	}
	if err := storage.EnsureDir(filepath.Dir(dbPath)); err != nil {
		log.Warn("History disabled", "error", err)
		return nil
	}
	db, err := history.Open(dbPath)
	if err != nil {
		log.Warn("History disabled", "error", err)
		return nil
	}
	return db
}

func run(ctx context.Context, args []string, cfg *config.Config, svc *service.Service, hist *history.DB, log *logger.Logger) error {
	switch args[0] {
	case "download":
		res, err := svc.DownloadAll(ctx)
		if err != nil {
			return err
		}
		log.Info("Done", "succeeded", res.Succeeded, "failed", len(res.Failed))
		return nil

	case "playlists":
		res, err := svc.DownloadPlaylists(ctx)
		if err != nil {
			return err
		}
		log.Info("Done", "succeeded", res.Succeeded, "failed", len(res.Failed))
		return nil

	case "single":
		if len(args) < 3 {
			return fmt.Errorf("usage: tunegrab single <artist> <title>")
		}
		return svc.DownloadOne(ctx, args[1], args[2])

	case "retry":
		if svc.Registry().Count() == 0 {
			log.Info("No failed downloads to retry")
			return nil
		}
		res, err := svc.Retry(ctx)
		if err != nil {
			return err
		}
		log.Info("Retry done", "succeeded", res.Succeeded, "still failing", len(res.Failed))
		return nil

	case "resume":
		res, ok := svc.Resume(ctx)
		if !ok {
			log.Info("Nothing to resume")
			return nil
		}
		log.Info("Resume done", "succeeded", res.Succeeded, "failed", len(res.Failed))
		return nil

	case "dupes":
		rec := library.NewReconciler(log)
		pairs, err := rec.FindDuplicates(cfg.OutputDir)
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			log.Info("No duplicates found")
			return nil
		}
		for _, p := range pairs {
			fmt.Printf("%s\n  duplicate of %s\n", p.Duplicate, p.Original)
		}
		return nil

	case "organize":
		rec := library.NewReconciler(log)
		moved, err := rec.OrganizeByArtist(cfg.OutputDir)
		if err != nil {
			return err
		}
		log.Info("Organize done", "moved", moved)
		return nil

	case "cleanup":
		stats := cleanup.NewSweeper(log).Run(cfg.OutputDir)
		log.Info("Cleanup done",
			"temp", stats.TempFilesRemoved,
			"partial", stats.PartialFilesRemoved,
			"empty_dirs", stats.EmptyDirsRemoved)
		return nil

	case "stats":
		if hist == nil {
			return fmt.Errorf("history is disabled")
		}
		stats, err := hist.GetStats()
		if err != nil {
			return err
		}
		fmt.Printf("total: %d\nsucceeded: %d\nfailed: %d\n", stats.Total, stats.Succeeded, stats.Failed)
		return nil

	case "serve":
		return serve(ctx, cfg, svc, log)

	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func serve(ctx context.Context, cfg *config.Config, svc *service.Service, log *logger.Logger) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	httpapi.NewHandler(svc).RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.StatusPort,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
