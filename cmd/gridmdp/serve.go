package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/gridmdp/server"
	"github.com/brensch/gridmdp/store"
	"github.com/gin-gonic/gin"
)

func runServe(env *appEnv, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", env.cfg.Listen, "HTTP listen address")
	traceDir := fs.String("trace-dir", env.cfg.TraceDir, "write served games to parquet batches in this directory")
	episodeLog := fs.String("episode-log", env.cfg.EpisodeLog, "append finished episode IDs to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := env.cfg.Validate(); err != nil {
		return err
	}

	planner, err := env.planner()
	if err != nil {
		return err
	}

	var opts []server.Option
	var bw *store.BatchWriter
	if *traceDir != "" {
		bw, err = store.NewBatchWriter(*traceDir)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithTrace(bw))
	}
	if *episodeLog != "" {
		l, err := store.OpenEpisodeLog(*episodeLog)
		if err != nil {
			return err
		}
		defer l.Close()
		env.logger.Info("episode log opened", "path", *episodeLog, "known", l.Count())
		opts = append(opts, server.WithEpisodeLog(l))
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              *listen,
		Handler:           server.New(planner, env.logger, opts...).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		env.logger.Info("serving", "config", env.cfg)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		env.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			env.logger.Warn("shutdown", "error", err)
		}
	}

	if bw != nil {
		out, rows, games, err := bw.Finalize()
		if err != nil {
			return err
		}
		env.logger.Info("trace written", "path", out, "rows", rows, "games", games)
	}
	return nil
}
