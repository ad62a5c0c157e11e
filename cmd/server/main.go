package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Babel/internal/adapters/gemini"
	router "github.com/dkeye/Babel/internal/adapters/http"
	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/app/lifecycle"
	"github.com/dkeye/Babel/internal/app/orch"
	"github.com/dkeye/Babel/internal/app/translate"
	"github.com/dkeye/Babel/internal/config"
	"github.com/dkeye/Babel/internal/language"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("babel exited with error")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	cmd := &cobra.Command{
		Use:           "babel",
		Short:         "Multi-party call coordinator with translated captions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(cfg.Level())
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().String("config-env", "dev", "config file suffix: config/config.<env>.yaml")
	cmd.Flags().Int("port", 8080, "HTTP listen port")
	_ = v.BindPFlag("config_env", cmd.Flags().Lookup("config-env"))
	_ = v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	var backend translate.Backend
	if cfg.Translation.APIKey != "" {
		client, err := gemini.New(ctx, cfg.Translation.APIKey, cfg.Translation.Model)
		if err != nil {
			return err
		}
		backend = client
	} else {
		log.Warn().Str("module", "main").Msg("GEMINI_API_KEY not set, only same-language captions will be delivered")
	}

	o := orch.New(
		app.NewRegistry(),
		lifecycle.NewTracker(),
		translate.NewGateway(backend, cfg.Translation.Timeout),
		app.SimplePolicy{},
		cfg.Fanout.MaxParallel,
	)
	o.DefaultLanguage = language.Normalize(cfg.DefaultLanguage)

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Babel server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		o.Shutdown(shutdownCtx)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
