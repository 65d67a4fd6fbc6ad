package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rmontanez/chequeo/internal/assistant"
	"github.com/rmontanez/chequeo/internal/cache"
	"github.com/rmontanez/chequeo/internal/config"
	"github.com/rmontanez/chequeo/internal/fetch"
	"github.com/rmontanez/chequeo/internal/search"
	"github.com/rmontanez/chequeo/internal/server"
	"github.com/rmontanez/chequeo/internal/store"
	"github.com/rmontanez/chequeo/internal/verify"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the verification HTTP API",
	Long: `Start the HTTP server exposing the verification, assistant and
history endpoints against the configured corpus database.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
	serveCmd.Flags().String("db", "", "corpus database path (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.Path = db
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	pipeline := buildPipeline(cfg, st, log)
	asst := buildAssistant(cfg, st, log)

	srv := server.New(cfg.Server, pipeline, asst, st, st, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// buildPipeline wires the verification stages from configuration.
func buildPipeline(cfg *config.Config, st *store.SQLite, log *zap.Logger) *verify.Pipeline {
	var refCache, pageCache cache.Cache
	if cfg.Cache.Enabled {
		refCache = cache.NewMemoryCache(cfg.Cache.MemoryTTL, 10*time.Minute)
		pageCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	fetcher := fetch.NewFetcher(fetch.Options{
		Timeout:       cfg.Fetch.Timeout,
		UserAgent:     cfg.Fetch.UserAgent,
		MaxBodyBytes:  cfg.Fetch.MaxBodyBytes,
		RatePerSecond: cfg.Fetch.RatePerSecond,
		Burst:         cfg.Fetch.Burst,
		ProxyURL:      cfg.Fetch.ProxyURL,
	}, pageCache)

	return verify.NewPipeline(
		search.NewSearcher(st),
		verify.NewResolver(st),
		verify.NewEnricher(st, refCache),
		verify.NewRecorder(st, log),
		fetcher, st, log)
}

// buildAssistant wires the FAQ assistant, with the LLM rung enabled
// only when an API key is configured.
func buildAssistant(cfg *config.Config, st *store.SQLite, log *zap.Logger) *assistant.Assistant {
	apiKey := cfg.LLM.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	var llm assistant.LLMProvider
	if apiKey != "" {
		provider, err := assistant.NewOpenAIProvider(apiKey, cfg.LLM.Model)
		if err != nil {
			log.Warn("llm provider disabled", zap.Error(err))
		} else {
			llm = provider
		}
	}
	return assistant.New(st, llm, log)
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
