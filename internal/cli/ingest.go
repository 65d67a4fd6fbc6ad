package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmontanez/chequeo/internal/cache"
	"github.com/rmontanez/chequeo/internal/config"
	"github.com/rmontanez/chequeo/internal/fetch"
	"github.com/rmontanez/chequeo/internal/ingest"
	"github.com/rmontanez/chequeo/internal/store"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [url...]",
	Short: "Fetch articles into the corpus",
	Long: `Fetch the given article URLs, extract their text and store them as
unclassified corpus items. The source row for each host is created on
first sight.

URLs can be passed as arguments or one per line via --file.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("file", "", "file with one URL per line")
	ingestCmd.Flags().Int("workers", 4, "concurrent fetches")
	ingestCmd.Flags().String("db", "", "corpus database path (overrides config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	urls := args
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		fromFile, err := readURLFile(file)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given; pass them as arguments or via --file")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.Path = db
	}
	workers, _ := cmd.Flags().GetInt("workers")

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

	var pageCache cache.Cache
	if cfg.Cache.Enabled {
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(len(urls))*cfg.Fetch.Timeout)
	defer cancel()

	results := ingest.New(st, fetcher, workers, log).Run(ctx, urls)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", r.URL, r.Err)
		} else {
			fmt.Printf("OK   %s (item %d)\n", r.URL, r.ContentItemID)
		}
	}
	fmt.Printf("\n%d ingested, %d failed\n", len(results)-failed, failed)
	if failed == len(results) {
		return fmt.Errorf("all %d URLs failed", failed)
	}
	return nil
}

func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}
