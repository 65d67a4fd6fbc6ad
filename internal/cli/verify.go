package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmontanez/chequeo/internal/config"
	"github.com/rmontanez/chequeo/internal/store"
	"github.com/rmontanez/chequeo/internal/verify"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [content]",
	Short: "Verify a claim against the corpus",
	Long: `Run a single verification query against the configured corpus
database and print the result as JSON.

The content can be plain text or a URL; pass --type url to fetch the
page and match its extracted text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("type", verify.TypeText, "content type: texto, url or twitter")
	verifyCmd.Flags().String("db", "", "corpus database path (overrides config)")
	verifyCmd.Flags().Duration("timeout", 30*time.Second, "query timeout")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.Path = db
	}
	contentType, _ := cmd.Flags().GetString("type")
	timeout, _ := cmd.Flags().GetDuration("timeout")

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

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	outcome := pipeline.Verify(ctx, verify.Request{
		Content: strings.Join(args, " "),
		Type:    contentType,
	})

	switch outcome.Status {
	case verify.StatusInvalid:
		return fmt.Errorf("invalid input: %w", outcome.Err)
	case verify.StatusFatal:
		return fmt.Errorf("storage unreachable: %w", outcome.Err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome.Response)
}
