package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/park-fees/internal/batch"
	"github.com/pfrederiksen/park-fees/internal/config"
	"github.com/pfrederiksen/park-fees/internal/fetch"
	"github.com/pfrederiksen/park-fees/internal/logger"
	"github.com/pfrederiksen/park-fees/internal/lookup"
	"github.com/pfrederiksen/park-fees/internal/search"
	"github.com/pfrederiksen/park-fees/internal/server"
	"github.com/pfrederiksen/park-fees/internal/verdict"
)

const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitNotVerified = 2
)

// ErrNotVerified is returned by the lookup command when no evidence was found.
var ErrNotVerified = errors.New("fee not verified")

var (
	flagAPIKey   string
	flagLogLevel string
	flagRegions  string
	flagFormat   string
	flagMetrics  bool
	flagVerbose  bool

	flagState    string
	flagName     string
	flagLenient  bool
	flagHomepage bool

	flagOutput      string
	flagConcurrency int
	flagSort        string

	flagAddr string
)

// Looker performs fee lookups. It is satisfied by *lookup.Service.
type Looker interface {
	LookupFee(ctx context.Context, req lookup.Request) verdict.Verdict
}

// buildLooker wires the production lookup service; tests replace it.
var buildLooker = func(cfg config.Config) (Looker, error) {
	regions, err := cfg.RegionTable()
	if err != nil {
		return nil, err
	}
	searcher := search.NewBraveClient(cfg.APIKey,
		search.WithTimeout(cfg.SearchTimeout),
		search.WithRateLimit(cfg.RateLimit),
	)
	fetcher := fetch.New(
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithCache(fetch.NewPageCache(cfg.CacheTTL, cfg.CacheMaxEntries)),
	)
	return lookup.New(searcher, fetcher, lookup.WithRegions(regions)), nil
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "park-fees",
		Short: "Verify entrance and parking fees for parks and trails",
		Long: `A CLI tool to verify whether a park or trail charges an entrance or parking fee.
Searches the web, ranks official pages first, and reports the page that
supports the answer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&flagAPIKey, "api-key", "", "Brave Search API key (or env: "+config.EnvAPIKey+")")
	flags.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error (or env: "+config.EnvLogLevel+")")
	flags.StringVar(&flagRegions, "regions", "", "Region sets: us, ca or us,ca (or env: "+config.EnvRegions+")")
	flags.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	flags.BoolVar(&flagMetrics, "metrics", false, "Print metrics as JSON to stderr when done")
	flags.BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")

	cmd.AddCommand(newLookupCmd(), newBatchCmd(), newServeCmd())
	return cmd
}

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <name or listing URL>",
		Short: "Look up the fee for one park or trail",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLookup,
	}
	cmd.Flags().StringVar(&flagState, "state", "", "State or province hint (e.g., TX or Texas)")
	cmd.Flags().StringVar(&flagName, "name", "", "Display name to match pages against")
	cmd.Flags().BoolVar(&flagLenient, "lenient", false, "Skip the strict official-sites pass")
	cmd.Flags().BoolVar(&flagHomepage, "homepage", true, "Fall back to the official homepage when no fee is found")
	return cmd
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <input.csv|->",
		Short: "Verify fees for every row of a CSV file",
		Long: `Reads a CSV with a name (name, trail_name, park, Park Name or Park),
url (url or link) and state (state or State) column, looks up each distinct
place once, and writes the CSV back with Fee Info, Fee Source and Alert
columns.`,
		Args: cobra.ExactArgs(1),
		RunE: runBatch,
	}
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output CSV path (default: stdout)")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Concurrent lookups (or env: "+config.EnvConcurrency+")")
	cmd.Flags().BoolVar(&flagHomepage, "homepage", true, "Fall back to the official homepage when no fee is found")
	cmd.Flags().StringVar(&flagSort, "sort", string(SortByInput), "Report order: input, name or kind")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lookups over HTTP at " + server.SearchPath,
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&flagAddr, "addr", ":8080", "Listen address")
	return cmd
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}

	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagRegions != "" {
		cfg.Regions = config.SplitList(flagRegions)
	}
	if flagLogLevel != "" {
		level, err := logger.ParseLevel(flagLogLevel)
		if err != nil {
			return config.Config{}, err
		}
		cfg.LogLevel = level
	}
	if f := cmd.Flags().Lookup("concurrency"); f != nil && f.Changed {
		cfg.Concurrency = flagConcurrency
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	logger.SetDefault(logger.New(cfg.LogLevel, cmd.ErrOrStderr()))
	return cfg, nil
}

func parseFormat() (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	return format, nil
}

// runLookup looks up a single park or trail
func runLookup(cmd *cobra.Command, args []string) error {
	format, err := parseFormat()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	looker, err := buildLooker(cfg)
	if err != nil {
		return fmt.Errorf("initializing lookup: %w", err)
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("lookup requires a name or URL")
	}

	stderr := cmd.ErrOrStderr()
	if flagVerbose {
		fmt.Fprintf(stderr, "Looking up: %s\n", query)
		if flagState != "" {
			fmt.Fprintf(stderr, "Region hint: %s\n", flagState)
		}
	}

	v := looker.LookupFee(cmd.Context(), lookup.Request{
		Query:           query,
		RegionHint:      strings.TrimSpace(flagState),
		DisplayNameHint: strings.TrimSpace(flagName),
		Lenient:         flagLenient,
		WantHomepage:    flagHomepage,
	})

	result := &LookupResult{
		CheckedAt: time.Now().UTC(),
		Query:     query,
		State:     strings.TrimSpace(flagState),
		Verdict:   v,
	}
	if err := WriteLookup(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if v.Kind == verdict.KindNotVerified {
		return ErrNotVerified
	}
	return nil
}

// runBatch verifies every row of a CSV file
func runBatch(cmd *cobra.Command, args []string) error {
	format, err := parseFormat()
	if err != nil {
		return err
	}
	order := SortOrder(strings.ToLower(flagSort))
	if order != SortByInput && order != SortByName && order != SortByKind {
		return fmt.Errorf("invalid sort: %s (must be 'input', 'name' or 'kind')", flagSort)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	looker, err := buildLooker(cfg)
	if err != nil {
		return fmt.Errorf("initializing lookup: %w", err)
	}

	regions, err := cfg.RegionTable()
	if err != nil {
		return err
	}

	table, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	opts := []batch.Option{
		batch.WithConcurrency(cfg.Concurrency),
		batch.WithRegions(regions),
		batch.WithHomepage(flagHomepage),
	}
	if flagVerbose {
		fmt.Fprintf(stderr, "Read %d rows from %s\n", len(table.Rows), args[0])
		opts = append(opts, batch.WithProgress(func(done, total int) {
			fmt.Fprintf(stderr, "Processed %d/%d rows\n", done, total)
		}))
	}

	out, summary, err := batch.NewRunner(looker, opts...).Run(cmd.Context(), table)
	if err != nil {
		return err
	}

	if flagOutput == "" {
		if err := batch.WriteTable(cmd.OutOrStdout(), out); err != nil {
			return err
		}
		if flagVerbose {
			return WriteBatch(stderr, newBatchResult(summary, ""), FormatText, false, order)
		}
		return nil
	}

	f, err := os.Create(flagOutput)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := batch.WriteTable(f, out); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}

	if err := WriteBatch(cmd.OutOrStdout(), newBatchResult(summary, flagOutput), format, flagVerbose, order); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func readInput(cmd *cobra.Command, path string) (*batch.Table, error) {
	if path == "-" {
		return batch.ReadTable(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	return batch.ReadTable(f)
}

// runServe serves lookups until interrupted
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	looker, err := buildLooker(cfg)
	if err != nil {
		return fmt.Errorf("initializing lookup: %w", err)
	}

	if flagVerbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on %s\n", server.SearchPath, flagAddr)
	}
	return server.New(flagAddr, looker).ListenAndServe(cmd.Context())
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if flagMetrics {
		writeMetrics(stderr)
	}

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrNotVerified):
		return ExitNotVerified
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
}

func writeMetrics(w io.Writer) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(logger.GetMetricsSnapshot()); err != nil {
		fmt.Fprintf(w, "Error writing metrics: %v\n", err)
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
