package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"calnorm/internal/config"
	"calnorm/internal/google"
	"calnorm/internal/microsoft"
	"calnorm/internal/models"
	"calnorm/internal/provider"
	"calnorm/internal/syncer"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "calnorm",
		Usage: "Normalize Google and Microsoft calendars into one event model.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "calnorm.yaml", Usage: "Path to the YAML config file.", EnvVars: []string{"CALNORM_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "Override the configured log level."},
		},
		Commands: []*cli.Command{
			authCommand(),
			pullCommand(),
			convertCommand(),
			encodeCommand(),
			expandCommand(),
			icsCommand(),
			publishCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies the environment and sets up the logger.
func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
		cfg.Normalize()
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(cfg.LogLevel), nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// codecFor returns the codec of provider p.
func codecFor(p models.Provider, logger *slog.Logger) (provider.Codec, error) {
	switch p {
	case models.ProviderGoogle:
		return google.NewCodec(logger), nil
	case models.ProviderMicrosoft:
		return microsoft.NewCodec(logger), nil
	}
	return nil, fmt.Errorf("unknown provider %q", p)
}

// buildTargets creates a client for every configured account. Without
// configured accounts every token file in the token directory is used.
func buildTargets(ctx context.Context, logger *slog.Logger, cfg *config.Config) ([]syncer.Target, error) {
	accounts := cfg.Accounts
	if len(accounts) == 0 {
		for _, p := range []models.Provider{models.ProviderGoogle, models.ProviderMicrosoft} {
			names, err := provider.TokenAccounts(cfg.TokenDir, p)
			if err != nil {
				return nil, fmt.Errorf("could not find any accounts, did you run auth command? %w", err)
			}
			for _, n := range names {
				accounts = append(accounts, config.AccountConfig{Name: n, Provider: string(p)})
			}
		}
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts found. Run the 'auth' command first")
	}

	var targets []syncer.Target
	for _, acc := range accounts {
		src, err := newSource(ctx, logger, cfg, acc)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client for account %s: %w", acc.Provider, acc.Name, err)
		}
		targets = append(targets, syncer.Target{Source: src, CalendarIDs: acc.CalendarIDs})
	}
	logger.Info("Initialized provider clients for all accounts.", "count", len(targets))
	return targets, nil
}

func newSource(ctx context.Context, logger *slog.Logger, cfg *config.Config, acc config.AccountConfig) (provider.Source, error) {
	switch models.Provider(acc.Provider) {
	case models.ProviderGoogle:
		return google.NewClient(ctx, logger, google.Credentials{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
		}, cfg.TokenDir, acc.Name)
	case models.ProviderMicrosoft:
		oc, err := microsoft.OAuthConfig(microsoftCredentials(cfg))
		if err != nil {
			return nil, err
		}
		tok, err := provider.LoadToken(provider.TokenFile(cfg.TokenDir, models.ProviderMicrosoft, acc.Name))
		if err != nil {
			return nil, fmt.Errorf("could not load token: %w. Please run the 'auth' command first", err)
		}
		return microsoft.NewClient(logger, oc.Client(ctx, tok), cfg.Microsoft.BaseURL, acc.Name), nil
	}
	return nil, fmt.Errorf("unknown provider %q", acc.Provider)
}

func microsoftCredentials(cfg *config.Config) microsoft.Credentials {
	return microsoft.Credentials{
		ClientID:     cfg.Microsoft.ClientID,
		ClientSecret: cfg.Microsoft.ClientSecret,
		Tenant:       cfg.Microsoft.Tenant,
		RedirectURL:  cfg.Microsoft.RedirectURL,
	}
}

// runSchedule runs job once, then on every tick of spec until ctx ends.
func runSchedule(ctx context.Context, logger *slog.Logger, spec string, job func(context.Context) error) error {
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := sched.AddFunc(spec, func() {
		if err := job(ctx); err != nil {
			logger.Error("Scheduled run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	logger.Info("Starting scheduler.", "schedule", spec)
	if err := job(ctx); err != nil {
		logger.Error("Scheduled run failed", "error", err)
	}
	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
	logger.Info("Scheduler stopped.")
	return nil
}

// readInput reads path, or stdin for "" and "-".
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// openOutput opens path for writing, or stdout for "" and "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// splitDocuments accepts a single JSON object or an array of them.
func splitDocuments(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if trimmed[0] != '[' {
		return []json.RawMessage{trimmed}, nil
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(trimmed, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse input array: %w", err)
	}
	return docs, nil
}

// readEvents decodes canonical events from a single object or an array.
func readEvents(data []byte) ([]models.CalendarEvent, error) {
	docs, err := splitDocuments(data)
	if err != nil {
		return nil, err
	}
	events := make([]models.CalendarEvent, 0, len(docs))
	for i, doc := range docs {
		var ev models.CalendarEvent
		if err := json.Unmarshal(doc, &ev); err != nil {
			return nil, fmt.Errorf("failed to parse event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// extractCode accepts either a bare authorization code or the full redirect
// URL the browser landed on.
func extractCode(input string) string {
	input = strings.TrimSpace(input)
	if u, err := url.Parse(input); err == nil && u.Scheme != "" {
		if code := u.Query().Get("code"); code != "" {
			return code
		}
	}
	return input
}

func prompt(reader *bufio.Reader, msg string) string {
	fmt.Print(msg)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
