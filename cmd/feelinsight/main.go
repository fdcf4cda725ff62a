package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dev-dhiraj01/FeelInsight/internal/api"
	"github.com/dev-dhiraj01/FeelInsight/internal/config"
	"github.com/dev-dhiraj01/FeelInsight/internal/credentials"
	"github.com/dev-dhiraj01/FeelInsight/internal/domain"
	apierrors "github.com/dev-dhiraj01/FeelInsight/internal/errors"
	"github.com/dev-dhiraj01/FeelInsight/internal/insights"
	"github.com/dev-dhiraj01/FeelInsight/internal/platform/logging"
	"github.com/dev-dhiraj01/FeelInsight/internal/platform/version"
	"github.com/dev-dhiraj01/FeelInsight/internal/session"
	"github.com/dev-dhiraj01/FeelInsight/internal/workflow"
)

const usageText = `Usage: feelinsight <command> [flags]

Commands:
  register   Create an account and sign in
  login      Sign in with email and password
  logout     Sign out and discard the stored session
  whoami     Show the current session
  analyze    Submit text for sentiment analysis
  history    Show recent analyses
  stats      Show aggregate sentiment statistics
  health     Check server availability
  version    Show build information
`

// app bundles the wired components a command handler needs.
type app struct {
	cfg        *config.Config
	client     *api.Client
	session    *session.Manager
	workflow   *workflow.Controller
	aggregator *insights.Aggregator
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupApp(cfg *config.Config, clock clockwork.Clock) *app {
	creds := credentials.NewStore(cfg.TokenPath, clock)
	manager := session.NewManager(creds, clock)
	client := api.NewClient(cfg.APIBaseURL, manager, cfg.AuthTimeout, cfg.RequestTimeout)
	manager.SetAPI(client)

	aggregator := insights.NewAggregator(client, manager, clock, cfg.HistoryLimit)
	controller := workflow.NewController(client, manager, aggregator)

	return &app{
		cfg:        cfg,
		client:     client,
		session:    manager,
		workflow:   controller,
		aggregator: aggregator,
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	if command == "version" {
		fmt.Println(version.Get())
		return
	}

	clock := clockwork.NewRealClock()
	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	a := setupApp(cfg, clock)
	ctx := context.Background()

	if err := a.session.Restore(ctx); err != nil {
		slog.Error("Session restore failed", "error", err)
		os.Exit(1)
	}

	var err error
	switch command {
	case "register":
		err = a.runRegister(ctx, args)
	case "login":
		err = a.runLogin(ctx, args)
	case "logout":
		err = a.runLogout(args)
	case "whoami":
		err = a.runWhoami(args)
	case "analyze":
		err = a.runAnalyze(ctx, args)
	case "history":
		err = a.runHistory(ctx, args)
	case "stats":
		err = a.runStats(ctx, args)
	case "health":
		err = a.runHealth(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", command, usageText)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", userMessage(err))
		os.Exit(1)
	}
}

func (a *app) runRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email address")
	password := fs.String("password", "", "account password (at least 6 characters)")
	name := fs.String("name", "", "display name")
	_ = fs.Parse(args)

	if err := a.session.Register(ctx, *email, *password, *name); err != nil {
		return err
	}
	snap := a.session.Snapshot()
	fmt.Printf("Welcome, %s. Your account is ready and you are signed in.\n", snap.User.Name)
	return nil
}

func (a *app) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email address")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	if err := a.session.Login(ctx, *email, *password); err != nil {
		return err
	}
	snap := a.session.Snapshot()
	fmt.Printf("Signed in as %s <%s>.\n", snap.User.Name, snap.User.Email)
	return nil
}

func (a *app) runLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	_ = fs.Parse(args)

	if err := a.session.Logout(); err != nil {
		return err
	}
	a.aggregator.Clear()
	a.workflow.ClearResult()
	fmt.Println("Signed out.")
	return nil
}

func (a *app) runWhoami(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	_ = fs.Parse(args)

	snap := a.session.Snapshot()
	if !snap.Authenticated() {
		fmt.Println("Not signed in.")
		return nil
	}
	if snap.User == nil {
		fmt.Println("Signed in (profile unavailable, server could not be reached).")
		return nil
	}
	fmt.Printf("Signed in as %s <%s>.\n", snap.User.Name, snap.User.Email)
	return nil
}

// requireAuth rejects authenticated commands up front with a friendly message
// instead of a server round-trip that would fail with 401 anyway.
func (a *app) requireAuth() error {
	if !a.session.Snapshot().Authenticated() {
		return domain.ErrNotAuthenticated
	}
	return nil
}

func (a *app) runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	text := fs.String("text", "", "text to analyze (10 to 1000 characters)")
	_ = fs.Parse(args)

	if err := a.requireAuth(); err != nil {
		return err
	}

	input := *text
	if input == "" {
		// Allow the text as positional arguments for convenience.
		input = strings.Join(fs.Args(), " ")
	}

	result, err := a.workflow.Submit(ctx, input)
	if err != nil {
		return err
	}

	fmt.Printf("Sentiment: %s (%s, score %+.2f)\n", result.SentimentLabel, domain.ClassifyScore(result.SentimentScore), result.SentimentScore)
	if len(result.Emotions) > 0 {
		fmt.Println("Emotions:")
		for _, name := range sortedKeys(result.Emotions) {
			fmt.Printf("  %-12s %.2f\n", name, result.Emotions[name])
		}
	}
	if len(result.Keywords) > 0 {
		fmt.Printf("Keywords: %s\n", strings.Join(result.Keywords, ", "))
	}

	a.workflow.WaitForRefresh()
	return nil
}

func (a *app) runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	_ = fs.Parse(args)

	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.aggregator.RefreshHistory(ctx); err != nil {
		return err
	}

	entries, _ := a.aggregator.History()
	if len(entries) == 0 {
		fmt.Println("No analyses yet.")
		return nil
	}
	for _, entry := range entries {
		fmt.Printf("%s  %-8s %+.2f  %s\n",
			entry.CreatedAt.Local().Format(time.DateTime),
			domain.ClassifyScore(entry.SentimentScore),
			entry.SentimentScore,
			truncate(entry.Text, 60))
	}
	return nil
}

func (a *app) runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	_ = fs.Parse(args)

	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.aggregator.RefreshStats(ctx); err != nil {
		return err
	}

	stats, ok := a.aggregator.Stats()
	if !ok || stats.TotalAnalyses == 0 {
		fmt.Println("No analyses yet.")
		return nil
	}
	fmt.Printf("Total analyses: %d\n", stats.TotalAnalyses)
	for _, label := range sortedStatKeys(stats.SentimentDistribution) {
		ls := stats.SentimentDistribution[label]
		fmt.Printf("  %-8s %3d (avg score %+.2f)\n", label, ls.Count, ls.AverageScore)
	}
	return nil
}

func (a *app) runHealth(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	_ = fs.Parse(args)

	status, err := a.client.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Server is %s (reported at %s).\n", status.Status, status.Timestamp.Local().Format(time.DateTime))
	return nil
}

// userMessage maps an error to the line shown to the user. Gateway errors
// already carry a user-facing message; anything else is shown as-is.
func userMessage(err error) string {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Kind == apierrors.KindSessionExpired {
			return apiErr.Message + " (you have been signed out, please log in again)"
		}
		return apiErr.Message
	}
	if errors.Is(err, domain.ErrSubmissionInFlight) {
		return "an analysis is already in progress, wait for it to finish"
	}
	if errors.Is(err, domain.ErrNotAuthenticated) {
		return "not signed in, run `feelinsight login` first"
	}
	return err.Error()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStatKeys(m map[string]domain.LabelStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
