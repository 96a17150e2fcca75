package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vkscraper/pkg/auth"
	"vkscraper/pkg/config"
	"vkscraper/pkg/logger"
	"vkscraper/pkg/models"
	"vkscraper/pkg/report"
	"vkscraper/pkg/scraper"
	"vkscraper/pkg/ui"
	"vkscraper/pkg/ui/tui"
)

var (
	// Crawl command flags
	accessToken     string
	outputDir       string
	accountName     string
	delay           time.Duration
	peerKinds       []string
	requestsPerSec  int
	downloadTimeout time.Duration
	continueOnError bool
	useTUI          bool
	notify          bool
	noReport        bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Download photos from all selected dialogs",
	Long: `Download every photo attachment from the dialogs of the token owner.

The access token is taken from, in order:
  - the --token flag
  - VKSCRAPER_TOKEN or token in the environment or a .env file
  - the configuration file
  - the credential store (see 'vkscraper auth login')

Photos are saved as <output>/<kind>s/<peer id>/<file name>. Files that already
exist are skipped, so an interrupted crawl can simply be started again.`,
	Example: `  # Crawl dialogs with users into ./photos
  vkscraper crawl

  # Include group chats and slow down
  vkscraper crawl --peer-kinds user,chat --delay 500ms

  # Keep going past broken media links
  vkscraper crawl --continue-on-error

  # Use the dashboard
  vkscraper crawl --tui`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	// The root command crawls too, so it gets the same flags
	addCrawlFlags(crawlCmd)
	addCrawlFlags(rootCmd)
}

func addCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&accessToken, "token", "t", "", "VK access token")
	f.StringVarP(&outputDir, "output", "o", "", "output root directory (default ./photos)")
	f.StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	f.DurationVar(&delay, "delay", 100*time.Millisecond, "pause after every downloaded file")
	f.StringSliceVar(&peerKinds, "peer-kinds", nil, "peer kinds to crawl: user, group, chat (default user)")
	f.IntVar(&requestsPerSec, "requests-per-second", 3, "cap on VK API calls per second, 0 for no cap")
	f.DurationVar(&downloadTimeout, "timeout", 30*time.Second, "HTTP timeout per request")
	f.BoolVar(&continueOnError, "continue-on-error", false, "skip files that fail to download instead of stopping")
	f.BoolVar(&useTUI, "tui", false, "show the interactive dashboard")
	f.BoolVar(&notify, "notify", false, "send a desktop notification when the crawl ends")
	f.BoolVar(&noReport, "no-report", false, "do not write a run report")
}

// crawlFlags collects the flags the user actually set
func crawlFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("token") {
		flags["token"] = accessToken
	}
	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("delay") {
		flags["delay"] = delay
	}
	if changed("peer-kinds") {
		flags["peer-kinds"] = peerKinds
	}
	if changed("requests-per-second") {
		flags["requests-per-second"] = requestsPerSec
	}
	if changed("timeout") {
		flags["timeout"] = downloadTimeout
	}
	if changed("continue-on-error") {
		flags["continue-on-error"] = continueOnError
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, crawlFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if noReport {
		cfg.Output.SaveReport = false
	}
	applyOutputMode(cfg)

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("vkscraper starting")

	source, err := resolveToken(cfg, accountName, auth.NewManager)
	if err != nil {
		ui.PrintError("No VK access token found")
		fmt.Println("\nStore one securely with:")
		fmt.Println("  vkscraper auth login")
		fmt.Println("\nor set it in the environment:")
		fmt.Println("  export VKSCRAPER_TOKEN=<token>")
		return err
	}
	log.WithField("source", source).Info("Using access token")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []scraper.Option{scraper.WithLogger(log)}
	var reportWriter *report.Writer
	if cfg.Output.SaveReport {
		reportWriter = report.NewWriter(cfg.Output.BaseDirectory, log)
		opts = append(opts, scraper.WithObserver(reportWriter))
	}
	if notify {
		notifier := ui.NewNotifier(os.Stdout)
		if useTUI {
			notifier = ui.NewNotifier(nil)
		}
		opts = append(opts, scraper.WithObserver(notifier))
	}

	var stats models.CrawlStats
	if useTUI {
		stats, err = crawlWithTUI(ctx, cfg, opts)
	} else {
		opts = append(opts, scraper.WithObserver(ui.NewConsoleReporter(os.Stdout, quiet || verbose)))
		stats, err = crawl(ctx, cfg, opts)
	}

	if reportWriter != nil && !quiet {
		if r := reportWriter.Report(); r != nil {
			ui.PrintInfo("Report", reportWriter.Path(r.RunID))
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("crawl interrupted")
		}
		return err
	}

	log.WithFields(map[string]interface{}{
		"downloaded": stats.Downloaded,
		"existing":   stats.Existing,
	}).Debug("Crawl completed")
	return nil
}

func crawl(ctx context.Context, cfg *config.Config, opts []scraper.Option) (models.CrawlStats, error) {
	s, err := scraper.New(cfg, opts...)
	if err != nil {
		return models.CrawlStats{}, fmt.Errorf("failed to initialize scraper: %w", err)
	}
	return s.Run(ctx)
}

// crawlWithTUI runs the crawl in a goroutine while the dashboard owns the terminal
func crawlWithTUI(ctx context.Context, cfg *config.Config, opts []scraper.Option) (models.CrawlStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	terminal := tui.NewTUI(cancel)
	s, err := scraper.New(cfg, append(opts, scraper.WithObserver(terminal))...)
	if err != nil {
		return models.CrawlStats{}, fmt.Errorf("failed to initialize scraper: %w", err)
	}

	var (
		wg       sync.WaitGroup
		stats    models.CrawlStats
		crawlErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		stats, crawlErr = s.Run(ctx)
	}()

	tuiErr := terminal.Start()
	if tuiErr != nil {
		cancel()
	}
	wg.Wait()

	ui.NewConsoleReporter(os.Stdout, true).CrawlFinished(stats, crawlErr)
	if crawlErr == nil && tuiErr != nil {
		return stats, fmt.Errorf("dashboard failed: %w", tuiErr)
	}
	return stats, crawlErr
}

// applyOutputMode keeps log lines from competing with progress output.
// Progress lines replace info logs unless --verbose or --log-level is given.
func applyOutputMode(cfg *config.Config) {
	switch {
	case useTUI:
		cfg.Logging.DisableConsole = true
	case verbose || logLevel != "":
	default:
		cfg.Logging.Level = "error"
	}
}

// resolveToken makes sure cfg carries an access token and reports where it
// came from. An explicit account always wins; otherwise a token from flags,
// environment or file is kept, and the credential store is the last resort.
func resolveToken(cfg *config.Config, account string, newManager func() (*auth.Manager, error)) (string, error) {
	if account == "" && cfg.ValidateCredentials() == nil {
		return "configuration", nil
	}

	manager, err := newManager()
	if err != nil {
		return "", fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var acc *auth.Account
	if account != "" {
		acc, err = manager.Retrieve(account)
	} else {
		acc, err = manager.RetrieveDefault()
	}
	if err != nil {
		return "", err
	}

	cfg.VK.AccessToken = acc.AccessToken
	return "account " + acc.Name, nil
}
