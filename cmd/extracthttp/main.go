package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quantmind-br/extracthttp-go/internal/app"
	"github.com/quantmind-br/extracthttp-go/internal/config"
	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/extract"
	"github.com/quantmind-br/extracthttp-go/internal/manifest"
	"github.com/quantmind-br/extracthttp-go/internal/utils"
	"github.com/quantmind-br/extracthttp-go/pkg/version"
)

var (
	cfgFile string
	verbose bool
	log     *utils.Logger

	// Dependencies for testing
	osStat       = os.Stat
	execLookPath = exec.LookPath
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "extracthttp [config]",
	Short: "Extract structured records from web pages and JSON APIs",
	Long: `extracthttp runs declarative extraction configs: it fetches an HTML page or a
JSON document, reads records out of it with CSS-based locate groups and
reshapes them with transform declarations.

The argument is either an extraction config or a batch manifest listing
many configs. Results are written as JSON or YAML.`,
	Version:       version.Short(),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ~/.extracthttp/config.yaml)")
	flags.StringP("output", "o", config.DefaultOutputDir, `Output directory or file ("-" for stdout)`)
	flags.StringP("format", "f", config.DefaultOutputFormat, "Output format (json|yaml)")
	flags.IntP("concurrency", "j", config.DefaultWorkers, "Number of concurrent embed fetches")
	flags.Bool("force", false, "Overwrite existing files")
	flags.Bool("dry-run", false, "Extract without writing files")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Cache flags
	flags.Bool("no-cache", false, "Disable caching")
	flags.Duration("cache-ttl", config.DefaultCacheTTL, "Cache TTL")

	// Fetch flags
	flags.Bool("render-js", false, "Force JS rendering of html configs")
	flags.Duration("timeout", config.DefaultTimeout, "Request timeout")
	flags.String("user-agent", "", "Custom User-Agent")
	flags.String("proxy", "", "Proxy URL")

	// Record flags
	flags.String("delimiter", "", `Key path delimiter (default ">>>")`)
	flags.String("locale", "", "Locale of the 'n' number format")

	rootCmd.Flags().StringArrayP("param", "p", nil, "Runtime param as key=value (repeatable)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.directory", flags.Lookup("output"))
	_ = viper.BindPFlag("output.format", flags.Lookup("format"))
	_ = viper.BindPFlag("output.overwrite", flags.Lookup("force"))
	_ = viper.BindPFlag("concurrency.workers", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("concurrency.timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("cache.ttl", flags.Lookup("cache-ttl"))
	_ = viper.BindPFlag("stealth.user_agent", flags.Lookup("user-agent"))
	_ = viper.BindPFlag("stealth.proxy_url", flags.Lookup("proxy"))
	_ = viper.BindPFlag("record.delimiter", flags.Lookup("delimiter"))
	_ = viper.BindPFlag("record.locale", flags.Lookup("locale"))

	batchCmd.Flags().Bool("continue-on-error", false, "Keep running jobs after a failure")
	batchCmd.Flags().IntP("jobs", "J", 0, "Jobs run in parallel (default from manifest)")

	// Add subcommands
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func newLogger() *utils.Logger {
	logLevel := "info"
	if verbose {
		logLevel = "debug"
	}
	return utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  "pretty",
		Verbose: verbose,
	})
}

// parseParams turns key=value flags into a params map
func parseParams(raw []string) (map[string]string, error) {
	params := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q: expected key=value", kv)
		}
		params[key] = value
	}
	return params, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// newOrchestrator loads the application config and applies the flags viper
// does not bind
func newOrchestrator(cmd *cobra.Command, progress io.Writer) (*app.Orchestrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	noCache, _ := cmd.Flags().GetBool("no-cache")
	if noCache {
		cfg.Cache.Enabled = false
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")
	renderJS, _ := cmd.Flags().GetBool("render-js")

	orch, err := app.NewOrchestrator(app.OrchestratorOptions{
		CommonOptions: domain.CommonOptions{
			Verbose:  verbose,
			DryRun:   dryRun,
			Force:    force,
			RenderJS: renderJS,
		},
		Config:   cfg,
		Stdout:   cmd.OutOrStdout(),
		Progress: progress,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	return orch, nil
}

func run(cmd *cobra.Command, args []string) error {
	log = newLogger()

	if len(args) == 0 {
		return cmd.Help()
	}
	path := args[0]

	switch app.DetectInput(path) {
	case app.InputManifest:
		return runBatch(cmd, path)
	case app.InputUnknown:
		if _, err := osStat(path); err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
		return fmt.Errorf("%s is neither an extraction config nor a manifest", path)
	}

	rawParams, _ := cmd.Flags().GetStringArray("param")
	params, err := parseParams(rawParams)
	if err != nil {
		return err
	}

	orch, err := newOrchestrator(cmd, nil)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx, cancel := signalContext()
	defer cancel()

	_, err = orch.Run(ctx, path, app.RunOptions{Params: params})
	return err
}

var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Run every job of a batch manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log = newLogger()
		return runBatch(cmd, args[0])
	},
}

func runBatch(cmd *cobra.Command, path string) error {
	m, err := manifest.NewLoader().Load(path)
	if err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("continue-on-error"); f != nil && f.Changed {
		m.Options.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}
	if f := cmd.Flags().Lookup("jobs"); f != nil && f.Changed {
		m.Options.Concurrency, _ = cmd.Flags().GetInt("jobs")
	}
	if cmd.Flags().Changed("output") {
		m.Options.Output, _ = cmd.Flags().GetString("output")
	}

	var progress io.Writer
	if !verbose {
		progress = cmd.ErrOrStderr()
	}
	orch, err := newOrchestrator(cmd, progress)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := orch.RunManifest(ctx, m)
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "FAILED %s: %v\n", r.Job.Name(), r.Error)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d/%d jobs completed\n", len(results)-failed, len(results))
	return nil
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check extraction configs and manifests without fetching",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			if err := validateFile(path); err != nil {
				failed++
				fmt.Fprintf(out, "INVALID %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(out, "OK %s\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files invalid", failed, len(args))
		}
		return nil
	},
}

// validateFile loads a config, or a manifest and every config it names
func validateFile(path string) error {
	if app.DetectInput(path) != app.InputManifest {
		_, err := extract.NewLoader().Load(path)
		return err
	}

	m, err := manifest.NewLoader().Load(path)
	if err != nil {
		return err
	}
	var errs []error
	for i, job := range m.Jobs {
		if _, err := extract.NewLoader().Load(job.Config); err != nil {
			errs = append(errs, fmt.Errorf("job %d (%s): %w", i, filepath.Base(job.Config), err))
		}
	}
	return errors.Join(errs...)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system dependencies",
	Long:  "Verifies that all system dependencies are properly installed and configured.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Checking system dependencies...")
		allPassed := true

		fmt.Fprint(out, "  Internet connection: ")
		if checkInternet("https://www.google.com") {
			fmt.Fprintln(out, "OK")
		} else {
			fmt.Fprintln(out, "FAILED")
			allPassed = false
		}

		fmt.Fprint(out, "  Chrome/Chromium: ")
		if chromePath := checkChrome(); chromePath != "" {
			fmt.Fprintf(out, "OK (%s)\n", chromePath)
		} else {
			fmt.Fprintln(out, "NOT FOUND (render_js configs will fail)")
		}

		fmt.Fprint(out, "  Write permissions: ")
		if checkWritePermissions(".") {
			fmt.Fprintln(out, "OK")
		} else {
			fmt.Fprintln(out, "FAILED")
			allPassed = false
		}

		fmt.Fprint(out, "  Config file: ")
		if _, err := config.Load(); err != nil {
			fmt.Fprintf(out, "WARN (%v)\n", err)
		} else {
			fmt.Fprintln(out, "OK")
		}

		fmt.Fprint(out, "  Cache directory: ")
		cacheDir := config.CacheDir()
		if checkCacheDir(cacheDir) {
			fmt.Fprintf(out, "OK (%s)\n", cacheDir)
		} else {
			fmt.Fprintln(out, "WARN (will be created on first use)")
		}

		fmt.Fprintln(out)
		if allPassed {
			fmt.Fprintln(out, "All critical checks passed!")
		} else {
			fmt.Fprintln(out, "Some checks failed. Please resolve the issues above.")
		}
		return nil
	},
}

// checkInternet reports whether url answers a HEAD request
func checkInternet(url string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

// checkChrome checks if Chrome/Chromium is available
func checkChrome() string {
	paths := []string{
		// Linux
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		// macOS
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
	}

	for _, path := range paths {
		if _, err := osStat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "chrome.exe"} {
		if path, err := execLookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// checkWritePermissions checks if we can write to dir
func checkWritePermissions(dir string) bool {
	f, err := os.CreateTemp(dir, ".extracthttp_write_*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// checkCacheDir checks if the cache directory exists
func checkCacheDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}
