package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/quantmind-br/extracthttp-go/internal/config"
	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/extract"
	"github.com/quantmind-br/extracthttp-go/internal/manifest"
	"github.com/quantmind-br/extracthttp-go/internal/output"
	"github.com/quantmind-br/extracthttp-go/internal/renderer"
	"github.com/quantmind-br/extracthttp-go/internal/utils"
)

// Orchestrator coordinates loading extraction configs, running them and
// writing their results
type Orchestrator struct {
	config    *config.Config
	deps      *Dependencies
	extractor *extract.Extractor
	loader    *extract.Loader
	writer    domain.Writer
	logger    *utils.Logger
	common    domain.CommonOptions
	stdout    io.Writer
	progress  io.Writer
}

// OrchestratorOptions contains options for creating an orchestrator
type OrchestratorOptions struct {
	domain.CommonOptions
	Config *config.Config
	// Dependencies replaces the ones built from Config
	Dependencies *Dependencies
	// Writer replaces the writer built from Config.Output
	Writer domain.Writer
	// Stdout receives results written to "-"; defaults to os.Stdout
	Stdout io.Writer
	// Progress receives the batch progress bar; nil disables it
	Progress io.Writer
	Logger   *utils.Logger
	Now      func() time.Time
}

// RunOptions selects the params and destination of one run
type RunOptions struct {
	Params map[string]string
	// Output overrides the configured destination
	Output string
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logLevel := "info"
		logFormat := "pretty"
		if cfg.Logging.Level != "" {
			logLevel = cfg.Logging.Level
		}
		if cfg.Logging.Format != "" {
			logFormat = cfg.Logging.Format
		}
		logger = utils.NewLogger(utils.LoggerOptions{
			Level:   logLevel,
			Format:  logFormat,
			Verbose: opts.Verbose,
		})
	}

	deps := opts.Dependencies
	if deps == nil {
		var err error
		deps, err = NewDependencies(DependencyOptions{
			Timeout:     cfg.Concurrency.Timeout,
			MaxRetries:  cfg.Concurrency.Retries,
			EnableCache: cfg.Cache.Enabled,
			CacheTTL:    cfg.Cache.TTL,
			CacheDir:    cfg.Cache.Directory,
			UserAgent:   cfg.Stealth.UserAgent,
			ProxyURL:    cfg.Stealth.ProxyURL,
			Renderer: renderer.RendererOptions{
				Timeout:     cfg.Rendering.JSTimeout,
				MaxTabs:     cfg.Rendering.MaxTabs,
				Stealth:     true,
				Headless:    true,
				BrowserPath: cfg.Rendering.BrowserPath,
				NoSandbox:   renderer.DefaultRendererOptions().NoSandbox,
			},
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create dependencies: %w", err)
		}
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	o := &Orchestrator{
		config:   cfg,
		deps:     deps,
		loader:   extract.NewLoader(),
		logger:   logger,
		common:   opts.CommonOptions,
		stdout:   stdout,
		progress: opts.Progress,
	}

	o.extractor = extract.NewExtractor(extract.Options{
		Fetcher:  deps.Fetcher,
		Payloads: deps.Payloads,
		Renderer: lazyRenderer{deps: deps},
		RenderOptions: domain.RenderOptions{
			Timeout:     cfg.Rendering.JSTimeout,
			WaitStable:  cfg.Rendering.WaitStable,
			ScrollToEnd: cfg.Rendering.ScrollToEnd,
		},
		Delimiter: cfg.Record.Delimiter,
		Workers:   cfg.Concurrency.Workers,
		Language:  cfg.Record.Language(),
		Logger:    logger,
		Now:       opts.Now,
	})

	o.writer = opts.Writer
	if o.writer == nil {
		o.writer = o.newWriter(cfg.Output.Directory, nil)
	}
	return o, nil
}

func (o *Orchestrator) newWriter(dest string, collector *output.Collector) *output.Writer {
	return output.NewWriter(output.WriterOptions{
		Destination: dest,
		Format:      o.config.Output.Format,
		Pretty:      o.config.Output.Pretty,
		Force:       o.common.Force || o.config.Output.Overwrite,
		DryRun:      o.common.DryRun,
		Stdout:      o.stdout,
		Collector:   collector,
	})
}

func (o *Orchestrator) writerFor(dest string) domain.Writer {
	if dest == "" {
		return o.writer
	}
	return o.newWriter(dest, nil)
}

// Validate loads an extraction config and checks it without fetching
func (o *Orchestrator) Validate(configPath string) (*extract.Config, error) {
	return o.loader.Load(configPath)
}

// Run loads the extraction config at configPath, extracts it and writes
// the result
func (o *Orchestrator) Run(ctx context.Context, configPath string, opts RunOptions) (*domain.Result, error) {
	cfg, err := o.loader.Load(configPath)
	if err != nil {
		return nil, err
	}
	return o.RunConfig(ctx, cfg, opts)
}

// RunConfig extracts an already loaded config and writes the result
func (o *Orchestrator) RunConfig(ctx context.Context, cfg *extract.Config, opts RunOptions) (*domain.Result, error) {
	return o.run(ctx, cfg, opts, o.writerFor(opts.Output))
}

func (o *Orchestrator) run(ctx context.Context, cfg *extract.Config, opts RunOptions, w domain.Writer) (*domain.Result, error) {
	startTime := time.Now()

	if o.common.RenderJS && cfg.Type == domain.TypeHTML {
		cfg.RenderJS = extract.RenderOn
	}

	params := make(map[string]string, len(o.common.Params)+len(opts.Params))
	for k, v := range o.common.Params {
		params[k] = v
	}
	for k, v := range opts.Params {
		params[k] = v
	}

	o.logger.Info().
		Str("config", cfg.Name).
		Str("type", string(cfg.Type)).
		Msg("Starting extraction")

	result, err := o.extractor.Extract(ctx, cfg, params)
	if err != nil {
		if ctx.Err() != nil {
			o.logger.Warn().Msg("Extraction cancelled")
			return nil, ctx.Err()
		}
		return nil, err
	}

	if err := w.Write(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to write result: %w", err)
	}

	o.logger.Info().
		Str("config", cfg.Name).
		Int("records", result.RecordCount()).
		Dur("duration", time.Since(startTime)).
		Msg("Extraction completed")
	return result, nil
}

// Close releases all resources held by the orchestrator
func (o *Orchestrator) Close() error {
	if o.deps != nil {
		return o.deps.Close()
	}
	return nil
}

// JobResult represents the outcome of one manifest job
type JobResult struct {
	Job      manifest.Job
	Result   *domain.Result
	Error    error
	Duration time.Duration
}

// RunManifest runs every job of the manifest. Without continue_on_error the
// first failure cancels the jobs still running and is returned.
func (o *Orchestrator) RunManifest(ctx context.Context, m *manifest.Config) ([]JobResult, error) {
	startTime := time.Now()
	total := len(m.Jobs)

	o.logger.Info().
		Int("jobs", total).
		Bool("continue_on_error", m.Options.ContinueOnError).
		Str("output", m.Options.Output).
		Msg("Starting manifest execution")

	results := make([]JobResult, total)
	if total == 0 {
		return results, nil
	}

	batchWriter := o.writer
	var collector *output.Collector
	if dest := m.Options.Output; dest != "" {
		if dest != output.Stdout && filepath.Ext(dest) == "" {
			collector = output.NewCollector(output.CollectorOptions{BaseDir: utils.ExpandPath(dest)})
		}
		batchWriter = o.newWriter(dest, collector)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		firstErr   error
		firstErrMu sync.Mutex
	)

	var bar *progressbar.ProgressBar
	if o.progress != nil {
		bar = utils.NewProgressBar(total, utils.DescExtracting, o.progress)
		defer bar.Finish()
	}

	indices := make([]int, total)
	for i := range indices {
		indices[i] = i
	}

	errs := utils.ParallelForEach(runCtx, indices, m.Options.Concurrency, func(ctx context.Context, idx int) error {
		job := m.Jobs[idx]
		jobStart := time.Now()

		o.logger.Info().
			Int("job_idx", idx).
			Str("job", job.Name()).
			Int("total", total).
			Msg("Processing job")

		w := batchWriter
		if job.Output != "" {
			w = o.newWriter(job.Output, nil)
		}

		result, err := o.runJob(ctx, job, w)
		results[idx] = JobResult{Job: job, Result: result, Error: err, Duration: time.Since(jobStart)}
		if bar != nil {
			_ = bar.Add(1)
		}

		if err != nil {
			o.logger.Error().
				Err(err).
				Int("job_idx", idx).
				Str("job", job.Name()).
				Msg("Job failed")

			firstErrMu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("job %s failed: %w", job.Name(), err)
			}
			firstErrMu.Unlock()

			if !m.Options.ContinueOnError {
				cancel()
			}
			return err
		}
		return nil
	})

	if ctx.Err() != nil {
		o.logger.Warn().Msg("Manifest execution cancelled")
		return results, ctx.Err()
	}

	if collector != nil {
		if err := collector.Flush(); err != nil {
			o.logger.Warn().Err(err).Msg("Failed to write result index")
		}
	}

	failed := 0
	for i := range results {
		if results[i].Result == nil && results[i].Error == nil {
			// never started
			results[i] = JobResult{Job: m.Jobs[i], Error: errs[i]}
		}
		if results[i].Error != nil {
			failed++
		}
	}

	o.logger.Info().
		Dur("total_duration", time.Since(startTime)).
		Int("total", total).
		Int("success", total-failed).
		Int("failed", failed).
		Msg("Manifest execution completed")

	if firstErr != nil {
		if !m.Options.ContinueOnError {
			return results, firstErr
		}
		return results, fmt.Errorf("manifest completed with %d/%d failures: %w", failed, total, firstErr)
	}
	return results, nil
}

func (o *Orchestrator) runJob(ctx context.Context, job manifest.Job, w domain.Writer) (*domain.Result, error) {
	cfg, err := o.loader.Load(job.Config)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, cfg, RunOptions{Params: job.Params}, w)
}
