package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/quantmind-br/extracthttp-go/internal/converter"
	"github.com/quantmind-br/extracthttp-go/internal/domain"
	"github.com/quantmind-br/extracthttp-go/internal/node"
	"github.com/quantmind-br/extracthttp-go/internal/record"
	"github.com/quantmind-br/extracthttp-go/internal/renderer"
	"github.com/quantmind-br/extracthttp-go/internal/transform"
	"github.com/quantmind-br/extracthttp-go/internal/utils"
	"golang.org/x/text/language"
)

// Options configures an Extractor
type Options struct {
	// Fetcher loads url sources
	Fetcher domain.Fetcher
	// Payloads serves embed declarations; nil disables embeds
	Payloads domain.PayloadFetcher
	// Renderer serves render_js configs; nil makes them fail
	Renderer      domain.Renderer
	RenderOptions domain.RenderOptions
	Delimiter     string
	Workers       int
	Language      language.Tag
	Logger        *utils.Logger
	Now           func() time.Time
}

// Extractor runs extraction configs
type Extractor struct {
	fetcher   domain.Fetcher
	payloads  domain.PayloadFetcher
	renderer  domain.Renderer
	renderOpt domain.RenderOptions
	delimiter string
	workers   int
	language  language.Tag
	logger    *utils.Logger
	now       func() time.Time
}

// NewExtractor creates an extractor
func NewExtractor(opts Options) *Extractor {
	e := &Extractor{
		fetcher:   opts.Fetcher,
		payloads:  opts.Payloads,
		renderer:  opts.Renderer,
		renderOpt: opts.RenderOptions,
		delimiter: opts.Delimiter,
		workers:   opts.Workers,
		language:  opts.Language,
		logger:    utils.OrNop(opts.Logger).WithComponent("extract"),
		now:       opts.Now,
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Extract loads cfg's source with params applied and returns the extracted
// data. html sources yield one record list per locate group; json sources
// yield the transformed document.
func (e *Extractor) Extract(ctx context.Context, cfg *Config, params map[string]string) (*domain.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, domain.NewExtractionError(cfg.Name, "", err)
	}
	src, err := cfg.Resolve(params)
	if err != nil {
		return nil, domain.NewExtractionError(cfg.Name, "", err)
	}

	log := e.logger.WithConfig(cfg.Name).WithURL(src.String())
	log.Debug().Str("type", string(cfg.Type)).Msg("Extracting")

	page, err := e.load(ctx, cfg, src)
	if err != nil {
		return nil, domain.NewExtractionError(cfg.Name, src.String(), err)
	}

	result := &domain.Result{
		Name:       cfg.Name,
		Type:       cfg.Type,
		URL:        src.URL,
		FetchedAt:  page.FetchedAt,
		FromCache:  page.FromCache,
		RenderedJS: page.RenderedJS,
	}

	switch cfg.Type {
	case domain.TypeHTML:
		groups, err := e.extractHTML(ctx, cfg, src, page, log)
		if err != nil {
			return nil, domain.NewExtractionError(cfg.Name, src.String(), err)
		}
		result.Data = domain.GroupsValue(groups)
	default:
		data, err := e.extractJSON(ctx, cfg, src, page)
		if err != nil {
			return nil, domain.NewExtractionError(cfg.Name, src.String(), err)
		}
		result.Data = data
	}

	log.Info().Int("records", result.RecordCount()).Bool("from_cache", result.FromCache).Msg("Extraction complete")
	return result, nil
}

// load reads a file source or fetches a url source, rendering it when the
// config asks for it
func (e *Extractor) load(ctx context.Context, cfg *Config, src Source) (*domain.Page, error) {
	if src.File != "" {
		body, err := os.ReadFile(src.File)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableSource, err)
		}
		return &domain.Page{URL: src.File, Content: body, FetchedAt: e.now()}, nil
	}

	if cfg.Type == domain.TypeHTML && cfg.RenderJS == RenderOn {
		return e.render(ctx, cfg, src)
	}
	if e.fetcher == nil {
		return nil, errors.New("no fetcher configured")
	}

	resp, err := e.fetcher.Get(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	page := &domain.Page{
		URL:         resp.URL,
		Content:     resp.Body,
		ContentType: resp.ContentType,
		StatusCode:  resp.StatusCode,
		FetchedAt:   e.now(),
		FromCache:   resp.FromCache,
	}

	if cfg.Type == domain.TypeHTML && cfg.RenderJS == RenderAuto &&
		e.renderer != nil && renderer.NeedsJSRendering(string(resp.Body)) {
		e.logger.WithURL(src.URL).Debug().Msg("Page looks client rendered, rendering")
		rendered, err := e.render(ctx, cfg, src)
		if errors.Is(err, domain.ErrBrowserNotFound) {
			e.logger.WithURL(src.URL).Warn().Err(err).Msg("No browser available, using fetched page")
			return page, nil
		}
		return rendered, err
	}
	return page, nil
}

func (e *Extractor) render(ctx context.Context, cfg *Config, src Source) (*domain.Page, error) {
	if e.renderer == nil {
		return nil, fmt.Errorf("%w: render_js is set but no renderer is available", domain.ErrBrowserNotFound)
	}

	opts := e.renderOpt
	if cfg.WaitFor != "" {
		opts.WaitFor = cfg.WaitFor
	}
	if e.fetcher != nil {
		opts.Cookies = e.fetcher.GetCookies(src.URL)
	}
	html, err := e.renderer.Render(ctx, src.URL, opts)
	if err != nil {
		return nil, err
	}
	return &domain.Page{
		URL:         src.URL,
		Content:     []byte(html),
		ContentType: "text/html; charset=utf-8",
		FetchedAt:   e.now(),
		RenderedJS:  true,
	}, nil
}

// extractHTML runs every locate group in order, then its transform
func (e *Extractor) extractHTML(ctx context.Context, cfg *Config, src Source, page *domain.Page, log *utils.Logger) ([][]*record.Record, error) {
	prep := converter.NewPipeline(converter.PipelineOptions{
		BaseURL:          src.BaseURL,
		Content:          cfg.Content,
		Sanitize:         cfg.Sanitize,
		RemoveNavigation: cfg.RemoveNavigation,
	})
	doc, err := prep.Prepare(page.Content, page.ContentType, src.BaseURL)
	if err != nil {
		return nil, err
	}

	loc := &locator{
		resolver: node.NewResolver(node.ResolverOptions{
			Markdown: converter.NewMarkdownConverter(converter.MarkdownOptions{Domain: src.BaseURL}),
			Logger:   e.logger,
		}),
		logger: log,
	}

	groups := make([][]*record.Record, 0, len(cfg.Locate))
	for i := range cfg.Locate {
		g := &cfg.Locate[i]
		recs, err := loc.locate(g, doc.Selection)
		if err != nil {
			return nil, fmt.Errorf("locate[%d]: %w", i, err)
		}
		if len(g.Transform) > 0 {
			pipe, err := e.pipeline(g.Transform)
			if err != nil {
				return nil, fmt.Errorf("locate[%d]: %w", i, err)
			}
			if err := pipe.ApplyAll(ctx, recs, src.BaseURL); err != nil {
				return nil, err
			}
		}
		log.Debug().Int("group", i).Int("records", len(recs)).Msg("Located group")
		groups = append(groups, recs)
	}
	return groups, nil
}

// extractJSON decodes the document and transforms it when it is a record
// or a list of records
func (e *Extractor) extractJSON(ctx context.Context, cfg *Config, src Source, page *domain.Page) (record.Value, error) {
	body, err := converter.ConvertToUTF8(page.Content, page.ContentType)
	if err != nil {
		return record.Null(), err
	}
	data, err := record.ParseJSON(body)
	if err != nil {
		return record.Null(), fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	if len(cfg.Transform) == 0 {
		return data, nil
	}

	pipe, err := e.pipeline(cfg.Transform)
	if err != nil {
		return record.Null(), err
	}
	switch {
	case data.IsRecord():
		err = pipe.Apply(ctx, data.Record(), src.BaseURL)
	case data.IsList():
		var recs []*record.Record
		for _, item := range data.Items() {
			if rec := item.Record(); rec != nil {
				recs = append(recs, rec)
			}
		}
		err = pipe.ApplyAll(ctx, recs, src.BaseURL)
	}
	if err != nil {
		return record.Null(), err
	}
	return data, nil
}

func (e *Extractor) pipeline(decls transform.Declarations) (*transform.Pipeline, error) {
	return transform.New(decls, transform.Options{
		Delimiter: e.delimiter,
		Fetcher:   e.payloads,
		Workers:   e.workers,
		Language:  e.language,
		Logger:    e.logger,
		Now:       e.now,
	})
}
