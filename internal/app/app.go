// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// different operational modes:
//
//   - Bot mode: Telegram bot that resolves references posted in chats
//   - Resolve mode: one-shot command-line resolution printed as JSON
//
// The health endpoint runs in the background in either mode.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/bilichat/bili-parse-bot/internal/bot"
	"github.com/bilichat/bili-parse-bot/internal/core/article"
	"github.com/bilichat/bili-parse-bot/internal/core/domain"
	"github.com/bilichat/bili-parse-bot/internal/core/dynamic"
	"github.com/bilichat/bili-parse-bot/internal/core/fetch"
	"github.com/bilichat/bili-parse-bot/internal/core/ports"
	"github.com/bilichat/bili-parse-bot/internal/core/refextract"
	"github.com/bilichat/bili-parse-bot/internal/core/video"
	"github.com/bilichat/bili-parse-bot/internal/platform/config"
	"github.com/bilichat/bili-parse-bot/internal/platform/observability"
)

const errBotInit = "bot initialization failed: %w"

type App struct {
	cfg    *config.Config
	logger *zerolog.Logger

	extractor  *refextract.Extractor
	dynamics   *dynamicService
	videos     *videoService
	articles   *article.Client
	downloader ports.Downloader

	// fileDownloader is set only when downloads are enabled; its cleanup loop
	// runs for the lifetime of bot mode.
	fileDownloader *video.FileDownloader
}

func New(cfg *config.Config, logger *zerolog.Logger) *App {
	fetcher := fetch.New(cfg.FetchTimeout, cfg.FetchRPS, cfg.SessionCookie, logger)

	sources := dynamic.Reorder(dynamic.DefaultSources(), cfg.SourcePriority)
	recoverer := dynamic.NewRecoverer(fetcher, *logger)
	resolver := dynamic.NewResolver(fetcher, sources, recoverer, cfg.ResolveTimeout, *logger)

	var (
		downloader     ports.Downloader = noopDownloader{logger: logger}
		fileDownloader *video.FileDownloader
	)

	if cfg.EnableDownload {
		fileDownloader = video.NewFileDownloader(0, "", *logger)
		downloader = fileDownloader
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		extractor:  refextract.New(cfg.FetchTimeout, logger),
		dynamics:   &dynamicService{resolver: resolver},
		videos: &videoService{
			details: video.NewClient(fetcher, *logger),
			streams: video.NewStreamResolver(fetcher, cfg.VideoQuality, *logger),
		},
		articles:       article.NewClient(fetcher, *logger),
		downloader:     downloader,
		fileDownloader: fileDownloader,
	}
}

// RunBot starts the Telegram update loop and blocks until ctx is done.
func (a *App) RunBot(ctx context.Context) error {
	b, err := bot.New(a.cfg, a.extractor, a.dynamics, a.videos, a.articles, a.downloader, a.logger)
	if err != nil {
		return fmt.Errorf(errBotInit, err)
	}

	if a.fileDownloader != nil {
		go a.fileDownloader.CleanupLoop(ctx)
	}

	return b.Run(ctx)
}

// ResolveOnce resolves a single pasted message text and writes the normalized
// record to stdout as JSON.
func (a *App) ResolveOnce(ctx context.Context, text string) error {
	ref, err := a.extractor.Resolve(ctx, text)
	if err != nil {
		return err
	}

	var record any

	switch ref.Kind {
	case domain.KindDynamic:
		record, err = a.dynamics.Resolve(ctx, ref.ID, "")
	case domain.KindVideo:
		record, err = a.videos.Details(ctx, ref.ID)
	case domain.KindArticle:
		record, err = a.articles.Resolve(ctx, ref.ID)
	}

	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(record)
}

// StartHealthServer starts the HTTP health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.cfg.HealthPort, a.logger).Start(ctx)
}

// dynamicService adapts the resolver to the ports interface.
type dynamicService struct {
	resolver *dynamic.Resolver
}

func (s *dynamicService) Resolve(ctx context.Context, dynamicID, titleHint string) (*domain.Dynamic, error) {
	return s.resolver.Resolve(ctx, dynamicID, dynamic.ResolveOptions{TitleHint: titleHint})
}

// videoService bundles detail and stream resolution behind one port.
type videoService struct {
	details *video.Client
	streams *video.StreamResolver
}

func (s *videoService) Details(ctx context.Context, bvid string) (*domain.VideoDetails, error) {
	return s.details.Details(ctx, bvid)
}

func (s *videoService) StreamURL(ctx context.Context, bvid string, cid int64) (string, error) {
	return s.streams.StreamURL(ctx, bvid, cid)
}

// noopDownloader stands in when downloads are disabled.
type noopDownloader struct {
	logger *zerolog.Logger
}

func (d noopDownloader) Download(_ context.Context, _, name string) (string, error) {
	d.logger.Info().Str("name", name).Msg("download requested but disabled")

	return "", errors.New("downloads are disabled")
}
