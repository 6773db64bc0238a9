// Package bot is the Telegram front end: it watches chat messages for
// references the engine recognizes and replies with the resolved content.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/bilichat/bili-parse-bot/internal/core/ports"
	"github.com/bilichat/bili-parse-bot/internal/core/refextract"
	"github.com/bilichat/bili-parse-bot/internal/platform/config"
)

type Bot struct {
	cfg        *config.Config
	extractor  *refextract.Extractor
	dynamics   ports.DynamicResolver
	videos     ports.VideoResolver
	articles   ports.ArticleResolver
	downloader ports.Downloader
	api        *tgbotapi.BotAPI
	logger     *zerolog.Logger
}

func New(
	cfg *config.Config,
	extractor *refextract.Extractor,
	dynamics ports.DynamicResolver,
	videos ports.VideoResolver,
	articles ports.ArticleResolver,
	downloader ports.Downloader,
	logger *zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}

	return &Bot{
		cfg:        cfg,
		extractor:  extractor,
		dynamics:   dynamics,
		videos:     videos,
		articles:   articles,
		downloader: downloader,
		api:        api,
		logger:     logger,
	}, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.api.Self.UserName).Msg("bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()

			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			// Resolutions can take the full chain timeout; never block the
			// update loop on one message.
			go b.handleMessage(ctx, update.Message)
		}
	}
}
