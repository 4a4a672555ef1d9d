package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/internal/adapters/config"
	"github.com/mlundberg/borsradar/pkg/logger"
	"github.com/mlundberg/borsradar/pkg/models"
)

// Notifier pushes mention alerts to a single configured chat. A nil
// Notifier is valid and silently does nothing, so callers never have
// to branch on whether alerts are configured.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	cfg    *config.TelegramConfig
}

// NewNotifier creates the alert notifier
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("telegram is not configured")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{api: bot, chatID: cfg.ChatID, cfg: cfg}, nil
}

// ResultPersisted sends an alert for each actionable mention in a
// freshly persisted analysis. Send failures are logged, never
// propagated; alerting must not affect the pipeline.
func (n *Notifier) ResultPersisted(item models.ContentItem, result *models.AnalysisResult) {
	if n == nil || !n.cfg.AlertOnMentions || result.Failed {
		return
	}

	for _, m := range result.Mentions {
		if m.Recommendation != models.RecommendationBuy && m.Recommendation != models.RecommendationSell {
			continue
		}

		msg := tgbotapi.NewMessage(n.chatID, formatMentionAlert(item, m))
		msg.ParseMode = tgbotapi.ModeMarkdown

		if _, err := n.api.Send(msg); err != nil {
			logger.Warn("failed to send mention alert",
				zap.String("stock", m.Name),
				zap.Error(err),
			)
		}
	}
}

func formatMentionAlert(item models.ContentItem, m models.Mention) string {
	var b strings.Builder

	action := "KÖP"
	if m.Recommendation == models.RecommendationSell {
		action = "SÄLJ"
	}

	fmt.Fprintf(&b, "*%s: %s*", action, m.Name)
	if m.Ticker != nil {
		fmt.Fprintf(&b, " (%s)", *m.Ticker)
	}
	fmt.Fprintf(&b, "\n%s", m.Context)
	if m.PriceInfo != nil {
		fmt.Fprintf(&b, "\nPris: %s", *m.PriceInfo)
	}
	fmt.Fprintf(&b, "\n\nKälla: %s - %s", item.SourceName, item.Title)
	if item.URL != "" {
		fmt.Fprintf(&b, "\n%s", item.URL)
	}
	return b.String()
}
