package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/services/search"
	"github.com/shopspring/decimal"
	"gopkg.in/telebot.v4"
)

// Deps are the services the bot serves commands from.
type Deps struct {
	Alerts        AlertService
	Catalog       search.ProductFetcher
	SearchTimeout time.Duration
}

// Bot contains the bot API instance and other information.
type Bot struct {
	bot     API
	log     *slog.Logger
	alerts  AlertService
	catalog search.ProductFetcher
	timeout time.Duration

	mu       sync.Mutex
	sessions map[int64]*search.Session
}

func NewBot(log *slog.Logger, token string, poller time.Duration, deps Deps) (*Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", bot.Me.Username)

	botInstance := newBot(bot, log, deps)

	botInstance.registerRoutes()

	return botInstance, nil
}

func newBot(api API, log *slog.Logger, deps Deps) *Bot {
	return &Bot{
		bot:      api,
		log:      log,
		alerts:   deps.Alerts,
		catalog:  deps.Catalog,
		timeout:  deps.SearchTimeout,
		sessions: make(map[int64]*search.Session),
	}
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and waits for running searches.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()

	b.mu.Lock()
	sessions := make([]*search.Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()

	for _, s := range sessions {
		s.Wait()
	}
}

// NotifyTriggered pushes a fired alert to its owner's chat.
func (b *Bot) NotifyTriggered(
	ctx context.Context,
	alert models.PriceAlert,
	product *models.Product,
	price decimal.Decimal,
) error {
	const opn = "bot.NotifyTriggered"

	chatID, err := strconv.ParseInt(alert.UserID, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid owner id %q: %w", opn, alert.UserID, err)
	}

	if _, err = b.bot.Send(telebot.ChatID(chatID), formatTriggered(alert, product, price)); err != nil {
		return fmt.Errorf("%s: failed to send notification: %w", opn, err)
	}

	b.log.DebugContext(ctx, "alert notification sent", "op", opn, "alert_id", alert.ID, "chat_id", chatID)
	return nil
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/search", b.searchHandler)
	b.bot.Handle("/product", b.productHandler)
	b.bot.Handle("/filters", b.filtersHandler)

	// Alert routes.
	b.bot.Handle("/alert", b.alertHandler)
	b.bot.Handle("/alerts", b.alertsHandler)
	b.bot.Handle("/unalert", b.unalertHandler)
	b.bot.Handle("/resetalert", b.resetAlertHandler)
}

// session returns the search session of a chat, creating it on first use.
// Results are delivered to that chat.
func (b *Bot) session(chat *telebot.Chat) *search.Session {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.sessions[chat.ID]; ok {
		return s
	}

	log := b.log.With("chat_id", chat.ID)
	deliver := func(res search.Result) {
		if res.Err != nil {
			log.Error("search failed", "seq", res.Seq, "error", res.Err)
			b.send(log, chat, msgSearchFailed)
			return
		}
		b.send(log, chat, formatResults(res.Filters, res.Products))
	}

	var opts []search.Option
	if b.timeout > 0 {
		opts = append(opts, search.WithTimeout(b.timeout))
	}

	s := search.NewSession(log, b.catalog, deliver, opts...)
	b.sessions[chat.ID] = s
	return s
}

func (b *Bot) send(log *slog.Logger, to telebot.Recipient, text string) {
	if _, err := b.bot.Send(to, text); err != nil {
		log.Error("failed to send message", "error", err)
	}
}
