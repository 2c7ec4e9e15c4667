package bot

import (
	"context"

	"github.com/Houeta/pricewatch/internal/models"
	"gopkg.in/telebot.v4"
)

type API interface {
	// Handle lets you set the handler for some command name or one of the supported endpoints. It also applies middleware if such passed to the function.
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
	// Start brings bot into motion by consuming incoming updates (see Bot.Updates channel).
	Start()
	// Stop gracefully shuts the poller down.
	Stop()

	Leave(chat telebot.Recipient) error

	NewContext(u telebot.Update) telebot.Context

	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// AlertService is the alert use case surface the bot talks to.
type AlertService interface {
	Create(ctx context.Context, req models.AlertRequest) (*models.PriceAlert, error)
	List(ctx context.Context, userID string) ([]models.PriceAlert, error)
	Remove(ctx context.Context, userID, id string) error
	Reset(ctx context.Context, userID, id string) (*models.PriceAlert, error)
}
