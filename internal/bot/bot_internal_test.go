package bot

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/pricing"
	"github.com/Houeta/pricewatch/internal/repository"
	"github.com/Houeta/pricewatch/internal/repository/memory"
	"github.com/Houeta/pricewatch/test/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

// fakeContext implements the parts of telebot.Context the handlers use.
type fakeContext struct {
	telebot.Context

	args    []string
	sender  *telebot.User
	chat    *telebot.Chat
	sent    []string
	sendErr error
}

func newFakeContext(args ...string) *fakeContext {
	return &fakeContext{
		args:   args,
		sender: &telebot.User{ID: 100, Username: "tester"},
		chat:   &telebot.Chat{ID: 100},
	}
}

func (c *fakeContext) Args() []string        { return c.args }
func (c *fakeContext) Sender() *telebot.User { return c.sender }
func (c *fakeContext) Chat() *telebot.Chat   { return c.chat }

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, fmt.Sprint(what))
	return c.sendErr
}

func (c *fakeContext) lastReply() string {
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureCatalog(t *testing.T) *memory.Catalog {
	t.Helper()
	catalog, err := memory.NewFixtureCatalog(discardLogger(), 0)
	require.NoError(t, err)
	return catalog
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestStart(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)
	mockBot.On("Start").Once()

	testBot := newBot(mockBot, slog.Default(), Deps{})

	testBot.Start()

	mockBot.AssertExpectations(t)
}

func TestStop(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)
	mockBot.On("Stop").Once()

	testBot := newBot(mockBot, slog.Default(), Deps{})

	testBot.Stop()

	mockBot.AssertExpectations(t)
}

func TestRegisterRoutes(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)

	for _, cmd := range []string{"/start", "/search", "/product", "/filters", "/alert", "/alerts", "/unalert", "/resetalert"} {
		mockBot.On("Handle", cmd, mock.AnythingOfType("telebot.HandlerFunc")).Once()
	}

	testBot := newBot(mockBot, slog.Default(), Deps{})

	testBot.registerRoutes()

	mockBot.AssertExpectations(t)
}

// =============================================================================
// Search
// =============================================================================

func TestParseSearchArgs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		args     []string
		expected models.SearchFilters
		errIs    error
	}{
		{
			name:     "no arguments",
			expected: models.SearchFilters{SortBy: models.SortPriceAsc},
		},
		{
			name:     "free text",
			args:     []string{"dell", "xps"},
			expected: models.SearchFilters{Text: "dell xps", SortBy: models.SortPriceAsc},
		},
		{
			name: "every filter",
			args: []string{
				"laptop", "category=laptop", "min=2000", "max=$2200", "brand=Dell",
				"brand=Dell", "vendor=Best_Buy", "sort=name-desc",
			},
			expected: models.SearchFilters{
				Text:     "laptop",
				Category: models.CategoryLaptop,
				PriceMin: decimal.NewNullDecimal(dec("2000")),
				PriceMax: decimal.NewNullDecimal(dec("2200")),
				Brands:   []string{"Dell"},
				Vendors:  []string{"Best Buy"},
				SortBy:   models.SortNameDesc,
			},
		},
		{name: "unknown category", args: []string{"category=tablet"}, errIs: errUnknownCategory},
		{name: "bad price", args: []string{"min=cheap"}, errIs: errBadPrice},
		{name: "negative price", args: []string{"max=-1"}, errIs: errBadPrice},
		{name: "inverted range", args: []string{"min=10", "max=5"}, errIs: errPriceRange},
		{name: "unknown filter", args: []string{"color=red"}, errIs: errUnknownFilter},
		{name: "unknown sort", args: []string{"sort=random"}, errIs: models.ErrUnknownSortKey},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseSearchArgs(tc.args)

			if tc.errIs != nil {
				require.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.Text, got.Text)
			assert.Equal(t, tc.expected.Category, got.Category)
			assert.Equal(t, tc.expected.SortBy, got.SortBy)
			assert.Equal(t, tc.expected.Brands, got.Brands)
			assert.Equal(t, tc.expected.Vendors, got.Vendors)
			assert.Equal(t, tc.expected.PriceMin.Valid, got.PriceMin.Valid)
			assert.True(t, tc.expected.PriceMin.Decimal.Equal(got.PriceMin.Decimal))
			assert.Equal(t, tc.expected.PriceMax.Valid, got.PriceMax.Valid)
			assert.True(t, tc.expected.PriceMax.Decimal.Equal(got.PriceMax.Decimal))
		})
	}
}

func TestSearchHandler(t *testing.T) {
	t.Parallel()

	t.Run("results are sent to the chat", func(t *testing.T) {
		t.Parallel()

		// Arrange
		mockBot := mocks.NewAPI(t)
		testBot := newBot(mockBot, discardLogger(), Deps{Catalog: fixtureCatalog(t)})
		tctx := newFakeContext("dell", "min=2000", "max=2200")

		mockBot.On("Send", tctx.chat, mock.MatchedBy(func(text string) bool {
			return strings.Contains(text, "Found 1 product(s)") &&
				strings.Contains(text, "Dell XPS 15 [laptop-2]") &&
				strings.Contains(text, "$2099.00 - $2199.00 at 3 vendor(s), on sale")
		})).Return(&telebot.Message{}, nil).Once()

		// Act
		err := testBot.searchHandler(tctx)
		testBot.session(tctx.chat).Wait()

		// Assert
		require.NoError(t, err)
		assert.Equal(t, msgSearching, tctx.lastReply())
	})

	t.Run("nothing matches", func(t *testing.T) {
		t.Parallel()

		mockBot := mocks.NewAPI(t)
		testBot := newBot(mockBot, discardLogger(), Deps{Catalog: fixtureCatalog(t)})
		tctx := newFakeContext("dell", "max=2150")

		mockBot.On("Send", tctx.chat, "No products match your search.").Return(&telebot.Message{}, nil).Once()

		require.NoError(t, testBot.searchHandler(tctx))
		testBot.session(tctx.chat).Wait()
	})

	t.Run("fetch failure", func(t *testing.T) {
		t.Parallel()

		mockBot := mocks.NewAPI(t)
		fetcher := mocks.NewProductFetcher(t)
		fetcher.On("FetchCatalog", mock.Anything).Return(nil, assert.AnError).Once()
		testBot := newBot(mockBot, discardLogger(), Deps{Catalog: fetcher})
		tctx := newFakeContext("dell")

		mockBot.On("Send", tctx.chat, msgSearchFailed).Return(nil, assert.AnError).Once()

		require.NoError(t, testBot.searchHandler(tctx))
		testBot.session(tctx.chat).Wait()
	})

	t.Run("invalid arguments", func(t *testing.T) {
		t.Parallel()

		testBot := newBot(mocks.NewAPI(t), discardLogger(), Deps{Catalog: fixtureCatalog(t)})
		tctx := newFakeContext("sort=cheapest")

		require.NoError(t, testBot.searchHandler(tctx))
		assert.Contains(t, tctx.lastReply(), "Cannot search")
	})

	t.Run("one session per chat", func(t *testing.T) {
		t.Parallel()

		testBot := newBot(mocks.NewAPI(t), discardLogger(), Deps{Catalog: fixtureCatalog(t)})

		first := testBot.session(&telebot.Chat{ID: 1})
		assert.Same(t, first, testBot.session(&telebot.Chat{ID: 1}))
		assert.NotSame(t, first, testBot.session(&telebot.Chat{ID: 2}))
	})
}

func TestProductHandler(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name: "found",
			args: []string{"laptop-1"},
			contains: []string{
				`MacBook Pro 16" [laptop-1]`,
				"Processor: Apple M2 Pro",
				"Amazon (amazon): $2399.00, was $2499.00, save $100.00",
				"Best offer: $2399.00 at Amazon",
				"/alert laptop-1 2159.10",
			},
		},
		{
			name:     "perishable",
			args:     []string{"grocery-1"},
			contains: []string{"Organic Bananas [grocery-1]", "Organic\n"},
		},
		{name: "not found", args: []string{"tablet-1"}, contains: []string{`Product "tablet-1" not found.`}},
		{name: "usage", contains: []string{"Usage: /product"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			testBot := newBot(mocks.NewAPI(t), discardLogger(), Deps{Catalog: fixtureCatalog(t)})
			tctx := newFakeContext(tc.args...)

			require.NoError(t, testBot.productHandler(tctx))
			for _, want := range tc.contains {
				assert.Contains(t, tctx.lastReply(), want)
			}
		})
	}
}

func TestFiltersHandler(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name: "laptop",
			args: []string{"laptop"},
			contains: []string{
				"Filters for laptop:",
				"Brands: brand=Apple brand=Dell brand=Lenovo\n",
				"vendor=Best_Buy",
			},
			excludes: []string{"Walmart"},
		},
		{
			name:     "all categories",
			contains: []string{"Filters for all categories:", "brand=Organic_Harvest", "vendor=Whole_Foods", "vendor=Amazon"},
		},
		{name: "unknown category", args: []string{"tablet"}, contains: []string{`unknown category "tablet"`}},
		{name: "usage", args: []string{"laptop", "grocery"}, contains: []string{"Usage: /filters"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			testBot := newBot(mocks.NewAPI(t), discardLogger(), Deps{Catalog: fixtureCatalog(t)})
			tctx := newFakeContext(tc.args...)

			require.NoError(t, testBot.filtersHandler(tctx))
			for _, want := range tc.contains {
				assert.Contains(t, tctx.lastReply(), want)
			}
			for _, unwanted := range tc.excludes {
				assert.NotContains(t, tctx.lastReply(), unwanted)
			}
		})
	}
}

func TestFiltersHandler_FetchError(t *testing.T) {
	t.Parallel()

	fetcher := mocks.NewProductFetcher(t)
	fetcher.On("FetchCatalog", mock.Anything).Return(nil, assert.AnError).Once()
	testBot := newBot(mocks.NewAPI(t), discardLogger(), Deps{Catalog: fetcher})

	err := testBot.filtersHandler(newFakeContext())

	require.ErrorIs(t, err, assert.AnError)
}

// =============================================================================
// Alerts
// =============================================================================

func TestAlertHandler(t *testing.T) {
	t.Parallel()

	created := &models.PriceAlert{
		ID: "a-1", ProductID: "laptop-1", UserID: "100", TargetPrice: dec("2299"), IsActive: true,
	}

	testCases := []struct {
		name        string
		args        []string
		setupMock   func(m *mocks.AlertService)
		expectError bool
		contains    string
	}{
		{
			name: "created",
			args: []string{"laptop-1", "2299"},
			setupMock: func(m *mocks.AlertService) {
				m.On("Create", mock.Anything, models.AlertRequest{
					ProductID: "laptop-1", UserID: "100", TargetPrice: dec("2299"),
				}).Return(created, nil).Once()
			},
			contains: "a-1: laptop-1 at or below $2299.00, watching",
		},
		{
			name: "scoped to a vendor",
			args: []string{"laptop-1", "2299", "amazon"},
			setupMock: func(m *mocks.AlertService) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(r models.AlertRequest) bool {
					return r.VendorID == "amazon"
				})).Return(created, nil).Once()
			},
			contains: "Alert created.",
		},
		{
			name: "target not below current price",
			args: []string{"laptop-1", "2399"},
			setupMock: func(m *mocks.AlertService) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("alerts.Create: %w: target 2399.00 must be lower than the current price 2399.00",
						pricing.ErrInvalidAlertTarget)).Once()
			},
			contains: "Cannot create alert: invalid alert target: target 2399.00 must be lower",
		},
		{
			name: "unknown product",
			args: []string{"tablet-1", "100"},
			setupMock: func(m *mocks.AlertService) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("alerts.Create: %w", repository.ErrProductNotFound)).Once()
			},
			contains: "Cannot create alert: product not found",
		},
		{
			name: "storage failure",
			args: []string{"laptop-1", "2299"},
			setupMock: func(m *mocks.AlertService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()
			},
			expectError: true,
		},
		{name: "bad price", args: []string{"laptop-1", "cheap"}, contains: "Cannot create alert: price must be"},
		{name: "usage", args: []string{"laptop-1"}, contains: "Usage: /alert"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			service := mocks.NewAlertService(t)
			if tc.setupMock != nil {
				tc.setupMock(service)
			}
			testBot := newBot(mocks.NewAPI(t), discardLogger(), Deps{Alerts: service})
			tctx := newFakeContext(tc.args...)

			// Act
			err := testBot.alertHandler(tctx)

			// Assert
			if tc.expectError {
				require.ErrorIs(t, err, assert.AnError)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, tctx.lastReply(), tc.contains)
		})
	}
}

func TestAlertsHandler(t *testing.T) {
	t.Parallel()

	triggeredAt := time.Date(2023, 8, 18, 9, 30, 0, 0, time.UTC)
	service := mocks.NewAlertService(t)
	service.On("List", mock.Anything, "100").Return([]models.PriceAlert{
		{ID: "a-1", ProductID: "laptop-1", TargetPrice: dec("2299"), IsActive: true},
		{ID: "a-2", ProductID: "laptop-2", TargetPrice: dec("2049.5"), VendorID: "dell", IsActive: true,
			Triggered: true, TriggeredAt: &triggeredAt},
	}, nil).Once()
	service.On("List", mock.Anything, "200").Return(nil, nil).Once()
	testBot := newBot(mocks.NewAPI(t), discardLogger(), Deps{Alerts: service})

	tctx := newFakeContext()
	require.NoError(t, testBot.alertsHandler(tctx))
	assert.Equal(t, "Your alerts:\n"+
		"a-1: laptop-1 at or below $2299.00, watching\n"+
		"a-2: laptop-2 at or below $2049.50 at dell, triggered 2023-08-18 09:30:00", tctx.lastReply())

	other := newFakeContext()
	other.sender = &telebot.User{ID: 200}
	require.NoError(t, testBot.alertsHandler(other))
	assert.Contains(t, other.lastReply(), "You have no alerts")
}

func TestUnalertAndResetHandlers(t *testing.T) {
	t.Parallel()

	service := mocks.NewAlertService(t)
	service.On("Remove", mock.Anything, "100", "a-1").Return(nil).Once()
	service.On("Remove", mock.Anything, "100", "a-9").Return(repository.ErrAlertNotFound).Once()
	service.On("Reset", mock.Anything, "100", "a-1").
		Return(&models.PriceAlert{ID: "a-1", ProductID: "laptop-1", TargetPrice: dec("2299"), IsActive: true}, nil).Once()
	service.On("Reset", mock.Anything, "100", "a-9").Return(nil, repository.ErrAlertNotFound).Once()
	service.On("Reset", mock.Anything, "100", "a-5").Return(nil, assert.AnError).Once()
	testBot := newBot(mocks.NewAPI(t), discardLogger(), Deps{Alerts: service})

	tctx := newFakeContext("a-1")
	require.NoError(t, testBot.unalertHandler(tctx))
	assert.Equal(t, "Alert removed.", tctx.lastReply())

	tctx = newFakeContext("a-9")
	require.NoError(t, testBot.unalertHandler(tctx))
	assert.Equal(t, `Alert "a-9" not found.`, tctx.lastReply())

	tctx = newFakeContext("a-1")
	require.NoError(t, testBot.resetAlertHandler(tctx))
	assert.Contains(t, tctx.lastReply(), "Alert is watching again.")

	tctx = newFakeContext("a-9")
	require.NoError(t, testBot.resetAlertHandler(tctx))
	assert.Equal(t, `Alert "a-9" not found.`, tctx.lastReply())

	tctx = newFakeContext("a-5")
	require.ErrorIs(t, testBot.resetAlertHandler(tctx), assert.AnError)

	tctx = newFakeContext()
	require.NoError(t, testBot.unalertHandler(tctx))
	assert.Contains(t, tctx.lastReply(), "Usage: /unalert")
}

func TestStartHandler_SendError(t *testing.T) {
	t.Parallel()

	testBot := newBot(mocks.NewAPI(t), discardLogger(), Deps{})
	tctx := newFakeContext()
	tctx.sendErr = assert.AnError

	err := testBot.startHandler(tctx)

	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, tctx.lastReply(), "/search")
}

// =============================================================================
// Notifications
// =============================================================================

func TestNotifyTriggered(t *testing.T) {
	t.Parallel()

	product := memory.Fixture()[1]
	alert := models.PriceAlert{ID: "a-1", ProductID: "laptop-2", UserID: "100", TargetPrice: dec("2100"), VendorID: "amazon"}

	t.Run("sent to the owner", func(t *testing.T) {
		t.Parallel()

		mockBot := mocks.NewAPI(t)
		mockBot.On("Send", telebot.ChatID(100), mock.MatchedBy(func(text string) bool {
			return strings.HasPrefix(text, "Price alert! The price at amazon of Dell XPS 15 [laptop-2] is now $2099.00") &&
				strings.Contains(text, "/resetalert a-1")
		})).Return(&telebot.Message{}, nil).Once()
		testBot := newBot(mockBot, discardLogger(), Deps{})

		require.NoError(t, testBot.NotifyTriggered(t.Context(), alert, &product, dec("2099")))
	})

	t.Run("send failure", func(t *testing.T) {
		t.Parallel()

		mockBot := mocks.NewAPI(t)
		mockBot.On("Send", telebot.ChatID(100), mock.Anything).Return(nil, assert.AnError).Once()
		testBot := newBot(mockBot, discardLogger(), Deps{})

		err := testBot.NotifyTriggered(t.Context(), alert, &product, dec("2099"))

		require.ErrorIs(t, err, assert.AnError)
		assert.ErrorContains(t, err, "bot.NotifyTriggered")
	})

	t.Run("owner id is not a chat", func(t *testing.T) {
		t.Parallel()

		bad := alert
		bad.UserID = "someone"
		testBot := newBot(mocks.NewAPI(t), discardLogger(), Deps{})

		require.Error(t, testBot.NotifyTriggered(t.Context(), bad, &product, dec("2099")))
	})
}
