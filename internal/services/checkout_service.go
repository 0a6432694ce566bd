package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"etalase/internal/metrics"
	"etalase/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// LandingPage is where the shopper is sent after checkout.
const LandingPage = "/"

// ErrCartEmpty is returned when checkout is attempted without items.
var ErrCartEmpty = errors.New("cart is empty")

// EventPublisher announces completed checkouts to downstream consumers.
type EventPublisher interface {
	PublishCheckoutCompleted(event models.CheckoutEvent) error
}

// CheckoutService finalizes a shopper's cart.
type CheckoutService struct {
	publisher EventPublisher
	validate  *validator.Validate
	metrics   *metrics.CartMetrics
}

// NewCheckoutService creates a new CheckoutService. publisher may be nil, in
// which case no event is published.
func NewCheckoutService(publisher EventPublisher, m *metrics.CartMetrics) *CheckoutService {
	return &CheckoutService{
		publisher: publisher,
		validate:  validator.New(),
		metrics:   m,
	}
}

// Submit checks out the cart held by store. An empty cart is refused before
// anything else is looked at and leaves storage untouched. On success the
// shopper is notified, the cart is cleared and the receipt points back to the
// landing page.
func (s *CheckoutService) Submit(store *CartStore, sessionID string, form models.CheckoutForm) (*models.Receipt, error) {
	cart := store.Load()
	if cart.IsEmpty() {
		s.metrics.CheckoutRejected(string(NotifyCartEmpty))
		store.notifier.Notify(Notification{
			Kind:    NotifyCartEmpty,
			Message: "Your cart is empty. Checkout cannot proceed.",
		})
		return nil, ErrCartEmpty
	}

	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	if err := s.validate.Struct(form); err != nil {
		s.metrics.CheckoutRejected(string(NotifyInvalidInput))
		store.notifier.Notify(Notification{
			Kind:    NotifyInvalidInput,
			Message: "Please enter your first and last name.",
		})
		return nil, err
	}

	totals := ComputeTotals(cart)
	displayName := form.FirstName + " " + form.LastName
	event := newCheckoutEvent(sessionID, displayName, cart, totals)

	// The cart must be gone before anyone hears about the order.
	if err := store.Clear(); err != nil {
		return nil, fmt.Errorf("failed to finalize checkout: %w", err)
	}

	message := fmt.Sprintf("Thank you %s! Your order totaling %s has been placed successfully.",
		displayName, FormatMoney(totals.Total))
	store.notifier.Notify(Notification{Kind: NotifyCheckoutSuccess, Message: message})

	s.publish(event)
	s.metrics.CheckoutCompleted(totals.Total)

	return &models.Receipt{
		EventID:     event.ID,
		DisplayName: displayName,
		ItemCount:   len(cart),
		Totals:      totals,
		CartCount:   store.Count(),
		RedirectTo:  LandingPage,
		Message:     message,
	}, nil
}

func (s *CheckoutService) publish(event models.CheckoutEvent) {
	if s.publisher == nil {
		log.Debug("Event publisher is not configured. Skipping checkout event.")
		return
	}
	if err := s.publisher.PublishCheckoutCompleted(event); err != nil {
		log.WithError(err).WithField("event_id", event.ID).Warn("Failed to publish checkout completed event")
		return
	}
	log.WithField("event_id", event.ID).Info("Published checkout completed event")
}

func newCheckoutEvent(sessionID, displayName string, cart models.Cart, totals models.Totals) models.CheckoutEvent {
	lines := make([]models.CheckoutLine, 0, len(cart))
	for _, item := range cart {
		lines = append(lines, models.CheckoutLine{
			ProductID: item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return models.CheckoutEvent{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		DisplayName: displayName,
		Lines:       lines,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Total:       totals.Total,
		CompletedAt: time.Now().UTC(),
	}
}
