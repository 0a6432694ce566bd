package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"etalase/internal/metrics"
	"etalase/internal/models"
	"etalase/internal/storage"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// CartKey is the storage key holding the serialized cart.
const CartKey = "cart"

// MaxQuantity caps the quantity of a single cart line.
const MaxQuantity = 999

var (
	ErrInvalidItem  = errors.New("cart item requires an id")
	ErrInvalidPrice = errors.New("price must be a finite, non-negative number")
)

// CartStore owns the persisted cart of one browser session. Every mutation is
// a complete load-mutate-save against the injected storage.
type CartStore struct {
	storage  storage.Storage
	notifier Notifier
	metrics  *metrics.CartMetrics
}

// NewCartStore creates a CartStore over s. A nil notifier discards
// notifications and nil metrics record nothing.
func NewCartStore(s storage.Storage, notifier Notifier, m *metrics.CartMetrics) *CartStore {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	return &CartStore{
		storage:  s,
		notifier: notifier,
		metrics:  m,
	}
}

// Load returns the persisted cart. A missing, unreadable or malformed value
// yields an empty cart.
func (s *CartStore) Load() models.Cart {
	raw, ok, err := s.storage.Get(CartKey)
	if err != nil {
		log.WithError(err).Warn("Failed to read cart, treating it as empty")
		return models.Cart{}
	}
	if !ok || raw == "" {
		return models.Cart{}
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		log.WithError(err).Debug("Stored cart is not valid JSON, treating it as empty")
		return models.Cart{}
	}
	return sanitizeCart(cart)
}

// Save overwrites the persisted cart.
func (s *CartStore) Save(cart models.Cart) error {
	if cart == nil {
		cart = models.Cart{}
	}
	body, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	if err := s.storage.Set(CartKey, string(body)); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Add puts one unit of a product in the cart, incrementing the quantity when
// the product is already there, and notifies the shopper.
func (s *CartStore) Add(id, name string, price float64, image string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidItem
	}
	if !validPrice(price) {
		return fmt.Errorf("product %s: %w", id, ErrInvalidPrice)
	}

	cart := s.Load()
	if idx := cart.IndexOf(id); idx > -1 {
		cart[idx].Quantity = clampQuantity(cart[idx].Quantity + 1)
	} else {
		cart = append(cart, models.CartItem{
			ID:       id,
			Name:     name,
			Price:    price,
			Image:    image,
			Quantity: 1,
		})
	}

	if err := s.Save(cart); err != nil {
		return err
	}
	s.metrics.ItemAdded()
	s.notifier.Notify(Notification{
		Kind:    NotifyItemAdded,
		Message: fmt.Sprintf("%s has been added to your cart!", name),
	})
	return nil
}

// UpdateQuantity sets the quantity of an item. A non-positive quantity removes
// the item. Unknown ids leave the cart untouched.
func (s *CartStore) UpdateQuantity(id string, quantity int) error {
	cart := s.Load()
	idx := cart.IndexOf(id)
	if idx < 0 {
		return nil
	}

	if quantity > 0 {
		cart[idx].Quantity = clampQuantity(quantity)
		s.metrics.QuantityUpdated()
	} else {
		cart = cart.Without(id)
		s.metrics.ItemRemoved()
	}
	return s.Save(cart)
}

// UpdateQuantityInput coerces loosely typed input, such as a form value or a
// JSON number, before calling UpdateQuantity.
func (s *CartStore) UpdateQuantityInput(id string, raw any) error {
	return s.UpdateQuantity(id, CoerceQuantity(raw))
}

// Remove deletes the item with the given id.
func (s *CartStore) Remove(id string) error {
	cart := s.Load()
	if cart.IndexOf(id) < 0 {
		return nil
	}
	if err := s.Save(cart.Without(id)); err != nil {
		return err
	}
	s.metrics.ItemRemoved()
	return nil
}

// Clear deletes the persisted cart.
func (s *CartStore) Clear() error {
	if err := s.storage.Delete(CartKey); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Count returns the total quantity across the cart, as shown by the cart
// indicator.
func (s *CartStore) Count() int {
	return s.Load().TotalQuantity()
}

// CoerceQuantity turns user input into a quantity. Strings are read like a
// leading-integer parse ("3 items" is 3), numbers are truncated, and anything
// non-numeric, booleans included, becomes 0.
func CoerceQuantity(raw any) int {
	switch v := raw.(type) {
	case nil, bool:
		return 0
	case string:
		return parseLeadingInt(v)
	case float64:
		switch {
		case math.IsNaN(v) || v <= 0:
			return 0
		case v >= MaxQuantity:
			return MaxQuantity
		}
	case json.Number:
		return parseLeadingInt(v.String())
	}

	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0
	}
	return n
}

func parseLeadingInt(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// Only overflow reaches here.
		if s[0] == '-' {
			return 0
		}
		return MaxQuantity
	}
	return n
}

func clampQuantity(q int) int {
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

func validPrice(p float64) bool {
	return p >= 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

// sanitizeCart drops entries that could not have been written by CartStore:
// blank or repeated ids, negative prices and non-positive quantities.
func sanitizeCart(cart models.Cart) models.Cart {
	clean := make(models.Cart, 0, len(cart))
	seen := make(map[string]struct{}, len(cart))
	for _, item := range cart {
		if item.ID == "" || item.Quantity < 1 || !validPrice(item.Price) {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		item.Quantity = clampQuantity(item.Quantity)
		clean = append(clean, item)
	}
	return clean
}
