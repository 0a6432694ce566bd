package handlers

import (
	"encoding/json"

	"etalase/internal/metrics"
	"etalase/internal/middleware"
	"etalase/internal/services"
	"etalase/internal/storage"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const flashKey = "flash"

// CartSessions builds the per-browser view of the shared storage backend.
type CartSessions struct {
	backend storage.Storage
	metrics *metrics.CartMetrics
}

// NewCartSessions creates a new CartSessions.
func NewCartSessions(backend storage.Storage, m *metrics.CartMetrics) *CartSessions {
	return &CartSessions{
		backend: backend,
		metrics: m,
	}
}

// Storage returns the storage namespace of the request's browser session.
func (s *CartSessions) Storage(c *fiber.Ctx) storage.Storage {
	return storage.Scoped(s.backend, "session:"+middleware.SessionID(c))
}

// FlashStore returns a cart store whose notifications are kept as flash
// messages for the next rendered page.
func (s *CartSessions) FlashStore(c *fiber.Ctx) *services.CartStore {
	st := s.Storage(c)
	return services.NewCartStore(st, flashNotifier{storage: st}, s.metrics)
}

// CollectingStore returns a cart store whose notifications are collected for
// the current response.
func (s *CartSessions) CollectingStore(c *fiber.Ctx) (*services.CartStore, *services.Collector) {
	collector := &services.Collector{}
	return services.NewCartStore(s.Storage(c), collector, s.metrics), collector
}

// flashNotifier appends notifications to the session's flash list.
type flashNotifier struct {
	storage storage.Storage
}

func (f flashNotifier) Notify(n services.Notification) {
	flashes := readFlashes(f.storage)
	flashes = append(flashes, n)
	body, err := json.Marshal(flashes)
	if err != nil {
		log.WithError(err).Warn("Failed to marshal flash messages")
		return
	}
	if err := f.storage.Set(flashKey, string(body)); err != nil {
		log.WithError(err).Warn("Failed to store flash messages")
	}
}

func readFlashes(s storage.Storage) []services.Notification {
	raw, ok, err := s.Get(flashKey)
	if err != nil || !ok {
		return nil
	}
	var flashes []services.Notification
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		return nil
	}
	return flashes
}

// popFlashes returns the pending flash messages and forgets them.
func popFlashes(s storage.Storage) []services.Notification {
	flashes := readFlashes(s)
	if len(flashes) == 0 {
		return nil
	}
	if err := s.Delete(flashKey); err != nil {
		log.WithError(err).Warn("Failed to clear flash messages")
	}
	return flashes
}
