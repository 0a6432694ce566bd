package models

import "time"

// CheckoutForm holds the shopper's details submitted on the checkout page.
type CheckoutForm struct {
	FirstName string `json:"firstName" form:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" form:"lastName" validate:"required,max=100"`
}

// Receipt is returned after a successful checkout.
type Receipt struct {
	EventID     string `json:"event_id"`
	DisplayName string `json:"display_name"`
	ItemCount   int    `json:"item_count"`
	Totals      Totals `json:"totals"`
	CartCount   int    `json:"cart_count"`
	RedirectTo  string `json:"redirect_to"`
	Message     string `json:"message"`
}

// CheckoutLine is one cart item as announced in a checkout event.
type CheckoutLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"` // Unit price at checkout time
}

// CheckoutEvent is published when a shopper completes checkout. It is not
// stored by this service.
type CheckoutEvent struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"session_id,omitempty"`
	DisplayName string         `json:"display_name"`
	Lines       []CheckoutLine `json:"lines"`
	Subtotal    float64        `json:"subtotal"`
	Tax         float64        `json:"tax"`
	Total       float64        `json:"total"`
	CompletedAt time.Time      `json:"completed_at"`
}
