package services

// NotificationKind identifies the decision point that raised a notification.
type NotificationKind string

const (
	NotifyItemAdded       NotificationKind = "item_added"
	NotifyCheckoutSuccess NotificationKind = "checkout_success"
	NotifyCartEmpty       NotificationKind = "cart_empty"
	NotifyInvalidInput    NotificationKind = "invalid_input"
)

// Notification is a user-visible message.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

// IsError reports whether the notification describes a failure.
func (n Notification) IsError() bool {
	return n.Kind == NotifyCartEmpty || n.Kind == NotifyInvalidInput
}

// Notifier delivers notifications to the shopper.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// Collector is a Notifier that keeps every notification in memory.
type Collector struct {
	Notifications []Notification
}

// Notify appends n.
func (c *Collector) Notify(n Notification) {
	c.Notifications = append(c.Notifications, n)
}

// Last returns the most recent notification and whether there was one.
func (c *Collector) Last() (Notification, bool) {
	if len(c.Notifications) == 0 {
		return Notification{}, false
	}
	return c.Notifications[len(c.Notifications)-1], true
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}
