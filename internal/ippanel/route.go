package ippanel

import "strings"

// Route is the list of phone numbers a notifiable wants IPPanel messages
// delivered to. An empty Route means the notifiable opts out of this channel.
type Route []string

// To builds a Route from one number or many.
func To(numbers ...string) Route {
	return Route(numbers)
}

// Notifiable is the entity being notified.
type Notifiable interface {
	RouteNotificationForIppanel() Route
}

// Notification produces the IPPanel message for a notifiable.
type Notification interface {
	ToIppanel(target Notifiable) Message
}

// NotifiableFunc adapts a plain function to Notifiable.
type NotifiableFunc func() Route

func (f NotifiableFunc) RouteNotificationForIppanel() Route { return f() }

// NotificationFunc adapts a plain function to Notification.
type NotificationFunc func(target Notifiable) Message

func (f NotificationFunc) ToIppanel(target Notifiable) Message { return f(target) }

// NormalizeRecipients trims every number and drops blanks, keeping order.
func NormalizeRecipients(numbers []string) []string {
	out := make([]string, 0, len(numbers))
	for _, number := range numbers {
		if trimmed := strings.TrimSpace(number); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// resolveRecipients returns the numbers a dispatch goes to. Only the
// notifiable's route counts; recipients set on the message through
// Builder.To are informational and never used as a fallback.
func resolveRecipients(route Route) []string {
	return NormalizeRecipients(route)
}
