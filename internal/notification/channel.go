// File: internal/notification/channel.go
package notification

// Channel delivers a rendered message to one destination. Delivery failure
// is an expected outcome, not an error: the dispatcher records the reason
// and moves on, so implementations report (false, reason) instead of
// returning an error.
type Channel interface {
	Name() string
	Send(dest, subject, body string) (bool, string)
}
