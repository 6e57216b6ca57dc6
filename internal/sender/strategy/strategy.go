// Package strategy defines the contract every delivery channel implements.
package strategy

import (
	"context"
	"sort"

	"github.com/afikmenashe/roadcrew/internal/severity"
)

// Channel names.
const (
	ChannelVisual = "visual"
	ChannelInApp  = "inapp"
	ChannelSMS    = "sms"
	ChannelEmail  = "email"
)

// Message is what a channel delivers. Channels use the fields they need:
// SMS sends Body, e-mail adds Subject, in-app and visual keep the tour,
// reference, severity and tags.
type Message struct {
	TourID   string
	RefID    string
	Severity severity.Severity
	Subject  string
	Body     string
	Tags     []string
}

// Result is the outcome of one delivery attempt.
type Result struct {
	OK     bool
	Reason string
}

// OK returns a successful result.
func OK() Result { return Result{OK: true} }

// Fail returns a failed result with a reason for the logs.
func Fail(reason string) Result { return Result{Reason: reason} }

// Sender delivers a message to one destination on one channel.
// The destination format depends on the channel:
//   - visual, inapp: user id
//   - sms: E.164 phone number
//   - email: e-mail address
//
// Senders never retry; retry policy belongs to the calling pipeline.
type Sender interface {
	Deliver(ctx context.Context, destination string, msg Message) Result
	Channel() string
}

// Registry holds senders keyed by channel.
type Registry struct {
	senders map[string]Sender
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{senders: make(map[string]Sender)}
}

// Register adds or replaces the sender for its channel.
func (r *Registry) Register(s Sender) {
	r.senders[s.Channel()] = s
}

// Get returns the sender for a channel.
func (r *Registry) Get(channel string) (Sender, bool) {
	s, ok := r.senders[channel]
	return s, ok
}

// List returns the registered channel names, sorted.
func (r *Registry) List() []string {
	channels := make([]string, 0, len(r.senders))
	for c := range r.senders {
		channels = append(channels, c)
	}
	sort.Strings(channels)
	return channels
}
