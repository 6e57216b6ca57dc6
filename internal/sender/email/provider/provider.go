// Package provider defines the e-mail provider interface and a registry with
// primary and fallback selection.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// EmailRequest is one e-mail to send.
type EmailRequest struct {
	From    string
	To      []string
	Subject string
	Body    string
	HTML    string
}

// Provider sends e-mail through one backend.
type Provider interface {
	Name() string
	Send(ctx context.Context, req *EmailRequest) error
	IsConfigured() bool
}

// Registry manages providers with fallback support.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	primary   string
	fallback  []string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	slog.Info("Registered email provider", "name", p.Name(), "configured", p.IsConfigured())
}

// SetPrimary selects the provider tried first.
func (r *Registry) SetPrimary(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("provider %q not registered", name)
	}
	r.primary = name
	return nil
}

// SetFallback sets the providers tried, in order, when the primary is
// unavailable or fails.
func (r *Registry) SetFallback(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.providers[name]; !ok {
			return fmt.Errorf("provider %q not registered", name)
		}
	}
	r.fallback = names
	return nil
}

// Available reports whether at least one registered provider is configured.
func (r *Registry) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if p.IsConfigured() {
			return true
		}
	}
	return false
}

// order returns configured providers: primary, fallbacks, then the rest by name.
func (r *Registry) order() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.providers))
	var out []Provider
	add := func(name string) {
		p, ok := r.providers[name]
		if !ok || seen[name] || !p.IsConfigured() {
			return
		}
		seen[name] = true
		out = append(out, p)
	}

	if r.primary != "" {
		add(r.primary)
	}
	for _, name := range r.fallback {
		add(name)
	}
	rest := make([]string, 0, len(r.providers))
	for name := range r.providers {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		add(name)
	}
	return out
}

// Send tries configured providers in order until one succeeds. The first
// error is returned when all fail.
func (r *Registry) Send(ctx context.Context, req *EmailRequest) error {
	providers := r.order()
	if len(providers) == 0 {
		return fmt.Errorf("no configured email provider available")
	}

	var firstErr error
	for i, p := range providers {
		err := p.Send(ctx, req)
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if i+1 < len(providers) {
			slog.Warn("Email provider failed, trying fallback",
				"provider", p.Name(),
				"fallback", providers[i+1].Name(),
				"error", err,
			)
		}
	}
	return firstErr
}
