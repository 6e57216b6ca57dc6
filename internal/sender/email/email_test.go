package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/afikmenashe/roadcrew/internal/sender/email/provider"
	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
	"github.com/afikmenashe/roadcrew/internal/severity"
)

type captureProvider struct {
	err  error
	reqs []*provider.EmailRequest
}

func (c *captureProvider) Name() string       { return "capture" }
func (c *captureProvider) IsConfigured() bool { return true }
func (c *captureProvider) Send(_ context.Context, req *provider.EmailRequest) error {
	c.reqs = append(c.reqs, req)
	return c.err
}

func TestSender_Deliver(t *testing.T) {
	cp := &captureProvider{}
	reg := provider.NewRegistry()
	reg.Register(cp)

	s := NewSender(reg, "alerts@roadcrew.example")
	res := s.Deliver(context.Background(), "tm@example.com", strategy.Message{
		Severity: severity.Critical,
		Subject:  "[CRITICAL] Stage rigging failed inspection",
		Body:     "Do not load in until cleared.",
	})
	if !res.OK {
		t.Fatalf("Deliver() = %+v, want OK", res)
	}
	if len(cp.reqs) != 1 {
		t.Fatalf("provider got %d requests, want 1", len(cp.reqs))
	}
	req := cp.reqs[0]
	if req.From != "alerts@roadcrew.example" || len(req.To) != 1 || req.To[0] != "tm@example.com" {
		t.Errorf("request = %+v", req)
	}
	if req.Subject != "[CRITICAL] Stage rigging failed inspection" {
		t.Errorf("Subject = %q", req.Subject)
	}
}

func TestSender_Deliver_Failures(t *testing.T) {
	failing := provider.NewRegistry()
	failing.Register(&captureProvider{err: errors.New("quota exceeded")})

	tests := []struct {
		name       string
		registry   *provider.Registry
		address    string
		wantReason string
	}{
		{"invalid address", failing, "not-an-email", "invalid email address"},
		{"no providers", provider.NewRegistry(), "tm@example.com", "no configured email provider"},
		{"nil registry", nil, "tm@example.com", "no configured email provider"},
		{"provider error", failing, "tm@example.com", "quota exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewSender(tt.registry, "alerts@roadcrew.example").Deliver(context.Background(), tt.address, strategy.Message{Body: "x"})
			if res.OK {
				t.Fatal("Deliver() OK, want failure")
			}
			if !strings.Contains(res.Reason, tt.wantReason) {
				t.Errorf("Reason = %q, want it to contain %q", res.Reason, tt.wantReason)
			}
		})
	}
}
