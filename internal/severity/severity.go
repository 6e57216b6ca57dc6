// Package severity classifies change events into urgency tiers.
package severity

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the derived urgency tier of a change.
type Severity string

const (
	Info      Severity = "INFO"
	Important Severity = "IMPORTANT"
	Critical  Severity = "CRITICAL"
)

// Impact tags prefixed to composed messages and visual alerts.
const (
	SafetyTag = "⚠️"
	TimeTag   = "⏰"
	MoneyTag  = "💰"
)

const (
	criticalAlertDuration = 12 * time.Second
	defaultAlertDuration  = 5 * time.Second
)

// Classify derives the severity from the impact flags.
// A valid override wins outright; it is how a severity stored at authoring
// time stays authoritative for every later reader.
func Classify(safety, timing, money bool, override *Severity) Severity {
	if override != nil && override.Valid() {
		return *override
	}
	switch {
	case safety || money:
		return Critical
	case timing:
		return Important
	default:
		return Info
	}
}

// Rank orders severities. Unknown values rank below Info.
func Rank(s Severity) int {
	switch s {
	case Info:
		return 1
	case Important:
		return 2
	case Critical:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is one of the known tiers.
func (s Severity) Valid() bool {
	return Rank(s) > 0
}

// Parse converts a case-insensitive name into a Severity.
func Parse(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.Valid() {
		return "", fmt.Errorf("severity must be one of: INFO, IMPORTANT, CRITICAL (got %q)", s)
	}
	return sev, nil
}

// AlertDuration is how long a visual alert stays on screen.
func (s Severity) AlertDuration() time.Duration {
	if s == Critical {
		return criticalAlertDuration
	}
	return defaultAlertDuration
}

// ImpactTags returns the emoji tags for the set flags, in safety, time, money order.
func ImpactTags(safety, timing, money bool) []string {
	var tags []string
	if safety {
		tags = append(tags, SafetyTag)
	}
	if timing {
		tags = append(tags, TimeTag)
	}
	if money {
		tags = append(tags, MoneyTag)
	}
	return tags
}
