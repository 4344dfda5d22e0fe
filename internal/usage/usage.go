// Package usage tracks daily message and spend caps plus all-time writing totals.
//
// Token counts and costs here are estimates (roughly three characters per
// token), not billing-accurate figures.
package usage

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

const dayLayout = "2006-01-02"

// Totals are all-time counters. They never reset.
type Totals struct {
	TotalChapters    int     `json:"total_chapters"`
	TotalWords       int     `json:"total_words"`
	TotalSpent       float64 `json:"total_spent"`
	StoriesCompleted int     `json:"stories_completed"`
}

// Ledger is the persisted usage state.
type Ledger struct {
	Day           string  `json:"day"`
	MessagesUsed  int     `json:"messages_used"`
	SpendEstimate float64 `json:"spend_estimate"`
	Totals        Totals  `json:"totals"`
}

// Limits are the daily caps.
type Limits struct {
	DailyMessages int
	DailySpending float64
}

// Rates are prices in USD per million tokens.
type Rates struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Cost estimates the price of a call from its token counts.
func (r Rates) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1e6*r.InputPerMillion + float64(outputTokens)/1e6*r.OutputPerMillion
}

// EstimateTokens approximates the token count of text as ceil(runes / 3).
func EstimateTokens(text string) int {
	return int(math.Ceil(float64(utf8.RuneCountInString(text)) / 3))
}

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Meter applies limits and rates to a Ledger.
type Meter struct {
	Limits Limits
	Rates  Rates
	Now    func() time.Time
}

// NewMeter creates a Meter using the wall clock.
func NewMeter(limits Limits, rates Rates) *Meter {
	return &Meter{Limits: limits, Rates: rates, Now: time.Now}
}

// Today returns the current day key.
func (m *Meter) Today() string {
	return m.now().Format(dayLayout)
}

// Rollover resets the per-day fields when the ledger's day is not today.
// It reports whether a reset happened.
func (m *Meter) Rollover(l *Ledger) bool {
	today := m.Today()
	if l.Day == today {
		return false
	}
	l.Day = today
	l.MessagesUsed = 0
	l.SpendEstimate = 0
	return true
}

// Check rolls the ledger over if needed and then evaluates the daily caps.
func (m *Meter) Check(l *Ledger) Decision {
	m.Rollover(l)

	if l.MessagesUsed >= m.Limits.DailyMessages {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("Daily message limit reached (%d). Resets at midnight.", m.Limits.DailyMessages),
		}
	}

	if l.SpendEstimate >= m.Limits.DailySpending {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("Daily spending limit reached ($%.2f). Resets at midnight.", m.Limits.DailySpending),
		}
	}

	return Decision{Allowed: true}
}

// Record adds one completed call worth messages and cost to the ledger.
func (m *Meter) Record(l *Ledger, cost float64, messages int) {
	m.Rollover(l)
	l.MessagesUsed += messages
	l.SpendEstimate += cost
	l.Totals.TotalSpent += cost
}

// Remaining returns how many messages and dollars are left today.
func (m *Meter) Remaining(l Ledger) (int, float64) {
	if l.Day != m.Today() {
		return m.Limits.DailyMessages, m.Limits.DailySpending
	}
	return m.Limits.DailyMessages - l.MessagesUsed, m.Limits.DailySpending - l.SpendEstimate
}

func (m *Meter) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
