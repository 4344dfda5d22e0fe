package bot

import (
	"strings"
	"time"

	"github.com/alkime/fictionbot/internal/story"
	"github.com/alkime/fictionbot/internal/usage"
)

// Status is a read-only snapshot of usage, totals and setup completeness.
type Status struct {
	Day           string  `json:"day"`
	MessagesUsed  int     `json:"messages_used"`
	MessageLimit  int     `json:"message_limit"`
	MessagesLeft  int     `json:"messages_left"`
	SpendEstimate float64 `json:"spend_estimate"`
	SpendLimit    float64 `json:"spend_limit"`
	SpendLeft     float64 `json:"spend_left"`

	Totals usage.Totals `json:"totals"`

	HasRules      bool   `json:"has_rules"`
	HasCharacters bool   `json:"has_characters"`
	HasOutline    bool   `json:"has_outline"`
	HasBible      bool   `json:"has_bible"`
	PendingSetup  string `json:"pending_setup,omitempty"`

	Title            string          `json:"title,omitempty"`
	StartDate        string          `json:"start_date,omitempty"`
	ChaptersApproved int             `json:"chapters_approved"`
	ChaptersPlanned  int             `json:"chapters_planned"`
	StoryWords       int             `json:"story_words"`
	ActiveDraft      *story.DraftRef `json:"active_draft,omitempty"`
	Continuing       bool            `json:"continuing"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot builds a Status from a session. It does not modify the session.
func Snapshot(session *story.Session, meter *usage.Meter, now time.Time) Status {
	st := &session.Story
	left, spendLeft := meter.Remaining(session.Ledger)

	s := Status{
		Day:           session.Ledger.Day,
		MessageLimit:  meter.Limits.DailyMessages,
		MessagesLeft:  left,
		SpendLimit:    meter.Limits.DailySpending,
		SpendLeft:     spendLeft,
		Totals:        session.Ledger.Totals,
		HasRules:      session.HasProfile(),
		HasCharacters: strings.TrimSpace(st.Bible.CharacterSheet) != "",
		HasOutline:    strings.TrimSpace(st.Bible.Outline) != "",
		HasBible:      session.HasBible(),
		PendingSetup:  string(session.Pending),

		Title:            st.Bible.Title,
		StartDate:        st.Bible.StartDate,
		ChaptersApproved: len(st.Approved()),
		ChaptersPlanned:  len(story.OutlineChapters(st.Bible.Outline)),
		StoryWords:       st.ApprovedWords(),
		Continuing:       st.Continuation != nil,
		UpdatedAt:        now,
	}

	// Yesterday's counters are shown as zero until the next rollover.
	if session.Ledger.Day == meter.Today() {
		s.MessagesUsed = session.Ledger.MessagesUsed
		s.SpendEstimate = session.Ledger.SpendEstimate
	}

	if active, ok := st.Active(); ok {
		ref := active.Ref()
		s.ActiveDraft = &ref
	}

	return s
}
