// Package story holds the session state of the writing bot: the operator's
// permanent writing rules, the current story's bible, and its chapter versions.
package story

import (
	"slices"
	"strings"
	"time"

	"github.com/alkime/fictionbot/internal/usage"
	"github.com/samber/lo"
)

// Chapter is one version of one chapter.
type Chapter struct {
	Number    int       `json:"number"`
	Version   int       `json:"version"`
	Content   string    `json:"content"`
	Approved  bool      `json:"approved"`
	Truncated bool      `json:"truncated"`
	Timestamp time.Time `json:"timestamp"`
	Cost      float64   `json:"cost"`
}

// Words counts whitespace-separated words in the content.
func (c Chapter) Words() int {
	return len(strings.Fields(c.Content))
}

// Ref returns the chapter's identity.
func (c Chapter) Ref() DraftRef {
	return DraftRef{Number: c.Number, Version: c.Version}
}

// DraftRef identifies a chapter version.
type DraftRef struct {
	Number  int `json:"number"`
	Version int `json:"version"`
}

// Continuation is pending work on a draft that was cut off by the output limit.
type Continuation struct {
	ChapterNumber  int    `json:"chapter_number"`
	PendingVersion int    `json:"pending_version"`
	Accumulated    string `json:"accumulated"`
}

// Bible is the per-story material sent with every request.
type Bible struct {
	CharacterSheet string `json:"character_sheet"`
	Outline        string `json:"outline"`
	Title          string `json:"title,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
}

// Complete reports whether both the character sheet and the outline are set.
func (b Bible) Complete() bool {
	return strings.TrimSpace(b.CharacterSheet) != "" && strings.TrimSpace(b.Outline) != ""
}

// Story is everything that belongs to the current story and is discarded by a new one.
type Story struct {
	Bible        Bible         `json:"bible"`
	Chapters     []Chapter     `json:"chapters"`
	ActiveDraft  *DraftRef     `json:"active_draft,omitempty"`
	Continuation *Continuation `json:"continuation,omitempty"`
}

// Find returns the chapter with the given identity.
func (s *Story) Find(ref DraftRef) (Chapter, bool) {
	return lo.Find(s.Chapters, func(c Chapter) bool {
		return c.Number == ref.Number && c.Version == ref.Version
	})
}

// Active returns the active draft, if it still exists and is unapproved.
func (s *Story) Active() (Chapter, bool) {
	if s.ActiveDraft == nil {
		return Chapter{}, false
	}
	ch, ok := s.Find(*s.ActiveDraft)
	if !ok || ch.Approved {
		return Chapter{}, false
	}
	return ch, true
}

// Add appends a chapter version.
func (s *Story) Add(ch Chapter) {
	s.Chapters = append(s.Chapters, ch)
}

// RemoveWhere drops every chapter matching pred.
func (s *Story) RemoveWhere(pred func(Chapter) bool) {
	s.Chapters = lo.Reject(s.Chapters, func(c Chapter, _ int) bool {
		return pred(c)
	})
}

// LatestVersion returns the highest version number recorded for a chapter, or 0.
func (s *Story) LatestVersion(number int) int {
	versions := lo.FilterMap(s.Chapters, func(c Chapter, _ int) (int, bool) {
		return c.Version, c.Number == number
	})
	if len(versions) == 0 {
		return 0
	}
	return lo.Max(versions)
}

// Drafts returns the unapproved versions of a chapter in version order.
func (s *Story) Drafts(number int) []Chapter {
	drafts := lo.Filter(s.Chapters, func(c Chapter, _ int) bool {
		return c.Number == number && !c.Approved
	})
	slices.SortFunc(drafts, func(a, b Chapter) int { return a.Version - b.Version })
	return drafts
}

// Approved returns approved chapters in ascending chapter order.
func (s *Story) Approved() []Chapter {
	approved := lo.Filter(s.Chapters, func(c Chapter, _ int) bool { return c.Approved })
	slices.SortFunc(approved, func(a, b Chapter) int { return a.Number - b.Number })
	return approved
}

// RecentApproved returns up to limit approved chapters numbered below before,
// in ascending order.
func (s *Story) RecentApproved(before, limit int) []Chapter {
	if limit <= 0 {
		return nil
	}
	earlier := lo.Filter(s.Approved(), func(c Chapter, _ int) bool { return c.Number < before })
	if len(earlier) > limit {
		earlier = earlier[len(earlier)-limit:]
	}
	return earlier
}

// ApprovedWords sums words across approved chapters.
func (s *Story) ApprovedWords() int {
	return lo.SumBy(s.Approved(), func(c Chapter) int { return c.Words() })
}

// SetupSlot names the input the bot is waiting for during setup.
type SetupSlot string

const (
	// SlotNone means no setup input is pending.
	SlotNone SetupSlot = ""
	// SlotWritingRules waits for the writing rules.
	SlotWritingRules SetupSlot = "writing_rules"
	// SlotCharacterSheet waits for the story's character sheet.
	SlotCharacterSheet SetupSlot = "character_sheet"
	// SlotOutline waits for the story's chapter outline.
	SlotOutline SetupSlot = "story_outline"
)

// Session is the whole persisted bot state for the single operator.
type Session struct {
	WritingProfile string       `json:"writing_profile"`
	Story          Story        `json:"story"`
	Pending        SetupSlot    `json:"pending,omitempty"`
	Ledger         usage.Ledger `json:"ledger"`
}

// HasProfile reports whether writing rules are set.
func (s *Session) HasProfile() bool {
	return strings.TrimSpace(s.WritingProfile) != ""
}

// HasBible reports whether the current story's bible is complete.
func (s *Session) HasBible() bool {
	return s.Story.Bible.Complete()
}

// NewStory replaces the current story with an empty one and returns the old one.
// Writing rules and usage totals are kept.
func (s *Session) NewStory() Story {
	previous := s.Story
	s.Story = Story{}
	if s.Pending == SlotCharacterSheet || s.Pending == SlotOutline {
		s.Pending = SlotNone
	}
	return previous
}
