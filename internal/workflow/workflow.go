// Package workflow implements the per-chapter draft, revise, continue and approve cycle.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/alkime/fictionbot/internal/apperr"
	"github.com/alkime/fictionbot/internal/completion"
	"github.com/alkime/fictionbot/internal/prompt"
	"github.com/alkime/fictionbot/internal/story"
	"github.com/alkime/fictionbot/internal/usage"
)

// Options tune the workflow.
type Options struct {
	MaxOutputTokens int
	// TruncationRatio is the share of MaxOutputTokens above which a response
	// is treated as cut off.
	TruncationRatio float64
	RecentChapters  int
}

// Result describes the chapter version a step produced.
type Result struct {
	Chapter      story.Chapter
	Cost         float64
	InputTokens  int
	OutputTokens int
	// Continuing is true when the new version was cut off and /continue is available.
	Continuing bool
}

// Workflow mutates a session's story in response to writing commands.
// It is not safe for concurrent use; callers serialize access.
type Workflow struct {
	session   *story.Session
	assembler *prompt.Assembler
	client    completion.Client
	meter     *usage.Meter
	opts      Options
	logger    *slog.Logger

	// Now stamps new chapter versions.
	Now func() time.Time
}

// New creates a Workflow over session.
func New(
	session *story.Session,
	assembler *prompt.Assembler,
	client completion.Client,
	meter *usage.Meter,
	opts Options,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		session:   session,
		assembler: assembler,
		client:    client,
		meter:     meter,
		opts:      opts,
		logger:    logger,
		Now:       time.Now,
	}
}

// TruncationThreshold is the estimated output token count above which a
// response counts as truncated.
func (w *Workflow) TruncationThreshold() int {
	return int(math.Ceil(w.opts.TruncationRatio * float64(w.opts.MaxOutputTokens)))
}

// Write drafts chapter number from scratch as version 1. Earlier unapproved
// drafts of that chapter and any pending continuation are discarded.
func (w *Workflow) Write(ctx context.Context, number int) (*Result, error) {
	if number < 1 {
		return nil, apperr.Precondition("Please specify chapter number: /write_chapter 1", nil)
	}
	if !w.session.HasProfile() {
		return nil, apperr.Precondition("No writing rules set! Use /setup_rules first.", apperr.ErrNoWritingProfile)
	}
	if !w.session.HasBible() {
		return nil, apperr.Precondition("No story bible set! Use /setup_story first.", apperr.ErrNoStoryBible)
	}

	st := &w.session.Story
	text, acct, err := w.complete(ctx, prompt.Request{
		Profile:       w.session.WritingProfile,
		Bible:         st.Bible,
		ChapterNumber: number,
		Recent:        st.RecentApproved(number, w.opts.RecentChapters),
		Task:          prompt.Task{Kind: prompt.TaskWrite},
	})
	if err != nil {
		return nil, err
	}

	st.Continuation = nil
	st.RemoveWhere(func(c story.Chapter) bool { return c.Number == number && !c.Approved })

	return w.store(number, 1, text, acct), nil
}

// Continue asks for the rest of a truncated draft and appends it verbatim.
func (w *Workflow) Continue(ctx context.Context) (*Result, error) {
	st := &w.session.Story
	cont := st.Continuation
	if cont == nil {
		return nil, apperr.Precondition(
			"Nothing to continue. /continue only works right after a draft was cut off.",
			apperr.ErrNoActiveContinuation)
	}

	text, acct, err := w.complete(ctx, prompt.Request{
		Profile:       w.session.WritingProfile,
		Bible:         st.Bible,
		ChapterNumber: cont.ChapterNumber,
		Continuation:  cont,
		Task:          prompt.Task{Kind: prompt.TaskContinue},
	})
	if err != nil {
		return nil, err
	}

	content := cont.Accumulated + text
	version := st.LatestVersion(cont.ChapterNumber) + 1
	st.Continuation = nil

	return w.store(cont.ChapterNumber, version, content, acct), nil
}

// Feedback revises the active draft, producing the next version of its chapter.
func (w *Workflow) Feedback(ctx context.Context, feedback string) (*Result, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, apperr.Precondition("Please provide feedback: /feedback [your detailed feedback]", apperr.ErrEmptyFeedback)
	}

	st := &w.session.Story
	active, ok := st.Active()
	if !ok {
		return nil, apperr.Precondition("No chapter to revise. Use /write_chapter [number] first.", apperr.ErrNoActiveDraft)
	}

	text, acct, err := w.complete(ctx, prompt.Request{
		Profile:       w.session.WritingProfile,
		Bible:         st.Bible,
		ChapterNumber: active.Number,
		Task: prompt.Task{
			Kind:     prompt.TaskRevise,
			Feedback: feedback,
			Current:  active.Content,
		},
	})
	if err != nil {
		return nil, err
	}

	st.Continuation = nil
	version := st.LatestVersion(active.Number) + 1

	return w.store(active.Number, version, text, acct), nil
}

// Approve makes the active draft the single approved version of its chapter
// and discards every other version of that chapter.
func (w *Workflow) Approve() (story.Chapter, error) {
	st := &w.session.Story
	active, ok := st.Active()
	if !ok {
		return story.Chapter{}, apperr.Precondition("No chapter to approve.", apperr.ErrNoActiveDraft)
	}

	st.RemoveWhere(func(c story.Chapter) bool { return c.Number == active.Number })

	approved := active
	approved.Approved = true
	st.Add(approved)

	st.Continuation = nil
	st.ActiveDraft = nil

	totals := &w.session.Ledger.Totals
	totals.TotalChapters++
	totals.TotalWords += approved.Words()

	w.logger.Info("Chapter approved",
		"chapter", approved.Number,
		"version", approved.Version,
		"words", approved.Words(),
	)

	return approved, nil
}

// call carries the accounting of one completion.
type call struct {
	cost         float64
	inputTokens  int
	outputTokens int
	truncated    bool
}

// complete runs one completion and records its usage. Nothing in the story
// is touched here, so a failed call leaves the session as it was.
func (w *Workflow) complete(ctx context.Context, req prompt.Request) (string, call, error) {
	text := w.assembler.Build(req)
	inputTokens := usage.EstimateTokens(text)

	start := time.Now()
	resp, err := w.client.Complete(ctx, completion.Request{
		Prompt:    text,
		MaxTokens: w.opts.MaxOutputTokens,
	})
	if err != nil {
		w.logger.Error("Completion request failed",
			"error", err,
			"task", req.Task.Kind,
			"chapter", req.ChapterNumber,
			"input_tokens", inputTokens,
			"duration", time.Since(start),
		)
		return "", call{}, apperr.Transient(err)
	}

	outputTokens := usage.EstimateTokens(resp.Text)
	c := call{
		cost:         w.meter.Rates.Cost(inputTokens, outputTokens),
		inputTokens:  inputTokens,
		outputTokens: outputTokens,
		truncated:    resp.Truncated || outputTokens > w.TruncationThreshold(),
	}
	w.meter.Record(&w.session.Ledger, c.cost, 1)

	w.logger.Info("Completion request completed",
		"task", req.Task.Kind,
		"chapter", req.ChapterNumber,
		"model", resp.Model,
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
		"reported_input_tokens", resp.InputTokens,
		"reported_output_tokens", resp.OutputTokens,
		"expected_cost_usd", c.cost,
		"truncated", c.truncated,
		"duration", time.Since(start),
	)

	return resp.Text, c, nil
}

// store records a new active version and opens a continuation when it was cut off.
func (w *Workflow) store(number, version int, content string, c call) *Result {
	st := &w.session.Story
	ch := story.Chapter{
		Number:    number,
		Version:   version,
		Content:   content,
		Truncated: c.truncated,
		Timestamp: w.Now(),
		Cost:      c.cost,
	}
	st.Add(ch)
	ref := ch.Ref()
	st.ActiveDraft = &ref

	if c.truncated {
		st.Continuation = &story.Continuation{
			ChapterNumber:  number,
			PendingVersion: version,
			Accumulated:    content,
		}
	}

	return &Result{
		Chapter:      ch,
		Cost:         c.cost,
		InputTokens:  c.inputTokens,
		OutputTokens: c.outputTokens,
		Continuing:   c.truncated,
	}
}

// String names the version, e.g. "Chapter 3 v2".
func (r *Result) String() string {
	return fmt.Sprintf("Chapter %d v%d", r.Chapter.Number, r.Chapter.Version)
}
