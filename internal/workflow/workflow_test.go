package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alkime/fictionbot/internal/apperr"
	"github.com/alkime/fictionbot/internal/completion"
	"github.com/alkime/fictionbot/internal/logger"
	"github.com/alkime/fictionbot/internal/prompt"
	"github.com/alkime/fictionbot/internal/story"
	"github.com/alkime/fictionbot/internal/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient returns queued responses in order and records every prompt.
type mockClient struct {
	responses []*completion.Response
	err       error
	prompts   []string
}

func (m *mockClient) Complete(_ context.Context, req completion.Request) (*completion.Response, error) {
	m.prompts = append(m.prompts, req.Prompt)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return nil, errors.New("no response queued")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func text(s string) *completion.Response {
	return &completion.Response{Text: s}
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func readySession() *story.Session {
	return &story.Session{
		WritingProfile: "Third person past tense.",
		Story: story.Story{
			Bible: story.Bible{
				CharacterSheet: "Mara, a lighthouse keeper.",
				Outline:        "### Chapter 1\nThe storm.\n### Chapter 2\nThe wreck.",
			},
		},
	}
}

func newWorkflow(session *story.Session, client completion.Client) *Workflow {
	meter := usage.NewMeter(
		usage.Limits{DailyMessages: 50, DailySpending: 2},
		usage.Rates{InputPerMillion: 0.80, OutputPerMillion: 4.00},
	)
	meter.Now = func() time.Time { return fixedNow }

	w := New(session, prompt.NewAssembler(20000), client, meter, Options{
		MaxOutputTokens: 4000,
		TruncationRatio: 0.94,
		RecentChapters:  3,
	}, logger.Discard())
	w.Now = func() time.Time { return fixedNow }
	return w
}

// longText is long enough to be estimated above the truncation threshold.
func longText() string {
	return strings.Repeat("a", 3760*3+3)
}

func TestWorkflow_WriteThenApprove(t *testing.T) {
	session := readySession()
	client := &mockClient{responses: []*completion.Response{text("Rain hammered the glass.")}}
	w := newWorkflow(session, client)

	res, err := w.Write(t.Context(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Chapter.Number)
	assert.Equal(t, 1, res.Chapter.Version)
	assert.False(t, res.Continuing)
	assert.Equal(t, fixedNow, res.Chapter.Timestamp)
	require.NotNil(t, session.Story.ActiveDraft)
	assert.Equal(t, story.DraftRef{Number: 1, Version: 1}, *session.Story.ActiveDraft)
	assert.Equal(t, 1, session.Ledger.MessagesUsed)
	assert.InDelta(t, res.Cost, session.Ledger.SpendEstimate, 1e-12)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Third person past tense.")
	assert.Contains(t, client.prompts[0], "The storm.")
	assert.NotContains(t, client.prompts[0], "The wreck.")

	approved, err := w.Approve()
	require.NoError(t, err)

	assert.True(t, approved.Approved)
	assert.Nil(t, session.Story.ActiveDraft)
	assert.Len(t, session.Story.Approved(), 1)
	assert.Equal(t, 1, session.Ledger.Totals.TotalChapters)
	assert.Equal(t, 4, session.Ledger.Totals.TotalWords)
}

func TestWorkflow_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		session *story.Session
		run     func(w *Workflow) error
		want    error
	}{
		{
			name:    "feedback without draft",
			session: readySession(),
			run: func(w *Workflow) error {
				_, err := w.Feedback(context.Background(), "make it darker")
				return err
			},
			want: apperr.ErrNoActiveDraft,
		},
		{
			name:    "empty feedback",
			session: readySession(),
			run: func(w *Workflow) error {
				_, err := w.Feedback(context.Background(), "   ")
				return err
			},
			want: apperr.ErrEmptyFeedback,
		},
		{
			name:    "approve without draft",
			session: readySession(),
			run: func(w *Workflow) error {
				_, err := w.Approve()
				return err
			},
			want: apperr.ErrNoActiveDraft,
		},
		{
			name:    "continue without truncation",
			session: readySession(),
			run: func(w *Workflow) error {
				_, err := w.Continue(context.Background())
				return err
			},
			want: apperr.ErrNoActiveContinuation,
		},
		{
			name:    "write without rules",
			session: &story.Session{Story: readySession().Story},
			run: func(w *Workflow) error {
				_, err := w.Write(context.Background(), 1)
				return err
			},
			want: apperr.ErrNoWritingProfile,
		},
		{
			name:    "write without bible",
			session: &story.Session{WritingProfile: "rules"},
			run: func(w *Workflow) error {
				_, err := w.Write(context.Background(), 1)
				return err
			},
			want: apperr.ErrNoStoryBible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{}
			w := newWorkflow(tt.session, client)

			err := tt.run(w)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, apperr.IsKind(err, apperr.KindPrecondition))
			assert.Empty(t, client.prompts, "no completion call expected")
			assert.Empty(t, tt.session.Story.Chapters)
			assert.Zero(t, tt.session.Ledger.MessagesUsed)
		})
	}
}

func TestWorkflow_WriteRejectsChapterZero(t *testing.T) {
	w := newWorkflow(readySession(), &mockClient{})

	_, err := w.Write(t.Context(), 0)
	assert.True(t, apperr.IsKind(err, apperr.KindPrecondition))
}

func TestWorkflow_FeedbackCreatesNextVersion(t *testing.T) {
	session := readySession()
	client := &mockClient{responses: []*completion.Response{
		text("First draft."),
		text("Second draft, darker."),
		text("Third draft, darkest."),
	}}
	w := newWorkflow(session, client)

	_, err := w.Write(t.Context(), 1)
	require.NoError(t, err)

	res, err := w.Feedback(t.Context(), "  make it darker ")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Chapter.Version)
	assert.Contains(t, client.prompts[1], "make it darker")
	assert.Contains(t, client.prompts[1], "First draft.")

	res, err = w.Feedback(t.Context(), "even darker")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Chapter.Version)
	assert.Contains(t, client.prompts[2], "Second draft, darker.")

	active, ok := session.Story.Active()
	require.True(t, ok)
	assert.Equal(t, "Third draft, darkest.", active.Content)
	assert.Len(t, session.Story.Drafts(1), 3)
}

func TestWorkflow_ApproveIsExclusive(t *testing.T) {
	session := readySession()
	client := &mockClient{responses: []*completion.Response{
		text("one"), text("two"), text("rewrite"),
	}}
	w := newWorkflow(session, client)

	_, err := w.Write(t.Context(), 1)
	require.NoError(t, err)
	_, err = w.Feedback(t.Context(), "again")
	require.NoError(t, err)
	_, err = w.Approve()
	require.NoError(t, err)

	// Redraft an approved chapter and approve the redraft.
	_, err = w.Write(t.Context(), 1)
	require.NoError(t, err)
	assert.Len(t, session.Story.Chapters, 2, "approved version plus new draft")

	_, err = w.Approve()
	require.NoError(t, err)

	require.Len(t, session.Story.Chapters, 1)
	assert.Equal(t, "rewrite", session.Story.Chapters[0].Content)
	assert.True(t, session.Story.Chapters[0].Approved)
}

func TestWorkflow_WriteDiscardsOldDrafts(t *testing.T) {
	session := readySession()
	client := &mockClient{responses: []*completion.Response{text("a"), text("b"), text("c")}}
	w := newWorkflow(session, client)

	_, err := w.Write(t.Context(), 1)
	require.NoError(t, err)
	_, err = w.Feedback(t.Context(), "x")
	require.NoError(t, err)
	res, err := w.Write(t.Context(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Chapter.Version)
	require.Len(t, session.Story.Chapters, 1)
	assert.Equal(t, "c", session.Story.Chapters[0].Content)
}

func TestWorkflow_RecentChaptersInPrompt(t *testing.T) {
	session := readySession()
	for n := 1; n <= 4; n++ {
		session.Story.Add(story.Chapter{Number: n, Version: 1, Approved: true, Content: strings.Repeat("x", n) + " body"})
	}
	client := &mockClient{responses: []*completion.Response{text("five")}}
	w := newWorkflow(session, client)

	_, err := w.Write(t.Context(), 5)
	require.NoError(t, err)

	p := client.prompts[0]
	assert.NotContains(t, p, "\nChapter 1:\n")
	assert.Contains(t, p, "\nChapter 2:\n")
	assert.Contains(t, p, "\nChapter 4:\n")
}

func TestWorkflow_ContinuationAccumulates(t *testing.T) {
	session := readySession()
	first := longText()
	client := &mockClient{responses: []*completion.Response{
		text(first),
		{Text: " and then", Truncated: true},
		text(" the end."),
	}}
	w := newWorkflow(session, client)

	res, err := w.Write(t.Context(), 2)
	require.NoError(t, err)
	assert.True(t, res.Continuing)
	assert.True(t, res.Chapter.Truncated)
	require.NotNil(t, session.Story.Continuation)
	assert.Equal(t, first, session.Story.Continuation.Accumulated)

	res, err = w.Continue(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Chapter.Version)
	assert.True(t, res.Continuing, "provider flag alone marks truncation")
	assert.Contains(t, client.prompts[1], first)
	assert.Equal(t, first+" and then", session.Story.Continuation.Accumulated)
	assert.Equal(t, 2, session.Story.Continuation.PendingVersion)

	res, err = w.Continue(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Chapter.Version)
	assert.False(t, res.Continuing)
	assert.Equal(t, first+" and then the end.", res.Chapter.Content)
	assert.Nil(t, session.Story.Continuation)

	active, ok := session.Story.Active()
	require.True(t, ok)
	assert.Equal(t, 3, active.Version)
	assert.Equal(t, 3, session.Ledger.MessagesUsed)
}

func TestWorkflow_ApproveClearsContinuation(t *testing.T) {
	session := readySession()
	client := &mockClient{responses: []*completion.Response{text(longText())}}
	w := newWorkflow(session, client)

	_, err := w.Write(t.Context(), 1)
	require.NoError(t, err)
	require.NotNil(t, session.Story.Continuation)

	approved, err := w.Approve()
	require.NoError(t, err)
	assert.True(t, approved.Truncated, "the approved text is still the cut-off draft")
	assert.Nil(t, session.Story.Continuation)

	_, err = w.Continue(t.Context())
	assert.ErrorIs(t, err, apperr.ErrNoActiveContinuation)
}

func TestWorkflow_NewStepClearsContinuation(t *testing.T) {
	tests := []struct {
		name    string
		step    func(t *testing.T, w *Workflow) (*Result, error)
		chapter int
		version int
	}{
		{
			name: "feedback",
			step: func(t *testing.T, w *Workflow) (*Result, error) {
				t.Helper()
				return w.Feedback(t.Context(), "Shorter, please.")
			},
			chapter: 1,
			version: 2,
		},
		{
			name: "next chapter",
			step: func(t *testing.T, w *Workflow) (*Result, error) {
				t.Helper()
				return w.Write(t.Context(), 2)
			},
			chapter: 2,
			version: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := readySession()
			client := &mockClient{responses: []*completion.Response{text(longText()), text("A tidy ending.")}}
			w := newWorkflow(session, client)

			_, err := w.Write(t.Context(), 1)
			require.NoError(t, err)
			require.NotNil(t, session.Story.Continuation)

			res, err := tt.step(t, w)
			require.NoError(t, err)
			assert.False(t, res.Continuing)
			assert.Equal(t, tt.chapter, res.Chapter.Number)
			assert.Equal(t, tt.version, res.Chapter.Version)
			assert.Nil(t, session.Story.Continuation)

			_, err = w.Continue(t.Context())
			require.ErrorIs(t, err, apperr.ErrNoActiveContinuation)
			assert.Len(t, client.prompts, 2, "no completion is requested without a continuation")
		})
	}
}

func TestWorkflow_ServiceFailureLeavesStateUnchanged(t *testing.T) {
	session := readySession()
	client := &mockClient{responses: []*completion.Response{text("draft")}}
	w := newWorkflow(session, client)

	_, err := w.Write(t.Context(), 1)
	require.NoError(t, err)

	before := session.Story.Chapters[0]
	client.err = errors.New("upstream 502")

	_, err = w.Feedback(t.Context(), "more")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindTransient))
	assert.Equal(t, "❌ "+apperr.ServiceUnavailable, apperr.UserMessage(err))

	_, err = w.Write(t.Context(), 1)
	require.Error(t, err)

	require.Len(t, session.Story.Chapters, 1)
	assert.Equal(t, before, session.Story.Chapters[0])
	assert.Equal(t, 1, session.Ledger.MessagesUsed)
}

func TestWorkflow_TruncationThreshold(t *testing.T) {
	w := newWorkflow(readySession(), &mockClient{})
	assert.Equal(t, 3760, w.TruncationThreshold())
}
