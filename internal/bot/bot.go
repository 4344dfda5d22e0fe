// Package bot routes operator messages to the setup, writing and management
// commands, and turns their results into chunked replies.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/alkime/fictionbot/internal/apperr"
	"github.com/alkime/fictionbot/internal/completion"
	"github.com/alkime/fictionbot/internal/prompt"
	"github.com/alkime/fictionbot/internal/story"
	"github.com/alkime/fictionbot/internal/textchunk"
	"github.com/alkime/fictionbot/internal/usage"
	"github.com/alkime/fictionbot/internal/workflow"
	"github.com/google/uuid"
)

// MaxUploadSize is the largest setup file accepted.
const MaxUploadSize = 1 << 20

// Upload describes a file attached to a message.
type Upload struct {
	FileID   string
	FileName string
	MimeType string
	Size     int64
}

// Message is one inbound message from a chat transport.
type Message struct {
	SenderID int64
	Text     string
	Document *Upload

	// Progress, when set, receives interim notices before a slow step.
	Progress func(text string)
}

// Document is a file sent back to the operator.
type Document struct {
	Name    string
	Bytes   []byte
	Caption string
}

// Reply is one outbound message. Text replies are already chunked to the
// transport limit and labeled.
type Reply struct {
	Text string
	// Oversized marks a chunk that could not be split below the limit.
	Oversized bool
	Document  *Document
}

// Store persists session state.
type Store interface {
	Save(session *story.Session) error
	Archive(st story.Story) (string, error)
	SaveExport(name string, data []byte) (string, error)
}

// Fetcher downloads uploaded files.
type Fetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

// Options configure a Controller.
type Options struct {
	AuthorizedUserID int64
	MessageLimit     int
	TargetWords      int
	Workflow         workflow.Options
}

// Controller owns the session and handles one message at a time.
type Controller struct {
	session  *story.Session
	store    Store
	fetcher  Fetcher
	meter    *usage.Meter
	workflow *workflow.Workflow
	opts     Options
	logger   *slog.Logger

	mu     sync.Mutex
	status atomic.Pointer[Status]

	// Now dates outlines and exports.
	Now func() time.Time
}

// New creates a Controller over a loaded session. fetcher may be nil when the
// transport has no uploads.
func New(
	session *story.Session,
	st Store,
	fetcher Fetcher,
	client completion.Client,
	meter *usage.Meter,
	opts Options,
	logger *slog.Logger,
) *Controller {
	c := &Controller{
		session: session,
		store:   st,
		fetcher: fetcher,
		meter:   meter,
		workflow: workflow.New(session, prompt.NewAssembler(opts.TargetWords), client, meter,
			opts.Workflow, logger),
		opts:   opts,
		logger: logger,
		Now:    time.Now,
	}
	c.publish()

	return c
}

// Status returns the latest published snapshot. Safe for concurrent use.
func (c *Controller) Status() Status {
	return *c.status.Load()
}

// Handle processes one message and returns the replies to deliver in order.
func (c *Controller) Handle(ctx context.Context, msg Message) []Reply {
	log := c.logger.With("request_id", uuid.NewString())

	if msg.SenderID != c.opts.AuthorizedUserID {
		log.Warn("Rejected message from unauthorized sender", "sender_id", msg.SenderID)
		return c.text(apperr.UserMessage(apperr.Unauthorized()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	replies, err := c.dispatch(ctx, log, msg)
	if err != nil {
		c.logError(log, err)
		replies = append(replies, c.text(apperr.UserMessage(err))...)
	}

	if saveErr := c.store.Save(c.session); saveErr != nil {
		log.Error("Failed to save state", "error", saveErr)
	}
	c.publish()

	log.Info("Message handled",
		"command", commandName(msg),
		"replies", len(replies),
		"duration", time.Since(start),
	)

	return replies
}

func (c *Controller) dispatch(ctx context.Context, log *slog.Logger, msg Message) ([]Reply, error) {
	text := strings.TrimSpace(msg.Text)

	if !quotaExempt(text) {
		if d := c.meter.Check(&c.session.Ledger); !d.Allowed {
			return nil, apperr.Quota(d.Reason)
		}
	}

	if msg.Document != nil {
		return c.handleUpload(ctx, log, msg.Document)
	}

	if !strings.HasPrefix(text, "/") {
		if c.session.Pending == story.SlotNone {
			return c.text(notUnderstoodText), nil
		}
		return c.fillSlot(log, msg.Text, "")
	}

	cmd, args := parseCommand(text)

	switch cmd {
	case "/start":
		return c.text(welcomeText), nil
	case "/help":
		return c.help(), nil
	case "/setup_rules", "/update_rules":
		return c.setupRules(), nil
	case "/setup_story":
		return c.setupStory()
	case "/new_story":
		return c.newStory(log)
	case "/set_title":
		return c.setTitle(args)
	case "/write_chapter":
		return c.writeChapter(ctx, msg, args)
	case "/continue":
		return c.continueChapter(ctx, msg)
	case "/feedback", "/revise":
		return c.feedback(ctx, msg, args)
	case "/approved", "/approve":
		return c.approve()
	case "/status":
		return c.text(statusText(Snapshot(c.session, c.meter, c.Now()))), nil
	case "/export":
		return c.export(log)
	default:
		return c.text(unknownCommandText), nil
	}
}

// text chunks and labels a reply.
func (c *Controller) text(s string) []Reply {
	chunks := textchunk.Split(s, c.opts.MessageLimit)
	labeled := textchunk.Label(chunks)

	replies := make([]Reply, len(labeled))
	for i, t := range labeled {
		replies[i] = Reply{Text: t, Oversized: chunks[i].Oversized}
	}
	return replies
}

func (c *Controller) publish() {
	s := Snapshot(c.session, c.meter, c.Now())
	c.status.Store(&s)
}

func (c *Controller) logError(log *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindPrecondition, apperr.KindQuota, apperr.KindUpload:
		log.Info("Command refused", "kind", kind, "error", err)
	default:
		log.Error("Command failed", "kind", kind, "error", err)
	}
}

func notify(msg Message, text string) {
	if msg.Progress != nil {
		msg.Progress(text)
	}
}

// quotaExempt reports whether text skips the daily limit check.
func quotaExempt(text string) bool {
	return strings.HasPrefix(text, "/setup") ||
		strings.HasPrefix(text, "/start") ||
		strings.HasPrefix(text, "/help")
}

// parseCommand splits "/cmd@botname args" into "/cmd" and the trimmed args.
// Args keep their inner line breaks.
func parseCommand(text string) (string, string) {
	cmd, args := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		cmd, args = text[:i], strings.TrimSpace(text[i:])
	}
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), args
}

func commandName(msg Message) string {
	if msg.Document != nil {
		return "upload"
	}
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return "text"
	}
	cmd, _ := parseCommand(text)
	return cmd
}
