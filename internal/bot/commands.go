package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alkime/fictionbot/internal/apperr"
	"github.com/alkime/fictionbot/internal/export"
	"github.com/alkime/fictionbot/internal/story"
)

func (c *Controller) help() []Reply {
	left, _ := c.meter.Remaining(c.session.Ledger)
	return c.text(fmt.Sprintf(helpTemplate, left))
}

func (c *Controller) setupRules() []Reply {
	c.session.Pending = story.SlotWritingRules
	return c.text(setupRulesText)
}

func (c *Controller) setupStory() ([]Reply, error) {
	if !c.session.HasProfile() {
		return nil, apperr.Precondition("Please set up your writing rules first with /setup_rules", apperr.ErrNoWritingProfile)
	}
	c.session.Pending = story.SlotCharacterSheet
	return c.text(setupCharactersText), nil
}

// fillSlot stores pasted or uploaded text into the pending setup slot.
func (c *Controller) fillSlot(log *slog.Logger, content, fileName string) ([]Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Precondition("That was empty. Please paste the text again.", nil)
	}

	note := ""
	if fileName != "" {
		note = fileLoadedNote(fileName)
	}
	length := len([]rune(content))
	bible := &c.session.Story.Bible
	slot := c.session.Pending

	var reply string
	switch slot {
	case story.SlotWritingRules:
		c.session.WritingProfile = content
		c.session.Pending = story.SlotNone
		reply = rulesSavedText(length, c.session.HasBible())
	case story.SlotCharacterSheet:
		bible.CharacterSheet = content
		c.session.Pending = story.SlotOutline
		reply = charactersSavedText(length)
	case story.SlotOutline:
		bible.Outline = content
		bible.StartDate = c.Now().Format(time.DateOnly)
		c.session.Pending = story.SlotNone
		reply = storyReadyText(length, story.OutlineChapters(content))
	default:
		return c.text(notUnderstoodText), nil
	}

	log.Info("Setup input saved", "slot", slot, "characters", length, "file", fileName)

	return c.text(note + reply), nil
}

func (c *Controller) handleUpload(ctx context.Context, log *slog.Logger, up *Upload) ([]Reply, error) {
	if c.session.Pending == story.SlotNone {
		return c.text(notUnderstoodText), nil
	}

	if !strings.EqualFold(filepath.Ext(up.FileName), ".txt") && up.MimeType != "text/plain" {
		return nil, apperr.Upload("Please upload a .txt file only.")
	}
	if up.Size > MaxUploadSize {
		return nil, apperr.Upload("File too large. Please keep setup files under 1MB.")
	}
	if c.fetcher == nil {
		return nil, apperr.Upload("File uploads are not supported here. Please paste the text instead.")
	}

	data, err := c.fetcher.Fetch(ctx, up.FileID)
	if err != nil {
		return nil, apperr.New(apperr.KindUpload, "Error reading file. Please try uploading again.", err)
	}
	if len(data) > MaxUploadSize {
		return nil, apperr.Upload("File too large. Please keep setup files under 1MB.")
	}

	return c.fillSlot(log, string(data), up.FileName)
}

func (c *Controller) newStory(log *slog.Logger) ([]Reply, error) {
	if !c.session.HasProfile() {
		return nil, apperr.Precondition(
			"Set up writing rules first with /setup_rules, then use /setup_story for your first story.",
			apperr.ErrNoWritingProfile)
	}

	var replies []Reply
	prev := c.session.Story

	if prev.Bible.Complete() || len(prev.Chapters) > 0 {
		path, err := c.store.Archive(prev)
		if err != nil {
			return nil, fmt.Errorf("failed to archive story: %w", err)
		}
		log.Info("Previous story archived", "path", path)

		if len(prev.Approved()) > 0 {
			c.session.Ledger.Totals.StoriesCompleted++
			replies = append(replies, c.text(archivedText(&prev))...)
		}
	}

	c.session.NewStory()

	return append(replies, c.text(newStoryText)...), nil
}

func (c *Controller) setTitle(title string) ([]Reply, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Precondition("Please provide a title: /set_title My Amazing Story", nil)
	}
	c.session.Story.Bible.Title = title
	return c.text(fmt.Sprintf("✅ Story title set to: %q", title)), nil
}

func (c *Controller) writeChapter(ctx context.Context, msg Message, args string) ([]Reply, error) {
	fields := strings.Fields(args)
	number := 0
	if len(fields) > 0 {
		number, _ = strconv.Atoi(fields[0])
	}
	if number < 1 {
		return nil, apperr.Precondition("Please specify chapter number: /write_chapter 1", nil)
	}

	if c.session.HasProfile() && c.session.HasBible() {
		notify(msg, fmt.Sprintf("🤖 Writing Chapter %d... This may take 30-60 seconds.", number))
	}

	res, err := c.workflow.Write(ctx, number)
	if err != nil {
		return nil, err
	}

	return c.text(draftText(res, res.Chapter.Content)), nil
}

func (c *Controller) continueChapter(ctx context.Context, msg Message) ([]Reply, error) {
	already := 0
	if cont := c.session.Story.Continuation; cont != nil {
		already = len(cont.Accumulated)
		notify(msg, fmt.Sprintf("✍️ Continuing Chapter %d...", cont.ChapterNumber))
	}

	res, err := c.workflow.Continue(ctx)
	if err != nil {
		return nil, err
	}

	body := "(continued)\n\n" + res.Chapter.Content[already:]
	return c.text(draftText(res, body)), nil
}

func (c *Controller) feedback(ctx context.Context, msg Message, text string) ([]Reply, error) {
	if active, ok := c.session.Story.Active(); ok && strings.TrimSpace(text) != "" {
		notify(msg, fmt.Sprintf("🔄 Revising Chapter %d v%d based on your feedback...",
			active.Number, c.session.Story.LatestVersion(active.Number)+1))
	}

	res, err := c.workflow.Feedback(ctx, text)
	if err != nil {
		return nil, err
	}

	return c.text(draftText(res, res.Chapter.Content)), nil
}

func (c *Controller) approve() ([]Reply, error) {
	ch, err := c.workflow.Approve()
	if err != nil {
		return nil, err
	}
	return c.text(approvedText(ch, &c.session.Story)), nil
}

func (c *Controller) export(log *slog.Logger) ([]Reply, error) {
	m, err := export.Build(&c.session.Story, c.session.Ledger.Totals.TotalSpent, c.Now())
	if errors.Is(err, export.ErrNothingToExport) {
		return nil, apperr.Precondition("No approved chapters to export.", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build export: %w", err)
	}

	if path, err := c.store.SaveExport(m.Filename, m.Content); err != nil {
		log.Error("Failed to keep export copy", "error", err)
	} else {
		log.Info("Export saved", "path", path, "chapters", m.Chapters, "words", m.Words)
	}

	return []Reply{{
		Document: &Document{Name: m.Filename, Bytes: m.Content, Caption: m.Caption()},
	}}, nil
}
