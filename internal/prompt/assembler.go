// Package prompt builds the completion request text from the session state.
package prompt

import (
	"fmt"
	"strings"

	"github.com/alkime/fictionbot/internal/story"
)

// TaskKind selects the closing instruction of a prompt.
type TaskKind string

const (
	// TaskWrite asks for a fresh chapter.
	TaskWrite TaskKind = "write"
	// TaskRevise asks for a rewrite of the current draft given feedback.
	TaskRevise TaskKind = "revise"
	// TaskContinue asks for the rest of a truncated draft.
	TaskContinue TaskKind = "continue"
)

// Task is the specific instruction for one call.
type Task struct {
	Kind     TaskKind
	Feedback string // TaskRevise only
	Current  string // TaskRevise only
}

// Request is everything a prompt may contain.
type Request struct {
	Profile string
	Bible   story.Bible
	// ChapterNumber selects the outline section; 0 means none.
	ChapterNumber int
	Recent        []story.Chapter
	Continuation  *story.Continuation
	Task          Task
}

// Assembler builds prompts.
type Assembler struct {
	targetWords int
}

// NewAssembler creates an Assembler asking for chapters of about targetWords words.
func NewAssembler(targetWords int) *Assembler {
	return &Assembler{targetWords: targetWords}
}

// Build concatenates, in order: writing rules, characters, the chapter's
// outline section, recent approved chapters, continuation framing, and the
// task instruction. Empty sections are omitted. The result depends only on req.
func (a *Assembler) Build(req Request) string {
	var sb strings.Builder

	if rules := strings.TrimSpace(req.Profile); rules != "" {
		writeSection(&sb, rulesHeader, rules)
	}

	if characters := strings.TrimSpace(req.Bible.CharacterSheet); characters != "" {
		writeSection(&sb, charactersHeader, characters)
	}

	if req.ChapterNumber > 0 {
		a.writeOutline(&sb, req.Bible.Outline, req.ChapterNumber)
	}

	if len(req.Recent) > 0 {
		sb.WriteString(recentHeader)
		sb.WriteString("\n")
		for _, ch := range req.Recent {
			fmt.Fprintf(&sb, "\nChapter %d:\n%s\n", ch.Number, ch.Content)
		}
		sb.WriteString("\n")
	}

	if req.Continuation != nil {
		writeSection(&sb, continuationHeader, req.Continuation.Accumulated)
		sb.WriteString(continuationInstruction)
		sb.WriteString("\n\n")
	}

	sb.WriteString(a.instruction(req))

	return sb.String()
}

func (a *Assembler) writeOutline(sb *strings.Builder, outline string, number int) {
	if strings.TrimSpace(outline) == "" {
		return
	}
	if section, ok := story.OutlineSection(outline, number); ok {
		writeSection(sb, chapterOutlineHeader(number), section)
		return
	}
	writeSection(sb, fullOutlineHeader, strings.TrimSpace(outline))
}

func (a *Assembler) instruction(req Request) string {
	switch req.Task.Kind {
	case TaskRevise:
		return reviseInstruction(req.ChapterNumber, req.Task.Feedback, req.Task.Current, a.targetWords)
	case TaskContinue:
		return continueInstruction(req.ChapterNumber)
	default:
		return writeInstruction(req.ChapterNumber, a.targetWords)
	}
}

func writeSection(sb *strings.Builder, header, body string) {
	sb.WriteString(header)
	sb.WriteString("\n")
	sb.WriteString(body)
	sb.WriteString("\n\n")
}
