package bot

import (
	"fmt"
	"strings"

	"github.com/alkime/fictionbot/internal/export"
	"github.com/alkime/fictionbot/internal/story"
	"github.com/alkime/fictionbot/internal/workflow"
)

const welcomeText = `🎭 Welcome to Your Personal Fiction Writing Bot!

I write your novel one chapter at a time, following your writing rules and story bible.

🔥 Setup Commands (Do These First):
• /setup_rules - Set your universal writing style
• /setup_story - Set up the current story's characters and outline

✍️ Writing Commands:
• /write_chapter [number] - Write a new chapter
• /feedback [feedback] - Revise the current chapter
• /continue - Finish a chapter that was cut off
• /approved - Approve the current chapter as final

📊 Management Commands:
• /status - Check progress and daily usage
• /export - Download the current story
• /new_story - Start a completely new story
• /set_title [title] - Set your story's title

🛡️ Safety Features:
• Only you can use this bot
• Daily spending and message limits (reset at midnight)

📱 Pro Tip: Long, detailed feedback gives better revisions.

Ready? Start with /setup_rules!`

const helpTemplate = `🎭 Fiction Writing Bot Commands

🔧 Setup (Do Once):
• /setup_rules - Your universal writing style
• /setup_story - Current story's characters, then its chapter outline

✍️ Writing Workflow:
• /write_chapter [number] - Write new chapter
• /feedback [detailed feedback] - Revise current chapter
• /continue - Finish a chapter cut off at the length limit
• /approved - Mark current chapter as final

📊 Management:
• /status - Progress and daily usage
• /export - Download current story
• /new_story - Start fresh story (keeps writing rules)
• /set_title [title] - Set story title

💡 Example Workflow:
1. /write_chapter 1
2. /feedback add more internal monologue and slow down the first scene
3. /feedback the dialogue feels stilted, make it more natural
4. /approved
5. /write_chapter 2

🔥 Pro Tips:
• Be detailed in /feedback
• You can revise multiple times before approving
• You can upload .txt files instead of pasting long setup text
• Every request includes your rules, the characters, the chapter's outline and recent chapters

🛡️ Safety: %d messages left today.`

const setupRulesText = `📝 Set Your Universal Writing Rules

These rules will be sent with EVERY chapter request across ALL stories.

Include things like:
• Your preferred writing style
• Dialogue preferences
• Pacing guidelines
• POV preferences (1st person, 3rd person, etc.)
• Tone and mood guidelines

Just paste your complete writing rules in your next message, or upload them as a .txt file.`

const setupCharactersText = `📚 Set Up Your Story (step 1 of 2): Characters

Paste the character sheet for this story:
• Character descriptions and motivations
• Relationships
• Setting and world-building notes

Paste it in your next message, or upload a .txt file.`

const setupOutlineText = `📚 Set Up Your Story (step 2 of 2): Outline

Now paste the chapter outline. Start each chapter's section with a header line like:

###Chapter 1
What happens in chapter 1...

###Chapter 2
What happens in chapter 2...

Only the matching chapter's section is sent when that chapter is written.`

const newStoryText = `🆕 Ready for New Story!

Your writing rules are preserved and will be used for the new story.

Next step: /setup_story to set up the new story's characters and outline.`

const (
	unknownCommandText = "❌ Unknown command. Use /help to see all available commands."
	notUnderstoodText  = "🤔 I didn't understand that command. Use /help to see available commands."
)

func rulesSavedText(length int, hasBible bool) string {
	next := "Next step: /setup_story to set up your first story."
	if hasBible {
		next = "Your current story will use the new rules from the next chapter on."
	}
	return fmt.Sprintf(`✅ Writing rules saved! (%d characters)

Your universal writing rules will now be included with every chapter request.

%s`, length, next)
}

func charactersSavedText(length int) string {
	return fmt.Sprintf("✅ Character sheet saved! (%d characters)\n\n%s", length, setupOutlineText)
}

func storyReadyText(length int, chapters []int) string {
	planned := "No ###Chapter headers found, so the whole outline will be sent with each chapter."
	if len(chapters) > 0 {
		planned = fmt.Sprintf("%d chapters planned.", len(chapters))
	}
	return fmt.Sprintf(`✅ Outline saved! (%d characters)
%s

Your story is ready! Here's what happens next:

1. Optional: /set_title [Your Story Title]
2. Start writing: /write_chapter 1
3. Revise if needed: /feedback [your feedback]
4. Approve: /approved
5. Next: /write_chapter 2

Ready to begin your novel?`, length, planned)
}

func fileLoadedNote(name string) string {
	return fmt.Sprintf("📁 File: %s\n\n", name)
}

func archivedText(prev *story.Story) string {
	approved := prev.Approved()
	started := prev.Bible.StartDate
	if started == "" {
		started = "Not started"
	}
	return fmt.Sprintf(`📚 Previous story archived!

📊 Final Stats:
• Chapters completed: %d
• Story started: %s
• Words written: %s`, len(approved), started, export.Thousands(prev.ApprovedWords()))
}

func draftText(res *workflow.Result, body string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 %s (%s words)\n\n", res, export.Thousands(res.Chapter.Words()))
	sb.WriteString(body)
	fmt.Fprintf(&sb, "\n\n💰 Cost: $%.4f (%s in + %s out tokens)\n\n", res.Cost,
		export.Thousands(res.InputTokens), export.Thousands(res.OutputTokens))
	if res.Continuing {
		sb.WriteString("⚠️ This draft was cut off at the length limit. Use /continue to finish it, ")
		sb.WriteString("or /feedback [feedback] or /approved to keep working with it as is.")
	} else {
		sb.WriteString("Commands: /feedback [feedback] or /approved")
	}
	return sb.String()
}

func approvedText(ch story.Chapter, st *story.Story) string {
	return fmt.Sprintf(`✅ Chapter %d approved and saved!

📊 Current Story Progress: %d chapters, %s words

🚀 Ready for: /write_chapter %d`, ch.Number, len(st.Approved()), export.Thousands(st.ApprovedWords()), ch.Number+1)
}

func statusText(s Status) string {
	title := s.Title
	if title == "" {
		title = "Not set"
	}
	started := s.StartDate
	if started == "" {
		started = "Not started"
	}

	draft := "None"
	if s.ActiveDraft != nil {
		draft = fmt.Sprintf("Chapter %d v%d", s.ActiveDraft.Number, s.ActiveDraft.Version)
		if s.Continuing {
			draft += " (cut off, /continue available)"
		}
	}

	return fmt.Sprintf(`📊 Fiction Bot Status

📖 Current Story:
• Title: %s
• Approved chapters: %d/%d planned
• Words: %s
• Started: %s
• Working draft: %s

🔧 Setup Status:
• Writing rules: %s
• Characters: %s
• Outline: %s

💰 Usage Today:
• Messages: %d/%d
• Spending: $%.4f/$%.2f
• Remaining: %d messages, $%.4f

📈 All-Time Stats:
• Total spent: $%.4f
• Stories completed: %d
• Total chapters: %d
• Total words: %s`,
		title, s.ChaptersApproved, s.ChaptersPlanned, export.Thousands(s.StoryWords), started, draft,
		mark(s.HasRules), mark(s.HasCharacters), mark(s.HasOutline),
		s.MessagesUsed, s.MessageLimit, s.SpendEstimate, s.SpendLimit, s.MessagesLeft, s.SpendLeft,
		s.Totals.TotalSpent, s.Totals.StoriesCompleted, s.Totals.TotalChapters, export.Thousands(s.Totals.TotalWords),
	)
}

func mark(ok bool) string {
	if ok {
		return "✅ Set"
	}
	return "❌ Missing"
}
