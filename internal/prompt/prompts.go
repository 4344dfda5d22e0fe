package prompt

import "fmt"

// Section headers. The writing rules come first so the model treats them as
// the highest-priority context.
const (
	rulesHeader = "WRITING RULES (MANDATORY - FOLLOW THESE WITHOUT EXCEPTION):"

	charactersHeader = "STORY BIBLE - CHARACTERS:"

	fullOutlineHeader = "STORY OUTLINE:"

	recentHeader = "RECENT APPROVED CHAPTERS FOR CONTEXT:"

	continuationHeader = "PARTIAL CHAPTER DRAFT SO FAR:"
)

// continuationInstruction sits directly after the partial draft.
const continuationInstruction = `The draft above was cut off by the output length limit.
Continue it seamlessly from the exact point where it stops.
Do NOT repeat any text that is already written, do NOT summarize what came before, and do NOT add a preamble.`

func chapterOutlineHeader(number int) string {
	return fmt.Sprintf("CHAPTER %d OUTLINE:", number)
}

func writeInstruction(number, words int) string {
	return fmt.Sprintf(`Write Chapter %d of this story. Make it approximately %d words.

Write engaging, immersive fiction that continues the story naturally. Focus on character development, dialogue, and moving the plot forward according to the story bible and writing rules provided above.`, number, words)
}

func reviseInstruction(number int, feedback, current string, words int) string {
	return fmt.Sprintf(`Revise Chapter %d based on the author's feedback: "%s"

CURRENT CHAPTER TO REVISE:
%s

Rewrite the entire chapter incorporating the feedback while following all writing rules and story bible guidelines. Keep it approximately %d words.`, number, feedback, current, words)
}

func continueInstruction(number int) string {
	return fmt.Sprintf("Continue Chapter %d now. Output only the new text that follows the partial draft.", number)
}
