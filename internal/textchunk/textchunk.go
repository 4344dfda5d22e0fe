// Package textchunk splits long text into ordered parts that fit a transport size limit.
//
// Splitting prefers line boundaries and falls back to sentence boundaries
// ("." followed by a space) for lines that are too long on their own. All
// lengths are counted in UTF-16 code units, the unit Telegram's message limit
// uses; for text without astral-plane characters such as emoji this equals
// the rune count.
package textchunk

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

const sentenceDelimiter = ". "

// Chunk is one ordered part of a split text.
type Chunk struct {
	Text string
	// Oversized marks a single sentence that is longer than the limit and
	// could not be split further. It is emitted as-is.
	Oversized bool
}

// Split breaks text into chunks of at most maxLength UTF-16 code units.
//
// Empty or whitespace-only input yields no chunks. Input that already fits
// yields exactly one chunk equal to text. Otherwise each chunk is trimmed of
// surrounding whitespace, and joining the chunks with whitespace reproduces
// the content of text.
func Split(text string, maxLength int) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxLength <= 0 || textLen(text) <= maxLength {
		return []Chunk{{Text: text}}
	}

	s := splitter{maxLength: maxLength}
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		if s.fitsAlone(line) {
			s.add(line)
			continue
		}

		// Line is too long by itself: accumulate it sentence by sentence.
		for _, sentence := range strings.SplitAfter(line, sentenceDelimiter) {
			if sentence == "" {
				continue
			}
			if s.fitsAlone(sentence) {
				s.add(sentence)
				continue
			}
			s.flush()
			s.emit(sentence, true)
		}
	}
	s.flush()

	return s.chunks
}

// Strings returns the text of each chunk.
func Strings(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// Label returns the chunk texts ready for sending. When there is more than one
// chunk each gets a "Part i/N" header; the header is framing only and was not
// counted when the chunks were sized.
func Label(chunks []Chunk) []string {
	if len(chunks) <= 1 {
		return Strings(chunks)
	}

	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = fmt.Sprintf("📄 Part %d/%d\n\n%s", i+1, len(chunks), c.Text)
	}
	return out
}

// splitter greedily accumulates units into a buffer and flushes it whenever
// the next unit would push the trimmed buffer past maxLength.
type splitter struct {
	maxLength int
	buf       strings.Builder
	chunks    []Chunk
}

func (s *splitter) fitsAlone(unit string) bool {
	return textLen(strings.TrimSpace(unit)) <= s.maxLength
}

func (s *splitter) add(unit string) {
	if textLen(strings.TrimSpace(s.buf.String()+unit)) > s.maxLength {
		s.flush()
	}
	s.buf.WriteString(unit)
}

func (s *splitter) flush() {
	s.emit(s.buf.String(), false)
	s.buf.Reset()
}

func (s *splitter) emit(text string, oversized bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	s.chunks = append(s.chunks, Chunk{Text: trimmed, Oversized: oversized})
}

// textLen counts s in UTF-16 code units.
func textLen(s string) int {
	n := 0
	for _, r := range s {
		if size := utf16.RuneLen(r); size > 0 {
			n += size
		} else {
			n++ // invalid runes are sent as U+FFFD
		}
	}
	return n
}
