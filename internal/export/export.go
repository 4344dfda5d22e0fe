// Package export renders the approved chapters of a story as a single manuscript file.
package export

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/alkime/fictionbot/internal/story"
)

// DefaultTitle is used when the story has no title.
const DefaultTitle = "My Novel"

// ErrNothingToExport is returned when the story has no approved chapters.
var ErrNothingToExport = errors.New("no approved chapters to export")

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Manuscript is a rendered export.
type Manuscript struct {
	Title    string
	Filename string
	Content  []byte
	Chapters int
	Words    int
}

// Caption summarizes the manuscript for the message carrying the file.
func (m *Manuscript) Caption() string {
	return fmt.Sprintf("📚 %s exported!\n%d chapters • %s words", m.Title, m.Chapters, Thousands(m.Words))
}

// Build renders every approved chapter of st in ascending order under a title
// header and above a summary footer.
func Build(st *story.Story, totalSpent float64, now time.Time) (*Manuscript, error) {
	chapters := st.Approved()
	if len(chapters) == 0 {
		return nil, ErrNothingToExport
	}

	title := strings.TrimSpace(st.Bible.Title)
	if title == "" {
		title = DefaultTitle
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if st.Bible.StartDate != "" {
		fmt.Fprintf(&sb, "*Started: %s*\n*Exported: %s*\n\n---\n\n", st.Bible.StartDate, now.Format(time.DateOnly))
	}

	words := 0
	for _, ch := range chapters {
		fmt.Fprintf(&sb, "## Chapter %d\n\n%s\n\n---\n\n", ch.Number, ch.Content)
		words += ch.Words()
	}

	fmt.Fprintf(&sb, "\n\n*Generated with AI assistance*\n*%d chapters, %s words*\n*Total cost: $%.4f*",
		len(chapters), Thousands(words), totalSpent)

	return &Manuscript{
		Title:    title,
		Filename: Filename(title, now),
		Content:  []byte(sb.String()),
		Chapters: len(chapters),
		Words:    words,
	}, nil
}

// Filename replaces every character outside [a-zA-Z0-9] in title with an
// underscore and appends the date.
func Filename(title string, now time.Time) string {
	return fmt.Sprintf("%s_%s.txt", unsafeChars.ReplaceAllString(title, "_"), now.Format(time.DateOnly))
}

// Thousands formats n with comma separators.
func Thousands(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var sb strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}

	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}
