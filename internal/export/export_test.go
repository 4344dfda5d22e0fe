package export

import (
	"strings"
	"testing"
	"time"

	"github.com/alkime/fictionbot/internal/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportDay = time.Date(2025, 4, 2, 18, 0, 0, 0, time.UTC)

func TestBuild(t *testing.T) {
	st := &story.Story{
		Bible: story.Bible{Title: "The Last Lamp", StartDate: "2025-03-14"},
		Chapters: []story.Chapter{
			{Number: 2, Version: 1, Approved: true, Content: "Two words"},
			{Number: 3, Version: 4, Approved: false, Content: "draft only"},
			{Number: 1, Version: 2, Approved: true, Content: "One two three"},
		},
	}

	m, err := Build(st, 0.01234, exportDay)
	require.NoError(t, err)

	assert.Equal(t, "The Last Lamp", m.Title)
	assert.Equal(t, "The_Last_Lamp_2025-04-02.txt", m.Filename)
	assert.Equal(t, 2, m.Chapters)
	assert.Equal(t, 5, m.Words)

	content := string(m.Content)
	assert.True(t, strings.HasPrefix(content, "# The Last Lamp\n\n*Started: 2025-03-14*\n*Exported: 2025-04-02*"))
	assert.Less(t, strings.Index(content, "## Chapter 1"), strings.Index(content, "## Chapter 2"))
	assert.NotContains(t, content, "draft only")
	assert.NotContains(t, content, "## Chapter 3")
	assert.True(t, strings.HasSuffix(content, "*Generated with AI assistance*\n*2 chapters, 5 words*\n*Total cost: $0.0123*"))
}

func TestBuild_DefaultsAndEmpty(t *testing.T) {
	_, err := Build(&story.Story{}, 0, exportDay)
	require.ErrorIs(t, err, ErrNothingToExport)

	m, err := Build(&story.Story{Chapters: []story.Chapter{{Number: 1, Approved: true, Content: "x"}}}, 0, exportDay)
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, m.Title)
	assert.Equal(t, "My_Novel_2025-04-02.txt", m.Filename)
	assert.NotContains(t, string(m.Content), "*Started:")
	assert.Contains(t, m.Caption(), "My Novel exported!")
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Simple", want: "Simple_2025-04-02.txt"},
		{title: "Fire & Ice: Book 2", want: "Fire___Ice__Book_2_2025-04-02.txt"},
		{title: "../../etc", want: "______etc_2025-04-02.txt"},
		{title: "Café", want: "Caf__2025-04-02.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.title, exportDay))
		})
	}
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "0", Thousands(0))
	assert.Equal(t, "999", Thousands(999))
	assert.Equal(t, "1,000", Thousands(1000))
	assert.Equal(t, "20,000", Thousands(20000))
	assert.Equal(t, "1,234,567", Thousands(1234567))
	assert.Equal(t, "-4,200", Thousands(-4200))
}
