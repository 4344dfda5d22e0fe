package story

import (
	"regexp"
	"strconv"
	"strings"
)

// chapterHeader matches outline delimiters such as "###Chapter 3" or "### chapter 12".
var chapterHeader = regexp.MustCompile(`(?mi)^[ \t]*###[ \t]*Chapter[ \t]+(\d+)\b`)

// OutlineSection extracts the outline text for one chapter, from its
// delimiter up to the next chapter delimiter or the end of the outline.
// It reports false when the outline has no delimiter for that chapter.
func OutlineSection(outline string, number int) (string, bool) {
	headers := chapterHeader.FindAllStringSubmatchIndex(outline, -1)
	for i, h := range headers {
		n, err := strconv.Atoi(outline[h[2]:h[3]])
		if err != nil || n != number {
			continue
		}

		end := len(outline)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		return strings.TrimSpace(outline[h[0]:end]), true
	}

	return "", false
}

// OutlineChapters returns the chapter numbers the outline declares, in order of appearance.
func OutlineChapters(outline string) []int {
	var numbers []int
	for _, m := range chapterHeader.FindAllStringSubmatch(outline, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			numbers = append(numbers, n)
		}
	}
	return numbers
}
