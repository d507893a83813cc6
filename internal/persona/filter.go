package persona

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Sanitize trims a reply and shortens it to at most maxLen user-perceived
// characters. It prefers to cut after the last sentence end when that keeps
// more than 70% of the allowance; otherwise it hard-cuts and appends "...".
// maxLen <= 0 disables the limit.
func Sanitize(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if maxLen <= 0 || uniseg.GraphemeClusterCount(text) <= maxLen {
		return text
	}

	var (
		b       strings.Builder
		lastEnd = -1
		cut     int // byte offset just after the last sentence end
	)
	gr := uniseg.NewGraphemes(text)
	for i := 0; i < maxLen && gr.Next(); i++ {
		cluster := gr.Str()
		b.WriteString(cluster)
		if cluster == "." || cluster == "?" || cluster == "!" {
			lastEnd = i
			cut = b.Len()
		}
	}

	truncated := b.String()
	if float64(lastEnd) > float64(maxLen)*0.7 {
		return truncated[:cut]
	}
	return truncated + "..."
}

// Length returns the number of user-perceived characters in s.
func Length(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
