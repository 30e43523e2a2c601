package history

import (
	"fmt"
	"strings"
	"time"
)

// ToMarkdown renders h as a Markdown transcript
func ToMarkdown(h History) string {
	var sb strings.Builder

	sb.WriteString("# Chat history\n\n")
	sb.WriteString(fmt.Sprintf("**Messages:** %d\n", len(h)))
	if len(h) > 0 {
		sb.WriteString("**From:** ")
		sb.WriteString(h[0].Timestamp.Format("2006-01-02 15:04:05"))
		sb.WriteString("\n**To:** ")
		sb.WriteString(h[len(h)-1].Timestamp.Format("2006-01-02 15:04:05"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n---\n\n")

	for i, e := range h {
		sb.WriteString("## ")
		sb.WriteString(authorTitle(e.Author))
		if !e.Timestamp.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(e.Timestamp.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")
		sb.WriteString(e.Content)
		sb.WriteString("\n")

		if i < len(h)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

func authorTitle(author string) string {
	switch author {
	case AuthorAssistant:
		return "Assistant"
	case AuthorSystem:
		return "System"
	default:
		return "User"
	}
}

// SearchResult is one entry matching a search
type SearchResult struct {
	Index   int
	Entry   Entry
	Snippet string
}

// Search returns the entries whose content contains query, case-insensitively
func Search(h History, query string) []SearchResult {
	queryLower := strings.ToLower(query)
	var results []SearchResult

	for i, e := range h {
		if strings.Contains(strings.ToLower(e.Content), queryLower) {
			results = append(results, SearchResult{
				Index:   i,
				Entry:   e,
				Snippet: extractSnippet(e.Content, query, 100),
			})
		}
	}
	return results
}

// extractSnippet extracts a snippet around the first occurrence of query
func extractSnippet(content, query string, maxLen int) string {
	contentLower := strings.ToLower(content)
	queryLower := strings.ToLower(query)

	idx := strings.Index(contentLower, queryLower)
	if idx == -1 {
		if len(content) > maxLen {
			return content[:maxLen] + "..."
		}
		return content
	}

	half := maxLen / 2
	start := idx - half
	end := idx + len(query) + half

	if start < 0 {
		start = 0
		end = maxLen
	}
	if end > len(content) {
		end = len(content)
		start = end - maxLen
		if start < 0 {
			start = 0
		}
	}

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}
	return snippet
}

// FormatRelativeTime formats t relative to now, like "2h ago" or "yesterday"
func FormatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d min ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 48*time.Hour:
		return "yesterday"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
