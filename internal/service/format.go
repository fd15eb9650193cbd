package service

import (
	"strings"

	"github.com/liliang-cn/exaanswer/internal/domain"
)

// FormatChunk turns one upstream chunk into its outbound records.
// A chunk with citations yields a citations record followed by a delta
// record; any other chunk yields only the delta record.
func FormatChunk(chunk domain.Chunk) []any {
	if !chunk.HasCitations() {
		return []any{domain.NewDeltaRecord(chunk.Content)}
	}

	content := chunk.Content
	if content != nil {
		linked := LinkCitations(*content, domain.NewTitleMap(chunk.Citations))
		if linked != "" {
			content = &linked
		}
	}

	return []any{
		domain.CitationsRecord{Citations: chunk.Citations},
		domain.NewDeltaRecord(content),
	}
}

// LinkCitations rewrites every "(url)" in content as "[title](url)".
// URLs are matched literally, so characters such as '?' or '+' need no
// escaping, and titles are inserted verbatim.
func LinkCitations(content string, titles *domain.TitleMap) string {
	titles.Each(func(url, title string) {
		content = strings.ReplaceAll(content, "("+url+")", "["+title+"]("+url+")")
	})
	return content
}
