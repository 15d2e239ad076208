package recommend

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
)

var (
	titleFields    = []string{"title", "name", "jobTitle", "job_title", "productName", "product_name", "university", "universityName"}
	subtitleFields = []string{"subtitle", "company", "brand", "program", "provider", "category"}
	locationFields = []string{"location", "city", "country", "region"}
	reasonFields   = []string{"reason", "rationale", "why", "description", "summary"}
	urlFields      = []string{"url", "link", "href"}
)

// extractArray finds the first bracketed span in text that is balanced, counting
// brackets only outside JSON strings, and decodes to an array of objects.
// Prose and code fences around the array are ignored.
func extractArray(text string) ([]map[string]any, bool) {
	for start := strings.IndexByte(text, '['); start >= 0; {
		if end, ok := matchBracket(text, start); ok {
			var items []map[string]any
			if err := json.Unmarshal([]byte(text[start:end+1]), &items); err == nil {
				return items, true
			}
		}
		next := strings.IndexByte(text[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

// matchBracket returns the index of the ']' closing the '[' at start.
func matchBracket(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func firstString(m map[string]any, names []string) string {
	for _, name := range names {
		switch v := m[name].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Parse extracts recommendations from free-form generated text. found is false
// when the text holds no decodable array; a decodable array whose objects all
// lack a title yields found with no items.
func Parse(category domain.Category, query, text string) (items []domain.Recommendation, found bool) {
	raw, found := extractArray(text)
	if !found {
		return nil, false
	}

	items = make([]domain.Recommendation, 0, len(raw))
	for _, m := range raw {
		title := firstString(m, titleFields)
		if title == "" {
			continue
		}
		rec := domain.Recommendation{
			Title:    title,
			Subtitle: firstString(m, subtitleFields),
			Location: firstString(m, locationFields),
			Reason:   firstString(m, reasonFields),
		}
		if rec.Reason == "" {
			rec.Reason = fmt.Sprintf("Related to your search for %q.", query)
		}
		if link := firstString(m, urlFields); isWebURL(link) {
			rec.Links = append(rec.Links, domain.Link{Label: "Source", URL: link})
		}
		rec.Links = append(rec.Links, BuildLinks(category, rec.Title, rec.Location)...)
		items = append(items, rec)
	}
	return items, true
}
