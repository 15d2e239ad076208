package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
)

var categoryNouns = map[domain.Category]string{
	domain.CategoryJobs:         "job titles to search for",
	domain.CategoryProducts:     "products",
	domain.CategoryUniversities: "universities",
}

const promptTemplate = `You are a recommendation assistant for a %s search page.
A user just searched for %q%s.
Suggest 5 %s they are likely to want next.
Respond ONLY with a JSON array of objects with the fields "title", "subtitle", "location" and "reason".`

// BuildPrompt renders the prompt sent to the text-generation collaborator.
func BuildPrompt(category domain.Category, entry domain.HistoryEntry) string {
	noun, ok := categoryNouns[category]
	if !ok {
		noun = string(category)
	}

	names := make([]string, 0, len(entry.Filters))
	for name, value := range entry.Filters {
		if strings.TrimSpace(value) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var filters string
	if len(names) > 0 {
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, entry.Filters[name]))
		}
		filters = " with filters " + strings.Join(parts, ", ")
	}

	return fmt.Sprintf(promptTemplate, category, entry.Query, filters, noun)
}
