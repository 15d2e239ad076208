package recommend

import (
	"fmt"
	"strings"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
)

type template struct {
	title  string
	reason string
}

var fallbackTemplates = map[domain.Category][]template{
	domain.CategoryJobs: {
		{"Senior %s", "A step up from %q for candidates with prior experience."},
		{"%s Specialist", "A focused variant of %q that employers often list separately."},
		{"Remote %s", "Remote openings widen the pool beyond your selected area for %q."},
		{"Entry-Level %s", "A common starting point for %q careers."},
		{"%s Consultant", "Contract and consulting roles that match %q skills."},
	},
	domain.CategoryProducts: {
		{"Best-selling %s", "Top sellers among products similar to %q."},
		{"Budget %s", "Lower priced alternatives for %q."},
		{"Premium %s", "Higher end options for %q with better reviews."},
		{"Refurbished %s", "Certified refurbished %q at a discount."},
		{"%s accessories", "Add-ons frequently bought with %q."},
	},
	domain.CategoryUniversities: {
		{"Top-ranked %s programs", "Highly rated institutions for %q."},
		{"Affordable %s programs", "Lower tuition options for %q."},
		{"Online %s degrees", "Flexible online study for %q."},
		{"%s scholarships", "Funding opportunities linked to %q."},
		{"Research universities for %s", "Strong research output in %q."},
	},
}

var defaultTemplates = []template{
	{"Popular %s", "Frequently searched alongside %q."},
	{"Top rated %s", "Well reviewed results for %q."},
	{"New %s", "Recently added results for %q."},
}

// locationOf picks the location-like filter a page sends.
func locationOf(filters domain.Filters) string {
	for _, name := range []string{"city", "location", "country", "state"} {
		if v := strings.TrimSpace(filters[name]); v != "" {
			return v
		}
	}
	return ""
}

// Fallback fabricates recommendations from the query and filters alone. It is
// deterministic and returns nothing for an empty query.
func Fallback(category domain.Category, query string, filters domain.Filters) []domain.Recommendation {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return nil
	}

	templates, ok := fallbackTemplates[category]
	if !ok {
		templates = defaultTemplates
	}

	location := locationOf(filters)
	items := make([]domain.Recommendation, 0, len(templates))
	for _, tpl := range templates {
		title := fmt.Sprintf(tpl.title, query)
		items = append(items, domain.Recommendation{
			Title:    title,
			Location: location,
			Reason:   fmt.Sprintf(tpl.reason, query),
			Links:    BuildLinks(category, title, location),
			Fallback: true,
		})
	}
	return items
}
