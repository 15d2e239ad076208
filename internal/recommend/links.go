package recommend

import (
	"net/url"
	"strings"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
)

func buildURL(host, path string, params url.Values) string {
	u := url.URL{Scheme: "https", Host: host, Path: path, RawQuery: params.Encode()}
	return u.String()
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// BuildLinks derives outbound search links from a recommendation's title and
// location. The result depends only on its inputs.
func BuildLinks(category domain.Category, title, location string) []domain.Link {
	title = strings.TrimSpace(title)
	location = strings.TrimSpace(location)

	switch category {
	case domain.CategoryJobs:
		return []domain.Link{
			{Label: "LinkedIn", URL: buildURL("www.linkedin.com", "/jobs/search/", url.Values{"keywords": {title}, "location": {location}})},
			{Label: "Indeed", URL: buildURL("www.indeed.com", "/jobs", url.Values{"q": {title}, "l": {location}})},
			{Label: "Google Jobs", URL: buildURL("www.google.com", "/search", url.Values{"q": {joinNonEmpty(title, "jobs", location)}, "ibp": {"htl;jobs"}})},
		}
	case domain.CategoryProducts:
		return []domain.Link{
			{Label: "Amazon", URL: buildURL("www.amazon.com", "/s", url.Values{"k": {title}})},
			{Label: "Google Shopping", URL: buildURL("www.google.com", "/search", url.Values{"q": {title}, "tbm": {"shop"}})},
		}
	case domain.CategoryUniversities:
		return []domain.Link{
			{Label: "Google", URL: buildURL("www.google.com", "/search", url.Values{"q": {joinNonEmpty(title, location, "admissions")}})},
			{Label: "Wikipedia", URL: buildURL("en.wikipedia.org", "/wiki/Special:Search", url.Values{"search": {title}})},
		}
	default:
		return []domain.Link{
			{Label: "Google", URL: buildURL("www.google.com", "/search", url.Values{"q": {joinNonEmpty(title, location, string(category))}})},
		}
	}
}
