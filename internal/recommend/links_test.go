package recommend

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
)

func TestBuildLinksDeterministic(t *testing.T) {
	for _, c := range []domain.Category{domain.CategoryJobs, domain.CategoryProducts, domain.CategoryUniversities, "events"} {
		a := BuildLinks(c, "ICU Nurse & Co", "Austin, TX")
		b := BuildLinks(c, "ICU Nurse & Co", "Austin, TX")
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("%s: links differ between calls:\n%s", c, diff)
		}
		if len(a) == 0 {
			t.Errorf("%s: expected at least one link", c)
		}
		for _, l := range a {
			u, err := url.Parse(l.URL)
			if err != nil || u.Scheme != "https" {
				t.Errorf("%s: bad url %q", c, l.URL)
			}
			if strings.Contains(u.RawQuery, " ") || strings.Contains(u.RawQuery, "&Co") {
				t.Errorf("%s: query not escaped: %q", c, u.RawQuery)
			}
		}
	}
}

func TestBuildLinksJobs(t *testing.T) {
	links := BuildLinks(domain.CategoryJobs, "Nurse", "Austin")
	want := []string{"LinkedIn", "Indeed", "Google Jobs"}
	var got []string
	for _, l := range links {
		got = append(got, l.Label)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if links[1].URL != "https://www.indeed.com/jobs?l=Austin&q=Nurse" {
		t.Errorf("unexpected indeed url %q", links[1].URL)
	}
}

func TestFallback(t *testing.T) {
	if items := Fallback(domain.CategoryJobs, "   ", nil); len(items) != 0 {
		t.Fatalf("expected no fallback for empty query, got %d", len(items))
	}

	items := Fallback(domain.CategoryJobs, "nurse", domain.Filters{"city": "Austin"})
	if len(items) == 0 {
		t.Fatal("expected fallback items")
	}
	for _, it := range items {
		if !it.Fallback || it.Location != "Austin" || !strings.Contains(it.Title, "nurse") || len(it.Links) == 0 {
			t.Errorf("unexpected fallback item %+v", it)
		}
	}
	if diff := cmp.Diff(items, Fallback(domain.CategoryJobs, "nurse", domain.Filters{"city": "Austin"})); diff != "" {
		t.Errorf("fallback not deterministic:\n%s", diff)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(domain.CategoryJobs, domain.HistoryEntry{
		Query:   "Nurse",
		Filters: domain.Filters{"type": "full-time", "city": "Austin", "empty": ""},
	})
	for _, want := range []string{`"Nurse"`, "with filters city=Austin, type=full-time", "job titles", "JSON array"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}
