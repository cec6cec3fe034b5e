package microllm

import "testing"

func TestSlugifyAndTitleCaseRoundTrip(t *testing.T) {
	slug := slugify("Fusion Energy")
	if slug != "fusion-energy" {
		t.Fatalf("slugify = %q", slug)
	}
	restored := titleCase("fusion energy")
	if restored != "Fusion Energy" {
		t.Fatalf("titleCase = %q", restored)
	}
}

func TestExtractRelevant_FiltersByTopic(t *testing.T) {
	summary := "fusion energy -[relates_to]-> tokamak\nunrelated -[relates_to]-> other\n"
	got := extractRelevant(summary, "fusion energy")
	if got != "fusion energy -[relates_to]-> tokamak" {
		t.Fatalf("extractRelevant = %q", got)
	}
}

func TestExtractRelevant_EmptyWhenNoMatch(t *testing.T) {
	if got := extractRelevant("a -[r]-> b", "nonexistent topic"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
