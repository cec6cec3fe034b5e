package agents

import "testing"

func TestExtractJSON_StripsFences(t *testing.T) {
	in := "```json\n{\"a\":1}\n```"
	if got := extractJSON(in); got != `{"a":1}` {
		t.Fatalf("extractJSON = %q", got)
	}
}

func TestExtractJSON_StripsSurroundingProse(t *testing.T) {
	in := "Sure, here you go: {\"a\":1} — hope that helps!"
	if got := extractJSON(in); got != `{"a":1}` {
		t.Fatalf("extractJSON = %q", got)
	}
}

func TestParseToolChoice(t *testing.T) {
	got := parseToolChoice("I will use a tool.\nWebSearch: latest Go release notes\n")
	if got.ToolName != "WebSearch" || got.Input != "latest Go release notes" {
		t.Fatalf("parseToolChoice = %+v", got)
	}
}

func TestIsConclusive(t *testing.T) {
	if !IsConclusive("よって、結論として、命題は真である。") {
		t.Fatalf("expected 結論として to be conclusive")
	}
	if IsConclusive("まだ検討中です。") {
		t.Fatalf("expected in-progress text to not be conclusive")
	}
}

func TestSymbolicVerifier_Deduce_Transitivity(t *testing.T) {
	v := &SymbolicVerifier{}
	known := []string{"A implies B", "B implies C"}
	got := v.Deduce(known)
	found := false
	for _, f := range got {
		if f == "A implies C" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected transitive deduction A implies C, got %v", got)
	}
}
