package client

import (
	"errors"
	"testing"
)

func TestParseAnalysisResult(t *testing.T) {
	raw := "```json\n" + `{
  // the garment
  "primary": {"label": "jacket", "confidence": 0.8, "box": {"x": 0.1, "y": 0.2, "w": 0.5, "h": 0.6}},
  "items": ["jacket", "shirt",],
  "colors": ["black"], /* dominant */
  "styles": ["casual"],
  "patterns": [],
  "materials": ["leather"],
  "description": "black leather jacket"
}` + "\n```"

	result, err := ParseAnalysisResult(raw)
	if err != nil {
		t.Fatalf("ParseAnalysisResult failed: %v", err)
	}
	if result.Primary.Label != "jacket" {
		t.Errorf("Expected label jacket, got %s", result.Primary.Label)
	}
	if len(result.Items) != 2 || result.Items[1] != "shirt" {
		t.Errorf("Expected items [jacket shirt], got %v", result.Items)
	}
	if result.Primary.Box.H != 0.6 {
		t.Errorf("Expected box height 0.6, got %f", result.Primary.Box.H)
	}
}

func TestParseAnalysisResultPreservesURLs(t *testing.T) {
	result, err := ParseAnalysisResult(`{"description": "see https://example.com/a", "items": ["hat"]}`)
	if err != nil {
		t.Fatalf("ParseAnalysisResult failed: %v", err)
	}
	if result.Description != "see https://example.com/a" {
		t.Errorf("URL was mangled: %q", result.Description)
	}
}

func TestParseAnalysisResultNoJSON(t *testing.T) {
	for _, raw := range []string{"", "I see a red dress.", "{not json}"} {
		if _, err := ParseAnalysisResult(raw); !errors.Is(err, ErrNoJSON) {
			t.Errorf("ParseAnalysisResult(%q): expected ErrNoJSON, got %v", raw, err)
		}
	}
}

func TestSanitizeModelJSON(t *testing.T) {
	got := SanitizeModelJSON("Here you go: {\"a\": [1, 2,], } thanks")
	want := `{"a": [1, 2] }`
	if got != want {
		t.Errorf("SanitizeModelJSON = %q, want %q", got, want)
	}
}
