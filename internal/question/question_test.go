package question

import (
	"path/filepath"
	"testing"
)

const sampleBank = `{
	"questions": [
		{"context": "きょうの", "hiragana": "てんき", "kanji": "天気"},
		{"context": "わたしの", "hiragana": "しゅみ", "kanji": "趣味"}
	],
	"conversionRules": {
		"てんき": {"きょうの": "天気"},
		"しゅみ": {"わたしの": "趣味"}
	}
}`

func TestParseBank(t *testing.T) {
	bank, err := Parse([]byte(sampleBank))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bank.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(bank.Questions))
	}
	first := bank.Questions[0]
	if first.Context != "きょうの" || first.Hiragana != "てんき" {
		t.Fatalf("unexpected question: %+v", first)
	}
	if first.Expected != "きょうの天気" {
		t.Fatalf("expected full text to be context+kanji, got %q", first.Expected)
	}
	if got := bank.Conversions.Convert("てんき", "きょうの"); got != "天気" {
		t.Fatalf("conversion table not loaded: got %q", got)
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestParseRejectsEmptyBank(t *testing.T) {
	if _, err := Parse([]byte(`{"questions": [], "conversionRules": {}}`)); err == nil {
		t.Fatalf("expected error for empty question list")
	}
	if _, err := Parse([]byte(`{"conversionRules": {}}`)); err == nil {
		t.Fatalf("expected error for missing questions array")
	}
}

func TestParseRejectsIncompleteQuestion(t *testing.T) {
	doc := `{"questions": [{"context": "きょうの", "hiragana": "てんき"}]}`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected error for question without kanji")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
