package search

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// ---------- tiny io.Reader that always errors ----------
type boomReader struct{}

func (boomReader) Read(_ []byte) (int, error) { return 0, errors.New("boom") }

var faq = []Entry{
	{Topic: "openingstijden", Answer: "De Koepel is doordeweeks geopend van 8:00 tot 18:00."},
	{Topic: "locatie", Answer: "De Koepel heeft uitstekende bereikbaarheid met openbaar vervoer en parkeervoorzieningen."},
	{Topic: "faciliteiten", Answer: "We hebben diverse ruimtes voor vergaderingen, evenementen en werkplekken."},
	{Topic: "contact", Answer: "Voor algemene vragen kun je terecht bij welcome@cupolaxs.nl."},
}

// ---------- Options + defaultConfig ----------
func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.stopwords != nil || def.minScore != 0 || def.maxEntries != 0 || def.topicBoost != 0.5 {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}

	cfg := def
	WithStopwords([]string{"  De ", "", "Het"})(&cfg)
	if _, ok := cfg.stopwords["de"]; !ok {
		t.Fatalf("WithStopwords failed (missing 'de'): %#v", cfg.stopwords)
	}
	cfg2 := def
	WithStopwords(nil)(&cfg2)
	if cfg2.stopwords != nil {
		t.Fatalf("empty stopwords should remain nil")
	}

	WithMinScore(0.2)(&cfg)
	WithMinScore(2)(&cfg) // no-op
	if cfg.minScore != 0.2 {
		t.Fatalf("WithMinScore failed: %v", cfg.minScore)
	}

	WithMaxEntries(2)(&cfg)
	WithMaxEntries(0)(&cfg) // no-op
	if cfg.maxEntries != 2 {
		t.Fatalf("WithMaxEntries failed: %d", cfg.maxEntries)
	}
}

func TestNewIndex_SkipsEmptyAndCaps(t *testing.T) {
	idx := NewIndex(append([]Entry{{Topic: "leeg", Answer: "   "}}, faq...))
	if idx.Len() != len(faq) {
		t.Fatalf("Len = %d; want %d", idx.Len(), len(faq))
	}
	if n := NewIndex(faq, WithMaxEntries(2)).Len(); n != 2 {
		t.Fatalf("capped Len = %d; want 2", n)
	}
}

func TestTopK_TopicMatchWins(t *testing.T) {
	idx := NewIndex(faq)
	res := idx.TopK("Wat zijn de openingstijden?", 2)
	if len(res) == 0 || res[0].Topic != "openingstijden" {
		t.Fatalf("expected openingstijden first, got %+v", res)
	}
	if res[0].Score <= 0 || res[0].Score > 1 {
		t.Fatalf("score out of range: %v", res[0].Score)
	}
}

func TestTopK_EmptyAndNoMatch(t *testing.T) {
	idx := NewIndex(faq)
	if idx.TopK("   ", 3) != nil {
		t.Fatalf("blank query should return nil")
	}
	if idx.TopK("xyzzy plugh", 3) != nil {
		t.Fatalf("unmatched query should return nil")
	}
	if NewIndex(nil).TopK("openingstijden", 1) != nil {
		t.Fatalf("empty index should return nil")
	}
	if got := idx.TopK("de koepel", 0); len(got) == 0 || len(got) > 3 {
		t.Fatalf("k<=0 should default to 3, got %d", len(got))
	}
}

func TestTopK_StopwordsAndMinScore(t *testing.T) {
	idx := NewIndex(faq, WithStopwords([]string{"de", "koepel"}))
	if res := idx.TopK("de koepel", 3); res != nil {
		t.Fatalf("query of only stopwords should return nil, got %+v", res)
	}
	strict := NewIndex(faq, WithMinScore(0.99))
	if res := strict.TopK("vervoer", 3); res != nil {
		t.Fatalf("min score should filter weak matches, got %+v", res)
	}
}

func TestTopK_DeterministicTies(t *testing.T) {
	idx := NewIndex([]Entry{
		{Topic: "b", Answer: "gedeelde woorden hier"},
		{Topic: "a", Answer: "gedeelde woorden hier"},
	})
	res := idx.TopK("gedeelde", 2)
	if len(res) != 2 || res[0].Topic != "a" {
		t.Fatalf("ties should sort by topic, got %+v", res)
	}
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"Wat zijn de openingstijden", "wat zijn de openingstijden", 1},
		{"a b c d e", "a b c d f", 0.8},
		{"een twee", "drie vier", 0},
		{"", "iets", 0},
		{"kort", "kort maar langer", 1.0 / 3.0},
	}
	for _, tc := range cases {
		if got := Similarity(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Similarity(%q,%q) = %v; want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestParseMarkdown(t *testing.T) {
	md := `intro text is ignored

## Openingstijden
Doordeweeks van 8:00
tot 18:00.

## Contact
Mail welcome@cupolaxs.nl

| Onderwerp | Antwoord |
|---|:---:|
| Parkeren | Gratis | achter het pand |
| alleen |
`
	got, err := ParseMarkdown(strings.NewReader(md))
	if err != nil {
		t.Fatalf("ParseMarkdown error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(got), got)
	}
	if got[0].Topic != "openingstijden" || got[0].Answer != "Doordeweeks van 8:00 tot 18:00." {
		t.Fatalf("heading entry unexpected: %+v", got[0])
	}
	if got[2].Topic != "parkeren" || got[2].Answer != "Gratis achter het pand" {
		t.Fatalf("table entry unexpected: %+v", got[2])
	}
}

func TestParseMarkdown_ReaderError(t *testing.T) {
	if _, err := ParseMarkdown(boomReader{}); err == nil {
		t.Fatalf("expected reader error")
	}
}
