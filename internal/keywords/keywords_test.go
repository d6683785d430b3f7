package keywords

import (
	"reflect"
	"testing"
)

func TestTokens_LowercasesAndSplits(t *testing.T) {
	got := Tokens("Mijn Computer doet het niet, help! (50 man)")
	want := []string{"mijn", "computer", "doet", "het", "niet", "help", "50", "man"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokens mismatch: got %#v want %#v", got, want)
	}
}

func TestContains_Rules(t *testing.T) {
	cases := []struct {
		text, kw string
		want     bool
	}{
		{"Ik wil een bedrijfsborrel", "borrel", true},   // compound suffix
		{"Goedemorgen allemaal", "goed", false},         // prefix is not a match
		{"Ik ga uit eten", "it", false},                 // short keywords need exact tokens
		{"Het IT systeem", "it", true},                  // exact token
		{"Het werkt niet meer", "werkt niet", true},     // phrase
		{"Het werkt vandaag niet", "werkt niet", false}, // phrase must be contiguous
		{"", "help", false},
		{"help", "", false},
	}
	for _, tc := range cases {
		if got := Parse(tc.text).Contains(tc.kw); got != tc.want {
			t.Fatalf("Contains(%q, %q) = %v; want %v", tc.text, tc.kw, got, tc.want)
		}
	}
}

func TestAnyAndMatched(t *testing.T) {
	txt := Parse("Dit is dringend, zo snel mogelijk graag")
	if !txt.Any(Urgency) {
		t.Fatalf("expected urgency match")
	}
	got := txt.Matched(Urgency)
	want := []string{"dringend", "zo snel mogelijk"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Matched mismatch: got %#v want %#v", got, want)
	}
	if txt.Any(Cleaning) {
		t.Fatalf("unexpected cleaning match")
	}
}

func TestUrgency_ExactTokensOnly(t *testing.T) {
	if Parse("Dat loopt indirect via de balie").Any(Urgency) {
		t.Fatalf("indirect must not count as urgent")
	}
	if got := Parse("Graag direct terugbellen").Matched(Urgency); !reflect.DeepEqual(got, []string{"direct"}) {
		t.Fatalf("Matched(Urgency) = %#v", got)
	}
	if !Parse("bedrijfsborrel").Any(Event) {
		t.Fatalf("other lists keep the compound suffix rule")
	}
}

func TestDeviceAndDepartmentLists(t *testing.T) {
	cases := []struct {
		text       string
		it, device bool
	}{
		{"Is it possible to book a room?", false, false},
		{"Ik geef een presentatie", false, false},
		{"De wifi is traag", true, true},
		{"Bel de IT-afdeling", true, false},
		{"Vraag het IT support team", true, false},
		{"Mijn email komt niet aan", true, false},
	}
	for _, tc := range cases {
		txt := Parse(tc.text)
		if txt.Any(IT) != tc.it || txt.Any(Device) != tc.device {
			t.Fatalf("%q: it=%v device=%v; want it=%v device=%v", tc.text, txt.Any(IT), txt.Any(Device), tc.it, tc.device)
		}
	}
}

func TestWordCount(t *testing.T) {
	if n := Parse("een twee, drie!").WordCount(); n != 3 {
		t.Fatalf("WordCount = %d; want 3", n)
	}
}

func TestWordsAndSnapshotAreCopies(t *testing.T) {
	w := Words(Complaint)
	w[0] = "mutated"
	if Words(Complaint)[0] == "mutated" {
		t.Fatalf("Words must return a copy")
	}
	snap := Snapshot()
	snap[string(Urgency)][0] = "mutated"
	if Words(Urgency)[0] == "mutated" {
		t.Fatalf("Snapshot must return a deep copy")
	}
	if len(snap) != len(Lists()) {
		t.Fatalf("snapshot/list size mismatch: %d vs %d", len(snap), len(Lists()))
	}
}

func TestLists_Sorted(t *testing.T) {
	ls := Lists()
	for i := 1; i < len(ls); i++ {
		if ls[i-1] > ls[i] {
			t.Fatalf("Lists not sorted at %d: %q > %q", i, ls[i-1], ls[i])
		}
	}
}
