// Package search provides a small, deterministic, concurrency-safe in-memory
// index over a tenant's knowledge entries (FAQ topics and their answers), plus
// the token-overlap similarity used to deduplicate missing-answer records.
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options for stop words, minimum score and entry caps
//   - Unicode-aware tokenization
//   - Immutable after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// entry's token set (topic and answer): score = |Q ∩ E| / |Q ∪ E|. A query
// that names the topic outright scores a bonus so "openingstijden?" finds the
// openingstijden entry even when the answer text is long.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Entry is one knowledge item of a tenant.
type Entry struct {
	Topic  string `json:"topic"`
	Answer string `json:"answer"`
}

// Result is a ranked entry with its similarity score.
type Result struct {
	Topic  string
	Answer string
	Score  float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords  map[string]struct{}
	minScore   float64
	maxEntries int
	topicBoost float64
}

func defaultConfig() config {
	return config{
		stopwords:  nil,
		minScore:   0,
		maxEntries: 0,
		topicBoost: 0.5,
	}
}

// WithStopwords drops the given words from both queries and entries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMinScore discards results scoring below s (0..1).
func WithMinScore(s float64) Option {
	return func(c *config) {
		if s >= 0 && s <= 1 {
			c.minScore = s
		}
	}
}

// WithMaxEntries caps the number of indexed entries.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	entry  Entry
	topic  map[string]struct{}
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index from entries. Entries without an answer are skipped.
func NewIndex(entries []Entry, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(entries))
	for _, e := range entries {
		e.Topic = strings.TrimSpace(e.Topic)
		e.Answer = strings.TrimSpace(normalizeWhitespace(e.Answer))
		if e.Answer == "" {
			continue
		}
		toks := tokenize(e.Topic+" "+e.Answer, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{
			entry:  e,
			topic:  tokenize(e.Topic, cfg.stopwords),
			tokens: toks,
			tLen:   len(toks),
		})
		if cfg.maxEntries > 0 && len(docs) >= cfg.maxEntries {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k best-matching entries.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		entry    Entry
		score    float64
		lenRunes int
	}

	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if len(d.topic) > 0 && overlap(qTokens, d.topic) == len(d.topic) {
			score += i.cfg.topicBoost
		}
		if score > 1 {
			score = 1
		}
		if score <= 0 || score < i.cfg.minScore {
			continue
		}
		buf = append(buf, scored{
			entry:    d.entry,
			score:    score,
			lenRunes: utf8.RuneCountInString(d.entry.Answer),
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].entry.Topic < buf[b].entry.Topic
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = Result{Topic: buf[n].entry.Topic, Answer: buf[n].entry.Answer, Score: buf[n].score}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Words lowercases s and returns its letter/digit tokens in order, keeping
// duplicates.
func Words(s string) []string {
	return wordRE.FindAllString(strings.ToLower(s), -1)
}

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := Words(s)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
