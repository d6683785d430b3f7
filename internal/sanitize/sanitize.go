// Package sanitize cleans chat messages before they are processed or rendered.
//
// Sanitize always removes script-like blocks (script, style, iframe, object,
// embed and form), "javascript:" URLs and inline event handlers. Depending on
// Options it also strips every tag outside a small allow-list, converts a
// markdown subset to inline HTML, and truncates to a maximum length.
//
// The output is a fixed point: Sanitize(Sanitize(x, o), o) == Sanitize(x, o).
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Options controls a single Sanitize call.
type Options struct {
	StripHTML     bool // remove tags outside strong/em/code/br and decode entities
	MaxLength     int  // runes; 0 means unlimited
	AllowMarkdown bool // convert **bold**, *italic*, `code`, lists and newlines
}

// maxPasses bounds the outer fixed-point loop. A well-formed input settles
// after one pass; pathological truncation inside a tag may need a second.
const maxPasses = 4

var (
	dangerousBlockRE = regexp.MustCompile(`(?is)<\s*(script|style|iframe|object|embed|form)\b.*?<\s*/\s*(script|style|iframe|object|embed|form)\s*>`)
	dangerousTagRE   = regexp.MustCompile(`(?i)<\s*/?\s*(?:script|style|iframe|object|embed|form)[^>]*>?`)
	jsURLRE          = regexp.MustCompile(`(?i)javascript\s*:`)
	eventAttrRE      = regexp.MustCompile(`(?i)on\w+\s*=`)

	tagRE        = regexp.MustCompile(`<[^>]*>`)
	allowedTagRE = regexp.MustCompile(`(?i)^</?\s*(?:strong|em|code|br)\b`)
	brRE         = regexp.MustCompile(`(?i)<br\s*/?>`)
	brRunRE      = regexp.MustCompile(`(?i)(?:<br\s*/?>){3,}`)
	spaceRE      = regexp.MustCompile(`\s+`)

	boldStarRE   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnderRE  = regexp.MustCompile(`__([^_]+)__`)
	italStarRE   = regexp.MustCompile(`\*([^*]+)\*`)
	italUnderRE  = regexp.MustCompile(`_([^_]+)_`)
	codeRE       = regexp.MustCompile("`([^`]+)`")
	numberedRE   = regexp.MustCompile(`^(\d+)\. `)
	bulletPrefix = "- "
)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#x27;", "'",
	"&#x2F;", "/",
	"&nbsp;", " ",
)

// Sanitize returns a cleaned copy of text according to opts.
func Sanitize(text string, opts Options) string {
	if text == "" {
		return ""
	}
	out := pass(text, opts)
	for i := 1; i < maxPasses; i++ {
		next := pass(out, opts)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func pass(s string, opts Options) string {
	s = removeDangerous(s)
	if opts.StripHTML {
		s = stripHTML(s)
	}
	if opts.AllowMarkdown {
		s = markdown(s)
	}
	if opts.MaxLength > 0 {
		s = Truncate(s, opts.MaxLength)
	}
	return finalCleanup(s)
}

// removeDangerous strips the baseline set until nothing changes, so removals
// cannot splice together a new dangerous sequence.
func removeDangerous(s string) string {
	for {
		next := dangerousBlockRE.ReplaceAllString(s, "")
		next = dangerousTagRE.ReplaceAllString(next, "")
		next = jsURLRE.ReplaceAllString(next, "")
		next = eventAttrRE.ReplaceAllString(next, "")
		if next == s {
			return s
		}
		s = next
	}
}

// stripHTML drops tags outside the allow-list and decodes the common
// entities. Decoding can surface new tags, so both steps repeat until stable.
func stripHTML(s string) string {
	for {
		next := dropDisallowedTags(s)
		next = entityReplacer.Replace(next)
		next = removeDangerous(next)
		if next == s {
			return s
		}
		s = next
	}
}

func dropDisallowedTags(s string) string {
	locs := tagRE.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, l := range locs {
		b.WriteString(s[last:l[0]])
		if tag := s[l[0]:l[1]]; allowedTagRE.MatchString(tag) {
			b.WriteString(tag)
		}
		last = l[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// markdown converts the supported subset line by line. Existing <br> tags are
// treated as line breaks so a second conversion is a no-op.
func markdown(s string) string {
	s = brRE.ReplaceAllString(s, "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, bulletPrefix):
			line = "• " + line[len(bulletPrefix):]
		case numberedRE.MatchString(line):
			line = numberedRE.ReplaceAllString(line, "<strong>$1.</strong> ")
		}
		line = inline(line, boldStarRE, "<strong>$1</strong>")
		line = inline(line, boldUnderRE, "<strong>$1</strong>")
		line = inline(line, italStarRE, "<em>$1</em>")
		line = inline(line, italUnderRE, "<em>$1</em>")
		line = inline(line, codeRE, "<code>$1</code>")
		lines[i] = line
	}
	return strings.Join(lines, "<br>")
}

// inline applies re only to text between tags so attribute values and
// previously generated markup are left alone.
func inline(s string, re *regexp.Regexp, repl string) string {
	locs := tagRE.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return re.ReplaceAllString(s, repl)
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	last := 0
	for _, l := range locs {
		b.WriteString(re.ReplaceAllString(s[last:l[0]], repl))
		b.WriteString(s[l[0]:l[1]])
		last = l[1]
	}
	b.WriteString(re.ReplaceAllString(s[last:], repl))
	return b.String()
}

// Truncate shortens s to at most limit runes, ending in "...". When the last
// space of the kept prefix lies beyond 80% of limit the cut happens there.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	const ellipsis = "..."
	keep := limit - len(ellipsis)
	if keep <= 0 {
		return string([]rune(s)[:limit])
	}
	r := []rune(s)[:keep]
	if i := lastSpace(r); i > 0 && float64(i) > float64(limit)*0.8 {
		r = r[:i]
	}
	return string(r) + ellipsis
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

func finalCleanup(s string) string {
	s = spaceRE.ReplaceAllString(s, " ")
	s = brRunRE.ReplaceAllString(s, "<br><br>")
	return strings.TrimSpace(s)
}

// ----------------------------------------------------------------------------
// Validation

// ValidateOptions bounds the accepted length in runes. Zero values default to
// a maximum of 2000 and a minimum of 1.
type ValidateOptions struct {
	MaxLength int
	MinLength int
}

// Result is the outcome of Validate.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

var suspiciousREs = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)data:text/html`),
}

// Validate checks presence, length bounds and dangerous patterns. It never
// modifies text; callers reject requests for which IsValid is false.
func Validate(text string, opts ValidateOptions) Result {
	maxLen := opts.MaxLength
	if maxLen <= 0 {
		maxLen = 2000
	}
	minLen := opts.MinLength
	if minLen <= 0 {
		minLen = 1
	}

	var errs []string
	if strings.TrimSpace(text) == "" {
		errs = append(errs, "Message content is required")
	}
	n := utf8.RuneCountInString(text)
	if n > maxLen {
		errs = append(errs, fmt.Sprintf("Message too long (max %d characters)", maxLen))
	}
	if n < minLen {
		errs = append(errs, fmt.Sprintf("Message too short (min %d characters)", minLen))
	}
	for _, re := range suspiciousREs {
		if re.MatchString(text) {
			errs = append(errs, "Message contains potentially dangerous content")
			break
		}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// ----------------------------------------------------------------------------
// Presets

// UserInput cleans inbound chat text: all markup stripped, 1000 runes, no
// markdown conversion.
func UserInput(s string) string {
	return Sanitize(s, Options{StripHTML: true, MaxLength: 1000})
}

// BotResponse prepares a generated reply for the widget: structural tags kept,
// markdown converted, 2000 runes.
func BotResponse(s string) string {
	return Sanitize(s, Options{MaxLength: 2000, AllowMarkdown: true})
}

// ValidateChatMessage applies the chat endpoint bounds (1..1000 runes).
func ValidateChatMessage(s string) Result {
	return Validate(s, ValidateOptions{MaxLength: 1000, MinLength: 1})
}

// PlainText removes markup and markdown markers and collapses whitespace.
func PlainText(s string) string {
	s = tagRE.ReplaceAllString(s, "")
	s = boldStarRE.ReplaceAllString(s, "$1")
	s = italStarRE.ReplaceAllString(s, "$1")
	s = codeRE.ReplaceAllString(s, "$1")
	return strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
}

// ForLogging returns a plain-text rendition capped at 500 runes.
func ForLogging(s string) string {
	return Truncate(PlainText(s), 500)
}
