package content

import (
	"html"
	"quiz-forge/internal/domain"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultMaxChars = 100000
	DefaultMinChars = 50

	// charsPerToken is the heuristic used for token estimates.
	charsPerToken = 4
)

// blockTagPattern matches tags that end a block of text. They are replaced
// by a space before stripping so adjacent paragraphs do not run together.
var blockTagPattern = regexp.MustCompile(`(?i)<\s*(br|hr|/?p|/?div|/?li|/?ul|/?ol|/?tr|/?td|/?th|/?h[1-6]|/?section|/?article|/?blockquote|/?pre)\b[^>]*>`)

// Normalized is the cleaned content handed to the prompt compiler.
type Normalized struct {
	Text            string
	Truncated       bool
	OriginalChars   int
	EstimatedTokens int
}

type Normalizer struct {
	maxChars int
	minChars int
	policy   *bluemonday.Policy
}

func NewNormalizer(maxChars, minChars int) *Normalizer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if minChars < 0 {
		minChars = DefaultMinChars
	}
	return &Normalizer{
		maxChars: maxChars,
		minChars: minChars,
		policy:   bluemonday.StrictPolicy(),
	}
}

// Normalize strips markup, collapses whitespace and truncates to the
// character budget.
func (n *Normalizer) Normalize(raw string) (Normalized, error) {
	text := collapseWhitespace(stripMarkup(n.policy, raw))
	if text == "" {
		return Normalized{}, domain.NewContentError("content is empty after removing markup and whitespace")
	}

	runes := []rune(text)
	if len(runes) < n.minChars {
		return Normalized{}, domain.NewContentError(
			"content is too short to generate meaningful questions").
			WithContext("chars", len(runes)).
			WithContext("min_chars", n.minChars)
	}

	out := Normalized{OriginalChars: len(runes)}
	if len(runes) > n.maxChars {
		text = truncateAtSentence(runes, n.maxChars)
		out.Truncated = true
	}
	out.Text = text
	out.EstimatedTokens = EstimateTokens(text)
	return out, nil
}

// EstimateTokens approximates the token count of s as ceil(chars/4).
func EstimateTokens(s string) int {
	n := len([]rune(s))
	return (n + charsPerToken - 1) / charsPerToken
}

func stripMarkup(policy *bluemonday.Policy, s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	s = blockTagPattern.ReplaceAllString(s, " ")
	return html.UnescapeString(policy.Sanitize(s))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// truncateAtSentence cuts runes to max, moving the cut back to the last
// sentence end found in the final 10% of the budget.
func truncateAtSentence(runes []rune, max int) string {
	floor := max - max/10
	for i := max - 1; i >= floor; i-- {
		switch runes[i] {
		case '.', '!', '?':
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				return string(runes[:i+1])
			}
		}
	}
	return strings.TrimSpace(string(runes[:max]))
}
