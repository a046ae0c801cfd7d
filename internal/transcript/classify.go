package transcript

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the length above which assistant text is always
// treated as user-facing output.
const DefaultMaxLength = 320

// DefaultKeywords returns the workflow vocabulary that marks short assistant
// text as narration. Entries are regular expression alternatives.
func DefaultKeywords() []string {
	return []string{
		`apex:\w+`,
		`skill`,
		`agents?`,
		`spawn(?:ing)?`,
		`todos?`,
		`task brief`,
		`update the task`,
		`update the todos`,
		`TaskOutput`,
		`TodoWrite`,
	}
}

var markdownPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(^|\n)#{1,6}\s`),
	regexp.MustCompile("```"),
	regexp.MustCompile(`(^|\n)[-*]\s+`),
	regexp.MustCompile(`\n\|.+\|\n\|[-:|\s]+\|`),
}

// Classifier decides whether a Claude assistant text part is the model
// narrating its own process rather than answering the user.
type Classifier struct {
	maxLength int
	keywords  *regexp.Regexp // nil means no text is keyword-matched
}

var defaultClassifier = mustClassifier(DefaultMaxLength, DefaultKeywords())

// DefaultClassifier returns the classifier built from DefaultMaxLength and
// DefaultKeywords.
func DefaultClassifier() *Classifier {
	return defaultClassifier
}

// NewClassifier builds a classifier. A non-positive maxLength uses
// DefaultMaxLength. An empty keyword list disables keyword matching.
func NewClassifier(maxLength int, keywords []string) (*Classifier, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	c := &Classifier{maxLength: maxLength}

	var alts []string
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			alts = append(alts, kw)
		}
	}
	if len(alts) == 0 {
		return c, nil
	}

	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compile classifier keywords: %w", err)
	}
	c.keywords = re
	return c, nil
}

func mustClassifier(maxLength int, keywords []string) *Classifier {
	c, err := NewClassifier(maxLength, keywords)
	if err != nil {
		panic(err)
	}
	return c
}

// MaxLength reports the length threshold in characters.
func (c *Classifier) MaxLength() int {
	return c.maxLength
}

// IsMeta reports whether text should be shown as thinking. Rules apply in
// order: empty text is meta, long text is not, text with markdown structure
// is not, otherwise it is meta only if it mentions workflow vocabulary.
func (c *Classifier) IsMeta(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	if utf8.RuneCountInString(text) > c.maxLength {
		return false
	}
	if HasMarkdownStructure(text) {
		return false
	}
	if c.keywords == nil {
		return false
	}
	return c.keywords.MatchString(text)
}

// HasMarkdownStructure reports whether text contains a heading, a code
// fence, a bullet item or a markdown table.
func HasMarkdownStructure(text string) bool {
	for _, re := range markdownPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
