package validation

import (
	"fmt"
	"html"
	"quiz-forge/internal/domain"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Per-item rejection codes.
const (
	CodeMissingField      = "MISSING_FIELD"
	CodeInvalidType       = "INVALID_TYPE"
	CodeTooFewAnswers     = "TOO_FEW_ANSWERS"
	CodeEmptyAnswerText   = "EMPTY_ANSWER_TEXT"
	CodeWrongCorrectCount = "WRONG_CORRECT_COUNT"
)

const (
	minAnswers       = 2
	maxSampleErrors  = 3
	keyStem          = "stem"
	keyAnswers       = "answers"
	keyType          = "type"
	keyDifficulty    = "difficulty"
	keyIsCorrect     = "is_correct"
	keyText          = "text"
	keyFeedback      = "feedback"
	keyFeedbackRight = "feedback_correct"
	keyFeedbackWrong = "feedback_incorrect"
	keyExplanation   = "explanation"
)

// maxSanitizePasses bounds how often sanitize re-runs on its own output.
const maxSanitizePasses = 4

// markupTag matches opening, closing and self-closing tags of HTML elements a
// model is likely to emit. Attributes need a value so "a<b and c>d" stays text.
var markupTag = regexp.MustCompile(`(?i)</?(a|abbr|b|blockquote|br|button|code|del|div|em|embed|form|h[1-6]|hr|i|iframe|img|input|ins|kbd|li|link|mark|math|meta|object|ol|p|pre|q|s|script|small|span|strong|style|sub|sup|svg|table|tbody|td|th|thead|tr|u|ul)(\s+[\w:-]+\s*=\s*("[^"]*"|'[^']*'|[^\s"'<>]+))*\s*/?>`)

type alias struct {
	from, to string
}

// Alias tables are ordered so that the first matching spelling wins.
var (
	questionKeyAliases = []alias{
		{"question", keyStem},
		{"text", keyStem},
		{"prompt", keyStem},
		{"options", keyAnswers},
		{"choices", keyAnswers},
	}

	answerKeyAliases = []alias{
		{"answer", keyText},
		{"option", keyText},
		{"correct", keyIsCorrect},
		{"isCorrect", keyIsCorrect},
	}

	typeAliases = map[string]domain.QuestionType{
		"mc":              domain.QuestionTypeMultipleChoice,
		"multiple_choice": domain.QuestionTypeMultipleChoice,
		"single_choice":   domain.QuestionTypeMultipleChoice,
		"ma":              domain.QuestionTypeMultipleAnswer,
		"multiple_answer": domain.QuestionTypeMultipleAnswer,
		"multi_select":    domain.QuestionTypeMultipleAnswer,
		"tf":              domain.QuestionTypeTrueFalse,
		"true_false":      domain.QuestionTypeTrueFalse,
		"boolean":         domain.QuestionTypeTrueFalse,
	}
)

// QuestionValidator turns raw model items into GeneratedQuestions and
// reports every item it rejects.
type QuestionValidator struct {
	policy *bluemonday.Policy
}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{policy: bluemonday.UGCPolicy()}
}

// candidate is a raw item after alias normalization.
type candidate struct {
	rawType           string
	qtype             domain.QuestionType
	difficulty        string
	stem              string
	answers           []domain.Answer
	feedbackCorrect   string
	feedbackIncorrect string
}

// ValidateQuestions validates a parsed batch. A batch with at least one valid
// question is a success; PartialSuccess reports whether any item was dropped.
func (v *QuestionValidator) ValidateQuestions(raw []map[string]any) (*domain.GenerationResult, error) {
	result := &domain.GenerationResult{
		Questions:        make([]domain.GeneratedQuestion, 0, len(raw)),
		ValidationErrors: make([]domain.QuestionError, 0),
		TotalGenerated:   len(raw),
	}

	for i, item := range raw {
		index := i + 1
		c := normalize(item)
		if qerr := checkStructure(index, c); qerr != nil {
			result.ValidationErrors = append(result.ValidationErrors, *qerr)
			continue
		}

		q := v.finalize(c)
		if qerr := checkSanitized(index, q); qerr != nil {
			result.ValidationErrors = append(result.ValidationErrors, *qerr)
			continue
		}
		result.Questions = append(result.Questions, q)
	}

	result.ValidCount = len(result.Questions)
	result.InvalidCount = len(result.ValidationErrors)
	result.PartialSuccess = result.InvalidCount > 0

	if result.ValidCount == 0 {
		return nil, noValidQuestionsError(result)
	}
	return result, nil
}

func noValidQuestionsError(result *domain.GenerationResult) error {
	if result.TotalGenerated == 0 {
		return domain.NewError(domain.CodeNoQuestions, "model response contained no questions", nil).
			WithContext("total_generated", 0)
	}

	samples := make([]string, 0, maxSampleErrors)
	for _, e := range result.ValidationErrors {
		if len(samples) == maxSampleErrors {
			break
		}
		samples = append(samples, e.Message)
	}
	msg := fmt.Sprintf("none of the %d generated questions passed validation: %s",
		result.TotalGenerated, strings.Join(samples, "; "))
	if more := len(result.ValidationErrors) - len(samples); more > 0 {
		msg += fmt.Sprintf(" (and %d more)", more)
	}
	return domain.NewError(domain.CodeNoQuestions, msg, nil).
		WithContext("total_generated", result.TotalGenerated).
		WithContext("validation_errors", result.ValidationErrors)
}

func normalize(item map[string]any) candidate {
	fields := applyAliases(item, questionKeyAliases)

	c := candidate{
		rawType:           strings.TrimSpace(stringValue(fields[keyType])),
		difficulty:        strings.ToLower(strings.TrimSpace(stringValue(fields[keyDifficulty]))),
		stem:              strings.TrimSpace(stringValue(fields[keyStem])),
		feedbackCorrect:   strings.TrimSpace(stringValue(fields[keyFeedbackRight])),
		feedbackIncorrect: strings.TrimSpace(stringValue(fields[keyFeedbackWrong])),
	}
	if c.feedbackIncorrect == "" {
		c.feedbackIncorrect = strings.TrimSpace(stringValue(fields[keyExplanation]))
	}

	key := strings.ToLower(c.rawType)
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	c.qtype = typeAliases[key]

	if list, ok := fields[keyAnswers].([]any); ok {
		c.answers = make([]domain.Answer, 0, len(list))
		for _, entry := range list {
			c.answers = append(c.answers, normalizeAnswer(entry))
		}
	}
	return c
}

func normalizeAnswer(entry any) domain.Answer {
	m, ok := entry.(map[string]any)
	if !ok {
		return domain.Answer{Text: strings.TrimSpace(stringValue(entry))}
	}
	fields := applyAliases(m, answerKeyAliases)
	return domain.Answer{
		Text:      strings.TrimSpace(stringValue(fields[keyText])),
		IsCorrect: truthy(fields[keyIsCorrect]),
		Feedback:  strings.TrimSpace(stringValue(fields[keyFeedback])),
	}
}

// applyAliases returns a copy of m with alias keys moved to their canonical
// name. A canonical key already present is never overwritten.
func applyAliases(m map[string]any, aliases []alias) map[string]any {
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = val
	}
	for _, a := range aliases {
		val, ok := m[a.from]
		if !ok {
			continue
		}
		if existing, ok := out[a.to]; ok && !isBlank(existing) {
			continue
		}
		out[a.to] = val
	}
	return out
}

func checkStructure(index int, c candidate) *domain.QuestionError {
	switch {
	case c.rawType == "":
		return newQuestionError(index, CodeMissingField, "missing required field: type")
	case c.stem == "":
		return newQuestionError(index, CodeMissingField, "missing required field: stem")
	case len(c.answers) == 0:
		return newQuestionError(index, CodeMissingField, "missing required field: answers")
	case c.qtype == "":
		return newQuestionError(index, CodeInvalidType,
			fmt.Sprintf("invalid question type %q, expected one of mc, ma, tf", c.rawType))
	case len(c.answers) < minAnswers:
		return newQuestionError(index, CodeTooFewAnswers,
			fmt.Sprintf("needs at least %d answers, got %d", minAnswers, len(c.answers)))
	}

	for i, a := range c.answers {
		if a.Text == "" {
			return newQuestionError(index, CodeEmptyAnswerText, fmt.Sprintf("answer %d has no text", i+1))
		}
	}

	correct := 0
	for _, a := range c.answers {
		if a.IsCorrect {
			correct++
		}
	}
	switch c.qtype {
	case domain.QuestionTypeMultipleChoice, domain.QuestionTypeTrueFalse:
		if correct != 1 {
			return newQuestionError(index, CodeWrongCorrectCount,
				fmt.Sprintf("%s questions need exactly 1 correct answer, got %d", c.qtype, correct))
		}
	case domain.QuestionTypeMultipleAnswer:
		if correct < 1 {
			return newQuestionError(index, CodeWrongCorrectCount,
				"ma questions need at least 1 correct answer, got 0")
		}
	}
	return nil
}

// checkSanitized rejects items whose required text was nothing but unsafe markup.
func checkSanitized(index int, q domain.GeneratedQuestion) *domain.QuestionError {
	if q.Stem == "" {
		return newQuestionError(index, CodeMissingField, "stem is empty after removing unsafe markup")
	}
	for i, a := range q.Answers {
		if a.Text == "" {
			return newQuestionError(index, CodeEmptyAnswerText,
				fmt.Sprintf("answer %d is empty after removing unsafe markup", i+1))
		}
	}
	return nil
}

func newQuestionError(index int, code, message string) *domain.QuestionError {
	return &domain.QuestionError{
		Index:   index,
		Code:    code,
		Message: fmt.Sprintf("question %d: %s", index, message),
	}
}

// finalize sanitizes free text and defaults the difficulty.
func (v *QuestionValidator) finalize(c candidate) domain.GeneratedQuestion {
	difficulty := domain.Difficulty(c.difficulty)
	if !difficulty.IsValid() {
		difficulty = domain.DifficultyMedium
	}

	answers := make([]domain.Answer, len(c.answers))
	for i, a := range c.answers {
		answers[i] = domain.Answer{
			Text:      v.sanitize(a.Text),
			IsCorrect: a.IsCorrect,
			Feedback:  v.sanitize(a.Feedback),
		}
	}

	return domain.GeneratedQuestion{
		Type:              c.qtype,
		Difficulty:        difficulty,
		Stem:              v.sanitize(c.stem),
		Answers:           answers,
		FeedbackCorrect:   v.sanitize(c.feedbackCorrect),
		FeedbackIncorrect: v.sanitize(c.feedbackIncorrect),
	}
}

// sanitize strips unsafe markup. Text without HTML tags is returned as is,
// so comparisons like "x < y" survive untouched. Unescaping can reassemble a
// tag from split pieces, so passes repeat until the text is stable. Text
// that never settles keeps bluemonday's escaped output.
func (v *QuestionValidator) sanitize(s string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		out := v.sanitizeOnce(s)
		if out == s {
			return s
		}
		s = out
	}
	return strings.TrimSpace(v.policy.Sanitize(s))
}

func (v *QuestionValidator) sanitizeOnce(s string) string {
	tags := markupTag.FindAllStringIndex(s, -1)
	if len(tags) == 0 {
		return s
	}

	// A '<' outside a tag is text and must not swallow what follows it.
	var b strings.Builder
	last := 0
	for _, tag := range tags {
		b.WriteString(strings.ReplaceAll(s[last:tag[0]], "<", "&lt;"))
		b.WriteString(s[tag[0]:tag[1]])
		last = tag[1]
	}
	b.WriteString(strings.ReplaceAll(s[last:], "<", "&lt;"))

	return strings.TrimSpace(html.UnescapeString(v.policy.Sanitize(b.String())))
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true
		}
	}
	return false
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
