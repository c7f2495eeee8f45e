package prompt

import (
	"encoding/json"
	"fmt"
	"quiz-forge/internal/domain"
	"strings"
)

const (
	ContentBegin = "=== BEGIN SOURCE CONTENT ==="
	ContentEnd   = "=== END SOURCE CONTENT ==="
)

const systemIntro = `You are an expert educator writing assessment questions from study material.
Every question must be answerable from the source content alone. Stems must be
clear and self-contained. Wrong options must be plausible and reflect common
misunderstandings, not random values.`

const outputContract = `OUTPUT FORMAT:
- Respond with a single raw JSON object of the form {"questions": [...]}.
- Do not wrap the JSON in markdown code fences.
- Do not write any prose, headings or commentary before or after the JSON.
- Use double quotes for every key and string value.`

// Params are the generation parameters that shape the prompt.
type Params struct {
	Count            int
	Types            []domain.QuestionType
	Difficulties     []domain.Difficulty
	AnswerCount      int
	GenerateFeedback bool
}

// ParamsFromRequest copies the prompt-relevant fields of a defaulted request.
func ParamsFromRequest(req domain.GenerationRequest) Params {
	return Params{
		Count:            req.Count,
		Types:            req.Types,
		Difficulties:     req.Difficulties,
		AnswerCount:      req.AnswerCount,
		GenerateFeedback: req.GenerateFeedback,
	}
}

// Prompt is the system/user message pair sent to the model.
type Prompt struct {
	System string
	User   string
}

// DifficultyBucket is the number of questions requested at one difficulty.
type DifficultyBucket struct {
	Difficulty domain.Difficulty
	Count      int
}

// Compile renders the prompt for content. It has no side effects and the same
// input always yields the same text.
func Compile(content string, params Params) Prompt {
	types := canonicalTypes(params.Types)
	difficulties := canonicalDifficulties(params.Difficulties)
	answerCount := params.AnswerCount
	switch {
	case answerCount == 0:
		answerCount = domain.DefaultAnswerCount
	case answerCount < domain.MinAnswerCount:
		answerCount = domain.MinAnswerCount
	case answerCount > domain.MaxAnswerCount:
		answerCount = domain.MaxAnswerCount
	}

	var b strings.Builder
	b.WriteString(systemIntro)
	b.WriteString("\n\n")
	b.WriteString(outputContract)

	b.WriteString("\n\nQUESTION TYPES:\n")
	for _, t := range types {
		b.WriteString(typeRules(t, answerCount))
		b.WriteString("\n")
	}

	b.WriteString("\nDIFFICULTY:\n")
	b.WriteString(difficultyInstruction(params.Count, difficulties))

	b.WriteString("\n\nFIELDS:\n")
	b.WriteString(fieldInstructions(params.GenerateFeedback))

	b.WriteString("\n\nEXAMPLES:\n")
	for _, t := range types {
		fmt.Fprintf(&b, "Example %s question:\n", t.Label())
		b.WriteString(renderExample(t, difficulties[0], answerCount, params.GenerateFeedback))
		b.WriteString("\n")
	}

	return Prompt{
		System: strings.TrimRight(b.String(), "\n"),
		User:   buildUserMessage(content, params.Count, types),
	}
}

func buildUserMessage(content string, count int, types []domain.QuestionType) string {
	codes := make([]string, len(types))
	for i, t := range types {
		codes[i] = string(t)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d questions of type %s from the source content below.\n",
		count, strings.Join(codes, ", "))
	b.WriteString("Only use facts stated in the content between the markers.\n\n")
	b.WriteString(ContentBegin)
	b.WriteString("\n")
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(ContentEnd)
	return b.String()
}

func typeRules(t domain.QuestionType, answerCount int) string {
	switch t {
	case domain.QuestionTypeMultipleChoice:
		return fmt.Sprintf(`- "mc" (%s): exactly %d options, exactly 1 option has "is_correct": true.`,
			t.Label(), answerCount)
	case domain.QuestionTypeMultipleAnswer:
		return fmt.Sprintf(`- "ma" (%s): exactly %d options, between 2 and %d options have "is_correct": true.`,
			t.Label(), answerCount, answerCount-1)
	case domain.QuestionTypeTrueFalse:
		return fmt.Sprintf(`- "tf" (%s): exactly 2 options with the literal texts "True" and "False", exactly 1 has "is_correct": true.`,
			t.Label())
	}
	return ""
}

// Distribute splits count across difficulties in canonical order,
// ceil(count/len) per level. The last non-empty bucket may be short.
func Distribute(count int, difficulties []domain.Difficulty) []DifficultyBucket {
	difficulties = canonicalDifficulties(difficulties)
	per := (count + len(difficulties) - 1) / len(difficulties)

	buckets := make([]DifficultyBucket, 0, len(difficulties))
	remaining := count
	for _, d := range difficulties {
		n := per
		if n > remaining {
			n = remaining
		}
		if n <= 0 {
			break
		}
		buckets = append(buckets, DifficultyBucket{Difficulty: d, Count: n})
		remaining -= n
	}
	return buckets
}

func difficultyInstruction(count int, difficulties []domain.Difficulty) string {
	if len(difficulties) == 1 {
		return fmt.Sprintf(`All %d questions must have "difficulty": "%s".`, count, difficulties[0])
	}

	parts := make([]string, 0, len(difficulties))
	for _, bucket := range Distribute(count, difficulties) {
		parts = append(parts, fmt.Sprintf("%d %s", bucket.Count, bucket.Difficulty))
	}
	return fmt.Sprintf(`Distribute the %d questions across difficulties approximately as: %s. Set "difficulty" on every question.`,
		count, strings.Join(parts, ", "))
}

func fieldInstructions(feedback bool) string {
	lines := []string{
		`- "type": one of the question type codes above.`,
		`- "difficulty": one of "easy", "medium", "hard", "expert".`,
		`- "stem": the question text.`,
		`- "answers": array of {"text", "is_correct"} objects.`,
	}
	if feedback {
		lines[3] = `- "answers": array of {"text", "is_correct", "feedback"} objects; "feedback" explains why the option is right or wrong.`
		lines = append(lines,
			`- "feedback_correct": shown when the learner answers correctly.`,
			`- "feedback_incorrect": shown when the learner answers incorrectly.`)
	}
	return strings.Join(lines, "\n")
}

type exampleAnswer struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback,omitempty"`
}

type exampleQuestion struct {
	Type              domain.QuestionType `json:"type"`
	Difficulty        domain.Difficulty   `json:"difficulty"`
	Stem              string              `json:"stem"`
	Answers           []exampleAnswer     `json:"answers"`
	FeedbackCorrect   string              `json:"feedback_correct,omitempty"`
	FeedbackIncorrect string              `json:"feedback_incorrect,omitempty"`
}

var (
	mcOptions = []string{"Carbon dioxide", "Oxygen", "Nitrogen", "Hydrogen", "Helium", "Argon"}
	maOptions = []string{"2", "3", "4", "6", "8", "9"}
)

func renderExample(t domain.QuestionType, d domain.Difficulty, answerCount int, feedback bool) string {
	q := exampleQuestion{Type: t, Difficulty: d}

	switch t {
	case domain.QuestionTypeMultipleChoice:
		q.Stem = "Which gas do plants absorb from the air for photosynthesis?"
		for i, opt := range mcOptions[:answerCount] {
			q.Answers = append(q.Answers, exampleAnswer{Text: opt, IsCorrect: i == 0})
		}
	case domain.QuestionTypeMultipleAnswer:
		q.Stem = "Which of the following numbers are prime?"
		for i, opt := range maOptions[:answerCount] {
			q.Answers = append(q.Answers, exampleAnswer{Text: opt, IsCorrect: i < 2})
		}
	case domain.QuestionTypeTrueFalse:
		q.Stem = "The Earth orbits the Sun."
		q.Answers = []exampleAnswer{{Text: "True", IsCorrect: true}, {Text: "False"}}
	}

	if feedback {
		for i := range q.Answers {
			if q.Answers[i].IsCorrect {
				q.Answers[i].Feedback = "Correct: this option matches the source content."
			} else {
				q.Answers[i].Feedback = "Incorrect: the source content contradicts this option."
			}
		}
		q.FeedbackCorrect = "Well done, that is right."
		q.FeedbackIncorrect = "Not quite. Review the relevant section and try again."
	}

	out, _ := json.MarshalIndent(q, "", "  ")
	return string(out)
}

func canonicalTypes(in []domain.QuestionType) []domain.QuestionType {
	var out []domain.QuestionType
	for _, t := range domain.AllQuestionTypes {
		for _, v := range in {
			if v == t {
				out = append(out, t)
				break
			}
		}
	}
	if len(out) == 0 {
		out = []domain.QuestionType{domain.QuestionTypeMultipleChoice}
	}
	return out
}

func canonicalDifficulties(in []domain.Difficulty) []domain.Difficulty {
	var out []domain.Difficulty
	for _, d := range domain.AllDifficulties {
		for _, v := range in {
			if v == d {
				out = append(out, d)
				break
			}
		}
	}
	if len(out) == 0 {
		out = []domain.Difficulty{domain.DifficultyMedium}
	}
	return out
}
