package domain

// QuestionType is the answer format of a generated question.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "mc"
	QuestionTypeMultipleAnswer QuestionType = "ma"
	QuestionTypeTrueFalse      QuestionType = "tf"
)

// AllQuestionTypes lists the supported types in canonical order.
var AllQuestionTypes = []QuestionType{
	QuestionTypeMultipleChoice,
	QuestionTypeMultipleAnswer,
	QuestionTypeTrueFalse,
}

// IsValid reports whether t is one of the supported question types.
func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeMultipleAnswer, QuestionTypeTrueFalse:
		return true
	}
	return false
}

// Label returns a human readable name used in prompts.
func (t QuestionType) Label() string {
	switch t {
	case QuestionTypeMultipleChoice:
		return "Multiple Choice"
	case QuestionTypeMultipleAnswer:
		return "Multiple Answer"
	case QuestionTypeTrueFalse:
		return "True/False"
	}
	return string(t)
}

// Difficulty is the intended difficulty of a generated question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// AllDifficulties lists the supported difficulties in canonical order.
var AllDifficulties = []Difficulty{
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyExpert,
}

// IsValid reports whether d is one of the supported difficulties.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// Answer is one selectable option of a question.
type Answer struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback,omitempty"`
}

// GeneratedQuestion is a fully normalized question that passed structural validation.
type GeneratedQuestion struct {
	Type              QuestionType `json:"type"`
	Difficulty        Difficulty   `json:"difficulty"`
	Stem              string       `json:"stem"`
	Answers           []Answer     `json:"answers"`
	FeedbackCorrect   string       `json:"feedback_correct,omitempty"`
	FeedbackIncorrect string       `json:"feedback_incorrect,omitempty"`
}

// CorrectCount returns the number of answers flagged as correct.
func (q *GeneratedQuestion) CorrectCount() int {
	n := 0
	for _, a := range q.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// QuestionError describes why one item of a raw model batch was rejected.
// Index is the 1-based position of the item in the batch.
type QuestionError struct {
	Index   int    `json:"index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TokenUsage is the token accounting reported by the model provider.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationResult is the terminal output of one pipeline run.
type GenerationResult struct {
	GenerationID     string              `json:"generation_id"`
	Questions        []GeneratedQuestion `json:"questions"`
	TotalGenerated   int                 `json:"total_generated"`
	ValidCount       int                 `json:"valid_count"`
	InvalidCount     int                 `json:"invalid_count"`
	PartialSuccess   bool                `json:"partial_success"`
	ValidationErrors []QuestionError     `json:"validation_errors"`
	TokenUsage       TokenUsage          `json:"token_usage"`

	ContentTruncated     bool   `json:"content_truncated"`
	EstimatedInputTokens int    `json:"estimated_input_tokens"`
	Model                string `json:"model"`
	Attempts             int    `json:"attempts"`
}
