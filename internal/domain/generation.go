package domain

import "strings"

const (
	MinQuestionCount   = 1
	MaxQuestionCount   = 100
	MinAnswerCount     = 3
	MaxAnswerCount     = 6
	DefaultAnswerCount = 4
)

// GenerationRequest is one caller invocation of the generation pipeline.
type GenerationRequest struct {
	Content          string
	Count            int
	Types            []QuestionType
	Difficulties     []Difficulty
	AnswerCount      int
	GenerateFeedback bool
	// RequesterID keys the rate limiter. Empty means the caller is not limited.
	RequesterID string
}

// WithDefaults returns a copy of the request with empty sets defaulted and
// duplicates removed. Types and difficulties come back in canonical order so
// that prompts built from equivalent requests are identical.
func (r GenerationRequest) WithDefaults() GenerationRequest {
	out := r
	out.RequesterID = strings.TrimSpace(r.RequesterID)

	out.Types = nil
	seenTypes := make(map[QuestionType]bool, len(r.Types))
	for _, t := range r.Types {
		seenTypes[QuestionType(strings.ToLower(strings.TrimSpace(string(t))))] = true
	}
	for _, t := range AllQuestionTypes {
		if seenTypes[t] {
			out.Types = append(out.Types, t)
		}
	}
	if len(r.Types) == 0 {
		out.Types = []QuestionType{QuestionTypeMultipleChoice}
	}

	out.Difficulties = nil
	seenDiff := make(map[Difficulty]bool, len(r.Difficulties))
	for _, d := range r.Difficulties {
		seenDiff[Difficulty(strings.ToLower(strings.TrimSpace(string(d))))] = true
	}
	for _, d := range AllDifficulties {
		if seenDiff[d] {
			out.Difficulties = append(out.Difficulties, d)
		}
	}
	if len(r.Difficulties) == 0 {
		out.Difficulties = []Difficulty{DifficultyMedium}
	}

	if out.AnswerCount == 0 {
		out.AnswerCount = DefaultAnswerCount
	}
	return out
}

// HasType reports whether the request asks for questions of type t.
func (r GenerationRequest) HasType(t QuestionType) bool {
	for _, rt := range r.Types {
		if rt == t {
			return true
		}
	}
	return false
}
