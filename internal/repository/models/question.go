package models

import (
	"database/sql"
	"time"
)

// GeneratedQuestion is a row of generated_questions.
type GeneratedQuestion struct {
	ID                string         `db:"id"`
	GenerationID      string         `db:"generation_id"`
	Position          int            `db:"position"`
	QuestionType      string         `db:"question_type"`
	Difficulty        string         `db:"difficulty"`
	Stem              string         `db:"stem"`
	FeedbackCorrect   sql.NullString `db:"feedback_correct"`
	FeedbackIncorrect sql.NullString `db:"feedback_incorrect"`
	CreatedAt         time.Time      `db:"created_at"`
}

// GeneratedAnswer is a row of generated_answers. Oracle has no boolean
// column type, so IsCorrect is stored as NUMBER(1).
type GeneratedAnswer struct {
	ID         string         `db:"id"`
	QuestionID string         `db:"question_id"`
	Position   int            `db:"position"`
	AnswerText string         `db:"answer_text"`
	IsCorrect  int            `db:"is_correct"`
	Feedback   sql.NullString `db:"feedback"`
	CreatedAt  time.Time      `db:"created_at"`
}
