package repository

import (
	"context"
	"fmt"
	"time"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/repository/models"
	"quiz-forge/internal/util"

	"github.com/jmoiron/sqlx"
)

const (
	insertQuestionQuery = `INSERT INTO generated_questions (
		id, generation_id, position, question_type, difficulty,
		stem, feedback_correct, feedback_incorrect, created_at
	) VALUES (
		:1, :2, :3, :4, :5, :6, :7, :8, :9
	)`

	insertAnswerQuery = `INSERT INTO generated_answers (
		id, question_id, position, answer_text, is_correct, feedback, created_at
	) VALUES (
		:1, :2, :3, :4, :5, :6, :7
	)`

	selectQuestionsQuery = `SELECT 
		id "id", 
		generation_id "generation_id", 
		position "position", 
		question_type "question_type", 
		difficulty "difficulty", 
		stem "stem", 
		feedback_correct "feedback_correct", 
		feedback_incorrect "feedback_incorrect", 
		created_at "created_at" 
	FROM generated_questions 
	WHERE generation_id = :1 
	ORDER BY position`

	selectAnswersQuery = `SELECT 
		a.id "id", 
		a.question_id "question_id", 
		a.position "position", 
		a.answer_text "answer_text", 
		a.is_correct "is_correct", 
		a.feedback "feedback", 
		a.created_at "created_at" 
	FROM generated_answers a 
	JOIN generated_questions q ON q.id = a.question_id 
	WHERE q.generation_id = :1 
	ORDER BY q.position, a.position`
)

// QuestionDatabaseAdapter implements domain.QuestionRepository on sqlx.
type QuestionDatabaseAdapter struct {
	db        *sqlx.DB
	txManager domain.TransactionManager
}

// NewQuestionDatabaseAdapter creates a new instance of QuestionDatabaseAdapter
func NewQuestionDatabaseAdapter(db *sqlx.DB) domain.QuestionRepository {
	return &QuestionDatabaseAdapter{
		db:        db,
		txManager: NewTransactionManagerAdapter(db),
	}
}

// SaveQuestions implements domain.QuestionRepository
func (a *QuestionDatabaseAdapter) SaveQuestions(ctx context.Context, generationID string, questions []domain.GeneratedQuestion) error {
	if generationID == "" {
		return domain.NewInvalidInputError("generation id is required")
	}
	if len(questions) == 0 {
		return nil
	}

	return a.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, a.db)
		now := time.Now()

		for i, q := range questions {
			row := toModelQuestion(generationID, i+1, q, now)
			_, err := exec.ExecContext(txCtx, insertQuestionQuery,
				row.ID,
				row.GenerationID,
				row.Position,
				row.QuestionType,
				row.Difficulty,
				row.Stem,
				row.FeedbackCorrect,
				row.FeedbackIncorrect,
				row.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to save question %d of generation %s: %w", i+1, generationID, err)
			}

			for j, ans := range q.Answers {
				ansRow := toModelAnswer(row.ID, j+1, ans, now)
				_, err := exec.ExecContext(txCtx, insertAnswerQuery,
					ansRow.ID,
					ansRow.QuestionID,
					ansRow.Position,
					ansRow.AnswerText,
					ansRow.IsCorrect,
					ansRow.Feedback,
					ansRow.CreatedAt,
				)
				if err != nil {
					return fmt.Errorf("failed to save answer %d of question %d: %w", j+1, i+1, err)
				}
			}
		}
		return nil
	})
}

// GetQuestionsByGeneration implements domain.QuestionRepository
func (a *QuestionDatabaseAdapter) GetQuestionsByGeneration(ctx context.Context, generationID string) ([]domain.GeneratedQuestion, error) {
	exec := GetExecutor(ctx, a.db)

	var rows []models.GeneratedQuestion
	if err := exec.SelectContext(ctx, &rows, selectQuestionsQuery, generationID); err != nil {
		return nil, fmt.Errorf("failed to get questions for generation %s: %w", generationID, err)
	}
	if len(rows) == 0 {
		return []domain.GeneratedQuestion{}, nil
	}

	var answerRows []models.GeneratedAnswer
	if err := exec.SelectContext(ctx, &answerRows, selectAnswersQuery, generationID); err != nil {
		return nil, fmt.Errorf("failed to get answers for generation %s: %w", generationID, err)
	}

	answersByQuestion := make(map[string][]domain.Answer, len(rows))
	for _, ar := range answerRows {
		answersByQuestion[ar.QuestionID] = append(answersByQuestion[ar.QuestionID], domain.Answer{
			Text:      ar.AnswerText,
			IsCorrect: ar.IsCorrect == 1,
			Feedback:  ar.Feedback.String,
		})
	}

	questions := make([]domain.GeneratedQuestion, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, domain.GeneratedQuestion{
			Type:              domain.QuestionType(r.QuestionType),
			Difficulty:        domain.Difficulty(r.Difficulty),
			Stem:              r.Stem,
			Answers:           answersByQuestion[r.ID],
			FeedbackCorrect:   r.FeedbackCorrect.String,
			FeedbackIncorrect: r.FeedbackIncorrect.String,
		})
	}
	return questions, nil
}

func toModelQuestion(generationID string, position int, q domain.GeneratedQuestion, now time.Time) models.GeneratedQuestion {
	return models.GeneratedQuestion{
		ID:                util.NewULID(),
		GenerationID:      generationID,
		Position:          position,
		QuestionType:      string(q.Type),
		Difficulty:        string(q.Difficulty),
		Stem:              q.Stem,
		FeedbackCorrect:   util.StringToNullString(q.FeedbackCorrect),
		FeedbackIncorrect: util.StringToNullString(q.FeedbackIncorrect),
		CreatedAt:         now,
	}
}

func toModelAnswer(questionID string, position int, a domain.Answer, now time.Time) models.GeneratedAnswer {
	isCorrect := 0
	if a.IsCorrect {
		isCorrect = 1
	}
	return models.GeneratedAnswer{
		ID:         util.NewULID(),
		QuestionID: questionID,
		Position:   position,
		AnswerText: a.Text,
		IsCorrect:  isCorrect,
		Feedback:   util.StringToNullString(a.Feedback),
		CreatedAt:  now,
	}
}
