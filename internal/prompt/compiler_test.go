package prompt

import (
	"encoding/json"
	"quiz-forge/internal/domain"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContent = "Photosynthesis converts light energy into chemical energy stored in glucose."

func TestCompile_IsDeterministic(t *testing.T) {
	params := Params{
		Count:            7,
		Types:            []domain.QuestionType{domain.QuestionTypeTrueFalse, domain.QuestionTypeMultipleChoice},
		Difficulties:     []domain.Difficulty{domain.DifficultyHard, domain.DifficultyEasy},
		AnswerCount:      5,
		GenerateFeedback: true,
	}
	first := Compile(sampleContent, params)
	second := Compile(sampleContent, params)
	assert.Equal(t, first, second)

	// equivalent parameter sets in a different order render the same prompt
	reordered := params
	reordered.Types = []domain.QuestionType{domain.QuestionTypeMultipleChoice, domain.QuestionTypeTrueFalse}
	reordered.Difficulties = []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyHard}
	assert.Equal(t, first, Compile(sampleContent, reordered))
}

func TestCompile_OutputContract(t *testing.T) {
	p := Compile(sampleContent, Params{Count: 3, AnswerCount: 4})

	assert.Contains(t, p.System, `{"questions": [...]}`)
	assert.Contains(t, p.System, "Do not wrap the JSON in markdown code fences")
	assert.Contains(t, p.User, "Generate exactly 3 questions")
	assert.Contains(t, p.User, ContentBegin+"\n"+sampleContent+"\n"+ContentEnd)
}

func TestCompile_TypeRuleBlocksInCanonicalOrder(t *testing.T) {
	p := Compile(sampleContent, Params{
		Count:       6,
		Types:       []domain.QuestionType{domain.QuestionTypeTrueFalse, domain.QuestionTypeMultipleAnswer, domain.QuestionTypeMultipleChoice},
		AnswerCount: 5,
	})

	mc := strings.Index(p.System, `- "mc"`)
	ma := strings.Index(p.System, `- "ma"`)
	tf := strings.Index(p.System, `- "tf"`)
	require.True(t, mc >= 0 && ma >= 0 && tf >= 0)
	assert.True(t, mc < ma && ma < tf)

	assert.Contains(t, p.System, "exactly 5 options, exactly 1 option")
	assert.Contains(t, p.System, "exactly 5 options, between 2 and 4 options")
	assert.Contains(t, p.System, `literal texts "True" and "False"`)
}

func TestCompile_OnlyRequestedTypes(t *testing.T) {
	p := Compile(sampleContent, Params{Count: 2, Types: []domain.QuestionType{domain.QuestionTypeTrueFalse}, AnswerCount: 4})

	assert.NotContains(t, p.System, `- "mc"`)
	assert.NotContains(t, p.System, `- "ma"`)
	assert.Contains(t, p.System, "Example True/False question")
	assert.NotContains(t, p.System, "Example Multiple Choice question")
}

func TestDistribute(t *testing.T) {
	tests := []struct {
		name         string
		count        int
		difficulties []domain.Difficulty
		expected     []DifficultyBucket
	}{
		{
			name:         "single difficulty takes all",
			count:        5,
			difficulties: []domain.Difficulty{domain.DifficultyHard},
			expected:     []DifficultyBucket{{domain.DifficultyHard, 5}},
		},
		{
			name:         "even split",
			count:        4,
			difficulties: []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyHard},
			expected:     []DifficultyBucket{{domain.DifficultyEasy, 2}, {domain.DifficultyHard, 2}},
		},
		{
			name:         "last bucket short",
			count:        7,
			difficulties: []domain.Difficulty{domain.DifficultyExpert, domain.DifficultyEasy, domain.DifficultyMedium},
			expected: []DifficultyBucket{
				{domain.DifficultyEasy, 3},
				{domain.DifficultyMedium, 3},
				{domain.DifficultyExpert, 1},
			},
		},
		{
			name:         "fewer questions than levels",
			count:        2,
			difficulties: domain.AllDifficulties,
			expected:     []DifficultyBucket{{domain.DifficultyEasy, 1}, {domain.DifficultyMedium, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Distribute(tt.count, tt.difficulties))
		})
	}
}

func TestCompile_DifficultyInstruction(t *testing.T) {
	single := Compile(sampleContent, Params{Count: 3, Difficulties: []domain.Difficulty{domain.DifficultyEasy}, AnswerCount: 4})
	assert.Contains(t, single.System, `All 3 questions must have "difficulty": "easy".`)

	multi := Compile(sampleContent, Params{Count: 7, Difficulties: []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyExpert}, AnswerCount: 4})
	assert.Contains(t, multi.System, "3 easy, 3 medium, 1 expert")
}

// extractExample returns the JSON example that follows the given header.
func extractExample(t *testing.T, system, header string) map[string]interface{} {
	t.Helper()
	idx := strings.Index(system, header)
	require.GreaterOrEqual(t, idx, 0)
	rest := system[idx+len(header):]
	start := strings.Index(rest, "{")
	end := strings.Index(rest, "\n}")
	require.True(t, start >= 0 && end > start)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(rest[start:end+2]), &out))
	return out
}

func TestCompile_ExamplesMirrorFeedbackFlag(t *testing.T) {
	types := []domain.QuestionType{domain.QuestionTypeMultipleChoice, domain.QuestionTypeMultipleAnswer, domain.QuestionTypeTrueFalse}

	t.Run("WithoutFeedback", func(t *testing.T) {
		p := Compile(sampleContent, Params{Count: 3, Types: types, AnswerCount: 4})
		assert.NotContains(t, p.System, `"feedback"`)
		assert.NotContains(t, p.System, `"feedback_correct"`)
		assert.NotContains(t, p.System, `"feedback_incorrect"`)

		mc := extractExample(t, p.System, "Example Multiple Choice question:")
		answers := mc["answers"].([]interface{})
		assert.Len(t, answers, 4)

		ma := extractExample(t, p.System, "Example Multiple Answer question:")
		assert.Len(t, ma["answers"].([]interface{}), 4)

		tf := extractExample(t, p.System, "Example True/False question:")
		tfAnswers := tf["answers"].([]interface{})
		require.Len(t, tfAnswers, 2)
		assert.Equal(t, "True", tfAnswers[0].(map[string]interface{})["text"])
		assert.Equal(t, "False", tfAnswers[1].(map[string]interface{})["text"])
	})

	t.Run("WithFeedback", func(t *testing.T) {
		p := Compile(sampleContent, Params{Count: 3, Types: types, AnswerCount: 6, GenerateFeedback: true})

		mc := extractExample(t, p.System, "Example Multiple Choice question:")
		assert.Contains(t, mc, "feedback_correct")
		assert.Contains(t, mc, "feedback_incorrect")
		answers := mc["answers"].([]interface{})
		assert.Len(t, answers, 6)
		for _, a := range answers {
			assert.Contains(t, a.(map[string]interface{}), "feedback")
		}
	})
}
