package parser

import (
	"encoding/json"
	"fmt"
	"quiz-forge/internal/domain"
	"regexp"
	"sort"
	"strings"
)

// PreviewLimit bounds the raw-text preview attached to a ParseError.
const PreviewLimit = 500

var (
	thinkPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")
)

// stemKeys are the keys a raw question may carry its question text under.
var stemKeys = []string{"stem", "question", "text", "prompt"}

// Parse recovers the list of raw question objects from model output.
// Decoding starts at the first '{' and at the first '[', in the order they
// appear; the first start that yields questions wins.
func Parse(raw string) ([]map[string]any, error) {
	text := strings.TrimSpace(thinkPattern.ReplaceAllString(raw, ""))
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	starts := jsonStarts(text)
	if len(starts) == 0 {
		return nil, newParseError(raw, "no JSON object found in model response", nil)
	}

	var firstErr error
	for _, start := range starts {
		value, err := decode(raw, text[start:])
		if err == nil {
			var questions []map[string]any
			if questions, err = extractQuestions(value); err == nil {
				return questions, nil
			}
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// jsonStarts returns the offsets of the first '{' and the first '[' in
// ascending order.
func jsonStarts(text string) []int {
	starts := make([]int, 0, 2)
	obj := strings.IndexByte(text, '{')
	arr := strings.IndexByte(text, '[')
	switch {
	case obj < 0 && arr < 0:
	case obj < 0:
		starts = append(starts, arr)
	case arr < 0:
		starts = append(starts, obj)
	case arr < obj:
		starts = append(starts, arr, obj)
	default:
		starts = append(starts, obj, arr)
	}
	return starts
}

// decode parses the JSON value text starts with, repairing common model
// mistakes once when strict decoding fails.
func decode(raw, text string) (any, error) {
	var value any
	firstErr := json.Unmarshal([]byte(bound(text)), &value)
	if firstErr == nil {
		return value, nil
	}

	repaired := repair(text)
	if err := json.Unmarshal([]byte(bound(repaired)), &value); err == nil {
		return value, nil
	}
	return nil, newParseError(raw, "model response is not valid JSON: "+firstErr.Error(), firstErr)
}

// bound returns the prefix of s holding one complete JSON value. s starts
// with '{' or '['. Brackets inside string literals are ignored. When the
// value never closes, s is returned unchanged.
func bound(s string) string {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return s
}

// repair applies the recovery heuristics in order: single to double quotes
// when the text has no double quotes at all, trailing commas, raw line
// breaks and tabs inside strings, and stray control characters.
func repair(s string) string {
	if !strings.Contains(s, `"`) && strings.Contains(s, "'") {
		s = strings.ReplaceAll(s, "'", `"`)
	}

	var b strings.Builder
	b.Grow(len(s) + 16)
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteByte(c)
			case c == '\\':
				escaped = true
				b.WriteByte(c)
			case c == '"':
				inString = false
				b.WriteByte(c)
			case c == '\n':
				b.WriteString(`\n`)
			case c == '\r':
				b.WriteString(`\r`)
			case c == '\t':
				b.WriteString(`\t`)
			case c < 0x20:
			default:
				b.WriteByte(c)
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
		case c == ',' && closesNext(s, i+1):
		case c < 0x20 && c != '\n' && c != '\t':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// closesNext reports whether the next non-space byte from i closes an
// object or array.
func closesNext(s string, i int) bool {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\n', '\r', '\t':
			continue
		case '}', ']':
			return true
		default:
			return false
		}
	}
	return false
}

func extractQuestions(value any) ([]map[string]any, error) {
	switch v := value.(type) {
	case []any:
		if looksLikeQuestions(v) {
			return toObjects(v), nil
		}
		return nil, domain.NewParseError("response JSON is not in a recognized format: top-level array does not hold questions", nil)
	case map[string]any:
		if arr, ok := v["questions"].([]any); ok {
			return toObjects(arr), nil
		}
		for _, parent := range []string{"quiz", "data"} {
			if nested, ok := v[parent].(map[string]any); ok {
				if arr, ok := nested["questions"].([]any); ok {
					return toObjects(arr), nil
				}
			}
		}

		keys := sortedKeys(v)
		for _, k := range keys {
			if arr, ok := v[k].([]any); ok && looksLikeQuestions(arr) {
				return toObjects(arr), nil
			}
		}
		if hasStemKey(v) {
			return []map[string]any{v}, nil
		}
		return nil, domain.NewParseError(
			fmt.Sprintf("response JSON is not in a recognized format; top-level keys: [%s]", strings.Join(keys, ", ")), nil).
			WithContext("keys", keys)
	}
	return nil, domain.NewParseError(fmt.Sprintf("response JSON is not in a recognized format: got %T", value), nil)
}

// looksLikeQuestions reports whether arr is non-empty and its first element
// is an object with a stem or type key.
func looksLikeQuestions(arr []any) bool {
	if len(arr) == 0 {
		return false
	}
	first, ok := arr[0].(map[string]any)
	if !ok {
		return false
	}
	if _, ok := first["type"]; ok {
		return true
	}
	return hasStemKey(first)
}

func hasStemKey(m map[string]any) bool {
	for _, k := range stemKeys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// toObjects keeps every item so indexes stay aligned with the model output.
// Non-object items become empty objects and fail validation.
func toObjects(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			m = map[string]any{}
		}
		out = append(out, m)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newParseError(raw, message string, cause error) *domain.DomainError {
	return domain.NewParseError(message, cause).WithContext("preview", Preview(raw))
}

// Preview truncates s to PreviewLimit runes for diagnostics.
func Preview(s string) string {
	r := []rune(s)
	if len(r) <= PreviewLimit {
		return s
	}
	return string(r[:PreviewLimit]) + "..."
}
