package content

import (
	"context"
	"path/filepath"
	"quiz-forge/internal/domain"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// FileExtractor reads plain text out of text, markdown and HTML uploads.
// Binary formats are handled by a separate extraction service.
type FileExtractor struct {
	maxChars int
	policy   *bluemonday.Policy
}

var _ domain.ContentExtractor = (*FileExtractor)(nil)

func NewFileExtractor(maxChars int) *FileExtractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &FileExtractor{maxChars: maxChars, policy: bluemonday.StrictPolicy()}
}

func (e *FileExtractor) Extract(ctx context.Context, filename string, data []byte) (*domain.ExtractedContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, domain.NewContentError("file is not valid UTF-8 text").
			WithContext("filename", filename)
	}

	text := string(data)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown", "":
	case ".html", ".htm":
		text = stripMarkup(e.policy, text)
	default:
		return nil, domain.NewInvalidInputError("unsupported file type: " + filepath.Ext(filename)).
			WithContext("filename", filename)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewContentError("no text could be extracted from the file").
			WithContext("filename", filename)
	}

	out := &domain.ExtractedContent{Text: text, CharCount: utf8.RuneCountInString(text)}
	if out.CharCount > e.maxChars {
		out.Text = truncateAtSentence([]rune(text), e.maxChars)
		out.WasTruncated = true
	}
	return out, nil
}
