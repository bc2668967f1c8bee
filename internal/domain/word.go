package domain

import (
	"fmt"
	"strings"
)

// Common validation errors for Word
var (
	ErrEmptyWordToken    = fmt.Errorf("%w: word token cannot be empty", ErrValidation)
	ErrEmptyWordFilename = fmt.Errorf("%w: word filename cannot be empty", ErrValidation)
	ErrEmptyWordFilepath = fmt.Errorf("%w: word filepath cannot be empty", ErrValidation)
)

// Word is one whitespace-delimited token extracted from an uploaded file.
// All words from the same upload share Filename and Filepath; there is no
// separate file entity.
type Word struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
	Token    string `json:"token"`
}

// NewWord creates a Word for the given source file and token.
// Returns an error if validation fails.
func NewWord(filename, filepath, token string) (*Word, error) {
	w := &Word{
		Filename: filename,
		Filepath: filepath,
		Token:    token,
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}

	return w, nil
}

// Validate checks if the Word has valid data.
func (w *Word) Validate() error {
	if w.Token == "" {
		return ErrEmptyWordToken
	}

	if w.Filename == "" {
		return ErrEmptyWordFilename
	}

	if w.Filepath == "" {
		return ErrEmptyWordFilepath
	}

	return nil
}

// Tokenize splits content on runs of whitespace. Punctuation and case are
// preserved, and the result never contains empty tokens.
func Tokenize(content string) []string {
	return strings.Fields(content)
}

// WordsFromContent builds one Word per token in content, all sharing the
// given source file metadata. Empty content yields an empty slice.
func WordsFromContent(filename, filepath, content string) ([]*Word, error) {
	tokens := Tokenize(content)
	words := make([]*Word, 0, len(tokens))

	for _, token := range tokens {
		w, err := NewWord(filename, filepath, token)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}

	return words, nil
}
