package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/phrazzld/wordqueue/internal/domain"
	"github.com/phrazzld/wordqueue/internal/platform/logger"
	"github.com/phrazzld/wordqueue/internal/store"
	"github.com/spf13/afero"
)

// IngestPayload identifies the uploaded file to ingest.
type IngestPayload struct {
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
}

// IngestResult is stored as the result of a successful ingestion.
type IngestResult struct {
	Filename   string `json:"filename"`
	Filepath   string `json:"filepath"`
	TokenCount int    `json:"token_count"`
}

// IngestTask reads an uploaded text file, splits it into whitespace
// delimited tokens and stores one word per token.
type IngestTask struct {
	fs     afero.Fs
	words  store.WordStore
	logger *slog.Logger
}

var _ Executor = (*IngestTask)(nil)

// NewIngestTask creates an ingestion body reading files from fs.
func NewIngestTask(fs afero.Fs, words store.WordStore, logger *slog.Logger) *IngestTask {
	return &IngestTask{
		fs:     fs,
		words:  words,
		logger: logger,
	}
}

// Execute implements Executor. Either every token of the file is stored or,
// on error, none are.
func (t *IngestTask) Execute(ctx context.Context, payload json.RawMessage, _ ProgressReporter) (any, error) {
	var p IngestPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.Filename == "" || p.Filepath == "" {
		return nil, fmt.Errorf("%w: filename and filepath are required", ErrInvalidPayload)
	}

	log := logger.FromContextOrDefault(ctx, t.logger)

	content, err := afero.ReadFile(t.fs, p.Filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.Filename, err)
	}

	words, err := domain.WordsFromContent(p.Filename, p.Filepath, string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize %s: %w", p.Filename, err)
	}

	if err := t.words.CreateMany(ctx, words); err != nil {
		return nil, fmt.Errorf("failed to store words for %s: %w", p.Filename, err)
	}

	log.Info("file ingested",
		"filename", p.Filename,
		"token_count", len(words))

	return IngestResult{
		Filename:   p.Filename,
		Filepath:   p.Filepath,
		TokenCount: len(words),
	}, nil
}
