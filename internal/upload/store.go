package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

// Errors returned by Store.
var (
	// ErrNoFilename is returned when the client sent an empty filename.
	ErrNoFilename = errors.New("no file selected")

	// ErrExtensionNotAllowed is returned for files outside the allowed extensions.
	ErrExtensionNotAllowed = errors.New("file extension not allowed")

	// ErrInvalidFilename is returned when nothing usable is left after sanitising.
	ErrInvalidFilename = errors.New("invalid filename")
)

// SavedFile describes an upload written to storage.
type SavedFile struct {
	// Filename is the sanitised name.
	Filename string
	// Path is where the file was written.
	Path string
	// Size is the number of bytes written.
	Size int64
}

// Store writes uploads into a single flat directory. A later upload with
// the same sanitised name replaces the earlier file.
type Store struct {
	fs                afero.Fs
	dir               string
	allowedExtensions []string
	logger            *slog.Logger
}

// NewStore creates a Store writing into dir on fs.
func NewStore(fs afero.Fs, dir string, allowedExtensions []string, logger *slog.Logger) *Store {
	return &Store{
		fs:                fs,
		dir:               dir,
		allowedExtensions: allowedExtensions,
		logger:            logger,
	}
}

// Fs returns the filesystem uploads are written to, so readers can share it.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// EnsureDir creates the upload directory if it does not exist.
func (s *Store) EnsureDir() error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory %s: %w", s.dir, err)
	}
	return nil
}

// Validate checks a client supplied filename and returns the sanitised name.
// The extension is checked on the name as sent by the client.
func (s *Store) Validate(clientName string) (string, error) {
	if clientName == "" {
		return "", ErrNoFilename
	}
	if !ExtensionAllowed(clientName, s.allowedExtensions) {
		return "", fmt.Errorf("%w: %q", ErrExtensionNotAllowed, Extension(clientName))
	}

	name := SanitizeFilename(clientName)
	if name == "" {
		return "", ErrInvalidFilename
	}
	return name, nil
}

// Save validates clientName and copies r into the upload directory. The
// content is written to a temporary file first and renamed into place, so
// readers never see a partially written upload.
func (s *Store) Save(clientName string, r io.Reader) (SavedFile, error) {
	name, err := s.Validate(clientName)
	if err != nil {
		return SavedFile{}, err
	}

	if err := s.EnsureDir(); err != nil {
		return SavedFile{}, err
	}

	tmp, err := afero.TempFile(s.fs, s.dir, ".upload-*")
	if err != nil {
		return SavedFile{}, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	size, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = s.fs.Remove(tmpName)
		return SavedFile{}, fmt.Errorf("failed to write upload: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := s.fs.Rename(tmpName, path); err != nil {
		_ = s.fs.Remove(tmpName)
		return SavedFile{}, fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.Debug("stored upload", "filename", name, "size", size)
	return SavedFile{Filename: name, Path: path, Size: size}, nil
}
