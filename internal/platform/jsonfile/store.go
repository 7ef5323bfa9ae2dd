package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/store"
)

const (
	questionsSuffix = "_questions.json"
	answersSuffix   = "_answers.json"

	fileMode fs.FileMode = 0o644
	dirMode  fs.FileMode = 0o755
)

// ErrInvalidRegionKey is returned when a region key would escape the data
// directory or produce an unusable filename.
var ErrInvalidRegionKey = errors.New("invalid region key")

// Store persists per-region question and answer sets as JSON files under a
// data directory. It implements store.RegionStore.
//
// Concurrent saves for the same region must be serialized by the caller;
// the orchestrators already guarantee a single writer per region.
type Store struct {
	dataDir string
}

// Compile-time check that Store satisfies the persistence interfaces.
var _ store.RegionStore = (*Store)(nil)

// New creates a Store rooted at dataDir, creating the directory if needed.
func New(dataDir string) (*Store, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data directory cannot be empty")
	}
	if err := os.MkdirAll(dataDir, dirMode); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dataDir, err)
	}
	return &Store{dataDir: dataDir}, nil
}

// LoadQuestions implements store.QuestionStore. A region that was never
// saved loads as an empty list.
func (s *Store) LoadQuestions(ctx context.Context, regionKey string) ([]domain.Question, error) {
	path, err := s.path(regionKey, questionsSuffix)
	if err != nil {
		return nil, err
	}
	questions := []domain.Question{}
	if err := s.load(ctx, path, &questions); err != nil {
		return nil, store.NewStoreError("question set", "load", "region "+regionKey, err)
	}
	return questions, nil
}

// SaveQuestions implements store.QuestionStore.
func (s *Store) SaveQuestions(ctx context.Context, regionKey string, questions []domain.Question) error {
	path, err := s.path(regionKey, questionsSuffix)
	if err != nil {
		return err
	}
	if questions == nil {
		questions = []domain.Question{}
	}
	if err := s.save(ctx, path, questions); err != nil {
		return store.NewStoreError("question set", "save", "region "+regionKey, err)
	}
	return nil
}

// LoadAnswers implements store.AnswerStore. A region that was never saved
// loads as an empty list.
func (s *Store) LoadAnswers(ctx context.Context, regionKey string) ([]domain.AnswerItem, error) {
	path, err := s.path(regionKey, answersSuffix)
	if err != nil {
		return nil, err
	}
	answers := []domain.AnswerItem{}
	if err := s.load(ctx, path, &answers); err != nil {
		return nil, store.NewStoreError("answer set", "load", "region "+regionKey, err)
	}
	return answers, nil
}

// SaveAnswers implements store.AnswerStore.
func (s *Store) SaveAnswers(ctx context.Context, regionKey string, answers []domain.AnswerItem) error {
	path, err := s.path(regionKey, answersSuffix)
	if err != nil {
		return err
	}
	if answers == nil {
		answers = []domain.AnswerItem{}
	}
	if err := s.save(ctx, path, answers); err != nil {
		return store.NewStoreError("answer set", "save", "region "+regionKey, err)
	}
	return nil
}

// path builds the file path for a region key, rejecting keys that would
// escape the data directory.
func (s *Store) path(regionKey, suffix string) (string, error) {
	key := strings.TrimSpace(regionKey)
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, os.PathSeparator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRegionKey, regionKey)
	}
	return filepath.Join(s.dataDir, key+suffix), nil
}

// load reads and decodes one collection file. A missing file is an empty
// collection, not an error.
func (s *Store) load(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// save encodes the collection and replaces the target file atomically:
// write to a temp file in the same directory, then rename over the target.
// A crash mid-save leaves the previous file intact.
func (s *Store) save(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dataDir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
