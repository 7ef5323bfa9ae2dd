package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/quarryhq/quarry/internal/domain"
)

// stubPool satisfies TaskPool by running every task inline through a
// test-provided function. Submissions are recorded for assertions.
type stubPool struct {
	mu        sync.Mutex
	execute   func(ctx context.Context, task domain.Task) (domain.TaskResult, error)
	submitted []domain.Task
}

func (p *stubPool) Submit(ctx context.Context, task domain.Task) (domain.TaskResult, error) {
	p.mu.Lock()
	p.submitted = append(p.submitted, task)
	fn := p.execute
	p.mu.Unlock()
	return fn(ctx, task)
}

func (p *stubPool) submissions() []domain.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Task, len(p.submitted))
	copy(out, p.submitted)
	return out
}

// memStore is an in-memory RegionStore with failure toggles and snapshots
// of every save, so tests can assert persistence boundaries.
type memStore struct {
	mu        sync.Mutex
	questions map[string][]domain.Question
	answers   map[string][]domain.AnswerItem

	failQuestionLoad bool
	failAnswerLoad   bool
	failQuestionSave bool
	failAnswerSave   bool

	questionSaveLog [][]domain.Question
	answerSaveLog   [][]domain.AnswerItem
}

func newMemStore() *memStore {
	return &memStore{
		questions: make(map[string][]domain.Question),
		answers:   make(map[string][]domain.AnswerItem),
	}
}

func (s *memStore) LoadQuestions(ctx context.Context, regionKey string) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failQuestionLoad {
		return nil, fmt.Errorf("stub: question load failure")
	}
	return cloneQuestions(s.questions[regionKey]), nil
}

func (s *memStore) SaveQuestions(ctx context.Context, regionKey string, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failQuestionSave {
		return fmt.Errorf("stub: question save failure")
	}
	snapshot := cloneQuestions(questions)
	s.questions[regionKey] = snapshot
	s.questionSaveLog = append(s.questionSaveLog, snapshot)
	return nil
}

func (s *memStore) LoadAnswers(ctx context.Context, regionKey string) ([]domain.AnswerItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAnswerLoad {
		return nil, fmt.Errorf("stub: answer load failure")
	}
	return cloneAnswers(s.answers[regionKey]), nil
}

func (s *memStore) SaveAnswers(ctx context.Context, regionKey string, answers []domain.AnswerItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAnswerSave {
		return fmt.Errorf("stub: answer save failure")
	}
	snapshot := cloneAnswers(answers)
	s.answers[regionKey] = snapshot
	s.answerSaveLog = append(s.answerSaveLog, snapshot)
	return nil
}

func (s *memStore) questionSaves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questionSaveLog)
}

func (s *memStore) answerSaves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answerSaveLog)
}

func (s *memStore) storedQuestions(regionKey string) []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneQuestions(s.questions[regionKey])
}

func (s *memStore) storedAnswers(regionKey string) []domain.AnswerItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAnswers(s.answers[regionKey])
}

func cloneQuestions(qs []domain.Question) []domain.Question {
	out := make([]domain.Question, len(qs))
	copy(out, qs)
	return out
}

func cloneAnswers(as []domain.AnswerItem) []domain.AnswerItem {
	out := make([]domain.AnswerItem, len(as))
	copy(out, as)
	return out
}

// memRunStore is an in-memory RunStore.
type memRunStore struct {
	mu      sync.Mutex
	runs    []domain.RunRecord
	saveErr error
}

func (s *memRunStore) SaveRun(ctx context.Context, run domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.runs = append(s.runs, run)
	return nil
}

func (s *memRunStore) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.runs) {
		limit = len(s.runs)
	}
	out := make([]domain.RunRecord, limit)
	copy(out, s.runs[len(s.runs)-limit:])
	return out, nil
}

func (s *memRunStore) savedRuns() []domain.RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RunRecord, len(s.runs))
	copy(out, s.runs)
	return out
}

// uniqueQuestionText builds texts distant enough from one another that the
// near-duplicate filter never drops them. Valid for ids below 26.
func uniqueQuestionText(id int) string {
	letter := rune('a' + id%26)
	return fmt.Sprintf("q%d %s", id, strings.Repeat(string(letter), 3+id%7))
}
