package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/enums"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
	pgrepo "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/repo/postgres"
	redrepo "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/repo/redis"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidMode      = errors.New("invalid practice mode")
	ErrQuestionNotFound = errors.New("question not found")
)

type AttemptStore interface {
	Insert(ctx context.Context, userID, questionID int64, isCorrect bool, selectedAnswer string, timeSpent *int, mode enums.PracticeMode, attemptedAt time.Time) (model.Attempt, error)
	TopicStats(ctx context.Context, userID, topicID int64, since time.Time) (pgrepo.TopicStats, error)
	ForEach(ctx context.Context, userID int64, questionID *int64, fn func(model.Attempt) error) error
	ListHistory(ctx context.Context, userID int64, questionID *int64) ([]model.Attempt, error)
}

type QuestionStore interface {
	GetByID(ctx context.Context, questionID int64) (model.Question, error)
}

type StatsCache interface {
	GetWeakness(ctx context.Context, userID, topicID, windowSec int64) (redrepo.CachedWeakness, bool, error)
	SetWeakness(ctx context.Context, userID, topicID, windowSec int64, value redrepo.CachedWeakness) error
	BumpGeneration(ctx context.Context, userID int64) error
}

// RecordInput is one answer submission. Mode arrives as the raw client
// string and is parsed here so the ledger only ever holds valid modes.
type RecordInput struct {
	UserID           int64
	QuestionID       int64
	SelectedAnswer   string
	TimeSpentSeconds *int
	Mode             string
}

// Weakness is the derived per-topic score: 1 - correct/total over the
// attempts in the window. HasData separates "never practiced" from a
// genuine zero score.
type Weakness struct {
	TopicID int64   `json:"topic_id"`
	Score   float64 `json:"score"`
	HasData bool    `json:"has_data"`
	Total   int64   `json:"total"`
	Correct int64   `json:"correct"`
}

// Service owns the attempt ledger. Writes are append-only; every score is
// derived from the rows, with redis as a throwaway cache in front.
type Service struct {
	attempts  AttemptStore
	questions QuestionStore
	cache     StatsCache
	now       func() time.Time
}

func NewService(attempts AttemptStore, questions QuestionStore, cache StatsCache) *Service {
	return &Service{
		attempts:  attempts,
		questions: questions,
		cache:     cache,
		now:       time.Now,
	}
}

// Record appends one attempt. Correctness is decided here, not trusted from
// the client: the selected answer must equal the stored correct answer
// byte for byte, so "a" does not match "A" and " B" does not match "B".
func (s *Service) Record(ctx context.Context, in RecordInput) (model.Attempt, error) {
	if in.UserID <= 0 || in.QuestionID <= 0 || in.SelectedAnswer == "" {
		return model.Attempt{}, ErrInvalidInput
	}
	if in.TimeSpentSeconds != nil && *in.TimeSpentSeconds < 0 {
		return model.Attempt{}, ErrInvalidInput
	}

	mode, err := enums.ParsePracticeMode(in.Mode)
	if err != nil {
		return model.Attempt{}, ErrInvalidMode
	}

	question, err := s.questions.GetByID(ctx, in.QuestionID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrQuestionNotFound) {
			return model.Attempt{}, ErrQuestionNotFound
		}
		return model.Attempt{}, fmt.Errorf("get question: %w", err)
	}

	isCorrect := in.SelectedAnswer == question.CorrectAnswer

	attempt, err := s.attempts.Insert(ctx, in.UserID, in.QuestionID, isCorrect, in.SelectedAnswer, in.TimeSpentSeconds, mode, s.now().UTC())
	if err != nil {
		return model.Attempt{}, fmt.Errorf("insert attempt: %w", err)
	}

	// Every cached score for this user is now stale. A failed bump only
	// delays freshness until the TTL, so it never fails the write.
	if s.cache != nil {
		_ = s.cache.BumpGeneration(ctx, in.UserID)
	}

	return attempt, nil
}

// TopicWeakness computes the weakness score for one topic, optionally
// restricted to attempts within the window (zero means all time). Scores
// are served from cache when present and recomputed from the ledger
// otherwise.
func (s *Service) TopicWeakness(ctx context.Context, userID, topicID int64, window time.Duration) (Weakness, error) {
	if userID <= 0 || topicID <= 0 || window < 0 {
		return Weakness{}, ErrInvalidInput
	}

	windowSec := int64(window / time.Second)
	if s.cache != nil {
		cached, ok, err := s.cache.GetWeakness(ctx, userID, topicID, windowSec)
		if err == nil && ok {
			return Weakness{
				TopicID: topicID,
				Score:   cached.Score,
				HasData: cached.HasData,
				Total:   cached.Total,
				Correct: cached.Correct,
			}, nil
		}
	}

	var since time.Time
	if window > 0 {
		since = s.now().UTC().Add(-window)
	}

	stats, err := s.attempts.TopicStats(ctx, userID, topicID, since)
	if err != nil {
		return Weakness{}, fmt.Errorf("topic stats: %w", err)
	}

	weakness := Weakness{TopicID: topicID}
	if stats.Total > 0 {
		weakness.HasData = true
		weakness.Total = stats.Total
		weakness.Correct = stats.Correct
		weakness.Score = 1 - float64(stats.Correct)/float64(stats.Total)
	}

	if s.cache != nil {
		_ = s.cache.SetWeakness(ctx, userID, topicID, windowSec, redrepo.CachedWeakness{
			Score:   weakness.Score,
			HasData: weakness.HasData,
			Total:   weakness.Total,
			Correct: weakness.Correct,
		})
	}

	return weakness, nil
}

// History returns the user's attempts oldest first, optionally filtered to
// one question.
func (s *Service) History(ctx context.Context, userID int64, questionID *int64) ([]model.Attempt, error) {
	if userID <= 0 || (questionID != nil && *questionID <= 0) {
		return nil, ErrInvalidInput
	}

	attempts, err := s.attempts.ListHistory(ctx, userID, questionID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return attempts, nil
}

// ForEachAttempt streams the user's attempts oldest first without loading
// them all into memory. Each call starts a fresh scan from the beginning.
func (s *Service) ForEachAttempt(ctx context.Context, userID int64, questionID *int64, fn func(model.Attempt) error) error {
	if userID <= 0 || (questionID != nil && *questionID <= 0) {
		return ErrInvalidInput
	}
	if fn == nil {
		return ErrInvalidInput
	}

	if err := s.attempts.ForEach(ctx, userID, questionID, fn); err != nil {
		return fmt.Errorf("scan attempts: %w", err)
	}
	return nil
}
