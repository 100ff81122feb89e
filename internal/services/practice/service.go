package practice

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/enums"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
	pgrepo "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/repo/postgres"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/progress"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidMode           = errors.New("invalid practice mode")
	ErrTopicRequired         = errors.New("topic is required for topic mode")
	ErrTopicNotFound         = errors.New("topic not found")
	ErrNoActiveCertification = errors.New("user has no active certification")
	ErrNoQuestions           = errors.New("no questions available")
	ErrUserNotFound          = errors.New("user not found")
)

type QuestionStore interface {
	PickRandomForUser(ctx context.Context, topicID, userID int64, preferUnseen bool) (model.Question, error)
}

type TopicStore interface {
	ListByCertification(ctx context.Context, certificationID int64) ([]model.Topic, error)
	GetByID(ctx context.Context, topicID int64) (model.Topic, error)
}

type UserStore interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
}

type WeaknessSource interface {
	TopicWeakness(ctx context.Context, userID, topicID int64, window time.Duration) (progress.Weakness, error)
}

// NextQuestion output. Topic is included so clients can show where the
// adaptive picker sent the user; Weakness is set only in general mode.
type Pick struct {
	Question model.Question     `json:"question"`
	Topic    model.Topic        `json:"topic"`
	Mode     enums.PracticeMode `json:"mode"`
	Weakness *progress.Weakness `json:"weakness,omitempty"`
}

// Service selects the next question to show. General mode steers toward
// the user's weakest topic, topic mode drills one topic, exam mode samples
// the whole certification uniformly.
type Service struct {
	questions    QuestionStore
	topics       TopicStore
	users        UserStore
	weakness     WeaknessSource
	recentWindow time.Duration
	randIntn     func(n int) int
}

func NewService(questions QuestionStore, topics TopicStore, users UserStore, weakness WeaknessSource, recentWindow time.Duration) *Service {
	if recentWindow < 0 {
		recentWindow = 0
	}
	return &Service{
		questions:    questions,
		topics:       topics,
		users:        users,
		weakness:     weakness,
		recentWindow: recentWindow,
		randIntn:     rand.Intn,
	}
}

// NextQuestion picks a question for the user in the given mode. topicID is
// required in topic mode and ignored otherwise.
func (s *Service) NextQuestion(ctx context.Context, userID int64, rawMode string, topicID *int64) (Pick, error) {
	if userID <= 0 {
		return Pick{}, ErrInvalidInput
	}
	mode, err := enums.ParsePracticeMode(rawMode)
	if err != nil {
		return Pick{}, ErrInvalidMode
	}

	switch mode {
	case enums.PracticeModeTopic:
		if topicID == nil || *topicID <= 0 {
			return Pick{}, ErrTopicRequired
		}
		return s.pickFromTopic(ctx, userID, *topicID, mode, true, nil)
	case enums.PracticeModeGeneral:
		return s.pickAdaptive(ctx, userID)
	case enums.PracticeModeExam:
		return s.pickExam(ctx, userID)
	default:
		return Pick{}, ErrInvalidMode
	}
}

// pickAdaptive chooses the weakest topic in the user's active certification
// and draws from it, preferring questions the user has not seen. Topics
// with no recorded attempts rank above every scored topic, so new material
// is surfaced before drilling known weaknesses.
func (s *Service) pickAdaptive(ctx context.Context, userID int64) (Pick, error) {
	topics, err := s.activeTopics(ctx, userID)
	if err != nil {
		return Pick{}, err
	}

	var (
		chosen      *model.Topic
		chosenScore progress.Weakness
	)
	for i := range topics {
		w, err := s.weakness.TopicWeakness(ctx, userID, topics[i].ID, s.recentWindow)
		if err != nil {
			return Pick{}, fmt.Errorf("topic weakness: %w", err)
		}
		if !w.HasData {
			chosen, chosenScore = &topics[i], w
			break
		}
		if chosen == nil || w.Score > chosenScore.Score {
			chosen, chosenScore = &topics[i], w
			continue
		}
		// Equal scores fall to the heavier exam topic.
		if w.Score == chosenScore.Score && topics[i].WeightPercentage > chosen.WeightPercentage {
			chosen, chosenScore = &topics[i], w
		}
	}
	if chosen == nil {
		return Pick{}, ErrNoQuestions
	}

	pick, err := s.pickFromTopic(ctx, userID, chosen.ID, enums.PracticeModeGeneral, true, &chosenScore)
	if err == nil || !errors.Is(err, ErrNoQuestions) {
		return pick, err
	}

	// The weakest topic can be empty. Fall through the rest in order.
	for i := range topics {
		if topics[i].ID == chosen.ID {
			continue
		}
		pick, err := s.pickFromTopic(ctx, userID, topics[i].ID, enums.PracticeModeGeneral, true, nil)
		if err == nil {
			return pick, nil
		}
		if !errors.Is(err, ErrNoQuestions) {
			return Pick{}, err
		}
	}
	return Pick{}, ErrNoQuestions
}

// pickExam samples uniformly across the certification's topics, letting the
// storage pick a random question with no unseen preference. Empty topics are
// skipped by continuing around the ring from a random start.
func (s *Service) pickExam(ctx context.Context, userID int64) (Pick, error) {
	topics, err := s.activeTopics(ctx, userID)
	if err != nil {
		return Pick{}, err
	}

	start := s.randIntn(len(topics))
	for i := range topics {
		topic := topics[(start+i)%len(topics)]
		pick, err := s.pickFromTopic(ctx, userID, topic.ID, enums.PracticeModeExam, false, nil)
		if err == nil {
			return pick, nil
		}
		if !errors.Is(err, ErrNoQuestions) {
			return Pick{}, err
		}
	}
	return Pick{}, ErrNoQuestions
}

func (s *Service) pickFromTopic(ctx context.Context, userID, topicID int64, mode enums.PracticeMode, preferUnseen bool, weakness *progress.Weakness) (Pick, error) {
	topic, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrTopicNotFound) {
			return Pick{}, ErrTopicNotFound
		}
		return Pick{}, fmt.Errorf("get topic: %w", err)
	}

	question, err := s.questions.PickRandomForUser(ctx, topicID, userID, preferUnseen)
	if err != nil {
		if errors.Is(err, pgrepo.ErrQuestionNotFound) {
			return Pick{}, ErrNoQuestions
		}
		return Pick{}, fmt.Errorf("pick question: %w", err)
	}

	return Pick{Question: question, Topic: topic, Mode: mode, Weakness: weakness}, nil
}

func (s *Service) activeTopics(ctx context.Context, userID int64) ([]model.Topic, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.ActiveCertificationID == nil {
		return nil, ErrNoActiveCertification
	}

	topics, err := s.topics.ListByCertification(ctx, *user.ActiveCertificationID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	if len(topics) == 0 {
		return nil, ErrNoQuestions
	}
	return topics, nil
}
