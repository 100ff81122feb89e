package practice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/enums"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
	pgrepo "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/repo/postgres"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/progress"
)

func TestGeneralModePicksWeakestTopic(t *testing.T) {
	svc, fx := newServiceForTest(t)
	fx.weakness.scores = map[int64]progress.Weakness{
		10: {TopicID: 10, Score: 0.2, HasData: true},
		20: {TopicID: 20, Score: 0.8, HasData: true},
		30: {TopicID: 30, Score: 0.5, HasData: true},
	}

	pick, err := svc.NextQuestion(context.Background(), 7, "general", nil)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if pick.Topic.ID != 20 {
		t.Fatalf("picked topic %d, want weakest topic 20", pick.Topic.ID)
	}
	if pick.Weakness == nil || pick.Weakness.Score != 0.8 {
		t.Fatalf("pick did not carry the weakness score: %+v", pick.Weakness)
	}
	if !fx.questions.lastPreferUnseen {
		t.Fatalf("general mode should prefer unseen questions")
	}
}

func TestGeneralModeBreaksTiesByWeight(t *testing.T) {
	svc, fx := newServiceForTest(t)
	fx.topics.topics[0].WeightPercentage = 20
	fx.topics.topics[1].WeightPercentage = 50
	fx.topics.topics[2].WeightPercentage = 30
	fx.weakness.scores = map[int64]progress.Weakness{
		10: {TopicID: 10, Score: 0.5, HasData: true},
		20: {TopicID: 20, Score: 0.5, HasData: true},
		30: {TopicID: 30, Score: 0.5, HasData: true},
	}

	pick, err := svc.NextQuestion(context.Background(), 7, "general", nil)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if pick.Topic.ID != 20 {
		t.Fatalf("picked topic %d, want heaviest tied topic 20", pick.Topic.ID)
	}
}

func TestGeneralModeSurfacesUnpracticedTopicFirst(t *testing.T) {
	svc, fx := newServiceForTest(t)
	fx.weakness.scores = map[int64]progress.Weakness{
		10: {TopicID: 10, Score: 0.9, HasData: true},
		// Topic 20 has no recorded attempts.
		30: {TopicID: 30, Score: 0.7, HasData: true},
	}

	pick, err := svc.NextQuestion(context.Background(), 7, "general", nil)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if pick.Topic.ID != 20 {
		t.Fatalf("picked topic %d, want unpracticed topic 20", pick.Topic.ID)
	}
}

func TestGeneralModeFallsBackWhenWeakestTopicEmpty(t *testing.T) {
	svc, fx := newServiceForTest(t)
	fx.weakness.scores = map[int64]progress.Weakness{
		10: {TopicID: 10, Score: 0.1, HasData: true},
		20: {TopicID: 20, Score: 0.9, HasData: true},
		30: {TopicID: 30, Score: 0.2, HasData: true},
	}
	fx.questions.empty[20] = true

	pick, err := svc.NextQuestion(context.Background(), 7, "general", nil)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if pick.Topic.ID == 20 {
		t.Fatalf("picked a topic with no questions")
	}
}

func TestTopicModeDrillsRequestedTopic(t *testing.T) {
	svc, fx := newServiceForTest(t)

	topicID := int64(30)
	pick, err := svc.NextQuestion(context.Background(), 7, "Topic", &topicID)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if pick.Topic.ID != 30 {
		t.Fatalf("picked topic %d, want 30", pick.Topic.ID)
	}
	if pick.Mode != enums.PracticeModeTopic {
		t.Fatalf("pick mode = %q, want topic", pick.Mode)
	}
	if !fx.questions.lastPreferUnseen {
		t.Fatalf("topic mode should prefer unseen questions")
	}
	if pick.Weakness != nil {
		t.Fatalf("topic mode should not compute weakness")
	}
}

func TestTopicModeValidation(t *testing.T) {
	svc, _ := newServiceForTest(t)
	ctx := context.Background()

	if _, err := svc.NextQuestion(ctx, 7, "topic", nil); !errors.Is(err, ErrTopicRequired) {
		t.Fatalf("missing topic: got %v, want ErrTopicRequired", err)
	}
	unknown := int64(999)
	if _, err := svc.NextQuestion(ctx, 7, "topic", &unknown); !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("unknown topic: got %v, want ErrTopicNotFound", err)
	}
	if _, err := svc.NextQuestion(ctx, 7, "adaptive", nil); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("bad mode: got %v, want ErrInvalidMode", err)
	}
}

func TestExamModeSamplesUniformly(t *testing.T) {
	svc, fx := newServiceForTest(t)
	svc.randIntn = func(n int) int { return 1 }

	pick, err := svc.NextQuestion(context.Background(), 7, "exam", nil)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if pick.Topic.ID != 20 {
		t.Fatalf("picked topic %d, want random start 20", pick.Topic.ID)
	}
	if fx.questions.lastPreferUnseen {
		t.Fatalf("exam mode must not filter seen questions")
	}

	// The random start can land on an empty topic; the picker walks on.
	fx.questions.empty[20] = true
	pick, err = svc.NextQuestion(context.Background(), 7, "exam", nil)
	if err != nil {
		t.Fatalf("next question after empty topic: %v", err)
	}
	if pick.Topic.ID != 30 {
		t.Fatalf("picked topic %d, want next-in-ring 30", pick.Topic.ID)
	}
}

func TestNextQuestionRequiresActiveCertification(t *testing.T) {
	svc, fx := newServiceForTest(t)
	ctx := context.Background()

	fx.users.users[7] = model.User{ID: 7, IsActive: true}
	if _, err := svc.NextQuestion(ctx, 7, "general", nil); !errors.Is(err, ErrNoActiveCertification) {
		t.Fatalf("no active certification: got %v, want ErrNoActiveCertification", err)
	}

	if _, err := svc.NextQuestion(ctx, 999, "general", nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: got %v, want ErrUserNotFound", err)
	}
}

func TestNextQuestionWhenEverythingIsEmpty(t *testing.T) {
	svc, fx := newServiceForTest(t)
	for _, id := range []int64{10, 20, 30} {
		fx.questions.empty[id] = true
	}

	if _, err := svc.NextQuestion(context.Background(), 7, "general", nil); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("empty pool: got %v, want ErrNoQuestions", err)
	}
	if _, err := svc.NextQuestion(context.Background(), 7, "exam", nil); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("empty exam pool: got %v, want ErrNoQuestions", err)
	}
}

type fixtures struct {
	questions *fakeQuestionStore
	topics    *fakeTopicStore
	users     *fakeUserStore
	weakness  *fakeWeaknessSource
}

func newServiceForTest(t *testing.T) (*Service, *fixtures) {
	t.Helper()

	certID := int64(1)
	fx := &fixtures{
		questions: &fakeQuestionStore{empty: make(map[int64]bool)},
		topics: &fakeTopicStore{topics: []model.Topic{
			{ID: 10, CertificationID: 1, Name: "Networking", Order: 1, IsActive: true},
			{ID: 20, CertificationID: 1, Name: "Storage", Order: 2, IsActive: true},
			{ID: 30, CertificationID: 1, Name: "Security", Order: 3, IsActive: true},
		}},
		users: &fakeUserStore{users: map[int64]model.User{
			7: {ID: 7, IsActive: true, ActiveCertificationID: &certID},
		}},
		weakness: &fakeWeaknessSource{scores: make(map[int64]progress.Weakness)},
	}
	svc := NewService(fx.questions, fx.topics, fx.users, fx.weakness, 30*24*time.Hour)
	svc.randIntn = func(n int) int { return 0 }
	return svc, fx
}

type fakeQuestionStore struct {
	empty            map[int64]bool
	lastPreferUnseen bool
}

func (f *fakeQuestionStore) PickRandomForUser(_ context.Context, topicID, _ int64, preferUnseen bool) (model.Question, error) {
	f.lastPreferUnseen = preferUnseen
	if f.empty[topicID] {
		return model.Question{}, pgrepo.ErrQuestionNotFound
	}
	return model.Question{ID: topicID * 100, TopicID: topicID, CorrectAnswer: "A"}, nil
}

type fakeTopicStore struct {
	topics []model.Topic
}

func (f *fakeTopicStore) ListByCertification(_ context.Context, certificationID int64) ([]model.Topic, error) {
	topics := make([]model.Topic, 0)
	for _, topic := range f.topics {
		if topic.CertificationID == certificationID {
			topics = append(topics, topic)
		}
	}
	return topics, nil
}

func (f *fakeTopicStore) GetByID(_ context.Context, topicID int64) (model.Topic, error) {
	for _, topic := range f.topics {
		if topic.ID == topicID {
			return topic, nil
		}
	}
	return model.Topic{}, pgrepo.ErrTopicNotFound
}

type fakeUserStore struct {
	users map[int64]model.User
}

func (f *fakeUserStore) GetByID(_ context.Context, userID int64) (model.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

type fakeWeaknessSource struct {
	scores map[int64]progress.Weakness
}

func (f *fakeWeaknessSource) TopicWeakness(_ context.Context, _ int64, topicID int64, _ time.Duration) (progress.Weakness, error) {
	score, ok := f.scores[topicID]
	if !ok {
		return progress.Weakness{TopicID: topicID}, nil
	}
	return score, nil
}
