package content

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
	pgrepo "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/repo/postgres"
)

func TestTopicsRequireKnownCertification(t *testing.T) {
	svc, _ := newServiceForTest(t)
	ctx := context.Background()

	topics, err := svc.Topics(ctx, 1)
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("listed %d topics, want 2", len(topics))
	}

	if _, err := svc.Topics(ctx, 999); !errors.Is(err, ErrCertificationNotFound) {
		t.Fatalf("unknown certification: got %v, want ErrCertificationNotFound", err)
	}
}

func TestQuestionsClampLimit(t *testing.T) {
	svc, fx := newServiceForTest(t)
	ctx := context.Background()

	if _, err := svc.Questions(ctx, 10, 0); err != nil {
		t.Fatalf("questions with zero limit: %v", err)
	}
	if fx.questions.lastLimit != defaultPageSize {
		t.Fatalf("zero limit became %d, want %d", fx.questions.lastLimit, defaultPageSize)
	}

	if _, err := svc.Questions(ctx, 10, 100000); err != nil {
		t.Fatalf("questions with huge limit: %v", err)
	}
	if fx.questions.lastLimit != maxPageSize {
		t.Fatalf("huge limit became %d, want %d", fx.questions.lastLimit, maxPageSize)
	}

	if _, err := svc.Questions(ctx, 999, 10); !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("unknown topic: got %v, want ErrTopicNotFound", err)
	}
}

func TestQuestionPresignsImage(t *testing.T) {
	svc, fx := newServiceForTest(t)
	ctx := context.Background()

	key := "questions/2/abc.png"
	fx.questions.questions[2] = model.Question{ID: 2, TopicID: 10, ImageURL: &key}

	question, err := svc.Question(ctx, 2)
	if err != nil {
		t.Fatalf("question: %v", err)
	}
	if question.ImageURL == nil || *question.ImageURL != "https://signed.local/"+key {
		t.Fatalf("image url not presigned: %+v", question.ImageURL)
	}

	// No illustration, no presign call.
	plain, err := svc.Question(ctx, 1)
	if err != nil {
		t.Fatalf("plain question: %v", err)
	}
	if plain.ImageURL != nil {
		t.Fatalf("plain question grew an image url")
	}
}

func TestSetActiveCertification(t *testing.T) {
	svc, fx := newServiceForTest(t)
	ctx := context.Background()

	if err := svc.SetActiveCertification(ctx, 7, 1); err != nil {
		t.Fatalf("set active certification: %v", err)
	}
	if fx.users.active[7] != 1 {
		t.Fatalf("active certification not stored")
	}

	if err := svc.SetActiveCertification(ctx, 7, 999); !errors.Is(err, ErrCertificationNotFound) {
		t.Fatalf("unknown certification: got %v, want ErrCertificationNotFound", err)
	}
	if err := svc.SetActiveCertification(ctx, 999, 1); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: got %v, want ErrUserNotFound", err)
	}
}

func TestUploadQuestionImage(t *testing.T) {
	svc, fx := newServiceForTest(t)
	ctx := context.Background()

	url, err := svc.UploadQuestionImage(ctx, 1, "diagram.PNG", "image/png", strings.NewReader("abc"), 3)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "https://signed.local/questions/1/") {
		t.Fatalf("unexpected presigned url %q", url)
	}
	if !strings.HasSuffix(fx.questions.imageKeys[1], ".png") {
		t.Fatalf("extension not normalized: %q", fx.questions.imageKeys[1])
	}

	if _, err := svc.UploadQuestionImage(ctx, 999, "x.png", "image/png", strings.NewReader("abc"), 3); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("unknown question: got %v, want ErrQuestionNotFound", err)
	}
}

func TestUploadCleansUpWhenKeyCannotBeRecorded(t *testing.T) {
	svc, fx := newServiceForTest(t)
	fx.questions.setImageErr = errors.New("db down")

	if _, err := svc.UploadQuestionImage(context.Background(), 1, "x.png", "image/png", strings.NewReader("abc"), 3); err == nil {
		t.Fatalf("expected upload to fail")
	}
	if fx.storage.deleteCalls != 1 {
		t.Fatalf("orphaned object not deleted, delete calls = %d", fx.storage.deleteCalls)
	}
}

type fixtures struct {
	certifications *fakeCertificationStore
	topics         *fakeTopicStore
	questions      *fakeQuestionStore
	users          *fakeUserStore
	storage        *fakeStorage
}

func newServiceForTest(t *testing.T) (*Service, *fixtures) {
	t.Helper()

	fx := &fixtures{
		certifications: &fakeCertificationStore{known: map[int64]bool{1: true}},
		topics: &fakeTopicStore{topics: []model.Topic{
			{ID: 10, CertificationID: 1, Name: "Networking"},
			{ID: 20, CertificationID: 1, Name: "Storage"},
		}},
		questions: &fakeQuestionStore{
			questions: map[int64]model.Question{1: {ID: 1, TopicID: 10}},
			imageKeys: make(map[int64]string),
		},
		users:   &fakeUserStore{known: map[int64]bool{7: true}, active: make(map[int64]int64)},
		storage: &fakeStorage{},
	}
	svc := NewService(fx.certifications, fx.topics, fx.questions, fx.users, fx.storage)
	return svc, fx
}

type fakeCertificationStore struct {
	known map[int64]bool
}

func (f *fakeCertificationStore) ListActive(_ context.Context) ([]model.Certification, error) {
	list := make([]model.Certification, 0, len(f.known))
	for id := range f.known {
		list = append(list, model.Certification{ID: id})
	}
	return list, nil
}

func (f *fakeCertificationStore) GetByID(_ context.Context, certificationID int64) (model.Certification, error) {
	if !f.known[certificationID] {
		return model.Certification{}, pgrepo.ErrCertificationNotFound
	}
	return model.Certification{ID: certificationID}, nil
}

type fakeTopicStore struct {
	topics []model.Topic
}

func (f *fakeTopicStore) ListByCertification(_ context.Context, certificationID int64) ([]model.Topic, error) {
	list := make([]model.Topic, 0)
	for _, topic := range f.topics {
		if topic.CertificationID == certificationID {
			list = append(list, topic)
		}
	}
	return list, nil
}

func (f *fakeTopicStore) GetByID(_ context.Context, topicID int64) (model.Topic, error) {
	for _, topic := range f.topics {
		if topic.ID == topicID {
			return topic, nil
		}
	}
	return model.Topic{}, pgrepo.ErrTopicNotFound
}

type fakeQuestionStore struct {
	questions   map[int64]model.Question
	imageKeys   map[int64]string
	lastLimit   int
	setImageErr error
}

func (f *fakeQuestionStore) GetByID(_ context.Context, questionID int64) (model.Question, error) {
	question, ok := f.questions[questionID]
	if !ok {
		return model.Question{}, pgrepo.ErrQuestionNotFound
	}
	return question, nil
}

func (f *fakeQuestionStore) ListActiveByTopic(_ context.Context, topicID int64, limit int) ([]model.Question, error) {
	f.lastLimit = limit
	list := make([]model.Question, 0)
	for _, question := range f.questions {
		if question.TopicID == topicID {
			list = append(list, question)
		}
	}
	return list, nil
}

func (f *fakeQuestionStore) SetImageKey(_ context.Context, questionID int64, key string) error {
	if f.setImageErr != nil {
		return f.setImageErr
	}
	if _, ok := f.questions[questionID]; !ok {
		return pgrepo.ErrQuestionNotFound
	}
	f.imageKeys[questionID] = key
	return nil
}

type fakeUserStore struct {
	known  map[int64]bool
	active map[int64]int64
}

func (f *fakeUserStore) SetActiveCertification(_ context.Context, userID, certificationID int64) error {
	if !f.known[userID] {
		return pgrepo.ErrUserNotFound
	}
	f.active[userID] = certificationID
	return nil
}

type fakeStorage struct {
	deleteCalls int
}

func (f *fakeStorage) EnsureBucket(_ context.Context) error {
	return nil
}

func (f *fakeStorage) PutImage(_ context.Context, _ string, _ io.Reader, _ int64, _ string) error {
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.local/" + key, nil
}

func (f *fakeStorage) Delete(_ context.Context, _ string) error {
	f.deleteCalls++
	return nil
}
