package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
	pgrepo "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/repo/postgres"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrCertificationNotFound = errors.New("certification not found")
	ErrTopicNotFound         = errors.New("topic not found")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrUserNotFound          = errors.New("user not found")
)

const (
	signedURLTTL    = 5 * time.Minute
	defaultPageSize = 50
	maxPageSize     = 200
)

type CertificationStore interface {
	ListActive(ctx context.Context) ([]model.Certification, error)
	GetByID(ctx context.Context, certificationID int64) (model.Certification, error)
}

type TopicStore interface {
	ListByCertification(ctx context.Context, certificationID int64) ([]model.Topic, error)
	GetByID(ctx context.Context, topicID int64) (model.Topic, error)
}

type QuestionStore interface {
	GetByID(ctx context.Context, questionID int64) (model.Question, error)
	ListActiveByTopic(ctx context.Context, topicID int64, limit int) ([]model.Question, error)
	SetImageKey(ctx context.Context, questionID int64, key string) error
}

type UserStore interface {
	SetActiveCertification(ctx context.Context, userID, certificationID int64) error
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutImage(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Service serves the certification catalog: certifications, their topics
// and questions, plus question illustrations in object storage.
type Service struct {
	certifications CertificationStore
	topics         TopicStore
	questions      QuestionStore
	users          UserStore
	storage        ObjectStorage
}

func NewService(certifications CertificationStore, topics TopicStore, questions QuestionStore, users UserStore, storage ObjectStorage) *Service {
	return &Service{
		certifications: certifications,
		topics:         topics,
		questions:      questions,
		users:          users,
		storage:        storage,
	}
}

func (s *Service) Certifications(ctx context.Context) ([]model.Certification, error) {
	certifications, err := s.certifications.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list certifications: %w", err)
	}
	return certifications, nil
}

func (s *Service) Topics(ctx context.Context, certificationID int64) ([]model.Topic, error) {
	if certificationID <= 0 {
		return nil, ErrInvalidInput
	}

	if _, err := s.certifications.GetByID(ctx, certificationID); err != nil {
		if errors.Is(err, pgrepo.ErrCertificationNotFound) {
			return nil, ErrCertificationNotFound
		}
		return nil, fmt.Errorf("get certification: %w", err)
	}

	topics, err := s.topics.ListByCertification(ctx, certificationID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

func (s *Service) Questions(ctx context.Context, topicID int64, limit int) ([]model.Question, error) {
	if topicID <= 0 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if _, err := s.topics.GetByID(ctx, topicID); err != nil {
		if errors.Is(err, pgrepo.ErrTopicNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("get topic: %w", err)
	}

	questions, err := s.questions.ListActiveByTopic(ctx, topicID, limit)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// Question fetches one question. When the question carries an illustration,
// the stored object key is swapped for a presigned URL before returning.
func (s *Service) Question(ctx context.Context, questionID int64) (model.Question, error) {
	if questionID <= 0 {
		return model.Question{}, ErrInvalidInput
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrQuestionNotFound) {
			return model.Question{}, ErrQuestionNotFound
		}
		return model.Question{}, fmt.Errorf("get question: %w", err)
	}

	if question.ImageURL != nil && s.storage != nil {
		url, err := s.storage.PresignGet(ctx, *question.ImageURL, signedURLTTL)
		if err != nil {
			return model.Question{}, fmt.Errorf("presign question image: %w", err)
		}
		question.ImageURL = &url
	}

	return question, nil
}

func (s *Service) SetActiveCertification(ctx context.Context, userID, certificationID int64) error {
	if userID <= 0 || certificationID <= 0 {
		return ErrInvalidInput
	}

	if _, err := s.certifications.GetByID(ctx, certificationID); err != nil {
		if errors.Is(err, pgrepo.ErrCertificationNotFound) {
			return ErrCertificationNotFound
		}
		return fmt.Errorf("get certification: %w", err)
	}

	if err := s.users.SetActiveCertification(ctx, userID, certificationID); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set active certification: %w", err)
	}
	return nil
}

// UploadQuestionImage stores an illustration for the question and records
// its object key. The stored object is removed again if the key cannot be
// recorded, so storage does not accumulate orphans.
func (s *Service) UploadQuestionImage(ctx context.Context, questionID int64, fileName, contentType string, body io.Reader, size int64) (string, error) {
	if questionID <= 0 || body == nil || size <= 0 {
		return "", ErrInvalidInput
	}
	if s.storage == nil {
		return "", fmt.Errorf("object storage is not configured")
	}

	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		if errors.Is(err, pgrepo.ErrQuestionNotFound) {
			return "", ErrQuestionNotFound
		}
		return "", fmt.Errorf("get question: %w", err)
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	key := buildImageObjectKey(questionID, fileName)
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	if err := s.storage.PutImage(ctx, key, body, size, contentType); err != nil {
		return "", fmt.Errorf("put image: %w", err)
	}

	if err := s.questions.SetImageKey(ctx, questionID, key); err != nil {
		_ = s.storage.Delete(ctx, key)
		return "", fmt.Errorf("record image key: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, key, signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign image url: %w", err)
	}
	return url, nil
}

func buildImageObjectKey(questionID int64, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("questions/%d/%s%s", questionID, uuid.NewString(), ext)
}
