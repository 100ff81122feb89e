package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/pkg/validate"
	pgrepo "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/repo/postgres"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrQuestionNotFound = errors.New("question not found")
	ErrBookmarkNotFound = errors.New("bookmark not found")
)

type BookmarkStore interface {
	Create(ctx context.Context, userID, questionID int64, notes *string) (model.Bookmark, error)
	CreateFlag(ctx context.Context, userID, questionID int64, reason string) (model.Bookmark, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Bookmark, error)
	Delete(ctx context.Context, bookmarkID, userID int64) error
}

type QuestionStore interface {
	GetByID(ctx context.Context, questionID int64) (model.Question, error)
}

// Service handles saved and flagged questions. A flag is a bookmark with a
// reason; it also feeds the question's flag counter for review.
type Service struct {
	bookmarks BookmarkStore
	questions QuestionStore
}

func NewService(bookmarks BookmarkStore, questions QuestionStore) *Service {
	return &Service{bookmarks: bookmarks, questions: questions}
}

func (s *Service) Save(ctx context.Context, userID, questionID int64, notes *string) (model.Bookmark, error) {
	if userID <= 0 || questionID <= 0 {
		return model.Bookmark{}, ErrInvalidInput
	}
	if notes != nil && !validate.Required(*notes) {
		notes = nil
	}

	if err := s.questionExists(ctx, questionID); err != nil {
		return model.Bookmark{}, err
	}

	bookmark, err := s.bookmarks.Create(ctx, userID, questionID, notes)
	if err != nil {
		return model.Bookmark{}, fmt.Errorf("create bookmark: %w", err)
	}
	return bookmark, nil
}

// Flag marks a question as problematic. The reason is required; it is what
// a reviewer sees when triaging flagged questions.
func (s *Service) Flag(ctx context.Context, userID, questionID int64, reason string) (model.Bookmark, error) {
	if userID <= 0 || questionID <= 0 || !validate.Required(reason) {
		return model.Bookmark{}, ErrInvalidInput
	}

	if err := s.questionExists(ctx, questionID); err != nil {
		return model.Bookmark{}, err
	}

	bookmark, err := s.bookmarks.CreateFlag(ctx, userID, questionID, strings.TrimSpace(reason))
	if err != nil {
		return model.Bookmark{}, fmt.Errorf("create flag: %w", err)
	}
	return bookmark, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]model.Bookmark, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}

	bookmarks, err := s.bookmarks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return bookmarks, nil
}

// Remove deletes a bookmark the user owns. A bookmark id belonging to
// another user reads as not found.
func (s *Service) Remove(ctx context.Context, bookmarkID, userID int64) error {
	if bookmarkID <= 0 || userID <= 0 {
		return ErrInvalidInput
	}

	if err := s.bookmarks.Delete(ctx, bookmarkID, userID); err != nil {
		if errors.Is(err, pgrepo.ErrBookmarkNotFound) {
			return ErrBookmarkNotFound
		}
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

func (s *Service) questionExists(ctx context.Context, questionID int64) error {
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		if errors.Is(err, pgrepo.ErrQuestionNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("get question: %w", err)
	}
	return nil
}
