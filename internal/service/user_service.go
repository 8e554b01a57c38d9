package service

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

type UserService struct {
	userRepo    repository.UserRepository
	articleRepo repository.ArticleRepository
}

// RegisterInput creates the local record for a verified token subject.
type RegisterInput struct {
	Subject string
	Email   string
	Name    string
}

type UpdateProfileInput struct {
	ActorID models.ID
	Name    string
	Bio     string
}

func NewUserService(userRepo repository.UserRepository, articleRepo repository.ArticleRepository) *UserService {
	return &UserService{
		userRepo:    userRepo,
		articleRepo: articleRepo,
	}
}

// Register returns the user for in.Subject, creating it on first login.
// created reports whether a new record was written.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (user *models.User, created bool, err error) {
	if strings.TrimSpace(in.Subject) == "" {
		return nil, false, models.NewUnauthorizedError("Invalid token")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, false, models.NewValidationError("Please fill all fields",
			models.FieldError{Field: "email", Message: "Email is required"})
	}

	existing, err := s.userRepo.GetByAuth0ID(ctx, in.Subject)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	user = &models.User{
		Auth0ID: in.Subject,
		Email:   email,
		Name:    strings.TrimSpace(in.Name),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent first login for the same subject won the insert.
		if errors.Is(err, repository.ErrDuplicate) {
			existing, getErr := s.userRepo.GetByAuth0ID(ctx, in.Subject)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return user, true, nil
}

// ResolveSubject maps a token subject to its user.
func (s *UserService) ResolveSubject(ctx context.Context, subject string) (*models.User, error) {
	user, err := s.userRepo.GetByAuth0ID(ctx, subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewUnauthorizedError("Unknown user")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id models.ID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	bio := strings.TrimSpace(in.Bio)

	var fields []models.FieldError
	if name == "" {
		fields = append(fields, models.FieldError{Field: "name", Message: "Name is required"})
	}
	if bio == "" {
		fields = append(fields, models.FieldError{Field: "bio", Message: "Bio is required"})
	}
	if len(fields) > 0 {
		return nil, models.NewValidationError("Invalid profile", fields...)
	}

	user, err := s.GetUser(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Bio = bio
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("User", in.ActorID)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) AddBookmark(ctx context.Context, actorID, articleID models.ID) (*models.User, error) {
	if err := s.requireArticle(ctx, articleID); err != nil {
		return nil, err
	}
	if _, err := s.GetUser(ctx, actorID); err != nil {
		return nil, err
	}
	if err := s.userRepo.AddBookmark(ctx, actorID, articleID); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, actorID)
}

func (s *UserService) RemoveBookmark(ctx context.Context, actorID, articleID models.ID) (*models.User, error) {
	if err := s.requireArticle(ctx, articleID); err != nil {
		return nil, err
	}
	if _, err := s.GetUser(ctx, actorID); err != nil {
		return nil, err
	}
	if err := s.userRepo.RemoveBookmark(ctx, actorID, articleID); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, actorID)
}

// ListBookmarks returns the caller's bookmarked articles that still exist.
func (s *UserService) ListBookmarks(ctx context.Context, actorID models.ID) ([]*models.Article, error) {
	user, err := s.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.articleRepo.ListByIDs(ctx, user.BookmarkedIDs)
}

func (s *UserService) requireArticle(ctx context.Context, articleID models.ID) error {
	if strings.TrimSpace(articleID.String()) == "" {
		return models.NewValidationError("Article id is required",
			models.FieldError{Field: "id", Message: "required"})
	}
	if _, err := s.articleRepo.GetByID(ctx, articleID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewNotFoundError("Article", articleID)
		}
		return err
	}
	return nil
}
