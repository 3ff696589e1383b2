package account

import (
	"context"
	"fmt"
	"io"

	"github.com/pot-code/lms-client/internal/api"
	"github.com/pot-code/lms-client/internal/domain"
	"github.com/pot-code/lms-client/internal/infrastructure/validate"
	"github.com/pot-code/lms-client/internal/session"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// NewUser signup request
type NewUser struct {
	Username string      `json:"username" validate:"required"`
	Password string      `json:"password" validate:"required"`
	Role     domain.Role `json:"role"`
	Author   *AuthorProfile
}

// AuthorProfile author-specific signup details
type AuthorProfile struct {
	FullName   string `json:"fullName" validate:"required"`
	Contact    string `json:"contact"`
	Website    string `json:"website"`
	ProfilePic string `json:"profilePic"`
}

// API backend calls the service depends on
type API interface {
	Signup(ctx context.Context, payload api.SignupPayload) (string, error)
	RegisterAuthor(ctx context.Context, payload api.RegisterAuthorPayload) error
	AuthorProfile(ctx context.Context, token string) (*domain.Author, error)
	UploadProfilePic(ctx context.Context, token string, filename string, file io.Reader) (string, error)
}

// Service account registration and author profile operations
type Service struct {
	api       API
	sessions  *session.Manager
	validator validate.Validator
	logger    *zap.Logger
}

// NewService create an account service
func NewService(backend API, sessions *session.Manager, validator validate.Validator, logger *zap.Logger) *Service {
	return &Service{
		api:       backend,
		sessions:  sessions,
		validator: validator,
		logger:    logger,
	}
}

// Signup create a user account and, for authors, register the author
// profile with the freshly issued user id. An author-profile failure after
// the account was created surfaces distinctly: the user exists, only the
// profile registration needs a retry.
func (s *Service) Signup(ctx context.Context, nu NewUser) error {
	apmSpan, ctx := apm.StartSpan(ctx, "Service.Signup", "service")
	defer apmSpan.End()

	if err := s.validateNewUser(nu); err != nil {
		return err
	}
	role, err := domain.ParseRole(string(nu.Role))
	if err != nil {
		return err
	}

	userID, err := s.api.Signup(ctx, api.SignupPayload{
		Username: nu.Username,
		Password: nu.Password,
		Role:     string(role),
	})
	if err != nil {
		return err
	}
	s.logger.Info("account created",
		zap.String("user.name", nu.Username),
		zap.String("user.roles", string(role)),
	)

	if role != domain.RoleAuthor {
		return nil
	}
	err = s.api.RegisterAuthor(ctx, api.RegisterAuthorPayload{
		FullName:   nu.Author.FullName,
		Contact:    nu.Author.Contact,
		Website:    nu.Author.Website,
		ProfilePic: nu.Author.ProfilePic,
		UserID:     userID,
	})
	if err != nil {
		return fmt.Errorf("user created but author profile registration failed: %w", err)
	}
	return nil
}

// Profile fetch the authenticated author's profile
func (s *Service) Profile(ctx context.Context) (*domain.Author, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "Service.Profile", "service")
	defer apmSpan.End()

	token, err := s.sessions.Token()
	if err != nil {
		return nil, err
	}
	author, err := s.api.AuthorProfile(ctx, token)
	if err != nil {
		return nil, s.sessions.Guard(err)
	}
	return author, nil
}

// UploadProfilePic upload a new profile picture and return the stored file
// name
func (s *Service) UploadProfilePic(ctx context.Context, filename string, file io.Reader) (string, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "Service.UploadProfilePic", "service")
	defer apmSpan.End()

	token, err := s.sessions.Token()
	if err != nil {
		return "", err
	}
	stored, err := s.api.UploadProfilePic(ctx, token, filename, file)
	if err != nil {
		return "", s.sessions.Guard(err)
	}
	s.logger.Info("profile picture updated", zap.String("file.name", stored))
	return stored, nil
}

func (s *Service) validateNewUser(nu NewUser) error {
	fields := s.validator.Struct(struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}{nu.Username, nu.Password})
	if nu.Role == domain.RoleAuthor {
		if nu.Author == nil || nu.Author.FullName == "" {
			fields = append(fields, validate.NewFieldError("fullName", "full name is required for authors"))
		}
	}
	if fields != nil {
		out := make([]*domain.FieldError, len(fields))
		for i, f := range fields {
			out[i] = &domain.FieldError{Field: f.Domain, Reason: f.Reason}
		}
		return domain.NewValidationError(out...)
	}
	return nil
}
