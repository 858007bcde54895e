// Package service holds the application's business logic.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/repository"
	"postboard/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenName = "auth_token"

	msgInvalidCredentials = "Invalid credentials"
	msgUnauthenticated    = "Unauthenticated."
)

// RegisterInput is the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is a successful login.
type LoginResult struct {
	User  *models.User
	Token string
}

// AuthService registers users and issues, resolves and revokes bearer tokens.
type AuthService struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	issuer   *TokenIssuer
	hashCost int
	now      func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, issuer *TokenIssuer) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		issuer:   issuer,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func recordAuth(event string, err error) {
	result := "success"
	if err != nil {
		result = strings.ToLower(models.ErrorCode(err))
	}
	middleware.AuthEvents.WithLabelValues(event, result).Inc()
}

// Register validates the form and creates the user. Nothing is written when
// validation fails.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService.Register")
	defer func() {
		recordAuth("register", err)
		observability.EndSpan(span, err)
	}()

	if err := validation.Check(
		validation.Field{
			Input: validation.Input{Field: "name", Present: true, Value: in.Name},
			Rules: []validation.Rule{validation.Required(), validation.MinLen(3), validation.MaxLen(60)},
		},
		validation.Field{
			Input: validation.Input{Field: "email", Present: true, Value: in.Email},
			Rules: []validation.Rule{
				validation.Required(),
				validation.Email(),
				validation.Unique(func(v string) (bool, error) { return s.users.EmailExists(ctx, v) }),
			},
		},
		validation.Field{
			Input: validation.Input{Field: "password", Present: true, Value: in.Password},
			Rules: []validation.Rule{validation.Required(), validation.MinLen(6)},
		},
	); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user = &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and issues a new token. Unknown email and
// wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (res *LoginResult, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService.Login")
	defer func() {
		recordAuth("login", err)
		observability.EndSpan(span, err)
	}()

	if err := validation.Check(
		validation.Field{
			Input: validation.Input{Field: "email", Present: true, Value: in.Email},
			Rules: []validation.Rule{validation.Required(), validation.Email()},
		},
		validation.Field{
			Input: validation.Input{Field: "password", Present: true, Value: in.Password},
			Rules: []validation.Rule{validation.Required(), validation.MinLen(6)},
		},
	); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}

	issued, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.tokens.Create(ctx, &models.PersonalAccessToken{
		TokenID:   issued.TokenID,
		UserID:    user.ID,
		Name:      tokenName,
		ExpiresAt: issued.ExpiresAt,
	}); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("user.id", int(user.ID)))
	return &LoginResult{User: user, Token: issued.Token}, nil
}

// Logout revokes every token of the authenticated user.
func (s *AuthService) Logout(ctx context.Context, auth *models.AuthContext) (err error) {
	defer func() { recordAuth("logout", err) }()

	if auth.UserID() == 0 {
		return models.NewUnauthorizedError(msgUnauthenticated)
	}
	_, err = s.tokens.DeleteByUserID(ctx, auth.UserID())
	return err
}

// Authenticate resolves a bearer string to the user it was issued to. Any
// token that is malformed, revoked, expired or orphaned is rejected.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*models.AuthContext, error) {
	if bearer == "" {
		return nil, models.NewUnauthorizedError(msgUnauthenticated)
	}

	tokenID, userID, err := s.issuer.Parse(bearer)
	if err != nil {
		return nil, models.NewUnauthorizedError(msgUnauthenticated)
	}

	record, err := s.tokens.GetByTokenID(ctx, tokenID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, models.NewUnauthorizedError(msgUnauthenticated)
		}
		return nil, err
	}
	if record.UserID != userID || record.Expired(s.now()) {
		return nil, models.NewUnauthorizedError(msgUnauthenticated)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, models.NewUnauthorizedError(msgUnauthenticated)
		}
		return nil, err
	}

	return &models.AuthContext{User: user, TokenID: tokenID}, nil
}
