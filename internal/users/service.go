// Package users is the credential store: it owns account registration and
// signin, and issues identity tokens for verified accounts.
package users

import (
	"context"
	"errors"
	"log"
	"net/mail"

	"github.com/google/uuid"

	"github.com/giladwin/chat/internal/auth"
	"github.com/giladwin/chat/internal/chaterr"
	"github.com/giladwin/chat/internal/models"
	"github.com/giladwin/chat/internal/policy"
	"github.com/giladwin/chat/internal/repository"
)

type Service struct {
	repo      repository.UserRepository
	authority *auth.Authority
	filter    *policy.Filter
}

func NewService(repo repository.UserRepository, authority *auth.Authority, filter *policy.Filter) *Service {
	return &Service{repo: repo, authority: authority, filter: filter}
}

// Register creates the account and returns a fresh token for it. Checks run
// in a fixed order and the first failure wins: missing username, missing
// password, missing email, email format, forbidden username, email taken,
// username taken.
func (s *Service) Register(ctx context.Context, username, email, password string) (string, error) {
	if username == "" {
		return "", chaterr.New(chaterr.KindValidation, "signup request must have an username")
	}
	if password == "" {
		return "", chaterr.New(chaterr.KindValidation, "signup request must have an password")
	}
	if email == "" {
		return "", chaterr.New(chaterr.KindValidation, "signup request must have an email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", chaterr.Newf(chaterr.KindValidation, "'%s' is not a valid email address, please enter a real email", email)
	}
	if s.filter.Contains(username) {
		return "", chaterr.New(chaterr.KindPolicy, "username contains forbidden word(s), please choose a nicer username")
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return "", emailExistsError(email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	if _, err := s.repo.GetUserByUsername(ctx, username); err == nil {
		return "", usernameExistsError(username)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
	}

	// The unique indexes close the race between the checks above and the
	// insert: a concurrent signup of the same identity loses here.
	if err := s.repo.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return "", emailExistsError(email)
		case errors.Is(err, repository.ErrDuplicateUsername):
			return "", usernameExistsError(username)
		}
		return "", err
	}

	log.Printf("[USERS] user %q signed up successfully, returning token", username)
	return s.authority.Issue(username)
}

// Authenticate verifies the email/password pair and returns a token for the
// matched account. Unknown email and wrong password produce the identical
// failure so callers cannot tell which it was.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	if email == "" {
		return "", chaterr.New(chaterr.KindValidation, "signin request must have an email")
	}
	if password == "" {
		return "", chaterr.New(chaterr.KindValidation, "signin request must have an password")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", wrongSigninError(email)
		}
		return "", err
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return "", wrongSigninError(email)
	}

	log.Printf("[USERS] user %q signed in successfully, returning token", user.Username)
	return s.authority.Issue(user.Username)
}

func emailExistsError(email string) error {
	return chaterr.Newf(chaterr.KindConflict, "email '%s' is already register, please sign in", email)
}

func usernameExistsError(username string) error {
	return chaterr.Newf(chaterr.KindConflict, "username '%s' is taken, please choose other username", username)
}

func wrongSigninError(email string) error {
	return chaterr.Newf(chaterr.KindValidation, "email '%s' does no exist or wrong password entered", email)
}
