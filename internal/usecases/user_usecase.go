package usecases

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/internal/domain/repositories"
)

var kaiapayIDPattern = regexp.MustCompile(`^[a-zA-Z0-9가-힣]+$`)

// UserUsecase serves the caller's profile and handle
type UserUsecase struct {
	userRepo repositories.UserRepository
	identity IdentityProvider
}

// NewUserUsecase creates a new user usecase
func NewUserUsecase(userRepo repositories.UserRepository, identity IdentityProvider) *UserUsecase {
	return &UserUsecase{userRepo: userRepo, identity: identity}
}

// Me returns the identity user merged with the local record, which may not exist yet
func (u *UserUsecase) Me(ctx context.Context, userID string) (*entities.UserProfile, error) {
	identityUser, err := u.identity.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &entities.UserProfile{IdentityUser: identityUser}
	local, err := u.userRepo.GetByID(ctx, userID)
	switch {
	case err == nil:
		profile.KaiapayID = local.KaiapayID
	case !errors.Is(err, domainerrors.ErrNotFound):
		return nil, err
	}
	return profile, nil
}

// UpdateKaiapayID claims a handle for the caller
func (u *UserUsecase) UpdateKaiapayID(ctx context.Context, userID string, input *entities.UpdateKaiapayIDInput) (*entities.User, error) {
	handle := strings.TrimSpace(input.KaiapayID)
	if err := ValidateKaiapayID(handle); err != nil {
		return nil, err
	}

	holder, err := u.userRepo.GetByKaiapayID(ctx, handle)
	switch {
	case err == nil && holder.ID != userID:
		return nil, domainerrors.ErrKaiapayIDTaken
	case err == nil:
		return holder, nil
	case !errors.Is(err, domainerrors.ErrNotFound):
		return nil, err
	}

	return u.userRepo.UpsertKaiapayID(ctx, userID, handle)
}

// ValidateKaiapayID checks length and alphabet (latin letters, digits, Hangul syllables)
func ValidateKaiapayID(handle string) error {
	n := utf8.RuneCountInString(handle)
	if n < entities.KaiapayIDMinLength || n > entities.KaiapayIDMaxLength {
		return domainerrors.BadRequest(fmt.Sprintf("kaiapay id must be %d to %d characters",
			entities.KaiapayIDMinLength, entities.KaiapayIDMaxLength))
	}
	if !kaiapayIDPattern.MatchString(handle) {
		return domainerrors.BadRequest("kaiapay id may only contain letters, digits and Hangul")
	}
	return nil
}
