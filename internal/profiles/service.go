package profiles

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodbridge-backend/pkg/db"
	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
)

// Service reads and edits the caller's profile.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateInput) (*ProfileDTO, error)
}

// UpdateInput carries a partial edit. UserType is accepted only to reject
// attempts to change it.
type UpdateInput struct {
	UserType *string
	Fields
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("profiles repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := Require(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(profile), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateInput) (*ProfileDTO, error) {
	profile, err := Require(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if input.UserType != nil && !strings.EqualFold(strings.TrimSpace(*input.UserType), string(profile.UserType)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_type cannot be changed")
	}
	if err := s.repo.Update(ctx, userID, input.changes()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	input.apply(profile)
	return FromModel(profile), nil
}

// Require loads the profile of userID, mapping a missing row to NotFound.
func Require(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Profile, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	profile, err := repo.FindByUserID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}

// RequireType is Require plus a check that the profile has the wanted
// type. A missing or mismatched profile is Forbidden.
func RequireType(ctx context.Context, repo Repository, userID uuid.UUID, want enums.UserType) (*models.Profile, error) {
	profile, err := Require(ctx, repo, userID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "a %s profile is required", want)
		}
		return nil, err
	}
	if profile.UserType != want {
		return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "a %s profile is required", want)
	}
	return profile, nil
}
