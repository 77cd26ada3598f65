package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"gastbook/internal/model"
	"gastbook/internal/repository"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/password"
	"gastbook/pkg/redis"
	"gastbook/pkg/sanitize"

	"gorm.io/datatypes"
)

// ProfileInput nil fields are left unchanged.
type ProfileInput struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
}

type PasswordInput struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
	Confirm string `json:"confirm_password"`
}

// PreferenceInput nil fields are left unchanged; EmailTypes is merged.
type PreferenceInput struct {
	EmailEnabled *bool           `json:"email_enabled"`
	PushEnabled  *bool           `json:"push_enabled"`
	EmailTypes   map[string]bool `json:"email_types"`
}

// knownTypes notification types a preference may name.
var knownTypes = map[string]bool{
	model.NotificationFriendRequest:     true,
	model.NotificationFriendAccepted:    true,
	model.NotificationGroupRequest:      true,
	model.NotificationGroupJoinAccepted: true,
	model.NotificationLike:              true,
	model.NotificationComment:           true,
	model.NotificationMessage:           true,
}

type SettingsService struct {
	users         *repository.UserRepository
	notifications *repository.NotificationRepository
}

func NewSettingsService(users *repository.UserRepository, notifications *repository.NotificationRepository) *SettingsService {
	return &SettingsService{users: users, notifications: notifications}
}

func (s *SettingsService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*model.User, error) {
	fields := make(map[string]interface{})
	if in.DisplayName != nil {
		name := sanitize.Text(*in.DisplayName, sanitize.MaxNameLength)
		if name == "" {
			return nil, apperrors.Validation("display name cannot be empty")
		}
		fields["display_name"] = name
	}
	if in.Bio != nil {
		fields["bio"] = sanitize.Text(*in.Bio, sanitize.MaxBioLength)
	}
	if in.AvatarURL != nil {
		avatar := strings.TrimSpace(*in.AvatarURL)
		if avatar != "" {
			u, err := url.Parse(avatar)
			if err != nil || len(avatar) > 255 || (u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https") {
				return nil, apperrors.Validation("invalid avatar url")
			}
		}
		fields["avatar_url"] = avatar
	}
	if len(fields) == 0 {
		return nil, apperrors.Validation("nothing to update")
	}

	if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *SettingsService) ChangePassword(ctx context.Context, userID uint, in PasswordInput) error {
	if in.Current == "" {
		return apperrors.Validation("current password is required")
	}
	if err := password.Validate(in.New); err != nil {
		return apperrors.Validation(err.Error())
	}
	if in.New != in.Confirm {
		return apperrors.Validation("passwords do not match")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user not found")
		}
		return err
	}
	if !password.Verify(in.Current, u.PasswordHash) {
		return apperrors.Forbidden("current password is incorrect")
	}

	hash, err := password.Hash(in.New)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *SettingsService) Preferences(ctx context.Context, userID uint) (*model.NotificationPreference, error) {
	return s.notifications.GetPreference(ctx, userID)
}

func (s *SettingsService) UpdatePreferences(ctx context.Context, userID uint, in PreferenceInput) (*model.NotificationPreference, error) {
	for typ := range in.EmailTypes {
		if !knownTypes[typ] {
			return nil, apperrors.Validation("unknown notification type: " + typ)
		}
	}

	pref, err := s.notifications.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.EmailEnabled != nil {
		pref.EmailEnabled = *in.EmailEnabled
	}
	if in.PushEnabled != nil {
		pref.PushEnabled = *in.PushEnabled
	}
	if pref.EmailTypes == nil {
		pref.EmailTypes = datatypes.JSONMap{}
	}
	for typ, enabled := range in.EmailTypes {
		pref.EmailTypes[typ] = enabled
	}

	if err := s.notifications.SavePreference(ctx, pref); err != nil {
		return nil, err
	}
	return pref, nil
}

// SubscribePush registers a device token. Platform is ios, android or web.
func (s *SettingsService) SubscribePush(ctx context.Context, userID uint, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" || len(token) > 255 {
		return apperrors.Validation("invalid device token")
	}
	switch platform {
	case "":
		platform = "web"
	case "ios", "android", "web":
	default:
		return apperrors.Validation("platform must be ios, android or web")
	}
	return s.notifications.SubscribePush(ctx, &model.PushSubscription{UserID: userID, Token: token, Platform: platform})
}

func (s *SettingsService) UnsubscribePush(ctx context.Context, userID uint, token string) error {
	ok, err := s.notifications.UnsubscribePush(ctx, userID, strings.TrimSpace(token))
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("device not registered")
	}
	return nil
}

// DeleteAccount re-checks the password, then removes the account and everything
// hanging off it. Former friends lose the cached friend id.
func (s *SettingsService) DeleteAccount(ctx context.Context, userID uint, plainPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user not found")
		}
		return err
	}
	if !password.Verify(plainPassword, u.PasswordHash) {
		return apperrors.Forbidden("password is incorrect")
	}
	friends, err := s.users.Delete(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user not found")
		}
		return err
	}

	_ = redis.SetOffline(ctx, userID)
	_ = redis.InvalidateFriendIDs(ctx, userID)
	for _, id := range friends {
		_ = redis.InvalidateFriendIDs(ctx, id)
	}
	return nil
}
