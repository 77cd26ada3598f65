package service

import (
	"testing"

	"gastbook/internal/model"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) userWithPassword(t *testing.T, name, plain string) uint {
	t.Helper()
	hash, err := password.Hash(plain)
	require.NoError(t, err)
	u := &model.User{Username: name, Email: name + "@example.com", PasswordHash: hash, DisplayName: name}
	require.NoError(t, e.users.Create(ctx, u))
	return u.ID
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestSettings_UpdateProfile(t *testing.T) {
	e := newEnv(t)
	id := e.user(t, "ana")

	u, err := e.settings.UpdateProfile(ctx, id, ProfileInput{
		DisplayName: strPtr(" Ana <b>B.</b> "),
		AvatarURL:   strPtr("https://cdn.example.com/a.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana B.", u.DisplayName)
	assert.Equal(t, "https://cdn.example.com/a.png", u.AvatarURL)

	tests := []struct {
		name string
		in   ProfileInput
	}{
		{"nothing", ProfileInput{}},
		{"blank name", ProfileInput{DisplayName: strPtr("   ")}},
		{"script avatar", ProfileInput{AvatarURL: strPtr("javascript:alert(1)")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.settings.UpdateProfile(ctx, id, tt.in)
			assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
		})
	}
}

func TestSettings_ChangePassword(t *testing.T) {
	e := newEnv(t)
	id := e.userWithPassword(t, "ana", "secret1")

	err := e.settings.ChangePassword(ctx, id, PasswordInput{Current: "secret1", New: "secret2", Confirm: "secret3"})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))

	err = e.settings.ChangePassword(ctx, id, PasswordInput{Current: "wrong", New: "secret2", Confirm: "secret2"})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeForbidden))

	require.NoError(t, e.settings.ChangePassword(ctx, id, PasswordInput{Current: "secret1", New: "secret2", Confirm: "secret2"}))
	u, err := e.users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, password.Verify("secret2", u.PasswordHash))
}

func TestSettings_Preferences(t *testing.T) {
	e := newEnv(t)
	id := e.user(t, "ana")

	pref, err := e.settings.Preferences(ctx, id)
	require.NoError(t, err)
	assert.True(t, pref.EmailEnabled)

	_, err = e.settings.UpdatePreferences(ctx, id, PreferenceInput{EmailTypes: map[string]bool{model.NotificationLike: false}})
	require.NoError(t, err)
	pref, err = e.settings.UpdatePreferences(ctx, id, PreferenceInput{
		PushEnabled: boolPtr(false),
		EmailTypes:  map[string]bool{model.NotificationComment: false},
	})
	require.NoError(t, err)
	assert.False(t, pref.PushEnabled)
	assert.False(t, pref.EmailAllows(model.NotificationLike))
	assert.False(t, pref.EmailAllows(model.NotificationComment))
	assert.True(t, pref.EmailAllows(model.NotificationMessage))

	_, err = e.settings.UpdatePreferences(ctx, id, PreferenceInput{EmailTypes: map[string]bool{"poke": true}})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}

func TestSettings_PushSubscriptions(t *testing.T) {
	e := newEnv(t)
	id := e.user(t, "ana")

	require.NoError(t, e.settings.SubscribePush(ctx, id, "tok-1", ""))
	require.NoError(t, e.settings.SubscribePush(ctx, id, "tok-1", "web"))
	require.NoError(t, e.settings.SubscribePush(ctx, id, "tok-2", "ios"))
	assert.True(t, apperrors.Is(e.settings.SubscribePush(ctx, id, "tok-3", "pager"), apperrors.ErrCodeValidation))
	assert.True(t, apperrors.Is(e.settings.SubscribePush(ctx, id, " ", "web"), apperrors.ErrCodeValidation))

	devices, err := e.notifRepo.Devices(ctx, id)
	require.NoError(t, err)
	assert.Len(t, devices, 2)

	require.NoError(t, e.settings.UnsubscribePush(ctx, id, "tok-1"))
	assert.True(t, apperrors.Is(e.settings.UnsubscribePush(ctx, id, "tok-1"), apperrors.ErrCodeNotFound))
}

func TestSettings_DeleteAccount(t *testing.T) {
	e := newEnv(t)
	id := e.userWithPassword(t, "ana", "secret1")

	assert.True(t, apperrors.Is(e.settings.DeleteAccount(ctx, id, "nope"), apperrors.ErrCodeForbidden))
	require.NoError(t, e.settings.DeleteAccount(ctx, id, "secret1"))

	_, err := e.users.GetByID(ctx, id)
	assert.Error(t, err)
	assert.True(t, apperrors.Is(e.settings.DeleteAccount(ctx, id, "secret1"), apperrors.ErrCodeNotFound))
}

func TestSettings_DeleteAccountRemovesContent(t *testing.T) {
	e := newEnv(t)
	gone := e.userWithPassword(t, "ana", "secret1")
	friend := e.user(t, "ben")
	e.befriend(t, gone, friend)

	own := e.post(t, gone, model.VisibilityFriends, "before delete")
	other := e.post(t, friend, model.VisibilityPublic, "ben's post")
	_, err := e.posts.Like(ctx, gone, other.ID)
	require.NoError(t, err)
	_, err = e.posts.AddComment(ctx, gone, other.ID, "nice")
	require.NoError(t, err)
	g, err := e.groups.Create(ctx, gone, CreateGroupInput{Name: "Ana's club", IsPublic: true})
	require.NoError(t, err)

	require.NoError(t, e.settings.DeleteAccount(ctx, gone, "secret1"))

	page, err := e.feed.Assemble(ctx, friend, Scope{Kind: ScopeFriends}, "", 50)
	require.NoError(t, err)
	for _, p := range page.Posts {
		assert.NotEqual(t, own.ID, p.ID)
		assert.NotNil(t, p.Author)
	}
	require.Len(t, page.Posts, 1)
	assert.Equal(t, other.ID, page.Posts[0].ID)
	assert.Zero(t, page.Posts[0].LikeCount)
	assert.Zero(t, page.Posts[0].CommentCount)

	count, err := e.friends.CountFriends(ctx, friend)
	require.NoError(t, err)
	assert.Zero(t, count)
	ids, err := e.friends.FriendIDs(ctx, friend)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = e.groups.Get(ctx, friend, g.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	_, err = e.posts.Create(ctx, gone, CreatePostInput{Content: "after delete"})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnauthorized))
	_, err = e.posts.Like(ctx, gone, other.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnauthorized))
}
