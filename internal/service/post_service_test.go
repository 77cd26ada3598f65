package service

import (
	"testing"

	"gastbook/internal/model"
	apperrors "gastbook/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost_CreateValidation(t *testing.T) {
	e := newEnv(t)
	a := e.user(t, "ana")

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"empty", CreatePostInput{Content: "   "}},
		{"markup only", CreatePostInput{Content: "<script>alert(1)</script>"}},
		{"bad visibility", CreatePostInput{Content: "hi", Visibility: "followers"}},
		{"bad attachment kind", CreatePostInput{Content: "hi", Attachments: []AttachmentInput{{Kind: "video", URL: "/x"}}}},
		{"bad attachment scheme", CreatePostInput{Content: "hi", Attachments: []AttachmentInput{{URL: "javascript:alert(1)"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.posts.Create(ctx, a, tt.in)
			assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation), err)
		})
	}
}

func TestPost_CreateSanitizesAndDefaults(t *testing.T) {
	e := newEnv(t)
	a := e.user(t, "ana")

	p, err := e.posts.Create(ctx, a, CreatePostInput{Content: "  <b>hello</b>  "})
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Content)
	assert.Equal(t, model.VisibilityPublic, p.Visibility)
	assert.Equal(t, "ana", p.Author.Username)
	assert.NotNil(t, p.Attachments)
}

func TestPost_FriendsPostVisibleAfterAccept(t *testing.T) {
	e := newEnv(t)
	a, b := e.user(t, "ana"), e.user(t, "ben")
	p := e.post(t, a, model.VisibilityFriends, "for friends")

	_, err := e.posts.Get(ctx, b, p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	e.befriend(t, a, b)

	got, err := e.posts.Get(ctx, b, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = e.posts.Get(ctx, 0, p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestPost_UpdateAndDeleteAuthorOnly(t *testing.T) {
	e := newEnv(t)
	a, b := e.user(t, "ana"), e.user(t, "ben")
	p := e.post(t, a, model.VisibilityPublic, "draft")

	content := "final"
	_, err := e.posts.Update(ctx, b, p.ID, UpdatePostInput{Content: &content})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeForbidden))

	private := model.VisibilityPrivate
	updated, err := e.posts.Update(ctx, a, p.ID, UpdatePostInput{Content: &content, Visibility: &private})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.Equal(t, model.VisibilityPrivate, updated.Visibility)

	_, err = e.posts.Update(ctx, a, p.ID, UpdatePostInput{})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))

	assert.True(t, apperrors.Is(e.posts.Delete(ctx, b, p.ID), apperrors.ErrCodeForbidden))
	require.NoError(t, e.posts.Delete(ctx, a, p.ID))
	assert.True(t, apperrors.Is(e.posts.Delete(ctx, a, p.ID), apperrors.ErrCodeNotFound))
}

func TestPost_LikesAreIdempotent(t *testing.T) {
	e := newEnv(t)
	a, b := e.user(t, "ana"), e.user(t, "ben")
	p := e.post(t, a, model.VisibilityPublic, "like me")

	for i := 0; i < 2; i++ {
		st, err := e.posts.Like(ctx, b, p.ID)
		require.NoError(t, err)
		assert.Equal(t, LikeState{Liked: true, LikeCount: 1}, *st)
	}
	assert.Equal(t, []string{model.NotificationLike}, e.notificationTypes(t, a), "one notification for repeated likes")

	for i := 0; i < 2; i++ {
		st, err := e.posts.Unlike(ctx, b, p.ID)
		require.NoError(t, err)
		assert.Equal(t, LikeState{Liked: false, LikeCount: 0}, *st)
	}
}

func TestPost_NoNotificationForSelfEngagement(t *testing.T) {
	e := newEnv(t)
	a := e.user(t, "ana")
	p := e.post(t, a, model.VisibilityPublic, "my post")

	_, err := e.posts.Like(ctx, a, p.ID)
	require.NoError(t, err)
	_, err = e.posts.AddComment(ctx, a, p.ID, "replying to myself")
	require.NoError(t, err)

	assert.Empty(t, e.notificationTypes(t, a))
	assert.Empty(t, e.pusher.types(a))
	assert.Empty(t, e.queue.jobs)
}

func TestPost_Comments(t *testing.T) {
	e := newEnv(t)
	a, b, c := e.user(t, "ana"), e.user(t, "ben"), e.user(t, "cy")
	p := e.post(t, a, model.VisibilityPublic, "discuss")

	first, err := e.posts.AddComment(ctx, b, p.ID, "first")
	require.NoError(t, err)
	second, err := e.posts.AddComment(ctx, c, p.ID, "second")
	require.NoError(t, err)

	_, err = e.posts.AddComment(ctx, b, p.ID, "  ")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))

	st, err := e.posts.LikeComment(ctx, a, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.LikeCount)

	list, err := e.posts.Comments(ctx, a, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID, "oldest first")
	assert.True(t, list[0].LikedByViewer)
	assert.Equal(t, "ben", list[0].Author.Username)

	// c cannot delete b's comment, the post author can
	assert.True(t, apperrors.Is(e.posts.DeleteComment(ctx, c, first.ID), apperrors.ErrCodeForbidden))
	require.NoError(t, e.posts.DeleteComment(ctx, a, first.ID))
	require.NoError(t, e.posts.DeleteComment(ctx, c, second.ID))

	list, err = e.posts.Comments(ctx, a, p.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestPost_HiddenPostRejectsEngagement(t *testing.T) {
	e := newEnv(t)
	a, b := e.user(t, "ana"), e.user(t, "ben")
	p := e.post(t, a, model.VisibilityPrivate, "diary")

	_, err := e.posts.Like(ctx, b, p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
	_, err = e.posts.AddComment(ctx, b, p.ID, "peek")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
	_, err = e.posts.Comments(ctx, b, p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}
