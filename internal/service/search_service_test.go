package service

import (
	"testing"

	"gastbook/internal/model"
	apperrors "gastbook/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_RespectsVisibility(t *testing.T) {
	e := newEnv(t)
	a, b, c := e.user(t, "ana"), e.user(t, "ben"), e.user(t, "cy")
	e.befriend(t, a, b)

	e.post(t, a, model.VisibilityPublic, "kayak trip public")
	e.post(t, a, model.VisibilityFriends, "kayak trip friends")
	e.post(t, a, model.VisibilityPrivate, "kayak trip private")

	contents := func(viewer uint) []string {
		res, err := e.search.Search(ctx, viewer, "KAYAK", SearchPosts)
		require.NoError(t, err)
		var out []string
		for _, p := range res.Posts {
			out = append(out, p.Content)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"kayak trip public", "kayak trip friends", "kayak trip private"}, contents(a))
	assert.ElementsMatch(t, []string{"kayak trip public", "kayak trip friends"}, contents(b))
	assert.ElementsMatch(t, []string{"kayak trip public"}, contents(c))
	assert.ElementsMatch(t, []string{"kayak trip public"}, contents(0))
}

func TestSearch_GroupsAndProfiles(t *testing.T) {
	e := newEnv(t)
	a, b := e.user(t, "ana"), e.user(t, "ben")

	_, err := e.groups.Create(ctx, a, CreateGroupInput{Name: "Open Climbers", IsPublic: true})
	require.NoError(t, err)
	_, err = e.groups.Create(ctx, a, CreateGroupInput{Name: "Secret Climbers", IsPublic: false})
	require.NoError(t, err)

	res, err := e.search.Search(ctx, b, "climbers", SearchAll)
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, "Open Climbers", res.Groups[0].Name)
	assert.Empty(t, res.Profiles)
	assert.NotNil(t, res.Posts)

	res, err = e.search.Search(ctx, a, "climbers", SearchGroups)
	require.NoError(t, err)
	assert.Len(t, res.Groups, 2)

	res, err = e.search.Search(ctx, 0, "an", SearchProfiles)
	require.NoError(t, err)
	require.Len(t, res.Profiles, 1)
	assert.Equal(t, "ana", res.Profiles[0].Username)
	assert.Empty(t, res.Groups)
}

func TestSearch_Validation(t *testing.T) {
	e := newEnv(t)

	_, err := e.search.Search(ctx, 0, "   ", SearchAll)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
	_, err = e.search.Search(ctx, 0, "x", "comments")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))

	res, err := e.search.Search(ctx, 0, "under_score", "")
	require.NoError(t, err)
	assert.Empty(t, res.Posts)
}

func TestSearch_WildcardsMatchLiterally(t *testing.T) {
	e := newEnv(t)
	a := e.user(t, "ana")
	e.user(t, "ben")
	e.post(t, a, model.VisibilityPublic, "50% off today")
	e.post(t, a, model.VisibilityPublic, "500 off today")
	e.post(t, a, model.VisibilityPublic, "snake_case names")
	e.post(t, a, model.VisibilityPublic, "snakeXcase names")

	tests := []struct {
		query    string
		profiles int
		posts    []string
	}{
		{"%", 0, nil},
		{"_", 0, []string{"snake_case names"}},
		{"0%", 0, []string{"50% off today"}},
		{"e_c", 0, []string{"snake_case names"}},
		{"!", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := e.search.Search(ctx, 0, tt.query, SearchAll)
			require.NoError(t, err)
			assert.Len(t, res.Profiles, tt.profiles)
			var got []string
			for _, p := range res.Posts {
				got = append(got, p.Content)
			}
			assert.ElementsMatch(t, tt.posts, got)
		})
	}
}

func TestSearch_HiddenRowsDoNotCrowdOutVisibleOnes(t *testing.T) {
	e := newEnv(t)
	a, c := e.user(t, "ana"), e.user(t, "cy")

	e.post(t, a, model.VisibilityPublic, "needle in public")
	for i := 0; i < 70; i++ {
		e.post(t, a, model.VisibilityPrivate, "needle kept private")
	}

	res, err := e.search.Search(ctx, c, "needle", SearchPosts)
	require.NoError(t, err)
	require.Len(t, res.Posts, 1)
	assert.Equal(t, "needle in public", res.Posts[0].Content)

	res, err = e.search.Search(ctx, a, "needle", SearchPosts)
	require.NoError(t, err)
	assert.Len(t, res.Posts, searchLimit)
}

func TestSearch_GroupMembersFindGroupPosts(t *testing.T) {
	e := newEnv(t)
	owner, member, outsider := e.user(t, "ana"), e.user(t, "ben"), e.user(t, "cy")

	g, err := e.groups.Create(ctx, owner, CreateGroupInput{Name: "Rowers", IsPublic: true})
	require.NoError(t, err)
	_, err = e.groups.Join(ctx, member, g.ID)
	require.NoError(t, err)
	_, err = e.posts.Create(ctx, owner, CreatePostInput{Content: "regatta plans", Visibility: model.VisibilityFriends, GroupID: g.ID})
	require.NoError(t, err)

	res, err := e.search.Search(ctx, member, "regatta", SearchPosts)
	require.NoError(t, err)
	require.Len(t, res.Posts, 1)
	_, err = e.posts.Get(ctx, member, res.Posts[0].ID)
	assert.NoError(t, err)

	res, err = e.search.Search(ctx, outsider, "regatta", SearchPosts)
	require.NoError(t, err)
	assert.Empty(t, res.Posts)
}
