package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"gastbook/internal/repository"
	apperrors "gastbook/pkg/errors"
)

// Search result types
const (
	SearchAll      = "all"
	SearchProfiles = "profiles"
	SearchGroups   = "groups"
	SearchPosts    = "posts"
)

const (
	searchLimit    = 20
	maxSearchQuery = 100
)

type SearchResult struct {
	Profiles []*Author      `json:"profiles"`
	Groups   []GroupView    `json:"groups"`
	Posts    []EnrichedPost `json:"posts"`
}

type SearchService struct {
	users   *repository.UserRepository
	groups  *GroupService
	posts   *repository.PostRepository
	friends *FriendshipService
	feed    *FeedService
	repo    *repository.GroupRepository
}

func NewSearchService(users *repository.UserRepository, groupRepo *repository.GroupRepository, groups *GroupService, posts *repository.PostRepository, friends *FriendshipService, feed *FeedService) *SearchService {
	return &SearchService{users: users, repo: groupRepo, groups: groups, posts: posts, friends: friends, feed: feed}
}

// Search is a case-insensitive substring match. Every slice of the result is non-nil.
func (s *SearchService) Search(ctx context.Context, viewerID uint, query, kind string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Validation("search query is required")
	}
	if utf8.RuneCountInString(query) > maxSearchQuery {
		return nil, apperrors.Validation("search query is too long")
	}
	if kind == "" {
		kind = SearchAll
	}
	switch kind {
	case SearchAll, SearchProfiles, SearchGroups, SearchPosts:
	default:
		return nil, apperrors.Validation("type must be all, profiles, groups or posts")
	}

	result := &SearchResult{Profiles: []*Author{}, Groups: []GroupView{}, Posts: []EnrichedPost{}}

	if kind == SearchAll || kind == SearchProfiles {
		users, err := s.users.Search(ctx, query, searchLimit)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			result.Profiles = append(result.Profiles, AuthorOf(u))
		}
	}

	if kind == SearchAll || kind == SearchGroups {
		groups, err := s.repo.Search(ctx, query, viewerID, searchLimit)
		if err != nil {
			return nil, err
		}
		if result.Groups, err = s.groups.views(ctx, groups); err != nil {
			return nil, err
		}
	}

	if kind == SearchAll || kind == SearchPosts {
		var friendIDs []uint
		if viewerID != 0 {
			ids, err := s.friends.FriendIDs(ctx, viewerID)
			if err != nil {
				return nil, err
			}
			friendIDs = ids
		}
		posts, err := s.posts.Search(ctx, query, viewerID, friendIDs, searchLimit)
		if err != nil {
			return nil, err
		}
		if result.Posts, err = s.feed.Enrich(ctx, viewerID, posts); err != nil {
			return nil, err
		}
	}

	return result, nil
}
