package service

import (
	"context"

	"gastbook/internal/model"
	"gastbook/pkg/logger"

	"go.uber.org/zap"
)

// Allowed is the visibility rule table. state is the viewer's relationship
// to the post author; it only matters for friends posts.
func Allowed(viewerID uint, post *model.Post, state State) bool {
	if post == nil {
		return false
	}
	if post.Visibility == model.VisibilityPublic {
		return true
	}
	if viewerID != 0 && viewerID == post.AuthorID {
		return true
	}
	switch post.Visibility {
	case model.VisibilityFriends:
		return state == StateAccepted
	default:
		// private, and anything unknown
		return false
	}
}

// VisibilityFilter decides whether a viewer may see a post.
type VisibilityFilter struct {
	resolver Resolver
}

func NewVisibilityFilter(resolver Resolver) *VisibilityFilter {
	return &VisibilityFilter{resolver: resolver}
}

// IsVisible never errors: a failed lookup hides the post.
func (f *VisibilityFilter) IsVisible(ctx context.Context, viewerID uint, post *model.Post) bool {
	if post == nil {
		return false
	}
	if post.Visibility != model.VisibilityFriends || viewerID == 0 || viewerID == post.AuthorID {
		return Allowed(viewerID, post, StateNone)
	}

	state, err := f.resolver.Resolve(ctx, viewerID, post.AuthorID)
	if err != nil {
		logger.Warn("visibility check failed closed",
			zap.Uint("viewer_id", viewerID),
			zap.Uint("post_id", post.ID),
			zap.Error(err),
		)
		return false
	}
	return Allowed(viewerID, post, state)
}
