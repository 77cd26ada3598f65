package response

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "gastbook/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
		wantMsg    string
	}{
		{"validation", apperrors.Validation("content is required"), http.StatusOK, 400, "content is required"},
		{"forbidden wrapped", fmt.Errorf("post: %w", apperrors.Forbidden("not your post")), http.StatusOK, 403, "not your post"},
		{"not found", apperrors.NotFound("post not found"), http.StatusOK, 404, "post not found"},
		{"conflict", apperrors.Conflict("already friends"), http.StatusOK, 409, "already friends"},
		{"rate limited", apperrors.New(apperrors.ErrCodeRateLimitExceeded, "slow down"), http.StatusTooManyRequests, 429, "slow down"},
		{"plain error", stderrors.New("db down"), http.StatusOK, 500, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			FromError(c, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}
