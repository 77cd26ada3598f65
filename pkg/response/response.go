package response

import (
	"errors"
	"net/http"

	"gastbook/internal/model"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response envelope. Code 0 means success; otherwise it mirrors an HTTP status.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"` // debug mode only
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithDetails attaches err to the body in debug mode.
func ErrorWithDetails(c *gin.Context, code int, message string, err error) {
	resp := Response{
		Code:    code,
		Message: message,
	}
	if gin.Mode() == gin.DebugMode && err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// TooManyRequests is the one helper that also sets the HTTP status, so
// proxies and clients can back off without parsing the body.
func TooManyRequests(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
		Code:    http.StatusTooManyRequests,
		Message: message,
	})
}

// FromError maps a service error onto the envelope. Anything that is not an
// AppError is logged and reported as a generic internal error.
func FromError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	switch appErr.Code {
	case apperrors.ErrCodeValidation:
		BadRequest(c, appErr.Message)
	case apperrors.ErrCodeUnauthorized:
		Unauthorized(c, appErr.Message)
	case apperrors.ErrCodeForbidden:
		Forbidden(c, appErr.Message)
	case apperrors.ErrCodeNotFound:
		NotFound(c, appErr.Message)
	case apperrors.ErrCodeAlreadyExists:
		Conflict(c, appErr.Message)
	case apperrors.ErrCodeRateLimitExceeded:
		TooManyRequests(c, appErr.Message)
	default:
		logger.Error("request failed",
			zap.String("request_id", logger.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		_ = c.Error(err)
		ErrorWithDetails(c, http.StatusInternalServerError, "internal error", err)
	}
}

// UserInfo user without sensitive fields
type UserInfo struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	Status      string `json:"status,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// FilterUserInfo view of the account owner, email included.
func FilterUserInfo(user *model.User) *UserInfo {
	if user == nil {
		return nil
	}
	info := PublicUserInfo(user)
	info.Email = user.Email
	info.Status = user.Status
	return info
}

// PublicUserInfo view of someone else's profile.
func PublicUserInfo(user *model.User) *UserInfo {
	if user == nil {
		return nil
	}
	return &UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
		AvatarURL:   user.AvatarURL,
		CreatedAt:   user.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// AuthResponse register and login
type AuthResponse struct {
	User        *UserInfo `json:"user"`
	AccessToken string    `json:"access_token"`
}
