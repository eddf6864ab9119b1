package handlers

import (
	"context"
	"errors"
	"net/http"

	aiservice "recipe-engine/internal/core/ai/service"
	"recipe-engine/internal/core/dictionary"
	"recipe-engine/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ToCustomError 將核心錯誤對應到 API 錯誤
func ToCustomError(err error) *common.CustomError {
	var ce *common.CustomError
	var dup *dictionary.DuplicateError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.As(err, &dup):
		return common.NewError(common.ErrConflict.Code, dup.Error(), common.ErrConflict.Status, err)
	case errors.Is(err, dictionary.ErrInvalidEntry), common.IsValidationError(err):
		return common.NewError(common.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, dictionary.ErrTranslationNotFound):
		return common.ErrNotFound.Wrap(err)
	case errors.Is(err, aiservice.ErrUnavailable):
		return common.ErrAIServiceError.Wrap(err)
	case errors.Is(err, aiservice.ErrRateLimited):
		return common.ErrTooManyRequests.Wrap(err)
	case errors.Is(err, context.DeadlineExceeded):
		return common.ErrGatewayTimeout.Wrap(err)
	default:
		return common.ErrInternalError.Wrap(err)
	}
}

// RespondError 輸出錯誤響應
func RespondError(c *gin.Context, err error) {
	ce := ToCustomError(err)
	fields := []zap.Field{
		zap.String("code", ce.Code),
		zap.Int("status", ce.Status),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
		zap.Error(err),
	}
	if ce.Status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求處理失敗", fields...)
	}

	resp := common.ErrorResponse{Code: ce.Code, Message: ce.Message}
	if gin.Mode() == gin.DebugMode && ce.Err != nil {
		resp.Details = ce.Err.Error()
	}
	c.AbortWithStatusJSON(ce.Status, resp)
}

// BindJSON 解析請求體，失敗時直接回應 400
func BindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		RespondError(c, common.ErrInvalidRequest.Wrap(err))
		return false
	}
	return true
}
