package handler

import (
	"errors"
	"net/http"

	"github.com/eduassist/eduassist-go/internal/client"
	"github.com/eduassist/eduassist-go/internal/model"
	"github.com/eduassist/eduassist-go/internal/params"
	"github.com/eduassist/eduassist-go/internal/service"
	"github.com/gin-gonic/gin"
)

// 错误码
const (
	CodeMalformedRequest    = "MALFORMED_REQUEST"
	CodeMissingPrompt       = "MISSING_PROMPT"
	CodeNoAPIKey            = "NO_API_KEY"
	CodeAPIError            = "API_ERROR"
	CodeMissingAssignmentID = "MISSING_ASSIGNMENT_ID"
	CodeAssignmentNotFound  = "ASSIGNMENT_NOT_FOUND"
	CodeGradingError        = "GRADING_ERROR"
	CodeMissingParameters   = "MISSING_PARAMETERS"
	CodeMaterialNotFound    = "MATERIAL_NOT_FOUND"
	CodeEvaluationError     = "EVALUATION_ERROR"
	CodeDatabaseError       = "DATABASE_ERROR"
)

// respondError 统一错误响应
func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, model.NewErrorResponse(code, message))
}

// respondServiceError 把服务层错误映射为 HTTP 状态与错误码，其余错误使用 fallbackCode
func respondServiceError(c *gin.Context, err error, fallbackCode string) {
	var genErr *client.GenerationError
	switch {
	case errors.Is(err, params.ErrMalformedRequest):
		respondError(c, http.StatusBadRequest, CodeMalformedRequest, err.Error())
	case errors.Is(err, service.ErrMissingPrompt):
		respondError(c, http.StatusBadRequest, CodeMissingPrompt, err.Error())
	case errors.Is(err, client.ErrNoAPIKey):
		respondError(c, http.StatusBadRequest, CodeNoAPIKey, err.Error())
	case errors.Is(err, service.ErrAssignmentNotFound):
		respondError(c, http.StatusNotFound, CodeAssignmentNotFound, err.Error())
	case errors.Is(err, service.ErrMissingParameters):
		respondError(c, http.StatusBadRequest, CodeMissingParameters, err.Error())
	case errors.Is(err, service.ErrMaterialNotFound):
		respondError(c, http.StatusNotFound, CodeMaterialNotFound, err.Error())
	case fallbackCode == CodeAPIError && errors.As(err, &genErr):
		// 保留上游错误信息
		respondError(c, http.StatusInternalServerError, CodeAPIError, genErr.Error())
	default:
		respondError(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}
