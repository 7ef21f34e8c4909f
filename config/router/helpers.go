package router

import (
	"net/http"

	"github.com/akeren/go-waitlist/internal/log"
)

func GetLogger(ctx *RequestContext) *log.Logger {
	if l, ok := ctx.Request.Context().Value(log.LoggerKeyForContext).(*log.Logger); ok {
		return l
	}

	return log.NewLoggerWithJSONOutput().WithCorrelationID(ctx.Request.Context())
}

func OKResult(payload Payload, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Payload:    payload,
		Message:    message,
	}
}

func BadRequestResult(message string, payload Payload) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusBadRequest,
		Payload:    payload,
		Message:    message,
	}
}

func UnauthorizedResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
	}
}

func NotFoundResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusNotFound,
		Message:    message,
	}
}

func MethodNotAllowedResult() *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusMethodNotAllowed,
		Message:    "Method not allowed",
	}
}

func InternalServerErrorResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusInternalServerError,
		Message:    message,
	}
}

func ErrorResult(statusCode int, message string, payload Payload) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Payload:    payload,
		Message:    message,
	}
}
