package router

import (
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// Payload fields are merged into the top level of the response body.
type Payload = gin.H

type ServiceResult struct {
	StatusCode int
	Message    string
	Payload    Payload
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

// ToJSON renders {"success": bool, "message"?: string, ...payload}.
func (result *ServiceResult) ToJSON() gin.H {
	body := gin.H{}
	for k, v := range result.Payload {
		body[k] = v
	}

	body["success"] = result.IsSuccess()
	if result.Message != "" {
		body["message"] = result.Message
	}

	return body
}

func (result *ServiceResult) IsSuccess() bool {
	return result.StatusCode >= 200 && result.StatusCode < 300
}

func (result *ServiceResult) IsError() bool {
	return result.StatusCode >= 400
}
