package waitlist

import (
	"errors"
	"io"

	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/internal/log"
	apperrors "github.com/akeren/go-waitlist/pkg/errors"
)

func NewWaitlistController(
	repository WaitlistRepository,
	notifier Notifier,
	logger *log.Logger,
	cfg ServiceConfig,
) *router.RESTController {
	if cfg.Messages == nil {
		cfg.Messages = DefaultMessages()
	}

	return router.NewRESTController(
		"WaitlistController",
		"/api/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			cfg.Registerer = rs.MetricsRegisterer()
			service := NewWaitlistService(logger, repository, notifier, cfg)

			rs.AddPostHandler(c, "", submitWaitlistHandler(service, cfg.Messages))
			rs.AddGetHandler(c, "count", countWaitlistHandler(service))
			rs.AddGetHandler(c, "all", listWaitlistHandler(service))
		},
	)
}

func submitWaitlistHandler(service WaitlistService, messages *Messages) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req SubmitWaitlistRequest

		// An empty body falls through to email validation.
		if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			logger.Warn("Failed to bind waitlist request", "error", err)

			validationErrors := apperrors.FormatValidationErrors(err, &req)
			if len(validationErrors) > 0 {
				return router.BadRequestResult(messages.InvalidBody, router.Payload{"errors": validationErrors})
			}

			return router.BadRequestResult(messages.InvalidBody, nil)
		}

		response, err := service.Submit(ctx.Request.Context(), &req)
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		return router.OKResult(router.Payload{"position": response.Position}, messages.SignupSuccess)
	}
}

func countWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.Count(ctx.Request.Context())
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		return router.OKResult(router.Payload{"count": response.Count}, "")
	}
}

func listWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		entries, err := service.ListAll(ctx.Request.Context(), ctx.Query("password"))
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		return router.OKResult(router.Payload{"waitlist": entries}, "")
	}
}
