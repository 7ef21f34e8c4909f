package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/internal/notify"
)

const healthCheckTimeout = 2 * time.Second

// Store is the part of the waitlist store the health check needs.
type Store interface {
	Ping(ctx context.Context) error
}

// MailStatus reports the confirmation mail pipeline.
type MailStatus interface {
	Status() notify.DispatcherStatus
}

type HealthStatus struct {
	Store       string                   `json:"store"` // "up" or "down"
	StoreDriver string                   `json:"store_driver"`
	Mail        *notify.DispatcherStatus `json:"mail"` // null when mail is disabled
	Uptime      int                      `json:"uptime"`
}

type MonitoringController struct {
	store       Store
	storeDriver string
	mail        MailStatus
	appName     string
	logger      *log.Logger
	startTime   time.Time
}

// NewMonitoringController reports store reachability and mail state. mail may
// be nil.
func NewMonitoringController(store Store, storeDriver string, mail MailStatus, appName string, logger *log.Logger, startTime time.Time) *router.RESTController {
	ctrl := &MonitoringController{
		store:       store,
		storeDriver: storeDriver,
		mail:        mail,
		appName:     appName,
		logger:      logger,
		startTime:   startTime,
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			routerService.AddGetHandler(controller, "", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.monitor(c)
			})

			routerService.AddGetHandler(controller, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})
		},
	)
}

func (ctrl *MonitoringController) healthCheck(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := ctrl.performHealthChecks(ctx, logger)
	if status.Store != "up" {
		return router.ErrorResult(http.StatusServiceUnavailable, "Waitlist store is unavailable", router.Payload{"health": status})
	}

	return router.OKResult(router.Payload{"health": status}, "Health check completed")
}

func (ctrl *MonitoringController) monitor(
	c *router.RequestContext,
) *router.ServiceResult {
	return router.OKResult(nil, ctrl.appName+" waitlist is operational")
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Store:       "down",
		StoreDriver: ctrl.storeDriver,
		Uptime:      int(time.Since(ctrl.startTime).Seconds()),
	}

	if ctrl.store == nil {
		logger.Error("Store health check skipped: no store configured")
	} else if err := ctrl.store.Ping(ctx); err != nil {
		logger.Error("Store health check failed", "driver", ctrl.storeDriver, "error", err)
	} else {
		status.Store = "up"
	}

	if ctrl.mail != nil {
		mail := ctrl.mail.Status()
		status.Mail = &mail
		if mail.Breaker != "closed" {
			logger.Warn("Mail circuit is not closed", "breaker", mail.Breaker)
		}
	}

	return status
}
