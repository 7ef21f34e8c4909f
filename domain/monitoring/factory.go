package monitoring

import (
	"time"

	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/internal/log"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	store       Store
	storeDriver string
	mail        MailStatus
	appName     string
	logger      *log.Logger
	startTime   time.Time
}

func NewMonitoringControllerFactory(store Store, storeDriver string, mail MailStatus, appName string, logger *log.Logger, startTime time.Time) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		store:       store,
		storeDriver: storeDriver,
		mail:        mail,
		appName:     appName,
		logger:      logger,
		startTime:   startTime,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.store, f.storeDriver, f.mail, f.appName, f.logger, f.startTime)
}
