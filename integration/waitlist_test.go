package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/akeren/go-waitlist/config"
	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/domain"
	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/internal/models"
	"github.com/akeren/go-waitlist/internal/notify"
	"github.com/akeren/go-waitlist/pkg/constants"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const adminPassword = "admin-secret"

type recordedMail struct {
	to, subject, html string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []recordedMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, recordedMail{to: to, subject: subject, html: html})
	return nil
}

func (m *recordingMailer) all() []recordedMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedMail(nil), m.sent...)
}

type WaitlistAPITestSuite struct {
	suite.Suite
	driver string

	db        *gorm.DB
	mr        *miniredis.Miniredis
	client    *redis.Client
	mailer    *recordingMailer
	server    *httptest.Server
	baseURL   string
	appConfig *config.ApplicationConfig
}

func TestWaitlistAPI_SQLite(t *testing.T) {
	suite.Run(t, &WaitlistAPITestSuite{driver: constants.StoreDriverSQLite})
}

func TestWaitlistAPI_Redis(t *testing.T) {
	suite.Run(t, &WaitlistAPITestSuite{driver: constants.StoreDriverRedis})
}

func (s *WaitlistAPITestSuite) SetupSuite() {
	logger := log.NewLogger(io.Discard, slog.LevelError)

	switch s.driver {
	case constants.StoreDriverSQLite:
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=10000", uuid.NewString())
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		s.Require().NoError(err)

		// SQLite serializes writes at the database level. Limiting to one open
		// connection prevents "database is locked" errors under concurrent load.
		sqlDB, err := db.DB()
		s.Require().NoError(err)
		sqlDB.SetMaxOpenConns(1)

		s.Require().NoError(db.AutoMigrate(models.ModelRegistry...))
		s.db = db
	case constants.StoreDriverRedis:
		mr, err := miniredis.Run()
		s.Require().NoError(err)
		s.mr = mr
		s.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}

	routerService := router.CreateRouterService(logger, &router.RouterConfig{RequestTimeout: 30 * time.Second})

	renderer, err := notify.NewRenderer("Chimera", "fr")
	s.Require().NoError(err)
	s.mailer = &recordingMailer{}
	dispatcher := notify.NewDispatcher(s.mailer, renderer, logger, notify.DispatcherConfig{
		Driver:     "test",
		Registerer: prometheus.NewRegistry(),
	})

	s.appConfig = &config.ApplicationConfig{
		DB:            s.db,
		Redis:         s.client,
		Notifier:      dispatcher,
		RouterService: routerService,
		Logger:        logger,
		StartedAt:     time.Now(),
		Config: &config.AppConfig{
			RequestTimeout: 30 * time.Second,
			Store: &config.StoreConfig{
				Driver:         s.driver,
				Key:            constants.DefaultStoreKey,
				AppendAttempts: constants.DefaultAppendAttempts,
				Timeout:        5 * time.Second,
			},
			Waitlist: &config.WaitlistConfig{
				AppName:       "Chimera",
				AdminPassword: adminPassword,
				Locale:        "fr",
			},
		},
	}

	s.Require().NoError(domain.SetupCoreDomain(s.appConfig))

	s.server = httptest.NewServer(routerService.GetEngine())
	s.baseURL = s.server.URL
}

func (s *WaitlistAPITestSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	s.appConfig.Cleanup()
	if s.mr != nil {
		s.mr.Close()
	}
}

func (s *WaitlistAPITestSuite) SetupTest() {
	switch s.driver {
	case constants.StoreDriverSQLite:
		s.db.Exec("DELETE FROM waitlist_entries")
		s.db.Exec("DELETE FROM waitlist_counters")
	case constants.StoreDriverRedis:
		s.mr.FlushAll()
	}
}

// Helper methods

func (s *WaitlistAPITestSuite) do(method, path string, body any) (int, map[string]any) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var response map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	return resp.StatusCode, response
}

func (s *WaitlistAPITestSuite) signup(email, name string) (int, map[string]any) {
	return s.do(http.MethodPost, "/api/waitlist", map[string]string{"email": email, "name": name})
}

func (s *WaitlistAPITestSuite) count() float64 {
	status, response := s.do(http.MethodGet, "/api/waitlist/count", nil)
	s.Require().Equal(http.StatusOK, status)
	return response["count"].(float64)
}

func (s *WaitlistAPITestSuite) TestSignupFlow() {
	status, response := s.signup("a@x.com", "Ann")
	s.Equal(http.StatusOK, status)
	s.Equal(map[string]any{"success": true, "message": "Inscription réussie !", "position": float64(1)}, response)

	status, response = s.signup("b@x.com", "")
	s.Equal(http.StatusOK, status)
	s.Equal(float64(2), response["position"])

	status, response = s.signup("a@x.com", "Ann again")
	s.Equal(http.StatusBadRequest, status)
	s.Equal(map[string]any{"success": false, "message": "Cet email est déjà enregistré sur la waitlist"}, response)

	s.Equal(float64(2), s.count())
}

func (s *WaitlistAPITestSuite) TestDuplicateIgnoresCaseAndWhitespace() {
	status, _ := s.signup("Ann@Example.com", "")
	s.Require().Equal(http.StatusOK, status)

	status, _ = s.signup("  ann@example.COM ", "")
	s.Equal(http.StatusBadRequest, status)
	s.Equal(float64(1), s.count())
}

func (s *WaitlistAPITestSuite) TestInvalidEmailsDoNotTouchTheStore() {
	for _, email := range []string{"not-an-email", "", "a@b"} {
		status, response := s.signup(email, "")
		s.Equal(http.StatusBadRequest, status, email)
		s.Equal("Email invalide", response["message"], email)
	}

	s.Equal(float64(0), s.count())
}

func (s *WaitlistAPITestSuite) TestConcurrentSignupsGetDistinctPositions() {
	const signups = 30

	positions := make([]int, signups)
	var wg sync.WaitGroup
	for i := 0; i < signups; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, response := s.signup(fmt.Sprintf("user%02d@x.com", i), "")
			if status == http.StatusOK {
				positions[i] = int(response["position"].(float64))
			}
		}(i)
	}
	wg.Wait()

	sort.Ints(positions)
	for i, position := range positions {
		s.Equal(i+1, position)
	}
	s.Equal(float64(signups), s.count())
}

func (s *WaitlistAPITestSuite) TestAdminListing() {
	s.signup("a@x.com", "Ann")
	s.signup("b@x.com", "")

	status, response := s.do(http.MethodGet, "/api/waitlist/all?password=wrong", nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(map[string]any{"success": false, "message": "Accès non autorisé"}, response)

	status, _ = s.do(http.MethodGet, "/api/waitlist/all", nil)
	s.Equal(http.StatusUnauthorized, status)

	status, response = s.do(http.MethodGet, "/api/waitlist/all?password="+adminPassword, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(true, response["success"])

	entries := response["waitlist"].([]any)
	s.Require().Len(entries, 2)
	first := entries[0].(map[string]any)
	s.Equal("a@x.com", first["email"])
	s.Equal("Ann", first["name"])
	s.Equal(float64(1), first["position"])
	_, err := time.Parse(constants.ISO8601MillisFormat, first["timestamp"].(string))
	s.NoError(err)
	s.Equal("b@x.com", entries[1].(map[string]any)["email"])
}

func (s *WaitlistAPITestSuite) TestMethodNotAllowed() {
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/waitlist"},
		{http.MethodDelete, "/api/waitlist"},
		{http.MethodPost, "/api/waitlist/count"},
		{http.MethodPut, "/api/waitlist/all"},
	} {
		status, response := s.do(tc.method, tc.path, nil)
		s.Equal(http.StatusMethodNotAllowed, status, tc.method+" "+tc.path)
		s.Equal(map[string]any{"success": false, "message": "Method not allowed"}, response)
	}
}

func (s *WaitlistAPITestSuite) TestUnknownRoute() {
	status, response := s.do(http.MethodGet, "/api/nope", nil)

	s.Equal(http.StatusNotFound, status)
	s.Equal(false, response["success"])
}

func (s *WaitlistAPITestSuite) TestHealthCheck() {
	status, response := s.do(http.MethodGet, "/health", nil)

	s.Equal(http.StatusOK, status)
	health := response["health"].(map[string]any)
	s.Equal("up", health["store"])
	s.Equal(s.driver, health["store_driver"])
	s.Contains(health, "uptime")
	s.NotNil(health["mail"])
}

func (s *WaitlistAPITestSuite) TestConfirmationMailIsSent() {
	before := len(s.mailer.all())

	status, _ := s.signup("mail@x.com", "Ann")
	s.Require().Equal(http.StatusOK, status)

	s.Eventually(func() bool {
		return len(s.mailer.all()) > before
	}, 2*time.Second, 10*time.Millisecond)

	var found *recordedMail
	for _, m := range s.mailer.all() {
		if m.to == "mail@x.com" {
			m := m
			found = &m
		}
	}
	s.Require().NotNil(found)
	s.Equal("Bienvenue sur la waitlist Chimera ! 🎉", found.subject)
	s.Contains(found.html, "Bonjour Ann")
	s.Contains(found.html, "#1</h1>")
}
