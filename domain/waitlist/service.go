package waitlist

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"regexp"
	"time"

	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/internal/models"
	"github.com/akeren/go-waitlist/pkg/constants"
	apperrors "github.com/akeren/go-waitlist/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Notifier receives every successful signup. Implementations must not block.
type Notifier interface {
	NotifySignup(ctx context.Context, entry models.WaitlistEntry)
}

type noopNotifier struct{}

func (noopNotifier) NotifySignup(context.Context, models.WaitlistEntry) {}

type WaitlistService interface {
	// Initialize makes sure the backing collection exists.
	Initialize(ctx context.Context) error

	// Submit validates the request, appends it atomically and returns the assigned position.
	Submit(ctx context.Context, req *SubmitWaitlistRequest) (*SubmitWaitlistResponse, error)

	// Count returns the number of signups.
	Count(ctx context.Context) (*CountResponse, error)

	// ListAll returns every entry when password matches the admin secret.
	ListAll(ctx context.Context, password string) ([]WaitlistEntryResponse, error)
}

type ServiceConfig struct {
	AdminPassword string
	StoreTimeout  time.Duration
	Messages      *Messages
	Registerer    prometheus.Registerer
	Now           func() time.Time
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	notifier   Notifier
	messages   *Messages
	adminHash  []byte
	timeout    time.Duration
	now        func() time.Time
	metrics    *signupMetrics
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, notifier Notifier, cfg ServiceConfig) WaitlistService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if cfg.Messages == nil {
		cfg.Messages = DefaultMessages()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = constants.DefaultStoreTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var adminHash []byte
	if cfg.AdminPassword != "" {
		sum := sha256.Sum256([]byte(cfg.AdminPassword))
		adminHash = sum[:]
	}

	return &waitlistService{
		logger:     logger,
		repository: repository,
		notifier:   notifier,
		messages:   cfg.Messages,
		adminHash:  adminHash,
		timeout:    cfg.StoreTimeout,
		now:        cfg.Now,
		metrics:    newSignupMetrics(cfg.Registerer),
	}
}

func (s *waitlistService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *waitlistService) Initialize(ctx context.Context) error {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.repository.Initialize(storeCtx); err != nil {
		logger.Error("Failed to initialize waitlist store", "error", err)
		return err
	}

	logger.Info("Waitlist store initialized")
	return nil
}

func (s *waitlistService) Submit(ctx context.Context, req *SubmitWaitlistRequest) (*SubmitWaitlistResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		s.metrics.observe(outcomeInvalid)
		return nil, apperrors.NewInvalidRequestError(s.messages.InvalidEmail, nil)
	}

	entry := ToWaitlistEntryModel(req, s.now())
	if !emailPattern.MatchString(entry.Email) {
		s.metrics.observe(outcomeInvalid)
		logger.Info("Rejected waitlist signup with invalid email")
		return nil, apperrors.NewInvalidRequestError(s.messages.InvalidEmail, nil)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	created, err := s.repository.Append(storeCtx, entry)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			s.metrics.observe(outcomeDuplicate)
			logger.Info("Duplicate waitlist signup", "email", log.RedactEmail(entry.Email))
			return nil, apperrors.NewInvalidRequestError(s.messages.AlreadyRegistered, err)
		}

		s.metrics.observe(outcomeError)
		logger.Error("Failed to append waitlist entry", "email", log.RedactEmail(entry.Email), "timeout", apperrors.IsTimeout(err), "error", err)
		return nil, apperrors.NewDatabaseError(s.messages.SignupFailed, err)
	}

	s.metrics.observe(outcomeCreated)
	logger.Info("Waitlist signup stored", "email", log.RedactEmail(created.Email), "position", created.Position)

	s.notifier.NotifySignup(ctx, *created)

	return &SubmitWaitlistResponse{Position: created.Position}, nil
}

func (s *waitlistService) Count(ctx context.Context) (*CountResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	count, err := s.repository.Count(storeCtx)
	if err != nil {
		logger.Error("Failed to count waitlist entries", "error", err)
		return nil, apperrors.NewDatabaseError(s.messages.CountFailed, err)
	}

	return &CountResponse{Count: count}, nil
}

func (s *waitlistService) ListAll(ctx context.Context, password string) ([]WaitlistEntryResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if !s.authorized(password) {
		logger.Warn("Rejected waitlist listing with wrong admin password")
		return nil, apperrors.NewUnauthorizedError(s.messages.Unauthorized, nil)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	entries, err := s.repository.Load(storeCtx)
	if err != nil {
		logger.Error("Failed to load waitlist entries", "error", err)
		return nil, apperrors.NewDatabaseError(s.messages.ListFailed, err)
	}

	responses := make([]WaitlistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ToWaitlistEntryResponse(entry))
	}

	return responses, nil
}

// authorized compares SHA-256 digests in constant time. An unset admin
// password rejects everyone.
func (s *waitlistService) authorized(password string) bool {
	if s.adminHash == nil {
		return false
	}
	sum := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(sum[:], s.adminHash) == 1
}
