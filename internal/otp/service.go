package otp

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aonbas.x341.dev/internal/cache"
	"aonbas.x341.dev/internal/logging"
)

const keyPrefix = "otp:"

// Otp is a small payload handed from one client to another through the server.
type Otp struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Payload   string `json:"payload"`
	Timestamp int64  `json:"ts"`
}

// Service stores OTPs in the shared TTL cache under "otp:{id}". Entries are
// volatile and compete with other cached data for capacity.
type Service struct {
	cache  *cache.TTLCache
	logger *slog.Logger
	now    func() time.Time
}

func NewService(ttlCache *cache.TTLCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cache:  ttlCache,
		logger: logger.With(slog.String("component", "otp_service")),
		now:    time.Now,
	}
}

// Create stores a new OTP with a random id.
func (s *Service) Create(otpType, payload string) (Otp, error) {
	o := Otp{
		ID:        uuid.NewString(),
		Type:      otpType,
		Payload:   payload,
		Timestamp: s.now().UnixMilli(),
	}

	b, err := json.Marshal(o)
	if err != nil {
		return Otp{}, err
	}
	s.cache.Put(keyPrefix+o.ID, string(b))

	s.logger.Debug("otp created", slog.String("id", o.ID), slog.String("type", o.Type))
	return o, nil
}

// Get returns the OTP stored under id.
func (s *Service) Get(id string) (Otp, bool) {
	key := keyPrefix + id
	raw, ok := s.cache.Get(key)
	if !ok {
		return Otp{}, false
	}

	var o Otp
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		logging.LogError(s.logger, "invalid otp stored in cache", err, slog.String("key", key))
		return Otp{}, false
	}
	return o, true
}

// Remove deletes the OTP and reports whether it was present.
func (s *Service) Remove(id string) bool {
	key := keyPrefix + id
	if _, ok := s.cache.Get(key); !ok {
		return false
	}
	s.cache.Remove(key)
	s.logger.Debug("otp removed", slog.String("id", id))
	return true
}
