package monitoring

import (
	"context"
	"errors"
	"sync"
	"time"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
)

// HealthChecker aggregates named dependency checks behind the /health
// endpoint.
type HealthChecker struct {
	mu     sync.RWMutex
	checks []HealthCheck
}

type HealthCheck struct {
	Name    string
	Check   func(ctx context.Context) error
	Timeout time.Duration
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

func (h *HealthChecker) AddCheck(name string, check func(ctx context.Context) error, timeout time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.checks = append(h.checks, HealthCheck{
		Name:    name,
		Check:   check,
		Timeout: timeout,
	})
}

// AddStorageCheck wires a repository backend ping.
func (h *HealthChecker) AddStorageCheck(ping func(ctx context.Context) error, timeout time.Duration) {
	h.AddCheck("storage", ping, timeout)
}

// AddRepositoryCheck verifies the meeting store answers reads. A
// not-found answer still proves the store is reachable.
func (h *HealthChecker) AddRepositoryCheck(repo ports.MeetingRepository, timeout time.Duration) {
	h.AddCheck("meetings", func(ctx context.Context) error {
		_, err := repo.Get(ctx, "healthcheck")
		if err != nil && !errors.Is(err, domain.ErrMeetingNotFound) {
			return err
		}
		return nil
	}, timeout)
}

// CheckAll runs every check and reports the combined status.
func (h *HealthChecker) CheckAll(ctx context.Context) HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	for _, check := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, check.Timeout)
		err := check.Check(checkCtx)
		cancel()

		if err != nil {
			status.Status = "unhealthy"
			status.Checks[check.Name] = err.Error()
		} else {
			status.Checks[check.Name] = "healthy"
		}
	}

	return status
}

// IsReady reports whether the service should accept traffic.
func (h *HealthChecker) IsReady(ctx context.Context) bool {
	return h.CheckAll(ctx).Status == "healthy"
}
