package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 3 * time.Second

type HealthCheck func(ctx context.Context) error

type CheckResult struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration"`
}

type healthChecker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheck
}

var globalHealthChecker = &healthChecker{checks: make(map[string]HealthCheck)}

// RegisterHealthCheck adds or replaces the named dependency probe.
func RegisterHealthCheck(name string, check HealthCheck) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	globalHealthChecker.checks[name] = check
}

// RunHealthChecks runs every registered probe concurrently, each bounded by
// its own timeout.
func RunHealthChecks() map[string]CheckResult {
	globalHealthChecker.mu.RLock()
	checks := make(map[string]HealthCheck, len(globalHealthChecker.checks))
	for name, check := range globalHealthChecker.checks {
		checks[name] = check
	}
	globalHealthChecker.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check HealthCheck) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
			defer cancel()

			start := time.Now()
			result := CheckResult{Name: name, Status: "healthy"}
			if err := check(ctx); err != nil {
				result.Status = "unhealthy"
				result.Message = err.Error()
			}
			result.Duration = time.Since(start).String()

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	return results
}

func allHealthy(results map[string]CheckResult) bool {
	for _, r := range results {
		if r.Status != "healthy" {
			return false
		}
	}
	return true
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results := RunHealthChecks()

		status, code := "healthy", http.StatusOK
		if !allHealthy(results) {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"service":   "todo-gpt",
			"checks":    results,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results := RunHealthChecks()
		if !allHealthy(results) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": results})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "alive",
			"uptime": GetSystemMetrics().Uptime.String(),
		})
	}
}
