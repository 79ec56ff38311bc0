package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"mktpulse/internal/dataset"
	"mktpulse/internal/infrastructure"
	"mktpulse/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	loader    *dataset.Loader
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]any           `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual component health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(loader *dataset.Loader, logger *slog.Logger) *HealthService {
	return &HealthService{
		loader:    loader,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck reports the data directory and every dataset file. The
// service is ready when the data directory exists; missing datasets only
// degrade it, since pages render notices in their place.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]ServiceHealth),
	}

	dir := hs.loader.Dir()
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		status.Status = "not_ready"
		status.Services["data_dir"] = ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Data directory not found: %s", dir),
		}
		hs.logger.WarnContext(ctx, "Readiness check failed", slog.String("data_dir", dir))
		return status
	}
	status.Services["data_dir"] = ServiceHealth{Status: "ready"}

	missing := 0
	for _, st := range hs.loader.Status(ctx) {
		if st.Exists {
			status.Services[st.Name] = ServiceHealth{Status: "ready"}
			continue
		}
		missing++
		status.Services[st.Name] = ServiceHealth{
			Status:  "missing",
			Message: fmt.Sprintf("expected %s", st.Path),
		}
	}
	if missing > 0 {
		status.Status = "degraded"
	}
	return status
}

// LivenessCheck returns liveness status with runtime figures
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime:   infrastructure.ReadRuntimeStats(hs.startTime).Format(),
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]any {
	info := contracts.GetVersionInfo()
	return map[string]any{
		"version":      info.Version,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"api_version":  info.APIVersion,
		"data_format":  info.DataFormat,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}
