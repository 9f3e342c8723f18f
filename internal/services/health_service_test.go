package services

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"clientpulse/internal/shared/testutil"
	"clientpulse/pkg/contracts"
)

type MockCapacity struct {
	mock.Mock
}

func (m *MockCapacity) InFlight() int64 {
	return m.Called().Get(0).(int64)
}

func (m *MockCapacity) Capacity() int64 {
	return m.Called().Get(0).(int64)
}

func TestHealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService(nil, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, contracts.Version, status.Version)
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		inFlight   int64
		limit      int64
		wantStatus string
	}{
		{name: "idle", inFlight: 0, limit: 4, wantStatus: "ready"},
		{name: "partially used", inFlight: 3, limit: 4, wantStatus: "ready"},
		{name: "saturated", inFlight: 4, limit: 4, wantStatus: "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capacity := &MockCapacity{}
			capacity.On("InFlight").Return(tt.inFlight)
			capacity.On("Capacity").Return(tt.limit)

			logger, logs := testutil.NewTestLogger(t)
			status := NewHealthService(capacity, logger).ReadinessCheck(context.Background())

			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantStatus, status.Services["analysis"].Status)
			assert.Equal(t, tt.wantStatus != "ready", logs.ContainsMessage("readiness check failed"))
			capacity.AssertExpectations(t)
		})
	}
}

func TestReadinessWithoutCapacity(t *testing.T) {
	status := NewHealthService(nil, nil).ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
}

func TestLivenessCheck(t *testing.T) {
	status := NewHealthService(nil, nil).LivenessCheck(context.Background())

	assert.Equal(t, "alive", status.Status)
	assert.Equal(t, runtime.Version(), status.Runtime["go_version"])
	assert.Contains(t, status.Runtime, "uptime")
}

func TestVersion(t *testing.T) {
	info := NewHealthService(nil, nil).Version()

	assert.Equal(t, contracts.Version, info["version"])
	assert.Equal(t, runtime.GOOS, info["os"])
	assert.Equal(t, contracts.APIVersion, info["api_version"])
}
