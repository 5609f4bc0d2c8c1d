// Package mocks provides testify mocks for the engine's collaborator
// interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/voxflow/voxflow/pkg/models"
)

type MockAIProvider struct {
	mock.Mock
}

func (m *MockAIProvider) Generate(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	args := m.Called(ctx, prompt, model, maxTokens)

	return args.String(0), args.Error(1)
}

type MockInputCollector struct {
	mock.Mock
}

func (m *MockInputCollector) Collect(ctx context.Context, inputType string, timeout time.Duration, retries int) (string, error) {
	args := m.Called(ctx, inputType, timeout, retries)

	return args.String(0), args.Error(1)
}

type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Transfer(ctx context.Context, number, transferType string) (bool, error) {
	args := m.Called(ctx, number, transferType)

	return args.Bool(0), args.Error(1)
}

type MockFlowRepository struct {
	mock.Mock
}

func (m *MockFlowRepository) GetPublishedFlow(ctx context.Context, flowID string) (*models.Flow, error) {
	args := m.Called(ctx, flowID)

	if flow, ok := args.Get(0).(*models.Flow); ok {
		return flow, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockStatsSink struct {
	mock.Mock
}

func (m *MockStatsSink) SaveFlowStats(ctx context.Context, flowID string, stats models.FlowStats) error {
	args := m.Called(ctx, flowID, stats)

	return args.Error(0)
}

type MockRunRecorder struct {
	mock.Mock
}

func (m *MockRunRecorder) RecordRun(ctx context.Context, flowID string, status models.ExecutionStatus, duration time.Duration) {
	m.Called(ctx, flowID, status, duration)
}
