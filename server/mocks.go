package server

import (
	"context"

	"github.com/stretchr/testify/mock"

	"awsview/awsd/models"
	"awsview/configuration"
)

// MockFetcher is a mock implementation of InstanceFetcher
type MockFetcher struct {
	mock.Mock
}

// FetchInstances mocks the FetchInstances method
func (m *MockFetcher) FetchInstances(ctx context.Context, cred configuration.Credential) ([]models.Instance, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Instance), args.Error(1)
}
