package server

import (
	"context"

	"awsview/awsd/models"
	"awsview/configuration"
)

// InstanceFetcher defines the interface for collecting the instances one
// credential can see.
type InstanceFetcher interface {
	FetchInstances(ctx context.Context, cred configuration.Credential) ([]models.Instance, error)
}
