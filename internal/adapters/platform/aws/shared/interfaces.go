package shared

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
)

//go:generate mockery --name RateLimiter --output ./mocks --outpkg mocks --case underscore
//go:generate mockery --name ErrorHandler --output ./mocks --outpkg mocks --case underscore
//go:generate mockery --name STSClientInterface --output ./mocks --outpkg mocks --case underscore

// RateLimiter throttles calls into the AWS APIs. Every driver shares one.
type RateLimiter interface {
	Wait(ctx context.Context, logger ports.Logger) error
}

// ErrorHandler turns an SDK error into an application error. resourceType
// is a human label ("EC2 volume") and id the resource the call targeted.
type ErrorHandler interface {
	Handle(ctx context.Context, resourceType, id string, err error) error
}

type STSClientInterface interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}
