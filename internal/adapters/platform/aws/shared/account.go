package shared

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

// AccountResolver looks up the caller's account id once and caches it.
type AccountResolver struct {
	client       STSClientInterface
	limiter      RateLimiter
	errorHandler ErrorHandler

	mu        sync.RWMutex
	accountID string
}

func NewAccountResolver(client STSClientInterface, limiter RateLimiter, errorHandler ErrorHandler) *AccountResolver {
	return &AccountResolver{client: client, limiter: limiter, errorHandler: errorHandler}
}

func (a *AccountResolver) AccountID(ctx context.Context, logger ports.Logger) (string, error) {
	a.mu.RLock()
	acc := a.accountID
	a.mu.RUnlock()
	if acc != "" {
		return acc, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.accountID != "" {
		return a.accountID, nil
	}

	if err := a.limiter.Wait(ctx, logger); err != nil {
		return "", err
	}
	out, err := a.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", a.errorHandler.Handle(ctx, "STS caller identity", "", err)
	}
	if out.Account == nil {
		return "", apperrors.New(apperrors.CodePlatformAPIError, "AWS caller identity response did not contain Account ID")
	}
	a.accountID = aws.ToString(out.Account)
	logger.Debugf(ctx, "Resolved AWS account %s", a.accountID)
	return a.accountID, nil
}
