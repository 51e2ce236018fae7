// Package security binds a SecurityDriver to security group and key pair
// handles. Neither kind has an observable lifecycle: a handle either refers
// to something that exists or its calls fail with CodeResourceNotFound.
package security

import (
	"context"
	"fmt"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type Service struct {
	driver ports.SecurityDriver
	logger ports.Logger
}

var _ ports.SecurityService = (*Service)(nil)

func NewService(driver ports.SecurityDriver, logger ports.Logger) *Service {
	return &Service{driver: driver, logger: logger}
}

func (s *Service) SecurityGroups() ports.SecurityGroupCollection { return groupCollection{s} }
func (s *Service) KeyPairs() ports.KeyPairCollection             { return keyPairCollection{s} }

type SecurityGroup struct {
	svc     *Service
	rec     domain.SecurityGroupRecord
	deleted bool
}

var _ ports.SecurityGroup = (*SecurityGroup)(nil)

func (g *SecurityGroup) ID() string          { return g.rec.ID }
func (g *SecurityGroup) Name() string        { return g.rec.Name }
func (g *SecurityGroup) Description() string { return g.rec.Description }

func (g *SecurityGroup) Rules() []domain.SecurityGroupRule {
	return append([]domain.SecurityGroupRule(nil), g.rec.Rules...)
}

// AddRule validates the rule before it reaches the backend and returns it
// as recorded on the group.
func (g *SecurityGroup) AddRule(ctx context.Context, rule domain.SecurityGroupRule) (domain.SecurityGroupRule, error) {
	if g.deleted {
		return domain.SecurityGroupRule{}, apperrors.New(apperrors.CodeInvalidState,
			fmt.Sprintf("security group %s has been deleted", g.rec.ID))
	}
	if err := rule.Validate(); err != nil {
		return domain.SecurityGroupRule{}, err
	}
	if g.RuleExists(rule.FromPort, rule.ToPort, rule.Protocol, rule.CIDR) && rule.SourceGroupID == "" {
		return rule, nil
	}
	g.svc.logger.Debugf(ctx, "Authorizing %s on %s", rule, g.rec.ID)
	if err := g.svc.driver.AuthorizeIngress(ctx, g.rec.ID, rule); err != nil {
		return domain.SecurityGroupRule{}, apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to add rule %s to %s", rule, g.rec.ID))
	}
	g.rec.Rules = append(g.rec.Rules, rule)
	return rule, nil
}

func (g *SecurityGroup) RuleExists(fromPort, toPort int32, protocol, cidr string) bool {
	for _, r := range g.rec.Rules {
		if r.Matches(fromPort, toPort, protocol, cidr) {
			return true
		}
	}
	return false
}

func (g *SecurityGroup) Delete(ctx context.Context) error {
	if g.deleted {
		return apperrors.New(apperrors.CodeInvalidState,
			fmt.Sprintf("security group %s has already been deleted", g.rec.ID))
	}
	if err := g.svc.driver.DeleteSecurityGroup(ctx, g.rec.ID); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to delete security group %s", g.rec.ID))
	}
	g.deleted = true
	return nil
}

type groupCollection struct{ svc *Service }

func (c groupCollection) Get(ctx context.Context, id string) (ports.SecurityGroup, error) {
	rec, err := c.svc.driver.DescribeSecurityGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SecurityGroup{svc: c.svc, rec: rec}, nil
}

func (c groupCollection) List(ctx context.Context) ([]ports.SecurityGroup, error) {
	recs, err := c.svc.driver.ListSecurityGroups(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError, "failed to list security groups")
	}
	out := make([]ports.SecurityGroup, 0, len(recs))
	for _, rec := range recs {
		out = append(out, &SecurityGroup{svc: c.svc, rec: rec})
	}
	return out, nil
}

func (c groupCollection) Create(ctx context.Context, name, description string) (ports.SecurityGroup, error) {
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "security group name is required")
	}
	rec, err := c.svc.driver.CreateSecurityGroup(ctx, name, description)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to create security group %q", name))
	}
	return &SecurityGroup{svc: c.svc, rec: rec}, nil
}

type KeyPair struct {
	svc     *Service
	rec     domain.KeyPairRecord
	deleted bool
}

var _ ports.KeyPair = (*KeyPair)(nil)

func (k *KeyPair) Name() string        { return k.rec.Name }
func (k *KeyPair) Material() string    { return k.rec.Material }
func (k *KeyPair) Fingerprint() string { return k.rec.Fingerprint }

func (k *KeyPair) Delete(ctx context.Context) error {
	if k.deleted {
		return apperrors.New(apperrors.CodeInvalidState,
			fmt.Sprintf("key pair %s has already been deleted", k.rec.Name))
	}
	if err := k.svc.driver.DeleteKeyPair(ctx, k.rec.Name); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to delete key pair %s", k.rec.Name))
	}
	k.deleted = true
	return nil
}

type keyPairCollection struct{ svc *Service }

func (c keyPairCollection) Get(ctx context.Context, name string) (ports.KeyPair, error) {
	rec, err := c.svc.driver.DescribeKeyPair(ctx, name)
	if err != nil {
		return nil, err
	}
	return &KeyPair{svc: c.svc, rec: rec}, nil
}

func (c keyPairCollection) List(ctx context.Context) ([]ports.KeyPair, error) {
	recs, err := c.svc.driver.ListKeyPairs(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError, "failed to list key pairs")
	}
	out := make([]ports.KeyPair, 0, len(recs))
	for _, rec := range recs {
		out = append(out, &KeyPair{svc: c.svc, rec: rec})
	}
	return out, nil
}

func (c keyPairCollection) Create(ctx context.Context, name string) (ports.KeyPair, error) {
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "key pair name is required")
	}
	rec, err := c.svc.driver.CreateKeyPair(ctx, name)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to create key pair %q", name))
	}
	return &KeyPair{svc: c.svc, rec: rec}, nil
}
