package ec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
)

const (
	labelSecurityGroup = "EC2 security group"
	labelKeyPair       = "EC2 key pair"
)

func (d *Driver) DescribeSecurityGroup(ctx context.Context, id string) (domain.SecurityGroupRecord, error) {
	if err := d.wait(ctx); err != nil {
		return domain.SecurityGroupRecord{}, err
	}
	out, err := d.client.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{GroupIds: []string{id}})
	if err != nil {
		return domain.SecurityGroupRecord{}, d.fail(ctx, labelSecurityGroup, id, err)
	}
	if len(out.SecurityGroups) == 0 {
		return domain.SecurityGroupRecord{}, notFound(domain.KindSecurityGroup, id)
	}
	return mapSecurityGroup(out.SecurityGroups[0]), nil
}

func (d *Driver) ListSecurityGroups(ctx context.Context) ([]domain.SecurityGroupRecord, error) {
	paginator := ec2.NewDescribeSecurityGroupsPaginator(d.client, &ec2.DescribeSecurityGroupsInput{})
	var records []domain.SecurityGroupRecord
	for paginator.HasMorePages() {
		if err := d.wait(ctx); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, d.fail(ctx, labelSecurityGroup+"s", "", err)
		}
		for _, sg := range page.SecurityGroups {
			records = append(records, mapSecurityGroup(sg))
		}
	}
	return records, nil
}

func (d *Driver) CreateSecurityGroup(ctx context.Context, name, description string) (domain.SecurityGroupRecord, error) {
	if err := d.wait(ctx); err != nil {
		return domain.SecurityGroupRecord{}, err
	}
	out, err := d.client.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String(description),
	})
	if err != nil {
		return domain.SecurityGroupRecord{}, d.fail(ctx, labelSecurityGroup, name, err)
	}
	return domain.SecurityGroupRecord{
		ID:          aws.ToString(out.GroupId),
		Name:        name,
		Description: description,
	}, nil
}

func (d *Driver) AuthorizeIngress(ctx context.Context, groupID string, rule domain.SecurityGroupRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if err := d.wait(ctx); err != nil {
		return err
	}
	_, err := d.client.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(groupID),
		IpPermissions: []types.IpPermission{ipPermission(rule)},
	})
	if err != nil {
		return d.fail(ctx, labelSecurityGroup, groupID, err)
	}
	return nil
}

func (d *Driver) DeleteSecurityGroup(ctx context.Context, id string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	if _, err := d.client.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{GroupId: aws.String(id)}); err != nil {
		return d.fail(ctx, labelSecurityGroup, id, err)
	}
	return nil
}

func (d *Driver) DescribeKeyPair(ctx context.Context, name string) (domain.KeyPairRecord, error) {
	if err := d.wait(ctx); err != nil {
		return domain.KeyPairRecord{}, err
	}
	out, err := d.client.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{KeyNames: []string{name}})
	if err != nil {
		return domain.KeyPairRecord{}, d.fail(ctx, labelKeyPair, name, err)
	}
	if len(out.KeyPairs) == 0 {
		return domain.KeyPairRecord{}, notFound(domain.KindKeyPair, name)
	}
	kp := out.KeyPairs[0]
	return domain.KeyPairRecord{Name: aws.ToString(kp.KeyName), Fingerprint: aws.ToString(kp.KeyFingerprint)}, nil
}

func (d *Driver) ListKeyPairs(ctx context.Context) ([]domain.KeyPairRecord, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	out, err := d.client.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{})
	if err != nil {
		return nil, d.fail(ctx, labelKeyPair+"s", "", err)
	}
	records := make([]domain.KeyPairRecord, 0, len(out.KeyPairs))
	for _, kp := range out.KeyPairs {
		records = append(records, domain.KeyPairRecord{Name: aws.ToString(kp.KeyName), Fingerprint: aws.ToString(kp.KeyFingerprint)})
	}
	return records, nil
}

func (d *Driver) CreateKeyPair(ctx context.Context, name string) (domain.KeyPairRecord, error) {
	if err := d.wait(ctx); err != nil {
		return domain.KeyPairRecord{}, err
	}
	out, err := d.client.CreateKeyPair(ctx, &ec2.CreateKeyPairInput{KeyName: aws.String(name)})
	if err != nil {
		return domain.KeyPairRecord{}, d.fail(ctx, labelKeyPair, name, err)
	}
	return domain.KeyPairRecord{
		Name:        aws.ToString(out.KeyName),
		Fingerprint: aws.ToString(out.KeyFingerprint),
		Material:    aws.ToString(out.KeyMaterial),
	}, nil
}

func (d *Driver) DeleteKeyPair(ctx context.Context, name string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	if _, err := d.client.DeleteKeyPair(ctx, &ec2.DeleteKeyPairInput{KeyName: aws.String(name)}); err != nil {
		return d.fail(ctx, labelKeyPair, name, err)
	}
	return nil
}
