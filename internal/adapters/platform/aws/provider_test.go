package aws

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/ec2"
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	internalerrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
	"github.com/olusolaa/cloud-lifecycle/internal/resources"
)

type MockSTSClient struct {
	mock.Mock
}

func (m *MockSTSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sts.GetCallerIdentityOutput)
	return out, args.Error(1)
}

// volumeClient answers DescribeVolumes from a script; every other EC2 call
// panics through the nil embedded interface.
type volumeClient struct {
	ec2.EC2ClientInterface
	states []ec2types.VolumeState
	calls  int
}

func (c *volumeClient) DescribeVolumes(_ context.Context, params *awsec2.DescribeVolumesInput, _ ...func(*awsec2.Options)) (*awsec2.DescribeVolumesOutput, error) {
	i := c.calls
	if i >= len(c.states) {
		i = len(c.states) - 1
	}
	c.calls++
	return &awsec2.DescribeVolumesOutput{Volumes: []ec2types.Volume{{
		VolumeId:         aws.String(params.VolumeIds[0]),
		Size:             aws.Int32(1),
		AvailabilityZone: aws.String("us-east-1a"),
		State:            c.states[i],
	}}}, nil
}

func newTestProvider(opts ...ProviderOption) *Provider {
	return NewProviderFromConfig(aws.Config{Region: "us-east-1"}, Config{RPS: 50}, log.NewNopLogger(), opts...)
}

func TestProvider_Drivers(t *testing.T) {
	p := newTestProvider(WithSTSClient(new(MockSTSClient)))

	d := p.Drivers()
	assert.Equal(t, PlatformType, d.Type)
	assert.NotNil(t, d.Compute)
	assert.NotNil(t, d.BlockStore)
	assert.NotNil(t, d.Security)
	assert.NotNil(t, d.ObjectStore)
	assert.Equal(t, "us-east-1", p.Region())
	assert.Equal(t, PlatformType, p.Type())
}

func TestProvider_AccountIDIsCached(t *testing.T) {
	stsClient := new(MockSTSClient)
	stsClient.On("GetCallerIdentity", mock.Anything, mock.Anything).
		Return(&sts.GetCallerIdentityOutput{Account: aws.String("123456789012")}, nil).Once()
	p := newTestProvider(WithSTSClient(stsClient))

	for i := 0; i < 3; i++ {
		acc, err := p.AccountID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "123456789012", acc)
	}
	stsClient.AssertNumberOfCalls(t, "GetCallerIdentity", 1)
}

func TestProvider_AccountIDAuthFailure(t *testing.T) {
	stsClient := new(MockSTSClient)
	stsClient.On("GetCallerIdentity", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "ExpiredToken", Message: "token expired"}).Once()
	p := newTestProvider(WithSTSClient(stsClient))

	_, err := p.AccountID(context.Background())
	assert.True(t, internalerrors.Is(err, internalerrors.CodePlatformAuthError))
}

func TestProvider_VolumeHandleRefreshesThroughEC2(t *testing.T) {
	client := &volumeClient{states: []ec2types.VolumeState{ec2types.VolumeStateCreating, ec2types.VolumeStateAvailable}}
	p := newTestProvider(WithSTSClient(new(MockSTSClient)), WithEC2Client(client))

	provider, err := resources.NewProvider(p.Drivers())
	require.NoError(t, err)
	require.True(t, provider.HasService(domain.ServiceBlockStore))

	vol, err := provider.BlockStore().Volumes().Get(context.Background(), "vol-1")
	require.NoError(t, err)
	assert.Equal(t, domain.VolumeCreating, vol.State())

	state, err := vol.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.VolumeAvailable, state)
	assert.Equal(t, 2, client.calls)
}
