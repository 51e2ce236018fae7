package s3

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
)

type S3DriverTestSuite struct {
	suite.Suite
	mockS3 *mockS3
	driver *Driver
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *S3DriverTestSuite) SetupTest() {
	s.mockS3 = new(mockS3)
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Second)
	logger := log.NewNopLogger()
	s.driver = NewDriver(aws.Config{Region: "eu-west-1"},
		WithS3Client(s.mockS3),
		WithRateLimiter(limiter.New(100, logger)),
		WithLogger(logger),
	)
}

func (s *S3DriverTestSuite) TearDownTest() {
	s.cancel()
	s.mockS3.AssertExpectations(s.T())
}

func TestS3DriverTestSuite(t *testing.T) {
	suite.Run(t, new(S3DriverTestSuite))
}

func (s *S3DriverTestSuite) TestCreateContainer_SetsLocationOutsideUSEast1() {
	s.mockS3.On("CreateBucket", mock.Anything, mock.MatchedBy(func(in *s3.CreateBucketInput) bool {
		return aws.ToString(in.Bucket) == "logs" &&
			in.CreateBucketConfiguration != nil &&
			in.CreateBucketConfiguration.LocationConstraint == types.BucketLocationConstraintEuWest1
	})).Return(&s3.CreateBucketOutput{}, nil).Once()

	rec, err := s.driver.CreateContainer(s.ctx, "logs")
	s.Require().NoError(err)
	s.Equal("logs", rec.Name)
}

func (s *S3DriverTestSuite) TestCreateContainer_NoLocationInUSEast1() {
	driver := NewDriver(aws.Config{Region: "us-east-1"}, WithS3Client(s.mockS3))
	s.mockS3.On("CreateBucket", mock.Anything, &s3.CreateBucketInput{Bucket: aws.String("logs")}).
		Return(&s3.CreateBucketOutput{}, nil).Once()

	_, err := driver.CreateContainer(s.ctx, "logs")
	s.NoError(err)
}

func (s *S3DriverTestSuite) TestHeadContainer_NotFound() {
	s.mockS3.On("HeadBucket", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}).Once()

	_, err := s.driver.HeadContainer(s.ctx, "missing")
	s.True(apperrors.Is(err, apperrors.CodeResourceNotFound))
}

func (s *S3DriverTestSuite) TestDeleteContainer_NotEmpty() {
	s.mockS3.On("DeleteBucket", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "BucketNotEmpty", Message: "not empty"}).Once()

	err := s.driver.DeleteContainer(s.ctx, "logs")
	s.True(apperrors.Is(err, apperrors.CodeInvalidState))
}

func (s *S3DriverTestSuite) TestListContainers() {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.mockS3.On("ListBuckets", mock.Anything, mock.Anything).Return(&s3.ListBucketsOutput{Buckets: []types.Bucket{
		{Name: aws.String("a"), CreationDate: aws.Time(created)},
		{Name: nil},
	}}, nil).Once()

	got, err := s.driver.ListContainers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]domain.ContainerRecord{{Name: "a", CreatedAt: created}}, got)
}

func (s *S3DriverTestSuite) TestListObjects_Paginates() {
	s.mockS3.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents:              []types.Object{{Key: aws.String("a.txt"), Size: aws.Int64(3)}},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("next"),
	}, nil).Once()
	s.mockS3.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "next"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: aws.String("b.txt"), Size: aws.Int64(5)}},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	got, err := s.driver.ListObjects(s.ctx, "logs")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("b.txt", got[1].Key)
	s.Equal(int64(5), got[1].Size)
	s.Equal("logs", got[0].Container)
}

func (s *S3DriverTestSuite) TestGetAndPutObject() {
	s.mockS3.On("GetObject", mock.Anything, mock.Anything).
		Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("hello"))}, nil).Once()
	var buf bytes.Buffer
	s.Require().NoError(s.driver.GetObject(s.ctx, "logs", "a.txt", &buf))
	s.Equal("hello", buf.String())

	body := strings.NewReader("payload")
	s.mockS3.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "b.txt" && in.Body == body
	})).Return(&s3.PutObjectOutput{}, nil).Once()
	s.NoError(s.driver.PutObject(s.ctx, "logs", "b.txt", body))
}

func (s *S3DriverTestSuite) TestHeadObject() {
	modified := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	s.mockS3.On("HeadObject", mock.Anything, mock.Anything).
		Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(42), LastModified: aws.Time(modified)}, nil).Once()

	rec, err := s.driver.HeadObject(s.ctx, "logs", "a.txt")
	s.Require().NoError(err)
	s.Equal(domain.ObjectRecord{Container: "logs", Key: "a.txt", Size: 42, LastModified: modified}, rec)
}
