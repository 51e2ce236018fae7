package s3

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	aws_errors "github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/errors"
	aws_limiter "github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
)

const (
	labelBucket = "S3 bucket"
	labelObject = "S3 object"

	// Buckets in us-east-1 must be created without a location constraint.
	defaultRegion = "us-east-1"
)

// Driver maps S3 buckets onto containers and S3 objects onto container
// objects.
type Driver struct {
	client       S3ClientInterface
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
	logger       ports.Logger
	region       string
}

var _ ports.ObjectStoreDriver = (*Driver)(nil)

type DriverOption func(*Driver)

func WithS3Client(client S3ClientInterface) DriverOption {
	return func(d *Driver) {
		if client != nil {
			d.client = client
		}
	}
}

func WithRateLimiter(limiter shared.RateLimiter) DriverOption {
	return func(d *Driver) {
		if limiter != nil {
			d.limiter = limiter
		}
	}
}

func WithErrorHandler(handler shared.ErrorHandler) DriverOption {
	return func(d *Driver) {
		if handler != nil {
			d.errorHandler = handler
		}
	}
}

func WithLogger(logger ports.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func NewDriver(cfg aws.Config, opts ...DriverOption) *Driver {
	d := &Driver{region: cfg.Region}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.NewNopLogger()
	}
	if d.client == nil {
		d.client = s3.NewFromConfig(cfg)
	}
	if d.limiter == nil {
		d.limiter = aws_limiter.New(aws_limiter.DefaultRPS, d.logger)
	}
	if d.errorHandler == nil {
		d.errorHandler = &aws_errors.DefaultErrorHandler{}
	}
	return d
}

func (d *Driver) HeadContainer(ctx context.Context, name string) (domain.ContainerRecord, error) {
	if err := d.limiter.Wait(ctx, d.logger); err != nil {
		return domain.ContainerRecord{}, err
	}
	if _, err := d.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)}); err != nil {
		return domain.ContainerRecord{}, d.errorHandler.Handle(ctx, labelBucket, name, err)
	}
	return domain.ContainerRecord{Name: name}, nil
}

func (d *Driver) ListContainers(ctx context.Context) ([]domain.ContainerRecord, error) {
	if err := d.limiter.Wait(ctx, d.logger); err != nil {
		return nil, err
	}
	out, err := d.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, d.errorHandler.Handle(ctx, labelBucket+"s", "", err)
	}
	records := make([]domain.ContainerRecord, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		name := aws.ToString(b.Name)
		if name == "" {
			continue
		}
		records = append(records, domain.ContainerRecord{Name: name, CreatedAt: aws.ToTime(b.CreationDate)})
	}
	return records, nil
}

func (d *Driver) CreateContainer(ctx context.Context, name string) (domain.ContainerRecord, error) {
	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	if d.region != "" && d.region != defaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(d.region),
		}
	}
	if err := d.limiter.Wait(ctx, d.logger); err != nil {
		return domain.ContainerRecord{}, err
	}
	if _, err := d.client.CreateBucket(ctx, input); err != nil {
		return domain.ContainerRecord{}, d.errorHandler.Handle(ctx, labelBucket, name, err)
	}
	d.logger.Infof(ctx, "Created S3 bucket %s in %s", name, d.region)
	return domain.ContainerRecord{Name: name}, nil
}

func (d *Driver) DeleteContainer(ctx context.Context, name string) error {
	if err := d.limiter.Wait(ctx, d.logger); err != nil {
		return err
	}
	if _, err := d.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)}); err != nil {
		return d.errorHandler.Handle(ctx, labelBucket, name, err)
	}
	return nil
}

func (d *Driver) HeadObject(ctx context.Context, container, key string) (domain.ObjectRecord, error) {
	if err := d.limiter.Wait(ctx, d.logger); err != nil {
		return domain.ObjectRecord{}, err
	}
	out, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(container), Key: aws.String(key)})
	if err != nil {
		return domain.ObjectRecord{}, d.errorHandler.Handle(ctx, labelObject, container+"/"+key, err)
	}
	return domain.ObjectRecord{
		Container:    container,
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (d *Driver) ListObjects(ctx context.Context, container string) ([]domain.ObjectRecord, error) {
	paginator := s3.NewListObjectsV2Paginator(d.client, &s3.ListObjectsV2Input{Bucket: aws.String(container)})
	var records []domain.ObjectRecord
	for paginator.HasMorePages() {
		if err := d.limiter.Wait(ctx, d.logger); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, d.errorHandler.Handle(ctx, labelBucket, container, err)
		}
		for _, obj := range page.Contents {
			records = append(records, domain.ObjectRecord{
				Container:    container,
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return records, nil
}

func (d *Driver) GetObject(ctx context.Context, container, key string, w io.Writer) error {
	if err := d.limiter.Wait(ctx, d.logger); err != nil {
		return err
	}
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(container), Key: aws.String(key)})
	if err != nil {
		return d.errorHandler.Handle(ctx, labelObject, container+"/"+key, err)
	}
	defer out.Body.Close()
	if _, err := io.Copy(w, out.Body); err != nil {
		return errors.Wrap(err, errors.CodePlatformAPIError, "failed to read S3 object "+container+"/"+key)
	}
	return nil
}

func (d *Driver) PutObject(ctx context.Context, container, key string, r io.Reader) error {
	if err := d.limiter.Wait(ctx, d.logger); err != nil {
		return err
	}
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{Bucket: aws.String(container), Key: aws.String(key), Body: r})
	if err != nil {
		return d.errorHandler.Handle(ctx, labelObject, container+"/"+key, err)
	}
	return nil
}

func (d *Driver) DeleteObject(ctx context.Context, container, key string) error {
	if err := d.limiter.Wait(ctx, d.logger); err != nil {
		return err
	}
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(container), Key: aws.String(key)})
	if err != nil {
		return d.errorHandler.Handle(ctx, labelObject, container+"/"+key, err)
	}
	return nil
}
