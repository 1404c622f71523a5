package awsd

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"awsview/awsd/models"
	"awsview/configuration"
	"awsview/errors"
)

const (
	packageName = "awsd"
)

// EC2API is the part of the EC2 client the fetcher uses.
type EC2API interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// Connector opens EC2 clients for one credential pair. The returned function
// hands out a client bound to the given region.
type Connector func(ctx context.Context, cred configuration.Credential) (func(region string) EC2API, error)

// NewSDKConnector returns a Connector backed by the AWS SDK. Only the static
// key pair is used for signing; ENDPOINT_URL, when set, redirects every call
// (LocalStack).
func NewSDKConnector(cfg *configuration.Config) Connector {
	return func(ctx context.Context, cred configuration.Credential) (func(region string) EC2API, error) {
		awsCfg, err := config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.AWSRegion),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cred.AccessKey, cred.SecretKey, "")),
			config.WithRetryMaxAttempts(cfg.MaxRetries+1),
		)
		if err != nil {
			return nil, errors.New(errors.ErrFetchRegions, "failed to load AWS config",
				map[string]interface{}{
					"section": cred.Name,
				}, err)
		}

		return func(region string) EC2API {
			return ec2.NewFromConfig(awsCfg, func(o *ec2.Options) {
				o.Region = region
				if cfg.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.EndpointURL)
				}
			})
		}, nil
	}
}

// Fetcher lists every instance a credential pair can see, across all regions.
type Fetcher struct {
	connect   Connector
	bootstrap string
	workers   int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewFetcher creates a Fetcher talking to AWS through the SDK.
func NewFetcher(cfg *configuration.Config) *Fetcher {
	return NewFetcherWithConnector(cfg, NewSDKConnector(cfg))
}

// NewFetcherWithConnector creates a Fetcher using connect to obtain clients.
func NewFetcherWithConnector(cfg *configuration.Config, connect Connector) *Fetcher {
	workers := cfg.FetchWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Fetcher{
		connect:   connect,
		bootstrap: cfg.AWSRegion,
		workers:   workers,
		timeout:   cfg.FetchDeadline(),
		logger:    zap.L().With(zap.String("package", packageName)),
	}
}

// FetchInstances enumerates the regions visible to cred and collects all of
// their instances into one slice, region by region in the order the regions
// were listed. A failure in any region fails the whole listing.
func (f *Fetcher) FetchInstances(ctx context.Context, cred configuration.Credential) ([]models.Instance, error) {
	logger := f.logger.With(
		zap.String("function", "FetchInstances"),
		zap.String("section", cred.Name),
	)
	start := time.Now()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	clientFor, err := f.connect(ctx, cred)
	if err != nil {
		return nil, err
	}

	regions, err := listRegions(ctx, clientFor(f.bootstrap), f.bootstrap)
	if err != nil {
		logger.Error("Failed to list regions",
			zap.String("operation", "describe_regions"),
			zap.Error(err),
		)
		return nil, err
	}

	perRegion := make([][]models.Instance, len(regions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, region := range regions {
		i, region := i, region
		g.Go(func() error {
			instances, err := listInstances(gctx, clientFor(region), region)
			if err != nil {
				return err
			}
			perRegion[i] = instances
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("Failed to list instances",
			zap.String("operation", "describe_instances"),
			zap.Error(err),
		)
		return nil, err
	}

	var all []models.Instance
	for _, instances := range perRegion {
		all = append(all, instances...)
	}

	logger.Info("Instances fetched",
		zap.String("operation", "fetch_complete"),
		zap.Int("regions", len(regions)),
		zap.Int("instances", len(all)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return all, nil
}

// listInstances pages through every reservation in one region.
func listInstances(ctx context.Context, client EC2API, region string) ([]models.Instance, error) {
	var instances []models.Instance

	paginator := ec2.NewDescribeInstancesPaginator(client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fetchError(errors.ErrFetchInstances, "unable to list instances", region, err)
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, toInstance(region, instance))
			}
		}
	}

	zap.L().Debug("Region listed",
		zap.String("package", packageName),
		zap.String("operation", "describe_instances"),
		zap.String("region", region),
		zap.Int("instances", len(instances)),
	)
	return instances, nil
}

func toInstance(region string, i types.Instance) models.Instance {
	instance := models.Instance{
		ID:             aws.ToString(i.InstanceId),
		Region:         region,
		Tags:           tagsMap(i.Tags),
		RootDeviceType: string(i.RootDeviceType),
		KeyName:        aws.ToString(i.KeyName),
		PrivateIP:      aws.ToString(i.PrivateIpAddress), // Safely dereferencing pointer
		PublicIP:       aws.ToString(i.PublicIpAddress),
		InstanceType:   string(i.InstanceType),
	}
	if i.State != nil {
		instance.State = string(i.State.Name)
	}
	if i.Placement != nil {
		instance.Zone = aws.ToString(i.Placement.AvailabilityZone)
	}
	if i.LaunchTime != nil {
		instance.LaunchTime = i.LaunchTime.UTC().Format(models.LaunchTimeLayout)
	}
	return instance
}

// tagsMap converts EC2 tags into a map. A tag with no value maps to "".
func tagsMap(tags []types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	result := make(map[string]string, len(tags))
	for _, tag := range tags {
		if tag.Key != nil {
			result[*tag.Key] = aws.ToString(tag.Value)
		}
	}
	return result
}
