package awsd

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"go.uber.org/zap"

	"awsview/errors"
)

// listRegions returns the regions enabled for the account, in the order the
// API lists them.
func listRegions(ctx context.Context, client EC2API, bootstrap string) ([]string, error) {
	result, err := client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		AllRegions: aws.Bool(false), // Only get opted-in regions
	})
	if err != nil {
		return nil, fetchError(errors.ErrFetchRegions, "unable to list regions", bootstrap, err)
	}

	regions := make([]string, 0, len(result.Regions))
	for _, region := range result.Regions {
		if region.RegionName != nil {
			regions = append(regions, *region.RegionName)
		}
	}

	zap.L().Debug("Regions listed",
		zap.String("package", packageName),
		zap.String("operation", "describe_regions"),
		zap.Strings("regions", regions),
	)
	return regions, nil
}
