package cloudwatch

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/melih/lighthouse-relay/internal/core/domain"
)

// Credentials are the static keys and region the relay talks to AWS with.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// LoadConfig builds the shared AWS config for the CloudWatch Logs and STS
// clients. The SDK retryer is disabled: a failed call is reported as-is and
// ends the run.
func LoadConfig(ctx context.Context, creds Credentials) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(creds.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		),
		config.WithRetryer(func() aws.Retryer {
			return aws.NopRetryer{}
		}),
	)
	if err != nil {
		return aws.Config{}, domain.UserInputError("invalid AWS configuration", fmt.Errorf("failed to load aws config: %w", err))
	}
	return cfg, nil
}
