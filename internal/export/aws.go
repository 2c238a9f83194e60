package export

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AWSOptions selects the region and credentials for export clients.
type AWSOptions struct {
	Region string
	// Profile names a shared config profile. Ignored when static keys are set.
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
}

// LoadAWSConfig resolves an aws.Config. Static keys win over a profile; with
// neither the default credential chain is used.
func LoadAWSConfig(ctx context.Context, o AWSOptions) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	switch {
	case o.AccessKeyID != "" && o.SecretAccessKey != "":
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, "")))
	case o.Profile != "":
		opts = append(opts, config.WithSharedConfigProfile(o.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// NewClients builds the S3 and DynamoDB clients the Uploader needs.
func NewClients(cfg aws.Config) (*s3.Client, *dynamodb.Client) {
	return s3.NewFromConfig(cfg), dynamodb.NewFromConfig(cfg)
}
