package config

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewR2Client builds an S3 client for the receipt archive bucket.
// Returns nil when the archive is not configured; callers treat a nil
// client as "archive disabled".
func (c *Config) NewR2Client(ctx context.Context) *s3.Client {
	if c.R2.Endpoint == "" || c.R2.AccessKey == "" || c.R2.SecretKey == "" || c.R2.Bucket == "" {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.R2.AccessKey,
			c.R2.SecretKey,
			"",
		)),
		awsconfig.WithRegion(c.R2.Region),
	)
	if err != nil {
		log.Printf("[Config] Failed to configure R2 client: %v", err)
		return nil
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.R2.Endpoint)
	})
}
