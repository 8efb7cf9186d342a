package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	pkgconfig "github.com/Miguelburitica/serverless-localMarket/pkg/config"
)

var (
	ErrNotFound           = errors.New("item not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// NewDynamoDBClient builds the process-wide DynamoDB client. When
// DynamoEndpoint is set (local mode) the client targets that endpoint
// with static credentials instead of the AWS default chain.
func NewDynamoDBClient(cfg *pkgconfig.Config) (*dynamodb.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
	}
	if cfg.DynamoEndpoint != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), loadOpts...)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	}), nil
}

const (
	maxAttempts    = 3
	initialBackoff = 50 * time.Millisecond
)

// withRetry runs op, retrying transient DynamoDB failures with bounded
// exponential backoff. Once attempts are exhausted the error surfaces as
// ErrStorageUnavailable. Non-transient errors return immediately.
func withRetry(ctx context.Context, op func() error) error {
	backoff := initialBackoff
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if err = op(); err == nil || !isTransient(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

func isTransient(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var requestLimit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	return errors.As(err, &throughput) ||
		errors.As(err, &requestLimit) ||
		errors.As(err, &internal)
}
