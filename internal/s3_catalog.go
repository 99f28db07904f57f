package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsCreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lychee-technology/filterform"
	"go.uber.org/zap"
)

// s3ObjectAPI is the slice of the S3 client the loader needs, small enough to
// fake in tests.
type s3ObjectAPI interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// LoadS3Definitions fetches custom filter definitions from an S3 bucket so
// deployments can manage their schema catalog centrally instead of baking it
// into every console image. Broken objects are logged and skipped, matching
// the on-disk loader.
func LoadS3Definitions(ctx context.Context, cfg filterform.S3CatalogConfig) ([]filterform.FilterTypeInfo, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, filterform.NewCatalogUnavailableError("failed to load AWS config", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}
	if envKey := os.Getenv("AWS_ACCESS_KEY_ID"); envKey != "" {
		awsCfg.Credentials = awsCreds.NewStaticCredentialsProvider(
			envKey, os.Getenv("AWS_SECRET_ACCESS_KEY"), "")
	}

	return loadS3Definitions(ctx, s3.NewFromConfig(awsCfg), cfg)
}

func loadS3Definitions(ctx context.Context, client s3ObjectAPI, cfg filterform.S3CatalogConfig) ([]filterform.FilterTypeInfo, error) {
	logger := zap.S().With("component", "filter_catalog", "bucket", cfg.Bucket)

	var types []filterform.FilterTypeInfo
	var continuation *string
	for {
		page, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &cfg.Bucket,
			Prefix:            &cfg.Prefix,
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, filterform.NewCatalogUnavailableError(
				fmt.Sprintf("failed to list s3://%s/%s", cfg.Bucket, cfg.Prefix), err)
		}

		for _, object := range page.Contents {
			if object.Key == nil || !isDefinitionFile(*object.Key) {
				continue
			}
			info, err := fetchS3Definition(ctx, client, cfg.Bucket, *object.Key)
			if err != nil {
				logger.Warnw("invalid filter definition object, skipped", "key", *object.Key, "err", err)
				continue
			}
			types = append(types, info)
		}

		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		continuation = page.NextContinuationToken
	}

	logger.Infow("loaded filter definitions from s3", "count", len(types))
	return types, nil
}

func fetchS3Definition(ctx context.Context, client s3ObjectAPI, bucket, key string) (filterform.FilterTypeInfo, error) {
	object, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return filterform.FilterTypeInfo{}, err
	}
	defer object.Body.Close()

	data, err := io.ReadAll(object.Body)
	if err != nil {
		return filterform.FilterTypeInfo{}, err
	}
	return ParseDefinition(data, path.Base(key), filterform.SchemaSourceCustom)
}
