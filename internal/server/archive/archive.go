// Package archive stores snapshots of deleted subtrees in S3-compatible
// object storage so a removal can be inspected or replayed later.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/google/uuid"
)

// Archiver persists a removed tree and returns the key it was stored under.
type Archiver interface {
	Archive(ctx context.Context, accountID string, tree *models.Tree) (string, error)
}

// Nop drops every snapshot. Used when no bucket is configured.
type Nop struct{}

func (Nop) Archive(context.Context, string, *models.Tree) (string, error) { return "", nil }

type Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type S3Archiver struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

// NewS3Archiver builds a client with static credentials and path-style
// addressing, which MinIO requires.
func NewS3Archiver(ctx context.Context, c Config) (*S3Archiver, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = true
	})
	return &S3Archiver{client: client, bucket: c.Bucket, now: time.Now}, nil
}

// Key builds the object key for a snapshot:
// deleted/<account>/<yyyy>/<mm>/<dd>/<kind>-<id>-<random>.json
func Key(accountID string, kind models.Kind, id string, at time.Time) string {
	return fmt.Sprintf("deleted/%s/%04d/%02d/%02d/%s-%s-%s.json",
		accountID, at.Year(), int(at.Month()), at.Day(), kind, id, uuid.NewString())
}

func (a *S3Archiver) Archive(ctx context.Context, accountID string, tree *models.Tree) (string, error) {
	if tree == nil || tree.Entity == nil {
		return "", nil
	}
	body, err := json.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := Key(accountID, tree.Entity.EntityKind(), tree.Entity.EntityID(), a.now().UTC())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"account": accountID,
			"count":   fmt.Sprint(tree.Count()),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}
