package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func sampleTree() *models.Tree {
	return &models.Tree{
		Entity: &models.Task{ID: "t1", AccountID: "acc", Name: "gone", ParentType: models.KindCategory, Parent: "c1"},
		Children: models.Children{
			Events: []*models.Event{{ID: "e1", ParentType: models.KindTask, Parent: "t1"}},
		},
	}
}

func TestArchive_PutsSnapshot(t *testing.T) {
	fp := &fakePutter{}
	a := &S3Archiver{client: fp, bucket: "snapshots", now: func() time.Time {
		return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	}}

	key, err := a.Archive(context.Background(), "acc", sampleTree())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "deleted/acc/2024/02/03/task-t1-"), key)
	assert.Equal(t, "snapshots", aws.ToString(fp.in.Bucket))
	assert.Equal(t, key, aws.ToString(fp.in.Key))
	assert.Equal(t, "2", fp.in.Metadata["count"])

	var doc map[string]any
	require.NoError(t, json.Unmarshal(fp.body, &doc))
	assert.Equal(t, "t1", doc["id"])
	assert.Contains(t, doc, "children")
}

func TestArchive_PutError(t *testing.T) {
	a := &S3Archiver{client: &fakePutter{err: errors.New("denied")}, bucket: "b", now: time.Now}

	_, err := a.Archive(context.Background(), "acc", sampleTree())
	assert.ErrorContains(t, err, "denied")
}

func TestArchive_NilTree(t *testing.T) {
	fp := &fakePutter{}
	a := &S3Archiver{client: fp, bucket: "b", now: time.Now}

	key, err := a.Archive(context.Background(), "acc", nil)
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.Nil(t, fp.in)
}

func TestNewS3Archiver(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	var opts s3.Options
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &fakePutter{}
	}

	a, err := NewS3Archiver(context.Background(), Config{Endpoint: "http://minio:9000", Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", a.bucket)
	assert.Equal(t, "http://minio:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}
	_, err = NewS3Archiver(context.Background(), Config{})
	assert.ErrorContains(t, err, "no creds")
}

func TestNop(t *testing.T) {
	var a Archiver = Nop{}
	key, err := a.Archive(context.Background(), "acc", sampleTree())
	assert.NoError(t, err)
	assert.Empty(t, key)
}
