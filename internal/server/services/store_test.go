package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/ldbvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "backups")

	store, err := NewDirStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "b.json", []byte(`{"version":1}`)))
	got, err := store.Get(ctx, "b.json")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got))

	_, err = store.Get(ctx, "missing.json")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	for _, key := range []string{"", "..", "../escape.json", "a/b.json"} {
		assert.ErrorIs(t, store.Put(ctx, key, nil), common.ErrorValidation, key)
	}
}

func TestNewBackupStore(t *testing.T) {
	cfg := testConfig()
	cfg.BackupDir = t.TempDir()

	store, err := NewBackupStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &DirStore{}, store)

	cfg.BackupStorage = "tape"
	_, err = NewBackupStore(context.Background(), cfg)
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, _ := io.ReadAll(in.Body)
	f.objects[*in.Bucket+"/"+*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func withS3Seams(t *testing.T, fake *fakeS3) *s3.Options {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				return aws.Config{}, err
			}
		}
		return aws.Config{Region: lo.Region}, nil
	}

	opts := &s3.Options{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		opts.Region = cfg.Region
		for _, fn := range optFns {
			fn(opts)
		}
		return fake
	}
	return opts
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	opts := withS3Seams(t, fake)

	cfg := testConfig()
	cfg.BackupStorage = "s3"
	store, err := NewBackupStore(ctx, cfg)
	require.NoError(t, err)

	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000/", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "us-east-1", opts.Region)

	require.NoError(t, store.Put(ctx, "b.json", []byte("doc")))
	assert.Equal(t, []byte("doc"), fake.objects["ldbvault-backups/b.json"])

	got, err := store.Get(ctx, "b.json")
	require.NoError(t, err)
	assert.Equal(t, "doc", string(got))

	_, err = store.Get(ctx, "missing.json")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	fake.putErr = errors.New("denied")
	assert.Error(t, store.Put(ctx, "c.json", nil))
}

func TestNewS3Store_ConfigError(t *testing.T) {
	withS3Seams(t, &fakeS3{})
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Store(context.Background(), testConfig())
	assert.Error(t, err)
}
