package s3

import (
	"context"
	"errors"
	"io"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3API struct {
	putObjectFunc    func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	deleteObjectFunc func(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

func (m *mockS3API) PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	return m.putObjectFunc(ctx, params, optFns...)
}

func (m *mockS3API) DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	return m.deleteObjectFunc(ctx, params, optFns...)
}

func TestPutObject(t *testing.T) {
	var gotBody string
	mock := &mockS3API{
		putObjectFunc: func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
			assert.Equal(t, "graph-bucket", awssdk.ToString(params.Bucket))
			assert.Equal(t, "Users.csv", awssdk.ToString(params.Key))
			assert.Equal(t, "text/csv", awssdk.ToString(params.ContentType))
			assert.Equal(t, int64(8), awssdk.ToInt64(params.ContentLength))
			b, err := io.ReadAll(params.Body)
			require.NoError(t, err)
			gotBody = string(b)
			return &awss3.PutObjectOutput{}, nil
		},
	}

	err := NewClient(mock).PutObject(context.Background(), Object{
		Bucket:      "graph-bucket",
		Key:         "Users.csv",
		Body:        []byte("~id\nu-1\n"),
		ContentType: "text/csv",
	})
	require.NoError(t, err)
	assert.Equal(t, "~id\nu-1\n", gotBody)
}

func TestPutObject_Error(t *testing.T) {
	mock := &mockS3API{
		putObjectFunc: func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
			return nil, errors.New("NoSuchBucket")
		},
	}

	err := NewClient(mock).PutObject(context.Background(), Object{Bucket: "b", Key: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PutObject(b/k)")
}

func TestDeleteObject(t *testing.T) {
	called := false
	mock := &mockS3API{
		deleteObjectFunc: func(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
			called = true
			assert.Equal(t, "Accounts.csv", awssdk.ToString(params.Key))
			return &awss3.DeleteObjectOutput{}, nil
		},
	}

	require.NoError(t, NewClient(mock).DeleteObject(context.Background(), "b", "Accounts.csv"))
	assert.True(t, called)
}
