package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	S3API
	objects map[string][]byte
	putErr  error
	deleted []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Key)
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_SaveDelete(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	store := NewS3StoreWithClient(fake, S3Config{Bucket: "media", Region: "eu-west-1", Endpoint: "http://minio:9000/"})
	ctx := context.Background()

	ref, err := store.Save(ctx, "recipes/images/a.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), fake.objects["recipes/images/a.png"])
	assert.Equal(t, "http://minio:9000/media/recipes/images/a.png", store.URL(ref))

	require.NoError(t, store.Delete(ctx, ref))
	assert.Equal(t, []string{"recipes/images/a.png"}, fake.deleted)
	assert.Empty(t, fake.objects)
}

func TestS3Store_UploadFailure(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, putErr: errors.New("access denied")}
	store := NewS3StoreWithClient(fake, S3Config{Bucket: "media", Region: "eu-west-1"})

	_, err := store.Save(context.Background(), "recipes/images/a.png", "image/png", []byte("x"))
	assert.ErrorContains(t, err, "upload failure")
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/recipes/images/a.png", store.URL("recipes/images/a.png"))
}
