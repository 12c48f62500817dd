package actions_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/leadflow/pkg/actions"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	bucket, key, contentType string
	body                     []byte
}

type mockS3Client struct {
	putCalls []putCall
	err      error
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, _ := io.ReadAll(input.Body)
	m.putCalls = append(m.putCalls, putCall{
		bucket:      *input.Bucket,
		key:         *input.Key,
		contentType: *input.ContentType,
		body:        body,
	})
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	mock := &mockS3Client{}
	store := actions.NewS3Store(mock, "leadflow-artifacts")

	ref, err := store.Put(context.Background(), "comparisons/a.png", []byte("png"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "s3://leadflow-artifacts/comparisons/a.png", ref)
	require.Len(t, mock.putCalls, 1)
	assert.Equal(t, "leadflow-artifacts", mock.putCalls[0].bucket)
	assert.Equal(t, "image/png", mock.putCalls[0].contentType)
	assert.Equal(t, []byte("png"), mock.putCalls[0].body)
}

func TestS3Store_PutError(t *testing.T) {
	store := actions.NewS3Store(&mockS3Client{err: errors.New("access denied")}, "b")

	_, err := store.Put(context.Background(), "k", nil, "image/png")
	assert.ErrorContains(t, err, "access denied")
}

func TestDirStore_Put(t *testing.T) {
	dir := t.TempDir()
	store := actions.NewDirStore(dir, "")

	ref, err := store.Put(context.Background(), "a/b.png", []byte("data"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a", "b.png"), ref)

	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestDirStore_RejectsEscapingKeys(t *testing.T) {
	store := actions.NewDirStore(t.TempDir(), "")

	_, err := store.Put(context.Background(), "../outside.png", nil, "image/png")
	assert.Error(t, err)
}
