package spaces

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	bucket, key string
	body        []byte
	err         error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestUploadSnapshot(t *testing.T) {
	tests := []struct {
		prefix  string
		wantKey string
	}{
		{"", "2026-09-14.json"},
		{"/audits/", "audits/2026-09-14.json"},
		{"bot/daily", "bot/daily/2026-09-14.json"},
	}

	for _, tt := range tests {
		t.Run(tt.wantKey, func(t *testing.T) {
			fake := &fakeS3{}
			u := NewWithClient(fake, "rewards", tt.prefix)
			require.NoError(t, u.UploadSnapshot(context.Background(), "2026-09-14.json", []byte(`[]`)))
			assert.Equal(t, "rewards", fake.bucket)
			assert.Equal(t, tt.wantKey, fake.key)
			assert.Equal(t, "[]", string(fake.body))
		})
	}
}

func TestUploadSnapshotError(t *testing.T) {
	u := NewWithClient(&fakeS3{err: errors.New("denied")}, "rewards", "")
	err := u.UploadSnapshot(context.Background(), "x.json", nil)
	assert.ErrorContains(t, err, "denied")
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Bucket: "b"}.Enabled())
}
