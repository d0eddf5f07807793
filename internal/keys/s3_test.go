package keys

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todovault/internal/common"
)

type fakeObjects struct {
	data   []byte
	getErr error
	putErr error

	lastPut *s3.PutObjectInput
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.data == nil {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.data))}, nil
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastPut = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	if f.data != nil && aws.ToString(in.IfNoneMatch) == "*" {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.data = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.data == nil {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Store_Location(t *testing.T) {
	s := NewS3Store(&fakeObjects{}, "vault", "keys/master.key")
	assert.Equal(t, "s3://vault/keys/master.key", s.Location())
}

func TestS3Store_LoadMissing(t *testing.T) {
	s := NewS3Store(&fakeObjects{}, "vault", "master.key")

	_, err := s.Load(context.Background())
	assert.True(t, errors.Is(err, common.ErrKeyNotFound))

	ok, err := s.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3Store_LoadGenericNoSuchKeyCode(t *testing.T) {
	s := NewS3Store(&fakeObjects{getErr: &smithy.GenericAPIError{Code: "NoSuchKey"}}, "vault", "master.key")

	_, err := s.Load(context.Background())
	assert.True(t, errors.Is(err, common.ErrKeyNotFound))
}

func TestS3Store_LoadFailure(t *testing.T) {
	s := NewS3Store(&fakeObjects{getErr: errors.New("connection refused")}, "vault", "master.key")

	_, err := s.Load(context.Background())
	assert.True(t, errors.Is(err, common.ErrKeyUnavailable))
}

func TestS3Store_CreateIsConditional(t *testing.T) {
	objects := &fakeObjects{}
	s := NewS3Store(objects, "vault", "master.key")
	key := bytes.Repeat([]byte{9}, Size)

	require.NoError(t, s.Create(context.Background(), key))
	assert.Equal(t, "*", aws.ToString(objects.lastPut.IfNoneMatch))
	assert.Equal(t, "vault", aws.ToString(objects.lastPut.Bucket))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, key, got)

	err = s.Create(context.Background(), bytes.Repeat([]byte{1}, Size))
	assert.True(t, errors.Is(err, ErrKeyExists))
}

func TestS3Store_CreateFailure(t *testing.T) {
	s := NewS3Store(&fakeObjects{putErr: errors.New("access denied")}, "vault", "master.key")

	err := s.Create(context.Background(), make([]byte, Size))
	assert.True(t, errors.Is(err, common.ErrKeyUnavailable))
}

func TestS3Store_LoadOversizedObjectIsDetectable(t *testing.T) {
	s := NewS3Store(&fakeObjects{data: make([]byte, 4*Size)}, "vault", "master.key")

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, Size+1)
}
