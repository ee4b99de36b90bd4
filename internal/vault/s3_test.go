package vault

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeObject struct {
	body     []byte
	metadata map[string]string
}

// fakeS3 stores objects in memory. Snapshots are small enough that the
// uploader always takes the single PutObject path.
type fakeS3 struct {
	mu        sync.Mutex
	objects   map[string]fakeObject
	bucketErr error
	multipart bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]fakeObject)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = fakeObject{body: body, metadata: in.Metadata}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.body)), Metadata: obj.metadata}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{Metadata: obj.metadata}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.bucketErr
}

var errMultipart = errors.New("multipart upload not supported by fake")

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	f.multipart = true
	return nil, errMultipart
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	f.multipart = true
	return nil, errMultipart
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func TestS3Vault(t *testing.T) {
	fake := newFakeS3()
	v := newS3VaultWithClient("cloud", "photos-backup", "laptop", fake)

	exerciseVault(t, v)

	obj, ok := fake.objects["laptop/catalogs/home.db"]
	if !ok {
		t.Fatalf("object not stored under prefixed key; have %v", keys(fake.objects))
	}
	if obj.metadata[versionMetaKey] != "8" {
		t.Errorf("version metadata = %q, want 8", obj.metadata[versionMetaKey])
	}
	if fake.multipart {
		t.Error("small snapshot used multipart upload")
	}
}

func TestS3Vault_ValidateSetup(t *testing.T) {
	fake := newFakeS3()
	fake.bucketErr = errors.New("403 forbidden")
	v := newS3VaultWithClient("cloud", "b", "", fake)

	if err := v.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() should fail when bucket is unreachable")
	}
}

func TestS3Vault_MissingVersionMetadata(t *testing.T) {
	fake := newFakeS3()
	fake.objects["catalogs/home.db"] = fakeObject{body: []byte("x")}
	v := newS3VaultWithClient("cloud", "b", "", fake)

	version, err := v.SnapshotVersion("home")
	if err != nil {
		t.Fatalf("SnapshotVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("SnapshotVersion() = %d, want 0", version)
	}
}

func keys(m map[string]fakeObject) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
