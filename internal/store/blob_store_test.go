package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestFSBlobStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blobs, err := NewFSBlobStore(dir)
	if err != nil {
		t.Fatalf("NewFSBlobStore: %v", err)
	}

	location, err := blobs.Put(ctx, "rec-1/id-1/a.txt", "text/plain", strings.NewReader("hello"), 5)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if location != filepath.Join(dir, "rec-1", "id-1", "a.txt") {
		t.Fatalf("unexpected location: %s", location)
	}

	rc, err := blobs.Open(ctx, "rec-1/id-1/a.txt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "hello" {
		t.Fatalf("unexpected content: %q", data)
	}

	if err := blobs.Delete(ctx, "rec-1/id-1/a.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := blobs.Open(ctx, "rec-1/id-1/a.txt"); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestFSBlobStoreRejectsTraversal(t *testing.T) {
	blobs, err := NewFSBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSBlobStore: %v", err)
	}
	for _, key := range []string{"", "../escape", "a/../../b", "a//b"} {
		if _, err := blobs.Put(context.Background(), key, "", strings.NewReader("x"), 1); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, input)
	f.objects[aws.ToString(input.Key)] = data
	return &manager.UploadOutput{Location: "https://example.test/" + aws.ToString(input.Bucket) + "/" + aws.ToString(input.Key)}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3BlobStorePrefixesKeys(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	blobs := newS3BlobStore(S3Options{Bucket: "notes", Prefix: "/uploads/"}, fake, fake)

	location, err := blobs.Put(ctx, "rec-1/a.txt", "text/plain", strings.NewReader("hello"), 5)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if location != "https://example.test/notes/uploads/rec-1/a.txt" {
		t.Fatalf("unexpected location: %s", location)
	}
	if len(fake.puts) != 1 || aws.ToString(fake.puts[0].ContentType) != "text/plain" || aws.ToInt64(fake.puts[0].ContentLength) != 5 {
		t.Fatalf("unexpected put input: %#v", fake.puts)
	}

	rc, err := blobs.Open(ctx, "rec-1/a.txt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "hello" {
		t.Fatalf("unexpected content: %q", data)
	}

	if err := blobs.Delete(ctx, "rec-1/a.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := blobs.Open(ctx, "rec-1/a.txt"); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
	if blobs.Backend() != BlobBackendS3 {
		t.Fatalf("unexpected backend: %s", blobs.Backend())
	}
}
