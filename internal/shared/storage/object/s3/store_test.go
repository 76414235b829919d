package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"recruit-backend/internal/shared/storage/object"
)

type fakeS3 struct {
	objects map[string]string
	puts    []*s3.PutObjectInput
	ttl     time.Duration
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, in)
	f.objects[aws.ToString(in.Key)] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.ttl = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://" + aws.ToString(in.Bucket) + ".s3.test/" + aws.ToString(in.Key)}, nil
}

func TestStoreRoundTripUnderPrefix(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string]string{}}
	store := newStore(fake, fake, Config{Bucket: "letters", Prefix: "/prod/"})

	n, err := store.SaveWithKey(ctx, "offers/co/o-1.pdf", "application/pdf", strings.NewReader("%PDF-1.7"))
	if err != nil {
		t.Fatalf("SaveWithKey: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected 8 bytes, got %d", n)
	}
	put := fake.puts[0]
	if aws.ToString(put.Key) != "prod/offers/co/o-1.pdf" {
		t.Fatalf("unexpected key %q", aws.ToString(put.Key))
	}
	if put.ServerSideEncryption != s3types.ServerSideEncryptionAes256 || put.SSEKMSKeyId != nil {
		t.Fatalf("expected AES256 without a KMS key")
	}

	rc, err := store.Open(ctx, "offers/co/o-1.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "%PDF-1.7" {
		t.Fatalf("unexpected content %q", data)
	}

	link, err := store.URL(ctx, "offers/co/o-1.pdf")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if link != "https://letters.s3.test/prod/offers/co/o-1.pdf" || fake.ttl != defaultURLTTL {
		t.Fatalf("unexpected presign %q ttl=%s", link, fake.ttl)
	}

	if err := store.Delete(ctx, "offers/co/o-1.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, "offers/co/o-1.pdf"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreUsesKMSAndRejectsBadKeys(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}}
	store := newStore(fake, fake, Config{Bucket: "letters", KMSKeyID: " key-1 "})

	if _, err := store.SaveWithKey(context.Background(), "a.pdf", "application/pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("SaveWithKey: %v", err)
	}
	put := fake.puts[0]
	if put.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms || aws.ToString(put.SSEKMSKeyId) != "key-1" {
		t.Fatalf("expected KMS encryption with key-1")
	}

	if _, err := store.SaveWithKey(context.Background(), "../a.pdf", "application/pdf", strings.NewReader("x")); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
