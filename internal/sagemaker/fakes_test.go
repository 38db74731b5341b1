package sagemaker

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/aws/smithy-go"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []*s3.PutObjectInput
	heads   int
	// onHead runs before every HeadObject lookup.
	onHead  func(n int, f *fakeStore)
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) set(uri string, body string) {
	f.objects[uri] = []byte(body)
}

func (f *fakeStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, in)
	f.set(S3URI(aws.ToString(in.Bucket), aws.ToString(in.Key)), string(b))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeStore) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heads++
	if f.onHead != nil {
		f.onHead(f.heads, f)
	}
	if _, ok := f.objects[S3URI(aws.ToString(in.Bucket), aws.ToString(in.Key))]; !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeStore) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[S3URI(aws.ToString(in.Bucket), aws.ToString(in.Key))]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

type fakeInvoker struct {
	calls []*sagemakerruntime.InvokeEndpointAsyncInput
	out   *sagemakerruntime.InvokeEndpointAsyncOutput
	err   error
}

func (f *fakeInvoker) InvokeEndpointAsync(_ context.Context, in *sagemakerruntime.InvokeEndpointAsyncInput, _ ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointAsyncOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.out == nil {
		return &sagemakerruntime.InvokeEndpointAsyncOutput{}, nil
	}
	return f.out, nil
}
