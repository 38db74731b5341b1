// Package sagemaker submits generation requests to a SageMaker Async
// Inference endpoint and optionally waits for the result in S3.
package sagemaker

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"

	"github.com/flarebyte/ltx-i2v/internal/config"
)

const (
	defaultPollInterval = 15 * time.Second
	defaultTimeout      = 900 * time.Second
)

// ObjectStore is the subset of the S3 API used for staging and polling.
type ObjectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// AsyncInvoker is the subset of the SageMaker runtime API used to queue requests.
type AsyncInvoker interface {
	InvokeEndpointAsync(ctx context.Context, in *sagemakerruntime.InvokeEndpointAsyncInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointAsyncOutput, error)
}

// Options control a single submission.
type Options struct {
	EndpointName      string
	StagingDir        string
	InputBucket       string // defaults to aws.s3_bucket
	OutputBucket      string // defaults to aws.s3_bucket
	InputPrefix       string
	OutputPrefix      string
	WaitForCompletion bool
	PollInterval      time.Duration
	Timeout           time.Duration
	PayloadOverrides  map[string]any
}

// Handle describes a submitted request.
type Handle struct {
	InferenceID     string
	EndpointName    string
	InputS3URI      string
	OutputLocation  string
	FailureLocation string
	// CompletedOutput is set once the endpoint has written its result.
	CompletedOutput string
}

// Client submits requests through an object store and an async invoker.
type Client struct {
	store   ObjectStore
	invoker AsyncInvoker
}

// New returns a Client using the given collaborators.
func New(store ObjectStore, invoker AsyncInvoker) *Client {
	return &Client{store: store, invoker: invoker}
}

// NewClient builds a Client from the default AWS credential chain, using the
// region and profile from cfg when set.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.AWS.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWS.Region))
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWS.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return fromAWSConfig(awsCfg), nil
}

func fromAWSConfig(awsCfg aws.Config) *Client {
	return New(s3.NewFromConfig(awsCfg), sagemakerruntime.NewFromConfig(awsCfg))
}

// newClient is swapped in tests.
var newClient = NewClient

// SubmitAsyncInvocation builds an AWS-backed client and submits cfg.
func SubmitAsyncInvocation(ctx context.Context, cfg *config.Config, opts Options) (*Handle, error) {
	c, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, cfg, opts)
}
