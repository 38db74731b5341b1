package sagemaker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/flarebyte/ltx-i2v/internal/config"
	"github.com/flarebyte/ltx-i2v/internal/hooks"
	"github.com/flarebyte/ltx-i2v/internal/logging"
	"github.com/flarebyte/ltx-i2v/internal/payload"
)

var (
	ErrMissingEndpoint = errors.New("endpoint name is required")
	ErrMissingBucket   = errors.New("no S3 bucket: pass a bucket override or set aws.s3_bucket")
	ErrInferenceFailed = errors.New("async inference failed")
	// ErrWaitTimeout is returned together with a valid Handle when the result
	// did not appear in time. The request may still complete later.
	ErrWaitTimeout = errors.New("timed out waiting for async result")
)

const failureBodyMax = 4 << 10

var newInferenceID = uuid.NewString

// Submit stages the remote payload for cfg, uploads it, queues it on the
// endpoint and, when opts.WaitForCompletion is set, polls for the result.
func (c *Client) Submit(ctx context.Context, cfg *config.Config, opts Options) (*Handle, error) {
	log := logging.FromContext(ctx)
	if strings.TrimSpace(opts.EndpointName) == "" {
		return nil, ErrMissingEndpoint
	}
	inBucket := firstNonEmpty(opts.InputBucket, cfg.AWS.S3Bucket)
	outBucket := firstNonEmpty(opts.OutputBucket, cfg.AWS.S3Bucket)
	if inBucket == "" || outBucket == "" {
		return nil, ErrMissingBucket
	}

	body, err := payload.Build(cfg, payload.TargetRemote)
	if err != nil {
		return nil, err
	}
	body = payload.ApplyOverrides(body, opts.PayloadOverrides)
	body, err = hooks.ApplyPayloadHook(ctx, cfg.Hooks.PayloadLua, time.Duration(cfg.Hooks.TimeoutMs)*time.Millisecond, body)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	id := newInferenceID()
	name := id + ".json"
	if opts.StagingDir != "" {
		if err := os.MkdirAll(opts.StagingDir, 0o755); err != nil {
			return nil, fmt.Errorf("create staging directory: %w", err)
		}
		if err := os.WriteFile(filepath.Join(opts.StagingDir, name), raw, 0o644); err != nil {
			return nil, fmt.Errorf("stage payload: %w", err)
		}
	}

	inKey := joinKey(opts.InputPrefix, name)
	if _, err := c.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(inBucket),
		Key:         aws.String(inKey),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String(cfg.AWS.ContentType),
	}); err != nil {
		return nil, fmt.Errorf("upload payload to %s: %w", S3URI(inBucket, inKey), err)
	}
	h := &Handle{
		InferenceID:  id,
		EndpointName: opts.EndpointName,
		InputS3URI:   S3URI(inBucket, inKey),
	}
	log.Debug("payload uploaded", "uri", h.InputS3URI, "bytes", len(raw))

	in := &sagemakerruntime.InvokeEndpointAsyncInput{
		EndpointName:  aws.String(opts.EndpointName),
		InputLocation: aws.String(h.InputS3URI),
		ContentType:   aws.String(cfg.AWS.ContentType),
		InferenceId:   aws.String(id),
	}
	if cfg.AWS.RequestTTLSeconds > 0 {
		in.RequestTTLSeconds = aws.Int32(int32(cfg.AWS.RequestTTLSeconds))
	}
	out, err := c.invoker.InvokeEndpointAsync(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("invoke endpoint %s: %w", opts.EndpointName, err)
	}
	h.OutputLocation = aws.ToString(out.OutputLocation)
	if h.OutputLocation == "" {
		h.OutputLocation = S3URI(outBucket, joinKey(opts.OutputPrefix, id+".out"))
	}
	h.FailureLocation = aws.ToString(out.FailureLocation)
	log.Info("async request queued", "inference_id", id, "endpoint", opts.EndpointName, "output", h.OutputLocation)

	if !opts.WaitForCompletion {
		return h, nil
	}
	return h, c.wait(ctx, h, opts)
}

func (c *Client) wait(ctx context.Context, h *Handle, opts Options) error {
	log := logging.FromContext(ctx)
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	deadline := time.Now().Add(timeout)

	for {
		ok, err := c.exists(ctx, h.OutputLocation)
		if err != nil {
			return err
		}
		if ok {
			h.CompletedOutput = c.firstArtifact(ctx, h.OutputLocation)
			return nil
		}
		if h.FailureLocation != "" {
			failed, err := c.exists(ctx, h.FailureLocation)
			if err != nil {
				return err
			}
			if failed {
				return fmt.Errorf("%w: %s", ErrInferenceFailed, c.readSnippet(ctx, h.FailureLocation))
			}
		}

		left := time.Until(deadline)
		if left <= 0 {
			return ErrWaitTimeout
		}
		log.Debug("waiting for async result", "inference_id", h.InferenceID, "remaining", left.Round(time.Second))
		t := time.NewTimer(min(poll, left))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) exists(ctx context.Context, uri string) (bool, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return false, err
	}
	_, err = c.store.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err == nil {
		return true, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return false, nil
		}
	}
	return false, fmt.Errorf("check %s: %w", uri, err)
}

func (c *Client) get(ctx context.Context, uri string, limit int64) ([]byte, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	out, err := c.store.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(io.LimitReader(out.Body, limit))
}

// firstArtifact returns the first artifact URI named by a JSON result body,
// falling back to the output location itself.
func (c *Client) firstArtifact(ctx context.Context, outputURI string) string {
	b, err := c.get(ctx, outputURI, 1<<20)
	if err != nil {
		logging.FromContext(ctx).Warn("could not read async output", "uri", outputURI, "error", err)
		return outputURI
	}
	if uri := artifactFromBody(b); uri != "" {
		return uri
	}
	return outputURI
}

func artifactFromBody(b []byte) string {
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return ""
	}
	if list, ok := doc["artifacts"].([]any); ok {
		for _, a := range list {
			switch v := a.(type) {
			case string:
				if v != "" {
					return v
				}
			case map[string]any:
				for _, k := range []string{"uri", "s3_uri"} {
					if s, ok := v[k].(string); ok && s != "" {
						return s
					}
				}
			}
		}
	}
	if s, ok := doc["video_uri"].(string); ok {
		return s
	}
	return ""
}

func (c *Client) readSnippet(ctx context.Context, uri string) string {
	b, err := c.get(ctx, uri, failureBodyMax)
	if err != nil || len(bytes.TrimSpace(b)) == 0 {
		return "see " + uri
	}
	return strings.TrimSpace(string(b))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
