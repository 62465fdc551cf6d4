package upstream

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dreamforge-ai/dreamforge/internal/config"
)

// ThreeDResult is the normalized image-to-3d response. Either field may be
// empty; a non-nil result with neither set means the call succeeded but the
// app returned no artifacts.
type ThreeDResult struct {
	Model []byte
	Video []byte
}

// Orchestrator fronts the two upstream generation apps. Calls are retried a
// bounded number of times, and only while the remote resource is not ready;
// every failure mode collapses to a nil return, with the cause in the logs.
type Orchestrator struct {
	stub       Stub
	cfg        config.UpstreamConfig
	logger     *zap.Logger
	newBackOff func(ctx context.Context) backoff.BackOff
}

func NewOrchestrator(stub Stub, cfg config.UpstreamConfig, logger *zap.Logger) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = config.DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = config.DefaultRetryDelay
	}
	if cfg.UserID == "" {
		cfg.UserID = config.DefaultUserID
	}

	o := &Orchestrator{
		stub:   stub,
		cfg:    cfg,
		logger: logger,
	}
	o.newBackOff = func(ctx context.Context) backoff.BackOff {
		b := backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.RetryDelay), uint64(cfg.MaxAttempts-1))
		return backoff.WithContext(b, ctx)
	}

	return o
}

// WithBackOff replaces the retry schedule. Tests use a zero-delay policy so
// attempt counting runs against a virtual clock.
func (o *Orchestrator) WithBackOff(factory func(ctx context.Context) backoff.BackOff) *Orchestrator {
	o.newBackOff = factory
	return o
}

// GenerateImage sends the prompt to the text-to-image app and returns the raw
// image bytes, or nil if the call failed or the response had no result field.
func (o *Orchestrator) GenerateImage(ctx context.Context, prompt string) []byte {
	response := o.callWithRetry(ctx, o.cfg.TextToImageApp, map[string]any{"prompt": prompt})
	if response == nil {
		return nil
	}

	raw, ok := response["result"]
	if !ok {
		o.logger.Error("invalid text-to-image response: missing result field",
			zap.String("app_id", o.cfg.TextToImageApp))
		return nil
	}

	data := asBytes(raw)
	if data == nil {
		o.logger.Error("invalid text-to-image response: result is not binary",
			zap.String("app_id", o.cfg.TextToImageApp))
		return nil
	}

	return data
}

// ConvertTo3D submits base64-encoded image bytes to the image-to-3d app. The
// response is normalized by copying generated_object/video_object when
// present; a structured response missing both still yields an empty result.
func (o *Orchestrator) ConvertTo3D(ctx context.Context, image []byte) *ThreeDResult {
	payload := map[string]any{"input_image": base64.StdEncoding.EncodeToString(image)}
	response := o.callWithRetry(ctx, o.cfg.ImageTo3DApp, payload)
	if response == nil {
		return nil
	}

	result := &ThreeDResult{}
	if v, ok := response["generated_object"]; ok {
		result.Model = asBytes(v)
	}
	if v, ok := response["video_object"]; ok {
		result.Video = asBytes(v)
	}

	return result
}

func (o *Orchestrator) callWithRetry(ctx context.Context, appID string, payload any) map[string]any {
	log := o.logger.With(
		zap.String("app_id", appID),
		zap.String("request_id", uuid.NewString()),
	)

	var response map[string]any
	attempt := 0
	operation := func() error {
		attempt++
		resp, err := o.stub.Call(ctx, appID, payload, o.cfg.UserID)
		if err != nil {
			if errors.Is(err, ErrResourceNotReady) {
				log.Info("resource not ready, retrying",
					zap.Int("attempt", attempt),
					zap.Int("max_attempts", o.cfg.MaxAttempts),
					zap.Duration("delay", o.cfg.RetryDelay))
				return err
			}
			return backoff.Permanent(err)
		}

		response = resp
		return nil
	}

	if err := backoff.Retry(operation, o.newBackOff(ctx)); err != nil {
		log.Error("upstream call failed", zap.Int("attempts", attempt), zap.Error(err))
		return nil
	}

	return response
}

func asBytes(v any) []byte {
	switch value := v.(type) {
	case []byte:
		return value
	case string:
		return []byte(value)
	}
	return nil
}
