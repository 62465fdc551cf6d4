package upstream

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dreamforge-ai/dreamforge/internal/config"
)

type stubFunc func(ctx context.Context, appID string, payload any, userID string) (map[string]any, error)

func (f stubFunc) Call(ctx context.Context, appID string, payload any, userID string) (map[string]any, error) {
	return f(ctx, appID, payload, userID)
}

func testConfig() config.UpstreamConfig {
	return config.UpstreamConfig{
		TextToImageApp: "text-to-image.test",
		ImageTo3DApp:   "image-to-3d.test",
		MaxAttempts:    3,
		RetryDelay:     time.Millisecond,
	}
}

// zero-delay schedule so retry tests run against a virtual clock
func zeroBackOff(maxAttempts int) func(ctx context.Context) backoff.BackOff {
	return func(ctx context.Context) backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(maxAttempts-1))
	}
}

func TestGenerateImageRetriesUntilExhaustion(t *testing.T) {
	attempts := 0
	stub := stubFunc(func(ctx context.Context, appID string, payload any, userID string) (map[string]any, error) {
		attempts++
		return nil, fmt.Errorf("%w: app %s", ErrResourceNotReady, appID)
	})

	o := NewOrchestrator(stub, testConfig(), zap.NewNop()).WithBackOff(zeroBackOff(3))

	assert.Nil(t, o.GenerateImage(context.Background(), "a dragon"))
	assert.Equal(t, 3, attempts)
}

func TestGenerateImageDoesNotRetryTerminalErrors(t *testing.T) {
	attempts := 0
	stub := stubFunc(func(ctx context.Context, appID string, payload any, userID string) (map[string]any, error) {
		attempts++
		return nil, errors.New("upstream exploded")
	})

	o := NewOrchestrator(stub, testConfig(), zap.NewNop()).WithBackOff(zeroBackOff(3))

	assert.Nil(t, o.GenerateImage(context.Background(), "a dragon"))
	assert.Equal(t, 1, attempts)
}

func TestGenerateImageSucceedsAfterNotReady(t *testing.T) {
	attempts := 0
	stub := stubFunc(func(ctx context.Context, appID string, payload any, userID string) (map[string]any, error) {
		attempts++
		if attempts == 1 {
			return nil, fmt.Errorf("%w: app %s", ErrResourceNotReady, appID)
		}
		return map[string]any{"result": []byte("image-bytes")}, nil
	})

	o := NewOrchestrator(stub, testConfig(), zap.NewNop()).WithBackOff(zeroBackOff(3))

	data := o.GenerateImage(context.Background(), "a dragon")
	assert.Equal(t, []byte("image-bytes"), data)
	assert.Equal(t, 2, attempts)
}

func TestGenerateImageSendsPromptAndUserID(t *testing.T) {
	var gotApp, gotUser string
	var gotPayload any
	stub := stubFunc(func(ctx context.Context, appID string, payload any, userID string) (map[string]any, error) {
		gotApp, gotUser, gotPayload = appID, userID, payload
		return map[string]any{"result": []byte{0x1}}, nil
	})

	o := NewOrchestrator(stub, testConfig(), zap.NewNop())
	require.NotNil(t, o.GenerateImage(context.Background(), "a red car"))

	assert.Equal(t, "text-to-image.test", gotApp)
	assert.Equal(t, config.DefaultUserID, gotUser)
	assert.Equal(t, map[string]any{"prompt": "a red car"}, gotPayload)
}

func TestGenerateImageRejectsMissingResultField(t *testing.T) {
	stub := stubFunc(func(ctx context.Context, appID string, payload any, userID string) (map[string]any, error) {
		return map[string]any{"unexpected": "shape"}, nil
	})

	o := NewOrchestrator(stub, testConfig(), zap.NewNop())
	assert.Nil(t, o.GenerateImage(context.Background(), "a dragon"))
}

func TestConvertTo3DNormalizesResponse(t *testing.T) {
	image := []byte{0x89, 0x50, 0x4e, 0x47}

	var gotPayload any
	stub := stubFunc(func(ctx context.Context, appID string, payload any, userID string) (map[string]any, error) {
		gotPayload = payload
		return map[string]any{
			"generated_object": []byte("model-bytes"),
			"video_object":     []byte("video-bytes"),
		}, nil
	})

	o := NewOrchestrator(stub, testConfig(), zap.NewNop())
	result := o.ConvertTo3D(context.Background(), image)

	require.NotNil(t, result)
	assert.Equal(t, []byte("model-bytes"), result.Model)
	assert.Equal(t, []byte("video-bytes"), result.Video)

	payload, ok := gotPayload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, base64.StdEncoding.EncodeToString(image), payload["input_image"])
}

func TestConvertTo3DEmptyResponseStillSucceeds(t *testing.T) {
	stub := stubFunc(func(ctx context.Context, appID string, payload any, userID string) (map[string]any, error) {
		return map[string]any{}, nil
	})

	o := NewOrchestrator(stub, testConfig(), zap.NewNop())
	result := o.ConvertTo3D(context.Background(), []byte{0x1})

	require.NotNil(t, result)
	assert.Nil(t, result.Model)
	assert.Nil(t, result.Video)
}

func TestConvertTo3DFailedCallReturnsNil(t *testing.T) {
	stub := stubFunc(func(ctx context.Context, appID string, payload any, userID string) (map[string]any, error) {
		return nil, errors.New("connection refused")
	})

	o := NewOrchestrator(stub, testConfig(), zap.NewNop()).WithBackOff(zeroBackOff(3))
	assert.Nil(t, o.ConvertTo3D(context.Background(), []byte{0x1}))
}
