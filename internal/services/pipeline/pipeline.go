package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dreamforge-ai/dreamforge/internal/services/blobstore"
	"github.com/dreamforge-ai/dreamforge/internal/services/generations"
	"github.com/dreamforge-ai/dreamforge/internal/services/upstream"
)

var (
	ErrImageGeneration = errors.New("image generation failed")
	ErrRecordSave      = errors.New("failed to save generation record")
	ErrNotFound        = errors.New("generation not found")
)

type Enhancer interface {
	EnhancePrompt(ctx context.Context, prompt string) string
	EnhanceEditPrompt(ctx context.Context, currentPrompt, editRequest string) string
}

type Generator interface {
	GenerateImage(ctx context.Context, prompt string) []byte
	ConvertTo3D(ctx context.Context, image []byte) *upstream.ThreeDResult
}

// Pipeline runs the full prompt -> image -> 3D flow and records the outcome.
// A failed 3D stage degrades to an image-only record; a failed image stage
// aborts without writing anything.
type Pipeline struct {
	generator Generator
	enhancer  Enhancer
	blobs     blobstore.Store
	store     *generations.Store
	logger    *zap.Logger
	now       func() time.Time
}

func NewPipeline(generator Generator, enhancer Enhancer, blobs blobstore.Store, store *generations.Store, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		generator: generator,
		enhancer:  enhancer,
		blobs:     blobs,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

type Result struct {
	ID             int64  `json:"id"`
	Prompt         string `json:"prompt"`
	EnhancedPrompt string `json:"enhanced_prompt"`
	ImagePath      string `json:"image_path"`
	ModelPath      string `json:"model_path,omitempty"`
	Status         string `json:"status"`
}

func (p *Pipeline) Generate(ctx context.Context, prompt string) (*Result, error) {
	enhanced := prompt
	if p.enhancer != nil {
		enhanced = p.enhancer.EnhancePrompt(ctx, prompt)
	}

	return p.run(ctx, prompt, enhanced, generations.SaveParams{})
}

// Edit generates a new image from an edit request against an existing
// generation. The prior record stays untouched; the new one carries the
// parent id and an edit-history payload.
func (p *Pipeline) Edit(ctx context.Context, id int64, editRequest string) (*Result, error) {
	origin := p.store.Get(ctx, id)
	if origin == nil {
		return nil, ErrNotFound
	}

	current := origin.EnhancedPrompt
	if current == "" {
		current = origin.Prompt
	}

	enhanced := editRequest
	if p.enhancer != nil {
		enhanced = p.enhancer.EnhanceEditPrompt(ctx, current, editRequest)
	}

	params := generations.SaveParams{
		ParentID: origin.ID,
		Metadata: &generations.Metadata{
			EditHistory: &generations.EditHistory{
				OriginalPrompt:         origin.Prompt,
				EditPrompt:             editRequest,
				PreviousEnhancedPrompt: origin.EnhancedPrompt,
				Timestamp:              p.now().UTC(),
			},
		},
	}

	return p.run(ctx, editRequest, enhanced, params)
}

func (p *Pipeline) run(ctx context.Context, prompt, enhanced string, params generations.SaveParams) (*Result, error) {
	image := p.generator.GenerateImage(ctx, enhanced)
	if image == nil {
		return nil, ErrImageGeneration
	}

	imagePath, err := p.blobs.SaveImage(image)
	if err != nil {
		return nil, fmt.Errorf("failed to save image blob: %w", err)
	}

	var modelPath string
	if threeD := p.generator.ConvertTo3D(ctx, image); threeD == nil {
		p.logger.Warn("3d conversion failed, keeping image-only generation",
			zap.String("prompt", prompt))
	} else if len(threeD.Model) > 0 {
		modelPath, err = p.blobs.SaveModel(threeD.Model)
		if err != nil {
			p.logger.Error("failed to save model blob", zap.Error(err))
			modelPath = ""
		}
	}

	params.Prompt = prompt
	params.EnhancedPrompt = enhanced
	params.ImagePath = imagePath
	params.ModelPath = modelPath

	id := p.store.Save(ctx, params)
	if id == generations.SaveFailed {
		return nil, ErrRecordSave
	}

	status := generations.StatusImageOnly
	if modelPath != "" {
		status = generations.StatusComplete
	}

	return &Result{
		ID:             id,
		Prompt:         prompt,
		EnhancedPrompt: enhanced,
		ImagePath:      imagePath,
		ModelPath:      modelPath,
		Status:         status,
	}, nil
}
