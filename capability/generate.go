package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/tool"
	"github.com/openai/openai-go"
)

// GeneratedImage is the normalized product of an image generation backend.
// Either Base64 (a full data URL) or URI is set.
type GeneratedImage struct {
	Base64   string
	URI      string
	MimeType string
}

// ImageGenerator produces an image from a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error)
}

// NewGenerateImageTool builds the image generation capability over an
// ImageGenerator.
func NewGenerateImageTool(g ImageGenerator) *tool.FunctionTool {
	parameters := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt":  map[string]any{"type": "string", "description": "Description of the image to create"},
			"context": map[string]any{"type": "string", "description": "Optional prior findings to inform the image"},
		},
		"required": []string{"prompt"},
	}

	return tool.NewFunctionTool(tool.GenerateImage, "Generate a new image from a textual description", parameters,
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			prompt, _ := args["prompt"].(string)
			if strings.TrimSpace(prompt) == "" {
				return nil, tool.NewToolError(tool.GenerateImage, core.FailureInvalidInput, "prompt is empty")
			}
			if extra, _ := args["context"].(string); extra != "" {
				prompt = prompt + "\n\nIncorporate these findings:\n" + extra
			}

			img, err := g.GenerateImage(ctx, prompt)
			if err != nil {
				return nil, tool.NewToolError(tool.GenerateImage, core.FailureUpstream, "image generation: %v", err)
			}
			return core.ImageRefOutput{Base64: img.Base64, URI: img.URI, MimeType: img.MimeType}, nil
		})
}

// OpenAIImageGeneratorOptions configure the OpenAI Images backend.
type OpenAIImageGeneratorOptions struct {
	Model string
	Size  openai.ImageGenerateParamsSize
}

// OpenAIImageGenerator implements ImageGenerator over the OpenAI Images API.
type OpenAIImageGenerator struct {
	client *openai.Client
	opts   OpenAIImageGeneratorOptions
}

// NewOpenAIImageGenerator builds the generator with a fresh client from the
// environment.
func NewOpenAIImageGenerator(optFns ...func(o *OpenAIImageGeneratorOptions)) *OpenAIImageGenerator {
	client := openai.NewClient()
	return NewOpenAIImageGeneratorFromClient(&client, optFns...)
}

// NewOpenAIImageGeneratorFromClient builds the generator from an existing client.
func NewOpenAIImageGeneratorFromClient(client *openai.Client, optFns ...func(o *OpenAIImageGeneratorOptions)) *OpenAIImageGenerator {
	opts := OpenAIImageGeneratorOptions{
		Model: openai.ImageModelDallE3,
		Size:  openai.ImageGenerateParamsSize1024x1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &OpenAIImageGenerator{client: client, opts: opts}
}

// GenerateImage implements ImageGenerator.
func (g *OpenAIImageGenerator) GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error) {
	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          g.opts.Model,
		Size:           g.opts.Size,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		N:              openai.Int(1),
	})
	if err != nil {
		return nil, fmt.Errorf("openai images: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai images: empty response")
	}

	data := resp.Data[0]
	if data.B64JSON != "" {
		return &GeneratedImage{
			Base64:   "data:image/png;base64," + data.B64JSON,
			MimeType: "image/png",
		}, nil
	}
	return &GeneratedImage{URI: data.URL, MimeType: "image/png"}, nil
}
