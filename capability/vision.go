package capability

import (
	"context"
	"strings"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/tool"
)

// VisionOptions configure the two analysis capabilities.
type VisionOptions struct {
	// Instructions is the system prompt sent with every analysis request.
	Instructions string
}

// NewAnalyzeImageTool builds the single-image analysis capability over a
// vision-capable model. The image argument accepts a data URL or a remote URI.
func NewAnalyzeImageTool(m model.Model, optFns ...func(o *VisionOptions)) *tool.FunctionTool {
	opts := VisionOptions{
		Instructions: "You are an image analyst. Describe and answer questions about the attached image precisely and concisely.",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	parameters := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{"type": "string", "description": "What to determine about the image"},
			"image":  map[string]any{"type": "string", "description": "Image as data URL or remote URI"},
		},
		"required": []string{"prompt", "image"},
	}

	return tool.NewFunctionTool(tool.AnalyzeImage, "Analyze a single attached image and answer the prompt about it", parameters,
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			prompt, _ := args["prompt"].(string)
			ref, _ := args["image"].(string)
			if ref == "" {
				return nil, tool.NewToolError(tool.AnalyzeImage, core.FailureInvalidInput, "image reference is empty")
			}
			return analyze(ctx, m, tool.AnalyzeImage, opts.Instructions, prompt, []string{ref})
		})
}

// NewAnalyzeMultimodalTool builds the multi-image/document analysis
// capability. It accepts any number of image references alongside the prompt.
func NewAnalyzeMultimodalTool(m model.Model, optFns ...func(o *VisionOptions)) *tool.FunctionTool {
	opts := VisionOptions{
		Instructions: "You are a multimodal analyst. Reason jointly over the prompt and all attached media, citing which attachment supports each conclusion.",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	parameters := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{"type": "string", "description": "The analysis task"},
			"images": map[string]any{"type": "array", "description": "Image references as data URLs or remote URIs"},
		},
		"required": []string{"prompt"},
	}

	return tool.NewFunctionTool(tool.AnalyzeMultimodal, "Analyze a prompt together with any number of attached images or documents", parameters,
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			prompt, _ := args["prompt"].(string)
			var refs []string
			if raw, ok := args["images"].([]any); ok {
				for _, r := range raw {
					if s, ok := r.(string); ok && s != "" {
						refs = append(refs, s)
					}
				}
			}
			return analyze(ctx, m, tool.AnalyzeMultimodal, opts.Instructions, prompt, refs)
		})
}

// analyze runs one vision completion and normalizes the result.
func analyze(ctx context.Context, m model.Model, name, instructions, prompt string, refs []string) (core.Output, error) {
	images := make([]core.ImagePart, 0, len(refs))
	for _, ref := range refs {
		images = append(images, imagePart(ref))
	}

	resp, err := m.Generate(ctx, model.Request{
		Instructions: instructions,
		Messages:     []model.Message{{Role: "user", Text: prompt, Images: images}},
	})
	if err != nil {
		return nil, tool.NewToolError(name, core.FailureUpstream, "vision completion: %v", err)
	}
	if resp.Text == "" {
		return nil, tool.NewToolError(name, core.FailureUpstream, "vision completion returned no text")
	}
	return core.TextOutput{Text: resp.Text}, nil
}

// imagePart splits a reference into the inline vs remote slot.
func imagePart(ref string) core.ImagePart {
	if strings.HasPrefix(ref, "data:") {
		return core.ImagePart{Base64: ref}
	}
	return core.ImagePart{URI: ref}
}
