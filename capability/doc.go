// Package capability provides the built-in tool implementations for the
// fixed capability set: image analysis, multimodal analysis, grounded search
// and image generation. Each capability is exposed as a tool.FunctionTool so
// the registry applies the same validation, timeout and error normalization
// regardless of the backing provider.
//
// Provider access goes through small interfaces (model.Model, Searcher,
// ImageGenerator) so deployments can swap backends without touching the
// planning or execution agents.
package capability
