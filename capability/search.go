package capability

import (
	"context"
	"strings"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/tool"
)

// GroundingSource is a single citation backing a grounded search answer.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// GroundedResult is the normalized product of a grounded search: the textual
// answer, the sources it rests on, and related follow-up queries.
type GroundedResult struct {
	TextContent       string            `json:"text_content"`
	GroundingSources  []GroundingSource `json:"grounding_sources"`
	SearchSuggestions []string          `json:"search_suggestions"`
}

// Searcher performs a grounded web search. Implementations wrap whichever
// provider offers search grounding.
type Searcher interface {
	Search(ctx context.Context, query, refinement string) (*GroundedResult, error)
}

// NewGroundedSearchTool builds the grounded search capability over a Searcher.
func NewGroundedSearchTool(s Searcher) *tool.FunctionTool {
	parameters := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query":   map[string]any{"type": "string", "description": "The search query"},
			"context": map[string]any{"type": "string", "description": "Optional prior findings to refine the search"},
		},
		"required": []string{"query"},
	}

	return tool.NewFunctionTool(tool.GroundedSearch, "Search the web for current information and return a sourced answer", parameters,
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			query, _ := args["query"].(string)
			if strings.TrimSpace(query) == "" {
				return nil, tool.NewToolError(tool.GroundedSearch, core.FailureInvalidInput, "query is empty")
			}
			searchCtx, _ := args["context"].(string)

			result, err := s.Search(ctx, query, searchCtx)
			if err != nil {
				return nil, tool.NewToolError(tool.GroundedSearch, core.FailureUpstream, "search: %v", err)
			}

			sources := make([]any, 0, len(result.GroundingSources))
			for _, src := range result.GroundingSources {
				sources = append(sources, map[string]any{"title": src.Title, "uri": src.URI})
			}
			suggestions := make([]any, 0, len(result.SearchSuggestions))
			for _, sg := range result.SearchSuggestions {
				suggestions = append(suggestions, sg)
			}
			return core.StructuredOutput{Data: map[string]any{
				"text_content":       result.TextContent,
				"grounding_sources":  sources,
				"search_suggestions": suggestions,
			}}, nil
		})
}

// ModelSearcher answers search queries from a model completion. It carries no
// live grounding, so sources stay empty; useful as a development fallback and
// in tests.
type ModelSearcher struct {
	model        model.Model
	instructions string
}

// NewModelSearcher builds a Searcher over a plain completion model.
func NewModelSearcher(m model.Model) *ModelSearcher {
	return &ModelSearcher{
		model:        m,
		instructions: "Answer the query from your knowledge. State clearly when information may be outdated. End with up to three related follow-up queries, one per line, each prefixed with 'Suggestion:'.",
	}
}

// Search implements Searcher.
func (s *ModelSearcher) Search(ctx context.Context, query, searchCtx string) (*GroundedResult, error) {
	text := query
	if searchCtx != "" {
		text = query + "\n\nPrior findings:\n" + searchCtx
	}
	resp, err := s.model.Generate(ctx, model.UserText(s.instructions, text))
	if err != nil {
		return nil, err
	}

	result := &GroundedResult{}
	for _, line := range strings.Split(resp.Text, "\n") {
		trimmed := strings.TrimSpace(line)
		if sg, ok := strings.CutPrefix(trimmed, "Suggestion:"); ok {
			if sg = strings.TrimSpace(sg); sg != "" {
				result.SearchSuggestions = append(result.SearchSuggestions, sg)
			}
			continue
		}
		if trimmed != "" || result.TextContent != "" {
			result.TextContent += line + "\n"
		}
	}
	result.TextContent = strings.TrimSpace(result.TextContent)
	return result, nil
}
