package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Output represents a normalized tool result crossing the execution agent /
// tool registry boundary. Concrete output types implement the unexported
// isOutput marker enabling a closed set, mirroring the Part union on the
// request side.
type Output interface{ isOutput() }

// TextOutput is a plain text result.
type TextOutput struct {
	Text string
}

// isOutput implements the Output interface for TextOutput.
func (TextOutput) isOutput() {}

// ImageRefOutput references image data produced or analyzed by a tool.
// Either Path (local artifact), URI (remote) or Base64 (inlined) is set.
type ImageRefOutput struct {
	Path     string // Local filesystem path of a generated artifact
	URI      string // Remote location if the tool returned a reference
	Base64   string // Inlined data URL for direct display
	MimeType string
}

// isOutput implements the Output interface for ImageRefOutput.
func (ImageRefOutput) isOutput() {}

// StructuredOutput carries an arbitrary structured payload, e.g. grounded
// search results with sources and suggestions.
type StructuredOutput struct {
	Data map[string]any
}

// isOutput implements the Output interface for StructuredOutput.
func (StructuredOutput) isOutput() {}

// OutputText renders an output as text for answer synthesis and prompt
// assembly. Structured payloads are rendered as stable key-sorted JSON so the
// same output always produces the same text.
func OutputText(o Output) string {
	switch v := o.(type) {
	case TextOutput:
		return v.Text
	case ImageRefOutput:
		switch {
		case v.Path != "":
			return fmt.Sprintf("[image: %s]", v.Path)
		case v.URI != "":
			return fmt.Sprintf("[image: %s]", v.URI)
		default:
			return "[inline image]"
		}
	case StructuredOutput:
		keys := make([]string, 0, len(v.Data))
		for k := range v.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			val, err := json.Marshal(v.Data[k])
			if err != nil {
				val = []byte(fmt.Sprintf("%q", fmt.Sprint(v.Data[k])))
			}
			fmt.Fprintf(&b, "%q: %s", k, val)
		}
		b.WriteString("}")
		return b.String()
	default:
		return fmt.Sprintf("%v", o)
	}
}
