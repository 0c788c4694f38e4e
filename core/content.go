package core

import (
	"regexp"
	"strings"
)

// Part represents a polymorphic segment of request content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text     string         // Plain UTF-8 text
	Metadata map[string]any // Optional producer-provided metadata
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// ImagePart is an image content segment, either inlined as a base64 data URL
// or referenced by URI. Exactly one of Base64 / URI should be set.
type ImagePart struct {
	Base64   string // data URL ("data:image/png;base64,...") if inlined
	MimeType string // Optional MIME type hint
	URI      string // External retrieval URI if not inlined
	Metadata map[string]any
}

// isPart implements the Part interface for ImagePart.
func (ImagePart) isPart() {}

// DataPart is a structured data segment (e.g. a decoded JSON object).
type DataPart struct {
	Data     map[string]any // Structured key/value payload
	Metadata map[string]any
}

// isPart implements the Part interface for DataPart.
func (DataPart) isPart() {}

// Content holds role + ordered parts. The request handed to a turn is a
// Content with role "user"; it is immutable once the turn starts.
type Content struct {
	Role  string `json:"role,omitempty"` // Conversation role (user, assistant, tool, system,...)
	Parts []Part `json:"parts"`          // Ordered heterogeneous parts
}

// NewTextContent builds a single-part text Content for the given role.
func NewTextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// NewUserRequest builds a user Content from text plus optional image parts.
func NewUserRequest(text string, images ...ImagePart) Content {
	parts := make([]Part, 0, len(images)+1)
	if text != "" {
		parts = append(parts, TextPart{Text: text})
	}
	for _, img := range images {
		parts = append(parts, img)
	}
	return Content{Role: "user", Parts: parts}
}

// Text returns the concatenation of all text parts preserving order.
func (c Content) Text() string {
	var b strings.Builder
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// Images returns all image parts preserving order.
func (c Content) Images() []ImagePart {
	var images []ImagePart
	for _, p := range c.Parts {
		if ip, ok := p.(ImagePart); ok {
			images = append(images, ip)
		}
	}
	return images
}

// Empty reports whether the content carries neither text nor media.
func (c Content) Empty() bool {
	return strings.TrimSpace(c.Text()) == "" && len(c.Images()) == 0
}

// Clone returns a defensive copy of the content. Part values are copied by
// value; metadata maps are shared since parts are treated as immutable.
func (c Content) Clone() Content {
	parts := make([]Part, len(c.Parts))
	copy(parts, c.Parts)
	return Content{Role: c.Role, Parts: parts}
}

// dataURLPattern matches inline base64 image payloads embedded in free text.
var dataURLPattern = regexp.MustCompile(`data:image/[^;]+;base64,[A-Za-z0-9+/=]+`)

// NormalizeRequest splits inline data URLs embedded in text parts into
// dedicated ImageParts so downstream tools receive image payloads as
// structured arguments rather than as opaque text. Text parts are rewritten
// with the payload removed; other parts pass through unchanged.
func NormalizeRequest(c Content) Content {
	normalized := Content{Role: c.Role}
	for _, p := range c.Parts {
		tp, ok := p.(TextPart)
		if !ok {
			normalized.Parts = append(normalized.Parts, p)
			continue
		}
		matches := dataURLPattern.FindAllString(tp.Text, -1)
		if len(matches) == 0 {
			normalized.Parts = append(normalized.Parts, tp)
			continue
		}
		text := strings.TrimSpace(dataURLPattern.ReplaceAllString(tp.Text, ""))
		if text != "" {
			normalized.Parts = append(normalized.Parts, TextPart{Text: text, Metadata: tp.Metadata})
		}
		for _, m := range matches {
			normalized.Parts = append(normalized.Parts, ImagePart{
				Base64:   m,
				MimeType: mimeTypeFromDataURL(m),
			})
		}
	}
	return normalized
}

// mimeTypeFromDataURL extracts the MIME type from a data URL, e.g.
// "data:image/png;base64,..." -> "image/png".
func mimeTypeFromDataURL(dataURL string) string {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return ""
	}
	if idx := strings.Index(rest, ";"); idx > 0 {
		return rest[:idx]
	}
	return ""
}
