package structured

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/typedflow/typedflow/llm"
	"github.com/typedflow/typedflow/types"
)

// DefaultToolName is the fixed name of the forced tool when none is
// configured.
const DefaultToolName = "get_results"

const toolDescription = "Produce the final answer as arguments matching the given schema."

// DocumentType identifies the variant of a Document.
type DocumentType string

const (
	DocumentText  DocumentType = "text"
	DocumentImage DocumentType = "image"
	DocumentAudio DocumentType = "audio"
)

// Document is a richly-typed value embedded in a prompt template.
// Exactly one payload is used per Type: Text for text documents, URL or
// Data (+MIME) for images, Data+Format for audio.
type Document struct {
	Type   DocumentType
	Text   string
	URL    string
	Data   []byte
	MIME   string            // image MIME type; defaults to "image/*"
	Format types.AudioFormat // audio format; mandatory, no default
}

// SegmentType identifies the variant of a template segment.
type SegmentType string

const (
	SegmentText      SegmentType = "text"
	SegmentValue     SegmentType = "value"
	SegmentDocument  SegmentType = "document"
	SegmentDocuments SegmentType = "documents"
)

// Segment is one piece of an interleaved prompt template: a literal text
// run, a stringified scalar insertion, or one or more embedded documents.
type Segment struct {
	Type      SegmentType
	Text      string
	Value     any
	Document  Document
	Documents []Document
}

// Template is an ordered sequence of segments assembled into the outbound
// message content.
type Template struct {
	Segments []Segment
}

// Textf appends a literal text segment and returns the template for chaining.
func (t Template) Textf(format string, args ...any) Template {
	t.Segments = append(t.Segments, Segment{Type: SegmentText, Text: fmt.Sprintf(format, args...)})
	return t
}

// Value appends a stringified scalar insertion.
func (t Template) Value(v any) Template {
	t.Segments = append(t.Segments, Segment{Type: SegmentValue, Value: v})
	return t
}

// Doc appends an embedded document.
func (t Template) Doc(d Document) Template {
	t.Segments = append(t.Segments, Segment{Type: SegmentDocument, Document: d})
	return t
}

// Docs appends an embedded document array.
func (t Template) Docs(docs ...Document) Template {
	t.Segments = append(t.Segments, Segment{Type: SegmentDocuments, Documents: docs})
	return t
}

// BuildContent assembles a template into the ordered multi-part message
// content. Adjacent literal text and scalar insertions are concatenated into
// one text buffer; the buffer is flushed into a text part immediately before
// an embedded document (or document array) and after the final segment.
// Empty buffers are never emitted.
func BuildContent(tmpl Template) ([]types.ContentPart, error) {
	var parts []types.ContentPart
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			parts = append(parts, types.NewTextPart(buf.String()))
			buf.Reset()
		}
	}

	for _, seg := range tmpl.Segments {
		switch seg.Type {
		case SegmentText:
			buf.WriteString(seg.Text)
		case SegmentValue:
			buf.WriteString(fmt.Sprintf("%v", seg.Value))
		case SegmentDocument:
			flush()
			part, err := documentPart(seg.Document)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		case SegmentDocuments:
			flush()
			for _, d := range seg.Documents {
				part, err := documentPart(d)
				if err != nil {
					return nil, err
				}
				parts = append(parts, part)
			}
		default:
			return nil, types.NewError(types.ErrInvalidRequest,
				fmt.Sprintf("unknown template segment type %q", seg.Type))
		}
	}
	flush()

	return parts, nil
}

// documentPart converts one embedded document into a content part.
func documentPart(d Document) (types.ContentPart, error) {
	switch d.Type {
	case DocumentText:
		return types.NewTextPart(d.Text), nil

	case DocumentImage:
		if d.URL != "" {
			u, err := url.Parse(d.URL)
			if err != nil || !u.IsAbs() {
				return types.ContentPart{}, types.NewError(types.ErrInvalidRequest,
					fmt.Sprintf("image URL %q is not an absolute URL", d.URL))
			}
			return types.NewImagePart(d.URL), nil
		}
		mime := d.MIME
		if mime == "" {
			mime = "image/*"
		}
		dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(d.Data))
		return types.NewImagePart(dataURL), nil

	case DocumentAudio:
		switch d.Format {
		case types.AudioMP3, types.AudioWAV:
		default:
			return types.ContentPart{}, types.NewError(types.ErrInvalidRequest,
				"audio documents require an explicit mp3 or wav format")
		}
		return types.NewAudioPart(base64.StdEncoding.EncodeToString(d.Data), d.Format), nil

	default:
		return types.ContentPart{}, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("unknown document type %q", d.Type))
	}
}

// RequestOptions carries per-call completion parameters.
type RequestOptions struct {
	Model       string
	ToolName    string
	Temperature float32
	MaxTokens   int
}

// BuildRequest packages the synthesized schema as a single named tool
// definition and forces the model to invoke exactly that tool; free-text
// replies are not permitted.
func BuildRequest(parts []types.ContentPart, schema *ResponseSchema, opts RequestOptions) (*llm.ChatRequest, error) {
	params, err := schema.Schema.ToJSON()
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to serialize response schema").WithCause(err)
	}

	toolName := opts.ToolName
	if toolName == "" {
		toolName = DefaultToolName
	}

	return &llm.ChatRequest{
		Model:       opts.Model,
		Messages:    []types.Message{types.NewUserPartsMessage(parts)},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Tools: []types.ToolSchema{{
			Name:        toolName,
			Description: toolDescription,
			Parameters:  json.RawMessage(params),
		}},
		ToolChoice: toolName,
	}, nil
}
