package types

import "encoding/json"

// Role represents the role of a message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentType identifies the variant of a ContentPart.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImageURL ContentType = "image_url"
	ContentAudio    ContentType = "input_audio"
)

// AudioFormat is the encoding of an audio content part. Only mp3 and wav are
// accepted; there is no default.
type AudioFormat string

const (
	AudioMP3 AudioFormat = "mp3"
	AudioWAV AudioFormat = "wav"
)

// ImageURL carries an image reference: an absolute URL or a base64 data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// AudioData carries base64-encoded audio bytes with an explicit format.
type AudioData struct {
	Data   string      `json:"data"`
	Format AudioFormat `json:"format"`
}

// ContentPart is one segment of a multi-part message body: text, an image
// reference, or inline audio. Exactly one payload field is set per Type.
// Parts are built fresh per request and never shared.
type ContentPart struct {
	Type     ContentType `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *ImageURL   `json:"image_url,omitempty"`
	Audio    *AudioData  `json:"input_audio,omitempty"`
}

// NewTextPart creates a text content part.
func NewTextPart(text string) ContentPart {
	return ContentPart{Type: ContentText, Text: text}
}

// NewImagePart creates an image content part from a URL or data URL.
func NewImagePart(url string) ContentPart {
	return ContentPart{Type: ContentImageURL, ImageURL: &ImageURL{URL: url}}
}

// NewAudioPart creates an audio content part from base64 data.
func NewAudioPart(data string, format AudioFormat) ContentPart {
	return ContentPart{Type: ContentAudio, Audio: &AudioData{Data: data, Format: format}}
}

// ToolCall represents a tool invocation request from the LLM.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message represents a conversation message. Content carries plain text;
// Parts carries a multi-part body and takes precedence on the wire when
// non-empty.
type Message struct {
	Role       Role          `json:"role"`
	Content    string        `json:"content,omitempty"`
	Parts      []ContentPart `json:"parts,omitempty"`
	Name       string        `json:"name,omitempty"`
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

// NewUserMessage creates a new plain-text user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewUserPartsMessage creates a new user message with multi-part content.
func NewUserPartsMessage(parts []ContentPart) Message {
	return Message{Role: RoleUser, Parts: parts}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}
