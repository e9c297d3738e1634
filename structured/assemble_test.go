package structured

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedflow/typedflow/types"
)

func TestBuildContentConcatenatesTextRuns(t *testing.T) {
	tmpl := Template{}.
		Textf("Rate the dish ").
		Value("carbonara").
		Textf(" out of ").
		Value(10).
		Textf(".")

	parts, err := BuildContent(tmpl)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, types.ContentText, parts[0].Type)
	assert.Equal(t, "Rate the dish carbonara out of 10.", parts[0].Text)
}

func TestBuildContentFlushesBeforeDocuments(t *testing.T) {
	tmpl := Template{}.
		Textf("Describe this image: ").
		Doc(Document{Type: DocumentImage, URL: "https://example.com/cat.png"}).
		Textf(" in one word.")

	parts, err := BuildContent(tmpl)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, types.ContentText, parts[0].Type)
	assert.Equal(t, "Describe this image: ", parts[0].Text)
	assert.Equal(t, types.ContentImageURL, parts[1].Type)
	require.NotNil(t, parts[1].ImageURL)
	assert.Equal(t, "https://example.com/cat.png", parts[1].ImageURL.URL)
	assert.Equal(t, " in one word.", parts[2].Text)
}

func TestBuildContentDocumentArrayExpands(t *testing.T) {
	tmpl := Template{}.
		Textf("Compare: ").
		Docs(
			Document{Type: DocumentText, Text: "first"},
			Document{Type: DocumentText, Text: "second"},
		)

	parts, err := BuildContent(tmpl)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, "Compare: ", parts[0].Text)
	assert.Equal(t, "first", parts[1].Text)
	assert.Equal(t, "second", parts[2].Text)
}

func TestBuildContentNoEmptyParts(t *testing.T) {
	tmpl := Template{}.
		Doc(Document{Type: DocumentText, Text: "only"}).
		Textf("")

	parts, err := BuildContent(tmpl)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "only", parts[0].Text)
}

func TestBuildContentImageBytesBecomeDataURL(t *testing.T) {
	tmpl := Template{}.Doc(Document{
		Type: DocumentImage,
		Data: []byte{0x89, 0x50},
		MIME: "image/png",
	})

	parts, err := BuildContent(tmpl)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	require.NotNil(t, parts[0].ImageURL)
	assert.True(t, strings.HasPrefix(parts[0].ImageURL.URL, "data:image/png;base64,"))
}

func TestBuildContentImageBytesDefaultMIME(t *testing.T) {
	parts, err := BuildContent(Template{}.Doc(Document{Type: DocumentImage, Data: []byte{1}}))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(parts[0].ImageURL.URL, "data:image/*;base64,"))
}

func TestBuildContentRelativeImageURLRejected(t *testing.T) {
	_, err := BuildContent(Template{}.Doc(Document{Type: DocumentImage, URL: "cat.png"}))
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
}

func TestBuildContentAudioRequiresKnownFormat(t *testing.T) {
	_, err := BuildContent(Template{}.Doc(Document{Type: DocumentAudio, Data: []byte{1}}))
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))

	parts, err := BuildContent(Template{}.Doc(Document{
		Type:   DocumentAudio,
		Data:   []byte{1, 2, 3},
		Format: types.AudioMP3,
	}))
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, types.ContentAudio, parts[0].Type)
	require.NotNil(t, parts[0].Audio)
	assert.Equal(t, types.AudioMP3, parts[0].Audio.Format)
}

func TestBuildRequestForcesToolCall(t *testing.T) {
	rs := mustSynthesize(t, types.NewIntegerShape())
	parts, err := BuildContent(Template{}.Textf("How many moons does Mars have?"))
	require.NoError(t, err)

	req, err := BuildRequest(parts, rs, RequestOptions{Model: "gpt-4o", MaxTokens: 64})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, 64, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, types.RoleUser, req.Messages[0].Role)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, DefaultToolName, req.Tools[0].Name)
	assert.Equal(t, DefaultToolName, req.ToolChoice)
	assert.Contains(t, string(req.Tools[0].Parameters), `"result"`)
}

func TestBuildRequestCustomToolName(t *testing.T) {
	rs := mustSynthesize(t, types.NewStringShape())
	req, err := BuildRequest(nil, rs, RequestOptions{ToolName: "extract"})
	require.NoError(t, err)
	assert.Equal(t, "extract", req.Tools[0].Name)
	assert.Equal(t, "extract", req.ToolChoice)
}
