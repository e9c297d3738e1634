package kb

import (
	"strings"

	"go.uber.org/zap"
)

// ChunkingConfig controls how documents are split before indexing.
type ChunkingConfig struct {
	// MaxTokens caps the token count of a chunk. Defaults to 512.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// OverlapTokens is the approximate token overlap carried from the end
	// of each chunk into the next. Defaults to 64.
	OverlapTokens int `json:"overlap_tokens" yaml:"overlap_tokens"`

	// MinTokens drops trailing fragments smaller than this. Defaults to 8.
	MinTokens int `json:"min_tokens" yaml:"min_tokens"`
}

// DefaultChunkingConfig returns the production defaults.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		MaxTokens:     512,
		OverlapTokens: 64,
		MinTokens:     8,
	}
}

// Chunk is a contiguous slice of a source document.
type Chunk struct {
	// Index is the zero-based position of the chunk within its document.
	Index int `json:"index"`

	// Content is the chunk text, including any leading overlap.
	Content string `json:"content"`

	// TokenCount is the tokenizer's count for Content.
	TokenCount int `json:"token_count"`
}

// Chunker splits text on paragraph and sentence boundaries so that no chunk
// exceeds the configured token budget.
type Chunker struct {
	cfg       ChunkingConfig
	tokenizer Tokenizer
	logger    *zap.Logger
}

// NewChunker creates a chunker. A nil tokenizer falls back to the char/4
// estimator.
func NewChunker(cfg ChunkingConfig, tokenizer Tokenizer, logger *zap.Logger) *Chunker {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if cfg.OverlapTokens < 0 {
		cfg.OverlapTokens = 0
	}
	if cfg.MinTokens <= 0 {
		cfg.MinTokens = 1
	}
	if tokenizer == nil {
		tokenizer = EstimateTokenizer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chunker{cfg: cfg, tokenizer: tokenizer, logger: logger}
}

// Separator priority: paragraph, line, sentence, word.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Split chunks content. The result preserves document order; each chunk
// after the first starts with the overlap tail of its predecessor.
func (c *Chunker) Split(content string) []Chunk {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	units := c.splitUnits(content, separators)
	packed := c.pack(units)

	chunks := make([]Chunk, 0, len(packed))
	var prevTail string
	for _, text := range packed {
		full := text
		if prevTail != "" {
			full = prevTail + " " + text
		}
		count := c.tokenizer.CountTokens(full)
		if len(chunks) > 0 && count < c.cfg.MinTokens {
			// Fold a tiny trailing fragment into the previous chunk.
			last := &chunks[len(chunks)-1]
			last.Content = last.Content + " " + text
			last.TokenCount = c.tokenizer.CountTokens(last.Content)
			continue
		}
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Content:    full,
			TokenCount: count,
		})
		prevTail = c.overlapTail(text)
	}

	c.logger.Debug("chunked document",
		zap.Int("chunks", len(chunks)),
		zap.Int("max_tokens", c.cfg.MaxTokens),
		zap.Int("overlap_tokens", c.cfg.OverlapTokens))
	return chunks
}

// splitUnits breaks text into pieces that each fit the token budget,
// trying coarser separators first and recursing into finer ones only for
// oversized pieces.
func (c *Chunker) splitUnits(text string, seps []string) []string {
	if c.tokenizer.CountTokens(text) <= c.cfg.MaxTokens {
		return []string{text}
	}
	if len(seps) == 0 {
		return c.splitRunes(text)
	}

	sep := seps[0]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return c.splitUnits(text, seps[1:])
	}

	units := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		part = strings.TrimRight(part, " ")
		if strings.TrimSpace(part) == "" {
			continue
		}
		units = append(units, c.splitUnits(part, seps[1:])...)
	}
	return units
}

// splitRunes is the last resort for separator-free text: cut at an
// estimated character budget.
func (c *Chunker) splitRunes(text string) []string {
	runes := []rune(text)
	per := c.cfg.MaxTokens * 4
	if per <= 0 {
		per = 1
	}
	var units []string
	for i := 0; i < len(runes); i += per {
		end := i + per
		if end > len(runes) {
			end = len(runes)
		}
		units = append(units, string(runes[i:end]))
	}
	return units
}

// pack greedily merges consecutive units up to the token budget.
func (c *Chunker) pack(units []string) []string {
	var out []string
	var current strings.Builder
	currentTokens := 0

	for _, u := range units {
		t := c.tokenizer.CountTokens(u)
		if current.Len() > 0 && currentTokens+t > c.cfg.MaxTokens {
			out = append(out, strings.TrimSpace(current.String()))
			current.Reset()
			currentTokens = 0
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(strings.TrimSpace(u))
		currentTokens += t
	}
	if current.Len() > 0 {
		out = append(out, strings.TrimSpace(current.String()))
	}
	return out
}

// overlapTail returns the word suffix of text worth roughly OverlapTokens
// tokens, for prefixing the next chunk.
func (c *Chunker) overlapTail(text string) string {
	if c.cfg.OverlapTokens == 0 {
		return ""
	}
	words := strings.Fields(text)
	var tail []string
	tokens := 0
	for i := len(words) - 1; i >= 0; i-- {
		t := c.tokenizer.CountTokens(words[i])
		if tokens+t > c.cfg.OverlapTokens {
			break
		}
		tail = append([]string{words[i]}, tail...)
		tokens += t
	}
	return strings.Join(tail, " ")
}
