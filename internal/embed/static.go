package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// StaticEmbedder hashes identifier tokens and character trigrams into a
// fixed-width vector. It needs no model and is deterministic across runs.
type StaticEmbedder struct {
	dims int

	mu     sync.RWMutex
	closed bool
}

// Keywords that appear in nearly every signature and carry no meaning.
var signatureNoise = map[string]bool{
	"fn": true, "func": true, "def": true, "pub": true, "impl": true,
	"let": true, "mut": true, "const": true, "static": true, "self": true,
	"return": true, "struct": true, "enum": true, "trait": true, "type": true,
	"async": true, "await": true, "where": true, "crate": true, "super": true,
}

const (
	tokenWeight   = 0.7
	trigramWeight = 0.3
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// NewStaticEmbedder returns an embedder producing dims-wide vectors. A
// non-positive dims selects DefaultDimensions.
func NewStaticEmbedder(dims int) *StaticEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &StaticEmbedder{dims: dims}
}

// Embed implements Embedder. Blank text embeds to the zero vector.
func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, fmt.Errorf("static embedder is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dims)
	text = strings.TrimSpace(text)
	if text == "" {
		return vec, nil
	}

	for _, tok := range Tokenize(text) {
		vec[e.bucket(tok)] += tokenWeight
	}
	for _, tri := range trigrams(text) {
		vec[e.bucket(tri)] += trigramWeight
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch implements Embedder.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions implements Embedder.
func (e *StaticEmbedder) Dimensions() int { return e.dims }

// ModelName implements Embedder.
func (e *StaticEmbedder) ModelName() string { return "static-" + strconv.Itoa(e.dims) }

// Close implements Embedder. It is idempotent.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *StaticEmbedder) bucket(s string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(e.dims))
}

// Tokenize splits text into lowercase identifier parts. Paths such as
// "tokio::spawn" split on the separator, snake_case on underscores and
// camelCase on case changes. Signature keywords are dropped.
func Tokenize(text string) []string {
	var out []string
	for _, word := range wordPattern.FindAllString(text, -1) {
		for _, part := range strings.Split(word, "_") {
			for _, piece := range splitCamel(part) {
				tok := strings.ToLower(piece)
				if tok != "" && !signatureNoise[tok] {
					out = append(out, tok)
				}
			}
		}
	}
	return out
}

// splitCamel splits "HashMapEntry" into Hash, Map, Entry and keeps acronyms
// like "HTTPServer" as HTTP, Server.
func splitCamel(s string) []string {
	runes := []rune(s)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			continue
		}
		prevLower := unicode.IsLower(runes[i-1])
		nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		parts = append(parts, string(runes[start:]))
	}
	return parts
}

func trigrams(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	runes := []rune(b.String())
	if len(runes) < 3 {
		return nil
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}
