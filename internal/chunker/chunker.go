package chunker

import (
	"strings"
	"unicode/utf8"

	"pdf-rag/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	StrategyWindow    = "window"
	StrategyRecursive = "recursive"

	defaultChunkSize    = 800
	defaultChunkOverlap = 150
)

// boundaries are tried in order when picking where a window ends.
var boundaries = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

type Chunker struct {
	chunkSize    int
	chunkOverlap int
	strategy     string
}

func New(chunkSize, chunkOverlap int, strategy string) *Chunker {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	if strategy == "" {
		strategy = StrategyWindow
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		strategy:     strategy,
	}
}

// Split chunks every page independently. Chunks carry the page's source and
// number and a 1-based ChunkID within the page.
func (c *Chunker) Split(pages []models.Page) []models.Chunk {
	var chunks []models.Chunk
	for _, page := range pages {
		for i, text := range c.SplitText(page.Content) {
			chunks = append(chunks, models.Chunk{
				Source:     page.Source,
				Content:    text,
				PageNumber: page.PageNumber,
				ChunkID:    i + 1,
			})
		}
	}
	return chunks
}

func (c *Chunker) SplitText(text string) []string {
	if c.strategy == StrategyRecursive {
		return c.splitRecursive(text)
	}
	return splitWindow(text, c.chunkSize, c.chunkOverlap)
}

func (c *Chunker) splitRecursive(text string) []string {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.chunkOverlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		log.Warn().Err(err).Msg("Recursive split failed, falling back to window split")
		return splitWindow(text, c.chunkSize, c.chunkOverlap)
	}

	chunks := parts[:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			chunks = append(chunks, part)
		}
	}
	return chunks
}

// splitWindow slides a window of maxChars runes over content. Each window
// after the first starts exactly overlapChars runes before the end of the
// previous one, so adjacent chunks share overlapChars runes. The window end is
// moved back to the largest boundary found past the overlap region; without
// one the window is cut hard at maxChars.
func splitWindow(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) == 0 {
		return nil
	}

	// If content is shorter than maxChars, return it as a single chunk
	if len(runes) <= maxChars {
		return []string{content}
	}

	var chunks []string
	start := 0
	for {
		end := start + maxChars
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = breakPoint(runes, start+overlapChars+1, end)
		}

		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
		start = end - overlapChars
	}

	return chunks
}

// breakPoint returns the end index in (lo, hi] right after the latest
// occurrence of the highest ranked boundary, or hi when none fits.
func breakPoint(runes []rune, lo, hi int) int {
	window := string(runes[lo:hi])
	for _, sep := range boundaries {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		// idx is a byte offset; convert back to runes
		cut := lo + utf8.RuneCountInString(window[:idx]) + utf8.RuneCountInString(sep)
		if cut > lo && cut <= hi {
			return cut
		}
	}
	return hi
}
