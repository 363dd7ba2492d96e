package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSoftChunkShortText(t *testing.T) {
	chunks := SoftChunk("short text", 2000, 200)
	require.Equal(t, []string{"short text"}, chunks)
}

func TestSoftChunkEmptyText(t *testing.T) {
	require.Nil(t, SoftChunk("", 2000, 200))
	require.Nil(t, SoftChunk("   \n\t  ", 2000, 200))
}

func TestSoftChunkInvalidMax(t *testing.T) {
	require.Nil(t, SoftChunk("some text", 0, 0))
	require.Nil(t, SoftChunk("some text", -5, 0))
}

func TestSoftChunkSizeBound(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta.\n", 500)
	chunks := SoftChunk(text, 200, 40)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		require.LessOrEqual(t, len(c), 200, "chunk %d exceeds max size", i)
		require.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSoftChunkPrefersNewlineCut(t *testing.T) {
	text := strings.Repeat("x", 80) + "\n" + strings.Repeat("y", 80)
	chunks := SoftChunk(text, 100, 0)
	require.Len(t, chunks, 2)
	require.Equal(t, strings.Repeat("x", 80), chunks[0])
	require.Equal(t, strings.Repeat("y", 80), chunks[1])
}

func TestSoftChunkFallsBackToSentenceCut(t *testing.T) {
	text := strings.Repeat("a", 60) + ". " + strings.Repeat("b", 60)
	chunks := SoftChunk(text, 100, 0)
	require.Len(t, chunks, 2)
	require.Equal(t, strings.Repeat("a", 60)+".", chunks[0])
	require.Equal(t, strings.Repeat("b", 60), chunks[1])
}

// Text with no break points at all must still terminate and make progress.
func TestSoftChunkNoBreakPoints(t *testing.T) {
	text := strings.Repeat("z", 1000)
	chunks := SoftChunk(text, 100, 0)
	require.Len(t, chunks, 10)
	for _, c := range chunks {
		require.Equal(t, strings.Repeat("z", 100), c)
	}
}

func TestSoftChunkOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString(strings.Repeat("w", 40))
		b.WriteString("\n")
	}
	chunks := SoftChunk(b.String(), 200, 50)
	require.Greater(t, len(chunks), 1)

	// Consecutive chunks share text when the overlap is in effect.
	for i := 1; i < len(chunks); i++ {
		head := chunks[i][:20]
		require.True(t, strings.Contains(chunks[i-1], head) || len(chunks[i-1]) < 20,
			"chunk %d does not overlap its predecessor", i)
	}
}

func TestSoftChunkOverlapLargerThanMax(t *testing.T) {
	text := strings.Repeat("q", 500)
	// overlap >= max must not stall the loop
	chunks := SoftChunk(text, 100, 100)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), 100)
	}
}

// A forced window-edge cut on multi-byte text must not split a character.
func TestSoftChunkCJKRuneBoundaries(t *testing.T) {
	text := strings.Repeat("电", 200)
	chunks := SoftChunk(text, 100, 0)
	require.Len(t, chunks, 2)
	for i, c := range chunks {
		require.True(t, utf8.ValidString(c), "chunk %d is invalid UTF-8", i)
		require.Equal(t, strings.Repeat("电", 100), c)
	}
}

func TestSoftChunkCJKWithOverlap(t *testing.T) {
	text := strings.Repeat("压", 500)
	chunks := SoftChunk(text, 100, 20)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		require.True(t, utf8.ValidString(c), "chunk %d is invalid UTF-8", i)
		require.LessOrEqual(t, utf8.RuneCountInString(c), 100)
	}
}

// Size limits count characters, not bytes.
func TestSoftChunkMaxIsRunes(t *testing.T) {
	text := strings.Repeat("电压要求适用于所有零售客户。", 50)
	chunks := SoftChunk(text, 200, 0)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.True(t, utf8.ValidString(c))
		require.LessOrEqual(t, utf8.RuneCountInString(c), 200)
	}
}

func TestSoftChunkCoversAllContent(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog.\n", 100)
	chunks := SoftChunk(text, 300, 0)
	joined := strings.Join(chunks, "\n")
	require.Contains(t, joined, "The quick brown fox")
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	require.GreaterOrEqual(t, total, len(strings.TrimSpace(text))-len(chunks)*2)
}
