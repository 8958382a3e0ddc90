package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	chunks := Split("hello,world", 2000, 400, ",")
	assert.Equal(t, []string{"hello,world"}, chunks)
}

func TestSplitEmptyText(t *testing.T) {
	assert.Nil(t, Split("", 2000, 400, ","))
}

func TestSplitRespectsChunkSize(t *testing.T) {
	pieces := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		pieces = append(pieces, strings.Repeat("x", 9))
	}
	text := strings.Join(pieces, ",")

	chunks := Split(text, 100, 20, ",")
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
	}
}

func TestSplitCarriesOverlap(t *testing.T) {
	text := "aaaa,bbbb,cccc,dddd,eeee"

	chunks := Split(text, 10, 5, ",")
	assert.Greater(t, len(chunks), 1)

	// Each chunk after the first starts with the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		head := strings.SplitN(chunks[i], ",", 2)[0]
		assert.Contains(t, chunks[i-1], head)
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	text := strings.Repeat("What is EMR?,EMR is a managed cluster platform,", 200)

	first := Split(text, 2000, 400, ",")
	second := Split(text, 2000, 400, ",")
	assert.Equal(t, first, second)
	assert.Greater(t, len(first), 1)
}

func TestSplitOversizedPieceEmittedWhole(t *testing.T) {
	big := strings.Repeat("y", 300)
	text := "aa," + big + ",bb"

	chunks := Split(text, 100, 10, ",")
	assert.Contains(t, chunks, big)
}
