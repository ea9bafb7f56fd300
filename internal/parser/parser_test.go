package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPDF(t *testing.T) {
	pages, err := Load("testdata/two_pages.pdf")
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, 1, pages[0].PageNumber)
	assert.Contains(t, pages[0].Content, "Paraphrase means restating text")
	assert.Equal(t, 2, pages[1].PageNumber)
	assert.Contains(t, pages[1].Content, "Summarization condenses a text")
	assert.Equal(t, "testdata/two_pages.pdf", pages[1].Source)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slides.key")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported file format: .key")
}

func TestLoadText(t *testing.T) {
	pages, err := Load("testdata/notes.txt")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "First paragraph of notes.\n\nSecond paragraph of notes.", pages[0].Content)

	pages, err = Load("testdata/blank.txt")
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestSlideNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"ppt/slides/slide1.xml", 1, true},
		{"ppt/slides/slide12.xml", 12, true},
		{"ppt/slides/_rels/slide1.xml.rels", 0, false},
		{"ppt/slideLayouts/slideLayout1.xml", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := slideNumber(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripXMLTags(t *testing.T) {
	xml := `<w:body><w:p><w:r><w:t>Hello</w:t></w:r></w:p><w:p><w:r><w:t>World</w:t></w:r></w:p></w:body>`
	assert.Equal(t, "Hello\nWorld\n", stripXMLTags(xml))
}
