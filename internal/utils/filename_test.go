package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes invalid characters",
			input:    `file<>:"/\|?*name`,
			expected: "filename",
		},
		{
			name:     "replaces newlines and tabs with spaces",
			input:    "file\nname\twith\rspaces",
			expected: "file name with spaces",
		},
		{
			name:     "collapses multiple spaces",
			input:    "file   name  with    spaces",
			expected: "file name with spaces",
		},
		{
			name:     "strips leading dots",
			input:    "../../etc/passwd",
			expected: "etcpasswd",
		},
		{
			name:     "keeps catalog keys intact",
			input:    "audio-52",
			expected: "audio-52",
		},
		{
			name:     "trims whitespace",
			input:    "  filename  ",
			expected: "filename",
		},
		{
			name:     "returns Untitled for empty",
			input:    "",
			expected: "Untitled",
		},
		{
			name:     "returns Untitled for only special chars",
			input:    "<>:?*",
			expected: "Untitled",
		},
		{
			name:     "truncates long names",
			input:    strings.Repeat("a", 250),
			expected: strings.Repeat("a", 200),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestDocumentFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		url   string
		ext   string
		want  string
	}{
		{name: "title wins", title: "Moby Dick; Or, The Whale", url: "https://www.gutenberg.org/ebooks/2701.pdf", ext: ".pdf", want: "Moby Dick; Or, The Whale.pdf"},
		{name: "falls back to url", url: "https://www.gutenberg.org/files/2701/2701-pdf.pdf", ext: "pdf", want: "2701-pdf.pdf"},
		{name: "no duplicate extension", title: "notes.PDF", ext: ".pdf", want: "notes.PDF"},
		{name: "nothing usable", url: "https://example.org/", ext: ".pdf", want: "Untitled.pdf"},
		{name: "title with separators", title: "War/Peace", ext: ".pdf", want: "WarPeace.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentFilename(tt.title, tt.url, tt.ext))
		})
	}
}
