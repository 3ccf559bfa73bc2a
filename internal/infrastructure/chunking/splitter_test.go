package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(1000, 200)
	if chunks := s.Split(""); chunks != nil {
		t.Fatalf("expected nil for empty text, got %v", chunks)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split("short text")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestSplitOverlapsChunks(t *testing.T) {
	s := NewSplitter(10, 4)
	text := "abcdefghijklmnopqrst"
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	if chunks[0] != "abcdefghij" {
		t.Fatalf("unexpected first chunk: %q", chunks[0])
	}
	// Step is chunkSize-overlap, so the second chunk starts at rune 6.
	if !strings.HasPrefix(chunks[1], "ghij") {
		t.Fatalf("expected overlap at start of second chunk, got %q", chunks[1])
	}
}

func TestNewSplitterClampsBadOverlap(t *testing.T) {
	s := NewSplitter(100, 100)
	if s.Overlap >= s.ChunkSize {
		t.Fatalf("overlap %d not clamped below chunk size %d", s.Overlap, s.ChunkSize)
	}
}
