package domain

import "testing"

func TestChunkIDDeterministic(t *testing.T) {
	if ChunkID("report.pdf", 0) != ChunkID("report.pdf", 0) {
		t.Fatalf("same (filename, index) must produce the same id")
	}
	if ChunkID("report.pdf", 3) != ChunkID("report.pdf", 3) {
		t.Fatalf("same (filename, index) must produce the same id")
	}
}

func TestChunkIDVariesByIndexAndFilename(t *testing.T) {
	seen := map[uint64]int{}
	for i := 0; i < 50; i++ {
		id := ChunkID("report.pdf", i)
		if prev, ok := seen[id]; ok {
			t.Fatalf("id collision between index %d and %d", prev, i)
		}
		seen[id] = i
	}
	if ChunkID("a.txt", 0) == ChunkID("b.txt", 0) {
		t.Fatalf("different filenames should not collide at index 0")
	}
}
