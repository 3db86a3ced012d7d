package memory

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ragchat/internal/domain"
)

// snapshot is the gob wire form of an index. It round-trips every chunk
// field, every stored (already normalized) vector and the dimension.
type snapshot struct {
	Dimension int
	Chunks    []domain.Chunk
	Vectors   [][]float64
}

// Save writes a snapshot of the index to w.
func (ix *Index) Save(w io.Writer) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	snap := snapshot{
		Dimension: ix.dimension,
		Chunks:    ix.chunks,
		Vectors:   ix.vectors,
	}
	if err := gob.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("encode index snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save and returns the reconstructed index.
func Load(r io.Reader) (*Index, error) {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode index snapshot: %w", err)
	}
	if snap.Dimension <= 0 {
		return nil, fmt.Errorf("snapshot has invalid dimension %d", snap.Dimension)
	}
	if len(snap.Chunks) != len(snap.Vectors) {
		return nil, fmt.Errorf("snapshot is inconsistent: %d chunks, %d vectors", len(snap.Chunks), len(snap.Vectors))
	}
	ix := &Index{
		dimension: snap.Dimension,
		slots:     make(map[string]int, len(snap.Chunks)),
		chunks:    snap.Chunks,
		vectors:   snap.Vectors,
	}
	for i, c := range snap.Chunks {
		ix.slots[c.ID] = i
	}
	return ix, nil
}

// SaveFile writes the snapshot to path, creating directories as needed.
func (ix *Index) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ix.Save(f)
}

// LoadFile reads a snapshot from path.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
