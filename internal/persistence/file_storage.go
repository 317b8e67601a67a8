// Package persistence writes collection snapshots to disk as binary files:
// a schema block followed by a document count and length-prefixed JSON
// records. Writes go to a temporary file that is synced and atomically
// renamed over the previous snapshot, so the on-disk file is always a
// complete, valid snapshot or absent.
package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"query-tools/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fileExt is the extension of collection snapshot files.
const fileExt = ".qtc"

// FileStore persists collections under a single directory, one file per
// collection. It implements store.Persister.
type FileStore struct {
	dir string
}

// NewFileStore creates the storage directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory '%s': %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) path(name string) string {
	return filepath.Join(fs.dir, name+fileExt)
}

// SaveCollection writes a snapshot of the collection to its file.
func (fs *FileStore) SaveCollection(name string, c *store.Collection) error {
	finalPath := fs.path(name)
	tmpPath := finalPath + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file '%s': %w", tmpPath, err)
	}
	defer file.Close()

	cleanup := func(err error) error {
		os.Remove(tmpPath)
		return err
	}

	var schemaBytes []byte
	if schema := c.Schema(); schema != nil {
		if schemaBytes, err = json.Marshal(schema); err != nil {
			return cleanup(fmt.Errorf("failed to marshal schema for '%s': %w", name, err))
		}
	}
	if err := writeBlock(file, schemaBytes); err != nil {
		return cleanup(fmt.Errorf("failed to write schema block for '%s': %w", name, err))
	}

	docs := c.Snapshot()
	if err := binary.Write(file, binary.LittleEndian, uint32(len(docs))); err != nil {
		return cleanup(fmt.Errorf("failed to write document count for '%s': %w", name, err))
	}
	for i, doc := range docs {
		docBytes, err := json.Marshal(doc)
		if err != nil {
			return cleanup(fmt.Errorf("failed to marshal document %d of '%s': %w", i, name, err))
		}
		if err := writeBlock(file, docBytes); err != nil {
			return cleanup(fmt.Errorf("failed to write document %d of '%s': %w", i, name, err))
		}
	}

	if err := file.Sync(); err != nil {
		return cleanup(fmt.Errorf("failed to sync snapshot file for '%s': %w", name, err))
	}
	file.Close()

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return cleanup(fmt.Errorf("failed to rename snapshot file for '%s': %w", name, err))
	}
	slog.Debug("Collection snapshot saved", "collection", name, "documents", len(docs))
	return nil
}

// LoadCollection reads a snapshot into the given collection, replacing its
// contents and schema. A missing file is not an error; the collection is
// simply left empty.
func (fs *FileStore) LoadCollection(name string, c *store.Collection) error {
	file, err := os.Open(fs.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No snapshot file for collection, starting empty", "collection", name)
			return nil
		}
		return fmt.Errorf("failed to open snapshot file for '%s': %w", name, err)
	}
	defer file.Close()

	schemaBytes, err := readBlock(file)
	if err != nil {
		return fmt.Errorf("failed to read schema block for '%s': %w", name, err)
	}

	var count uint32
	if err := binary.Read(file, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("failed to read document count for '%s': %w", name, err)
	}

	docs := make([]any, 0, count)
	for i := 0; i < int(count); i++ {
		docBytes, err := readBlock(file)
		if err != nil {
			return fmt.Errorf("failed to read document %d of '%s': %w", i, name, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(docBytes, &doc); err != nil {
			slog.Warn("Skipping unreadable document in snapshot", "collection", name, "index", i, "error", err)
			continue
		}
		docs = append(docs, doc)
	}

	c.ReplaceAll(docs)
	if len(schemaBytes) > 0 {
		var schema map[string]any
		if err := json.Unmarshal(schemaBytes, &schema); err == nil {
			c.SetSchema(schema)
		}
	}
	slog.Info("Collection snapshot loaded", "collection", name, "documents", len(docs))
	return nil
}

// DeleteCollectionFile removes a collection's snapshot file. A missing
// file is treated as success.
func (fs *FileStore) DeleteCollectionFile(name string) error {
	if err := os.Remove(fs.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot file for '%s': %w", name, err)
	}
	return nil
}

// ListCollections returns the names of all collections with a snapshot on
// disk.
func (fs *FileStore) ListCollections() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory '%s': %w", fs.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	return names, nil
}

func writeBlock(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readBlock(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
