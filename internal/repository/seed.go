package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Seed loads <dir>/<collection>.json into every listed collection that is still empty.
// Missing seed files are skipped. It returns the number of documents written.
func Seed(ctx context.Context, store Store, dir string, collections ...string) (int, error) {
	written := 0
	for _, collection := range collections {
		existing, err := store.List(ctx, collection)
		if err != nil {
			return written, err
		}
		if len(existing) > 0 {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, collection+".json"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return written, fmt.Errorf("read seed %s: %w", collection, err)
		}

		var docs []json.RawMessage
		if err := json.Unmarshal(data, &docs); err != nil {
			return written, fmt.Errorf("decode seed %s: %w", collection, err)
		}
		for _, doc := range docs {
			id, err := DocumentID(doc)
			if err != nil || id == "" {
				return written, fmt.Errorf("seed %s: document without id", collection)
			}
			if err := store.Put(ctx, collection, id, doc); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}
