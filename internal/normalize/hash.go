package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
)

// FileHash returns the hex SHA-256 of the dataset file at path. It identifies
// the training input in the artifacts and the model registry.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// RowHash is a stable SHA-256 over a record's key/value pairs, taken in key
// order with NUL separators. Duplicate detection and the prediction table's
// source_row_hash both use it.
func RowHash(fields map[string]string) []byte {
	h := sha256.New()
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		io.WriteString(h, k)
		h.Write([]byte{0})
		io.WriteString(h, fields[k])
		h.Write([]byte{0})
	}
	return h.Sum(nil)
}
