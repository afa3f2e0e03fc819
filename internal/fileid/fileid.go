// Package fileid derives stable source keys for recipes imported from files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"
)

const prefix = "file:"

// FileID returns a stable identifier for the file at absolutePath.
// Equivalent spellings of the same path yield the same ID.
func FileID(absolutePath string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return prefix + hex.EncodeToString(hash[:])
}

// SourceKey identifies the n-th recipe (zero-based) in the file at absolutePath.
func SourceKey(absolutePath string, n int) string {
	return FileID(absolutePath) + "#" + strconv.Itoa(n)
}

// Parse splits a source key into its file ID and position.
// ok is false for keys not produced by SourceKey.
func Parse(source string) (file string, n int, ok bool) {
	if !strings.HasPrefix(source, prefix) {
		return "", 0, false
	}
	i := strings.LastIndexByte(source, '#')
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(source[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return source[:i], n, true
}
