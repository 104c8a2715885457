package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/spendify/constants"
)

// suffixes browsers, sync clients and editors use while a file is still being written
var transientSuffixes = []string{".part", ".partial", ".crdownload", ".download", ".tmp", ".swp", "~"}

// IsHidden reports whether the base name starts with a dot.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// IsTransient reports names that belong to an unfinished copy or download.
func IsTransient(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, s := range transientSuffixes {
		if strings.HasSuffix(base, s) {
			return true
		}
	}
	return false
}

// IsReceiptImage reports whether path names a finished file with an accepted image extension.
func IsReceiptImage(path string) bool {
	return !IsTransient(path) && constants.IsAllowedExt(filepath.Ext(path))
}
