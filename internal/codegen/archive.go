// internal/codegen/archive.go
package codegen

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"

	"github.com/launchkit/launchkit-backend/internal/apperrors"
)

// WriteArchive streams the generated file map as a deflate-compressed zip,
// one entry per file at its relative path. Entries are written in sorted path
// order so the archive layout is stable for identical inputs. Write failures
// propagate so the caller can terminate the response instead of shipping a
// silently truncated archive.
func WriteArchive(w io.Writer, files map[string]string) error {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	zw := zip.NewWriter(w)
	for _, path := range paths {
		entry, err := zw.Create(path)
		if err != nil {
			return apperrors.Archive(fmt.Errorf("create entry %s: %w", path, err))
		}
		if _, err := io.WriteString(entry, files[path]); err != nil {
			return apperrors.Archive(fmt.Errorf("write entry %s: %w", path, err))
		}
	}

	if err := zw.Close(); err != nil {
		return apperrors.Archive(fmt.Errorf("close archive: %w", err))
	}
	return nil
}
