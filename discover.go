package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Recognized input extensions (lowercase, with leading dot).
var candidateExtensions = map[string]bool{
	".heic": true,
	".heif": true,
}

func hasCandidateExt(path string) bool {
	return candidateExtensions[strings.ToLower(filepath.Ext(path))]
}

// isCandidate reports whether path names a regular file with a HEIC/HEIF
// extension. Symlinks are resolved, so a link to a regular file qualifies.
func isCandidate(path string) bool {
	if !hasCandidateExt(path) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// discoverFiles resolves root into the list of files to convert, sorted
// lexicographically so processing order is deterministic across runs.
//
// A single eligible file yields itself; a directory yields its eligible
// children, the whole subtree when recursive is true. Traversal errors
// (e.g. an unreadable subdirectory) abort discovery: tolerance for partial
// failure applies to conversion, not to the file scan.
func discoverFiles(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() || !hasCandidateExt(root) {
			return nil, fmt.Errorf("%w: %s is not a HEIC/HEIF file", ErrInvalidInput, root)
		}
		return []string{root}, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if isCandidate(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
		for _, entry := range entries {
			path := filepath.Join(root, entry.Name())
			if entry.IsDir() {
				continue
			}
			if isCandidate(path) {
				files = append(files, path)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}
