// Package dataset pairs scan files with their mask files.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Default sub-directories of a dataset root
const (
	DefaultImageDir = "rp_im"
	DefaultMaskDir  = "rp_msk"
)

// Pair is one case: a scan and the mask sharing its file name
type Pair struct {
	FileName  string
	ImagePath string
	MaskPath  string
}

// Index lists <root>/<imageDir>/* and <root>/<maskDir>/* and joins them on
// file name. Files present on one side only are dropped. Pairs are sorted
// by file name.
func Index(root, imageDir, maskDir string) ([]Pair, error) {
	images, err := listFiles(filepath.Join(root, imageDir))
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	masks, err := listFiles(filepath.Join(root, maskDir))
	if err != nil {
		return nil, fmt.Errorf("listing masks: %w", err)
	}

	pairs := make([]Pair, 0, len(images))
	for name, imagePath := range images {
		maskPath, ok := masks[name]
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{FileName: name, ImagePath: imagePath, MaskPath: maskPath})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].FileName < pairs[j].FileName })
	return pairs, nil
}

// listFiles maps base name to path for every regular file in dir
func listFiles(dir string) (map[string]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, err
	}

	files := make(map[string]string, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			continue
		}
		files[filepath.Base(path)] = path
	}
	return files, nil
}
