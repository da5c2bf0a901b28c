// internal/raster/raster.go
// Package raster derives preview assets from uploaded PDFs: the page count
// and per-page preview files for the publicly visible slice. Preview
// derivation is best-effort; uploads proceed with an empty preview list when
// it fails.
package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Rasterizer derives page counts and preview page files from a PDF.
type Rasterizer interface {
	// PageCount returns the number of pages in the PDF at path.
	PageCount(ctx context.Context, path string) (int, error)
	// ExtractPreviewPages writes the first n pages of the PDF as
	// single-page files under outDir and returns their filenames,
	// relative to outDir, in page order.
	ExtractPreviewPages(ctx context.Context, path, outDir string, n int) ([]string, error)
}

type pdfRasterizer struct{}

// NewPDF creates a Rasterizer backed by pdfcpu.
func NewPDF() Rasterizer {
	return pdfRasterizer{}
}

func (pdfRasterizer) PageCount(ctx context.Context, path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count %s: %w", filepath.Base(path), err)
	}
	return count, nil
}

func (pdfRasterizer) ExtractPreviewPages(ctx context.Context, path, outDir string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	tmpDir, err := os.MkdirTemp("", "previews-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// Split into single-page PDFs, then keep the first n in page order.
	if err := api.SplitFile(path, tmpDir, 1, nil); err != nil {
		return nil, fmt.Errorf("split %s: %w", filepath.Base(path), err)
	}
	pages, err := splitOutputInOrder(tmpDir)
	if err != nil {
		return nil, err
	}
	if len(pages) > n {
		pages = pages[:n]
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}
	names := make([]string, 0, len(pages))
	for i, src := range pages {
		name := fmt.Sprintf("page-%d.pdf", i+1)
		if err := copyFile(src, filepath.Join(outDir, name)); err != nil {
			return nil, fmt.Errorf("store preview page %d: %w", i+1, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// splitOutputInOrder lists the split output files sorted by the page number
// suffix pdfcpu appends to each file.
func splitOutputInOrder(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read split output: %w", err)
	}
	type numbered struct {
		path string
		page int
	}
	files := make([]numbered, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pdf") {
			continue
		}
		files = append(files, numbered{
			path: filepath.Join(dir, e.Name()),
			page: trailingNumber(e.Name()),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].page < files[j].page })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// trailingNumber extracts the numeric suffix before the extension,
// e.g. "notes_3.pdf" -> 3. Files without one sort first.
func trailingNumber(name string) int {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	if i == len(base) {
		return 0
	}
	n, err := strconv.Atoi(base[i:])
	if err != nil {
		return 0
	}
	return n
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
