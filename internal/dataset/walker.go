package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/roofprep/internal/roof"
)

var (
	// DefaultSplits are the split folders of a full dataset.
	DefaultSplits = []string{"train", "val"}

	// DefaultExtensions are the image extensions picked up by the walker.
	DefaultExtensions = []string{".jpg", ".jpeg", ".png"}
)

// Image is one image file found under a material folder.
type Image struct {
	// Split is empty for flat layouts.
	Split    string
	Material roof.Material
	Name     string
	// Path is the file path on disk; RelPath is relative to the dataset root.
	Path    string
	RelPath string
}

// Stats counts what a walk visited and skipped.
type Stats struct {
	Images         int
	SkippedFolders []string
	MissingSplits  []string
	// MissingMaterials lists split/material folders absent from the layout.
	MissingMaterials []string
}

// Walker enumerates {root}/{split}/{Material}/{image} or, without splits,
// {root}/{Material}/{image}. Folders that are not material classes are
// skipped; subfolders of a material folder are not descended into.
type Walker struct {
	root       string
	splits     []string
	extensions []string
}

// Option configures a Walker.
type Option func(*Walker)

// WithSplits sets the split folders to visit. No splits means a flat layout.
func WithSplits(splits ...string) Option {
	return func(w *Walker) {
		w.splits = nil
		for _, s := range splits {
			if s = strings.TrimSpace(s); s != "" {
				w.splits = append(w.splits, s)
			}
		}
	}
}

// WithExtensions sets the accepted image extensions.
func WithExtensions(exts ...string) Option {
	return func(w *Walker) {
		w.extensions = nil
		for _, e := range exts {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			w.extensions = append(w.extensions, e)
		}
	}
}

// NewWalker creates a walker over root. By default it visits the train and
// val splits and accepts .jpg, .jpeg and .png files.
func NewWalker(root string, opts ...Option) *Walker {
	w := &Walker{
		root:       root,
		splits:     DefaultSplits,
		extensions: DefaultExtensions,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the dataset root.
func (w *Walker) Root() string {
	return w.root
}

// Splits returns the split folders visited; empty for a flat layout.
func (w *Walker) Splits() []string {
	return w.splits
}

// IsImage reports whether name has one of the walker's extensions.
// Matching is case-insensitive.
func (w *Walker) IsImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Walk calls fn for every image in sorted folder and file order. An error
// from fn stops the walk and is returned.
func (w *Walker) Walk(ctx context.Context, fn func(Image) error) (Stats, error) {
	var stats Stats

	info, err := os.Stat(w.root)
	if err != nil {
		return stats, fmt.Errorf("failed to stat dataset root: %w", err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("dataset root is not a directory: %s", w.root)
	}

	splits := w.splits
	if len(splits) == 0 {
		splits = []string{""}
	}

	for _, split := range splits {
		splitDir := filepath.Join(w.root, split)
		entries, err := os.ReadDir(splitDir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Warn("Split folder not found", "split", split, "root", w.root)
				stats.MissingSplits = append(stats.MissingSplits, split)
				continue
			}
			return stats, fmt.Errorf("failed to read %s: %w", splitDir, err)
		}

		present := make(map[roof.Material]bool, len(entries))
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			material, ok := roof.Parse(entry.Name())
			if !ok {
				slog.Info("Skipping folder (not a material class)", "folder", entry.Name(), "split", split)
				stats.SkippedFolders = append(stats.SkippedFolders, filepath.Join(split, entry.Name()))
				continue
			}

			present[material] = true
			if err := w.walkMaterial(ctx, split, material, &stats, fn); err != nil {
				return stats, err
			}
		}

		for _, m := range roof.All() {
			if !present[m] {
				stats.MissingMaterials = append(stats.MissingMaterials, filepath.Join(split, m.String()))
			}
		}
	}

	return stats, nil
}

func (w *Walker) walkMaterial(ctx context.Context, split string, material roof.Material, stats *Stats, fn func(Image) error) error {
	materialDir := filepath.Join(w.root, split, material.String())
	files, err := os.ReadDir(materialDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", materialDir, err)
	}

	for _, file := range files {
		if file.IsDir() || !w.IsImage(file.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		stats.Images++
		img := Image{
			Split:    split,
			Material: material,
			Name:     file.Name(),
			Path:     filepath.Join(materialDir, file.Name()),
			RelPath:  filepath.Join(split, material.String(), file.Name()),
		}
		if err := fn(img); err != nil {
			return err
		}
	}
	return nil
}
