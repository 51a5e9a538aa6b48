package reassess

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/roofprep/internal/roof"
)

// Dir is the folder created inside a material folder to hold images that
// need manual review.
const Dir = "reassess"

// ErrDestinationExists is returned instead of overwriting a file.
var ErrDestinationExists = errors.New("destination already exists")

// Move is one planned relocation.
type Move struct {
	Source      string
	Destination string
	CityKey     string
	Material    roof.Material
}

// Plan returns the move of the image at path into its material folder's
// reassess directory.
func Plan(path, cityKey string, material roof.Material) Move {
	return Move{
		Source:      path,
		Destination: filepath.Join(filepath.Dir(path), Dir, filepath.Base(path)),
		CityKey:     cityKey,
		Material:    material,
	}
}

// Mover applies moves and journals them. A dry-run mover only logs.
type Mover struct {
	DryRun  bool
	RunID   string
	Journal *Journal
}

// Apply performs mv. The reassess directory is created on first use and
// existing files are never overwritten, dry run or not.
func (m *Mover) Apply(ctx context.Context, mv Move) error {
	if m.DryRun {
		if err := ensureFree(mv.Destination); err != nil {
			return err
		}
		slog.Info("Would move to reassess", "file", filepath.Base(mv.Source), "material", mv.Material, "city", mv.CityKey)
		return nil
	}

	if err := relocate(mv.Source, mv.Destination); err != nil {
		return err
	}
	slog.Info("Moved to reassess", "file", filepath.Base(mv.Source), "material", mv.Material, "city", mv.CityKey)

	if m.Journal != nil {
		if err := m.Journal.Record(ctx, m.RunID, mv, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

func ensureFree(dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", dst, err)
	}
	return nil
}

func relocate(src, dst string) error {
	if err := ensureFree(dst); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move %s: %w", src, err)
	}
	return nil
}
