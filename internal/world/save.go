package world

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/carbongdt/carbon/internal/persist"
)

// Save writes the working database to path. Paths are stored relative to
// the destination directory. The destination is replaced only once the
// copy is complete, so a failed save leaves it untouched.
func (w *World) Save(path string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if !w.IsEditing() {
		return ErrNotEditing
	}
	dest, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	dir := filepath.Dir(dest)

	tmp, err := w.tempFile(dir, ".carbon-save-*")
	if err != nil {
		w.log.Error("failed to save world", zap.String("path", dest), zap.Error(err))
		return fmt.Errorf("save world: %w", err)
	}
	keep := false
	defer func() {
		if !keep {
			os.Remove(tmp)
		}
	}()

	if err := w.db.BackupTo(tmp); err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	if err := w.relativize(tmp, dir); err != nil {
		w.log.Error("failed to store relative paths", zap.String("path", dest), zap.Error(err))
		return fmt.Errorf("save world: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		w.log.Error("failed to replace world file", zap.String("path", dest), zap.Error(err))
		return fmt.Errorf("save world: %w", err)
	}
	keep = true
	w.sourcePath = dest
	w.log.Info("world saved", zap.String("path", dest))
	return nil
}

func (w *World) relativize(file, base string) error {
	out, err := persist.Open(file, false, w.log)
	if err != nil {
		return err
	}
	err = relocatePaths(out, base, false, w.log)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
