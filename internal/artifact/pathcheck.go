package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hpungsan/nextmeal/internal/errors"
)

// MaxArtifactBytes caps how much of an artifact file is read.
const MaxArtifactBytes = 64 << 20

// validatePath checks that path names a regular, non-symlink file with one of
// the given extensions.
func validatePath(path string, exts ...string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewInvalidRequest("artifact path is required")
	}

	cleaned := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleaned))
	if !slices.Contains(exts, ext) {
		return errors.NewInvalidRequest(fmt.Sprintf("artifact %s must have one of the extensions %v", path, exts))
	}

	info, err := os.Lstat(cleaned)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("artifact path must not be a symlink")
	}
	if info.IsDir() {
		return errors.NewInvalidRequest(fmt.Sprintf("artifact path %s is a directory", path))
	}
	if info.Size() > MaxArtifactBytes {
		return errors.NewInvalidRequest(fmt.Sprintf("artifact %s exceeds %d bytes", path, MaxArtifactBytes))
	}
	return nil
}

// readArtifact validates path and reads the whole file.
func readArtifact(path string, exts ...string) ([]byte, error) {
	if err := validatePath(path, exts...); err != nil {
		return nil, err
	}
	f, err := openFileNoFollowRead(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > MaxArtifactBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("artifact %s exceeds %d bytes", path, MaxArtifactBytes))
	}
	return data, nil
}
