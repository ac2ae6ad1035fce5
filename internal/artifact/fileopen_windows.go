//go:build windows

package artifact

import (
	"os"

	"github.com/hpungsan/nextmeal/internal/errors"
)

// openFileNoFollowRead opens a file for reading.
// O_NOFOLLOW is not available on Windows; validatePath still rejects symlinks.
func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	return f, nil
}
