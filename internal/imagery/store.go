package imagery

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FileStore looks up assets on an afero filesystem.
type FileStore struct {
	fs afero.Fs
}

var _ AssetStore = (*FileStore)(nil)

func NewFileStore(fs afero.Fs) *FileStore {
	return &FileStore{fs: fs}
}

// NewDirectoryStore serves assets from a directory of the host filesystem.
func NewDirectoryStore(dir string) *FileStore {
	return NewFileStore(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

func (s *FileStore) Exists(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.Contains(ref, "://") {
		return false
	}
	info, err := s.fs.Stat(filepath.Clean(ref))
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsLocal reports whether ref points into the asset store rather than at a remote placeholder.
func IsLocal(ref string) bool {
	return ref != "" && !strings.Contains(ref, "://")
}
