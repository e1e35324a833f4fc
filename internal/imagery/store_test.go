package imagery

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Exists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "forest.jpg", []byte("jpeg"), 0o644))
	require.NoError(t, fs.MkdirAll("castle.jpg", 0o755))

	store := NewFileStore(fs)

	tests := []struct {
		name string
		ref  string
		want bool
	}{
		{name: "existing file", ref: "forest.jpg", want: true},
		{name: "missing file", ref: "city.jpg", want: false},
		{name: "directory", ref: "castle.jpg", want: false},
		{name: "empty", ref: "", want: false},
		{name: "remote url", ref: DefaultPlaceholder, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.Exists(tt.ref))
		})
	}
}

func TestIsLocal(t *testing.T) {
	assert.True(t, IsLocal("forest.jpg"))
	assert.False(t, IsLocal(DefaultPlaceholder))
	assert.False(t, IsLocal(""))
}
