package pathutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToRelative(t *testing.T) {
	root := filepath.FromSlash("/home/user/project")

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "inside root",
			path: filepath.FromSlash("/home/user/project/src/main.go"),
			want: filepath.FromSlash("src/main.go"),
		},
		{
			name: "root itself",
			path: filepath.FromSlash("/home/user/project"),
			want: ".",
		},
		{
			name: "outside root stays absolute",
			path: filepath.FromSlash("/other/location/file.go"),
			want: filepath.FromSlash("/other/location/file.go"),
		},
		{
			name: "already relative",
			path: filepath.FromSlash("src/main.go"),
			want: filepath.FromSlash("src/main.go"),
		},
		{
			name: "empty path",
			path: "",
			want: "",
		},
		{
			name: "unclean path",
			path: filepath.FromSlash("/home/user/project/./src/../src/main.go"),
			want: filepath.FromSlash("src/main.go"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToRelative(tt.path, root))
		})
	}
}

func TestToRelativeEmptyRoot(t *testing.T) {
	path := filepath.FromSlash("/home/user/file.go")
	assert.Equal(t, path, ToRelative(path, ""))
}

func TestToAbsolute(t *testing.T) {
	root := filepath.FromSlash("/home/user/project")

	assert.Equal(t, filepath.FromSlash("/home/user/project/src/main.go"),
		ToAbsolute(filepath.FromSlash("src/main.go"), root))
	assert.Equal(t, filepath.FromSlash("/elsewhere/file.go"),
		ToAbsolute(filepath.FromSlash("/elsewhere/file.go"), root))
	assert.Equal(t, "", ToAbsolute("", root))
}
