// Package static embeds the stylesheet, script and images served under /static.
package static

import (
	"embed"
	"io/fs"
)

//go:embed css js images
var files embed.FS

// FS returns the asset tree rooted at the static directory.
func FS() fs.FS {
	return files
}
