package static

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetsEmbedded(t *testing.T) {
	for _, name := range []string{"css/site.css", "js/site.js", "images/logo.svg"} {
		data, err := fs.ReadFile(FS(), name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}
