package collection

import (
	"os"
	"path/filepath"
)

// Environment runs f with the name of a collection file that is removed
// afterwards
func Environment(f func(filename string)) {
	dir, err := os.MkdirTemp("", "overlaydb-collection-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	f(filepath.Join(dir, "collection"))
}
