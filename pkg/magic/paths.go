package magic

import (
	"path/filepath"
	"strings"
)

const pathSeparators = "/" + string(filepath.Separator)

// SplitExt splits path into root and extension at the last dot of the final
// path element. Leading dots of that element never start an extension, so
// ".profile" has none. root+ext always equals path.
func SplitExt(path string) (root, ext string) {
	sep := strings.LastIndexAny(path, pathSeparators)
	dot := strings.LastIndexByte(path, '.')
	if dot <= sep {
		return path, ""
	}
	for i := sep + 1; i < dot; i++ {
		if path[i] != '.' {
			return path[:dot], path[dot:]
		}
	}
	return path, ""
}

// ReplaceExt swaps the extension of path for ext, appending it when path has
// none.
func ReplaceExt(path, ext string) string {
	root, _ := SplitExt(path)
	return root + ext
}
