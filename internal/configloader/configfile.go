package configloader

import (
	"os"
	"path/filepath"
	"strings"
)

// FileType discriminates the three kinds of referenced file a YAML
// config document may point at: the top-level config itself, a filter
// expression, or a fallback JSON payload. Each carries a required
// extension; a mismatch is a configuration error, not a silent
// coercion.
type FileType int

const (
	FileTypeConfig FileType = iota
	FileTypeFilter
	FileTypeFallback
)

func (t FileType) String() string {
	switch t {
	case FileTypeConfig:
		return "Config"
	case FileTypeFilter:
		return "Filter"
	case FileTypeFallback:
		return "Fallback"
	default:
		return "Unknown"
	}
}

func (t FileType) allowedExtensions() []string {
	switch t {
	case FileTypeConfig:
		return []string{".yaml", ".yml"}
	case FileTypeFilter:
		return []string{".jq"}
	case FileTypeFallback:
		return []string{".json"}
	default:
		return nil
	}
}

// ReadFile validates path's extension against fileType and returns its
// contents, or a configuration Error on mismatch or read failure.
func ReadFile(path string, fileType FileType) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errf("%s file `%s`: %v", fileType, path, err)
	}
	if info.IsDir() {
		return "", errf("provided path `%s` is not a file", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	ok := false
	for _, allowed := range fileType.allowedExtensions() {
		if ext == allowed {
			ok = true
			break
		}
	}
	if !ok {
		return "", errf("%s file `%s` extension invalid", fileType, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", errf("%s file `%s`: %v", fileType, path, err)
	}
	return string(content), nil
}
