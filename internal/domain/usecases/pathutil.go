package usecases

import (
	"os"
	"path/filepath"
	"strings"
)

func filepathBase(path string) string {
	return filepath.Base(path)
}

func mimeTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".md":
		return "text/markdown"
	default:
		return "text/plain"
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
