package admission

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const maxFileSizeBytes = 10 * 1024 * 1024

// skipDirs are vendored or generated trees that never count against the
// artifact.
var skipDirs = map[string]bool{
	".git":         true,
	"venv":         true,
	".venv":        true,
	"env":          true,
	"site-packages": true,
	"__pycache__":  true,
	"node_modules": true,
}

// blacklistedExtensions are file types an artifact repository may not
// carry: serialized models, data dumps, archives and executables.
var blacklistedExtensions = map[string]bool{
	".pkl": true, ".pickle": true, ".joblib": true,
	".npy": true, ".npz": true,
	".exe": true, ".bat": true, ".cmd": true, ".com": true, ".scr": true, ".msi": true,
	".dll": true, ".so": true, ".dylib": true, ".pyd": true,
	".csv": true, ".tsv": true, ".parquet": true, ".feather": true, ".arrow": true,
	".h5": true, ".hdf5": true, ".hdf": true,
	".sqlite": true, ".sqlite3": true, ".db": true,
	".jsonl": true, ".ndjson": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".rar": true, ".7z": true, ".tgz": true,
	".pt": true, ".pth": true, ".onnx": true, ".pb": true, ".ckpt": true,
	".keras": true, ".model": true, ".bin": true, ".safetensors": true,
	".jar": true, ".class": true, ".war": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true,
	".webp": true, ".tiff": true, ".tif": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
}

var allowedNoExtension = map[string]bool{
	"Dockerfile":   true,
	"Makefile":     true,
	"LICENSE":      true,
	"LICENCE":      true,
	"README":       true,
	"CHANGELOG":    true,
	"CONTRIBUTING": true,
	"AUTHORS":      true,
	"Pipfile":      true,
}

// scanFileLayout walks the artifact and reports blacklisted file types,
// oversized files and extensionless binaries.
func scanFileLayout(repoPath string) ([]string, error) {
	var findings []string

	err := filepath.WalkDir(repoPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if skipDirs[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			relPath = path
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))

		if blacklistedExtensions[ext] {
			findings = append(findings, fmt.Sprintf("%s: blacklisted file type %s", relPath, ext))
			return nil
		}

		info, statErr := entry.Info()
		if statErr == nil && info.Size() > maxFileSizeBytes {
			findings = append(findings, fmt.Sprintf("%s: file too large (%d bytes)", relPath, info.Size()))
			return nil
		}

		if ext == "" && !allowedNoExtension[name] && isBinaryContent(path) {
			findings = append(findings, fmt.Sprintf("%s: binary file without extension", relPath))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return findings, nil
}

// isBinaryContent sniffs the first chunk of the file for NUL bytes and a
// high share of non-text characters.
func isBinaryContent(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return true
	}
	defer file.Close()

	chunk := make([]byte, 8192)
	n, err := file.Read(chunk)
	if err != nil && n == 0 {
		return false
	}
	chunk = chunk[:n]

	nonText := 0
	for _, b := range chunk {
		if b == 0 {
			return true
		}
		if b < 0x07 || (b > 0x0d && b < 0x20 && b != 0x1b) || b == 0x7f {
			nonText++
		}
	}
	return n > 0 && float64(nonText)/float64(n) > 0.30
}
