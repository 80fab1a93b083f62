package documents

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// FileInfo describes a local file before upload
type FileInfo struct {
	Path     string
	Filename string
	Type     string // pdf, csv, xlsx, json, txt, md
	Size     int64
	Hash     string

	// Type-specific detail, best effort
	PageCount int    // pdf
	Preview   string // pdf first-page excerpt
	Columns   int    // csv
	Rows      int    // csv, data rows excluding header
}

const previewLimit = 300

var supportedTypes = map[string]string{
	".pdf":  "pdf",
	".csv":  "csv",
	".xlsx": "xlsx",
	".xls":  "xlsx",
	".json": "json",
	".txt":  "txt",
	".md":   "md",
}

// Inspect examines a local file before upload: resolves its type from the
// extension, hashes it, and extracts lightweight per-type detail. Unsupported
// extensions and oversized files fail here, before any network call.
func Inspect(path string, maxSize int64) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if maxSize > 0 && stat.Size() > maxSize {
		return nil, fmt.Errorf("file too large: %d bytes (limit %d)", stat.Size(), maxSize)
	}

	ext := strings.ToLower(filepath.Ext(path))
	fileType, ok := supportedTypes[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}

	hash, err := computeFileHash(path)
	if err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}

	info := &FileInfo{
		Path:     path,
		Filename: filepath.Base(path),
		Type:     fileType,
		Size:     stat.Size(),
		Hash:     hash,
	}

	// Per-type detail is advisory; failures here don't block the upload.
	switch fileType {
	case "pdf":
		inspectPDF(info)
	case "csv":
		inspectCSV(info)
	case "json":
		if err := inspectJSON(path); err != nil {
			return nil, err
		}
	}

	return info, nil
}

// Caption synthesizes the auto-generated message text that accompanies an
// upload, referencing the filename.
func (fi *FileInfo) Caption() string {
	switch fi.Type {
	case "pdf":
		if fi.PageCount > 0 {
			return fmt.Sprintf("Uploaded %s (%d pages). Please analyze this document.", fi.Filename, fi.PageCount)
		}
	case "csv":
		if fi.Columns > 0 {
			return fmt.Sprintf("Uploaded %s (%d columns, %d rows). Please analyze this data.", fi.Filename, fi.Columns, fi.Rows)
		}
	}
	return fmt.Sprintf("Uploaded %s. Please analyze this document.", fi.Filename)
}

// inspectPDF fills page count and a first-page text excerpt
func inspectPDF(info *FileInfo) {
	doc, err := fitz.New(info.Path)
	if err != nil {
		return
	}
	defer doc.Close()

	info.PageCount = doc.NumPage()
	if info.PageCount == 0 {
		return
	}

	text, err := doc.Text(0)
	if err != nil {
		return
	}
	info.Preview = truncatePreview(strings.TrimSpace(text))
}

// truncatePreview caps an excerpt at previewLimit characters, cutting on a
// rune boundary so multibyte text is never split mid-character
func truncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit]) + "..."
}

// inspectCSV fills column and data-row counts
func inspectCSV(info *FileInfo) {
	f, err := os.Open(info.Path)
	if err != nil {
		return
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return
	}
	info.Columns = len(header)

	for {
		if _, err := r.Read(); err != nil {
			break
		}
		info.Rows++
	}
}

// inspectJSON rejects files that are not valid JSON
func inspectJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON in %s", filepath.Base(path))
	}
	return nil
}

// computeFileHash computes SHA256 hash of a file
func computeFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
