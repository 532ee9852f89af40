package utils

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type FileValidator struct {
	allowedExt  map[string]bool
	allowedMime map[string]bool
	maxSize     int64
}

// NewImageValidator builds a validator for avatar/cover uploads. Extensions
// and MIME types can be overridden via ALLOWED_FILE_EXTENSIONS and
// ALLOWED_FILE_MIME_TYPES (comma-separated).
func NewImageValidator() *FileValidator {
	allowedExt := map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	}
	if raw := os.Getenv("ALLOWED_FILE_EXTENSIONS"); raw != "" {
		allowedExt = map[string]bool{}
		for _, ext := range strings.Split(raw, ",") {
			if ext = strings.TrimSpace(strings.ToLower(ext)); ext != "" {
				allowedExt[ext] = true
			}
		}
	}

	allowedMime := map[string]bool{
		"image/jpeg": true, "image/png": true, "image/webp": true,
	}
	if raw := os.Getenv("ALLOWED_FILE_MIME_TYPES"); raw != "" {
		allowedMime = map[string]bool{}
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(strings.ToLower(m)); m != "" {
				allowedMime[m] = true
			}
		}
	}

	sizeMB := 5
	if v := os.Getenv("MAX_UPLOAD_SIZE_MB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			sizeMB = parsed
		}
	}

	return &FileValidator{
		allowedExt:  allowedExt,
		allowedMime: allowedMime,
		maxSize:     int64(sizeMB) << 20,
	}
}

// ValidateFile checks size, extension and sniffed content type, and returns
// the detected MIME type.
func (v *FileValidator) ValidateFile(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size > v.maxSize {
		return "", fmt.Errorf("file too large (max %d MB)", v.maxSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !v.allowedExt[ext] {
		return "", fmt.Errorf("invalid file extension")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	if _, err = file.Read(buffer); err != nil {
		return "", fmt.Errorf("failed to read file header")
	}
	if _, err = file.Seek(0, 0); err != nil {
		return "", fmt.Errorf("failed to reset file reader")
	}

	detectedMime := strings.ToLower(http.DetectContentType(buffer))
	// DetectContentType may append parameters (e.g. charset)
	if i := strings.Index(detectedMime, ";"); i >= 0 {
		detectedMime = strings.TrimSpace(detectedMime[:i])
	}
	if !v.allowedMime[detectedMime] {
		return "", fmt.Errorf("invalid file type")
	}

	return detectedMime, nil
}
