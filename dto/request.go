package dto

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

var validExtensions = []string{".pdf", ".png", ".jpg", ".jpeg"}

// DocumentUploadRequest is a single scanned document posted by the chat layer.
type DocumentUploadRequest struct {
	File  *multipart.FileHeader
	Email string
}

// Validate checks the upload against the accepted file types and size limit.
func (r *DocumentUploadRequest) Validate(maxSize int64) error {
	if r.File == nil {
		return fmt.Errorf("%w: file is required", ErrInvalidUpload)
	}

	ext := strings.ToLower(filepath.Ext(r.File.Filename))
	valid := false
	for _, v := range validExtensions {
		if ext == v {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: invalid file type. Supported: PDF, PNG, JPG", ErrInvalidUpload)
	}

	if maxSize > 0 && r.File.Size > maxSize {
		return fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidUpload, maxSize)
	}

	return nil
}

// IsPDF reports whether the uploaded file is a PDF.
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}
