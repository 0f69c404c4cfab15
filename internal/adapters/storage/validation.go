package storage

import (
	"fmt"
	"strings"

	"aduanas_portal_backend/platform/apperr"
)

// AllowedContentTypes lists the MIME types accepted for case attachments.
// Customs paperwork arrives as PDFs, office documents and photos of
// physical documents.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,

	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/csv":   true,
	"text/plain": true,

	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// ValidateContentType rejects MIME types outside the allow list. Parameters
// like "; charset=utf-8" are stripped before the lookup.
func (s *MinIOService) ValidateContentType(contentType string) error {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(normalized, ";"); idx != -1 {
		normalized = strings.TrimSpace(normalized[:idx])
	}

	if normalized == "" {
		return apperr.Validation("content type is required")
	}
	if !AllowedContentTypes[normalized] {
		return apperr.Validation(fmt.Sprintf("content type %q is not allowed", normalized))
	}
	return nil
}
