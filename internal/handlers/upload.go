package handlers

import (
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"parley-backend/internal/middleware"
	"parley-backend/internal/services"
)

const maxUploadSize = 25 * 1024 * 1024 // 25MB

type UploadHandler struct {
	storagePath string
	fileExtract *services.FileExtractService
}

func NewUploadHandler(storagePath string, fileExtract *services.FileExtractService) *UploadHandler {
	return &UploadHandler{
		storagePath: storagePath,
		fileExtract: fileExtract,
	}
}

// Upload stores a chat attachment and returns the {name, url, type} shape the
// send-message endpoint expects in its files array.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 25MB limit", r))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	// Sniff the real content type from the first 512 bytes
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	mimeType := http.DetectContentType(buf[:n])
	if !isAllowedUploadType(mimeType) {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "File type not supported", r))
		return
	}
	file.Seek(0, io.SeekStart)

	userID := middleware.GetUserID(r.Context())
	fileID := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	relPath := filepath.Join("users", userID.String(), fileID+ext)
	absPath := filepath.Join(h.storagePath, relPath)

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}

	dst, err := os.Create(absPath)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(absPath)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}
	dst.Close()

	// Best-effort text extraction for document types
	var textPreview string
	if ext == ".pdf" || ext == ".txt" {
		text, err := h.fileExtract.ExtractTextFromPath(absPath)
		if err != nil {
			log.Printf("Text extraction failed for %s: %v", relPath, err)
		} else {
			textPreview = truncate(text, 500)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":         header.Filename,
		"url":          "/files/" + filepath.ToSlash(relPath),
		"type":         mimeType,
		"text_preview": textPreview,
	})
}

func isAllowedUploadType(mimeType string) bool {
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}
	switch mimeType {
	case "application/pdf":
		return true
	}
	return strings.HasPrefix(mimeType, "text/plain")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
