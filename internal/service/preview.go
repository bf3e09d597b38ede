package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/vinnodrive/vinnodrive/internal/markdown"
	"github.com/vinnodrive/vinnodrive/internal/model"
)

var (
	ErrPreviewTooLarge    = errors.New("file is too large to preview")
	ErrPreviewUnsupported = errors.New("file type cannot be previewed")
)

const maxPreviewSize = 2 << 20 // 2MB

type Preview struct {
	ContentType string
	Body        []byte
	Title       string
}

// PreviewService renders stored files for inline display. Markdown becomes
// HTML; text, images and PDFs are passed through with a sniffed content type.
type PreviewService struct {
	files    *FileService
	markdown *markdown.Renderer
}

func NewPreviewService(files *FileService, renderer *markdown.Renderer) *PreviewService {
	return &PreviewService{
		files:    files,
		markdown: renderer,
	}
}

func (s *PreviewService) Preview(ctx context.Context, userID, fileID int64) (*model.File, *Preview, error) {
	file, _, err := s.files.authorize(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	if file.SizeBytes > maxPreviewSize {
		return nil, nil, ErrPreviewTooLarge
	}

	rc, err := s.files.open(ctx, file)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPreviewSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	if isMarkdown(file.DisplayName) {
		doc, err := s.markdown.Render(data)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to render markdown: %w", err)
		}
		title := doc.Title
		if title == "" {
			title = file.DisplayName
		}
		return file, &Preview{ContentType: "text/html; charset=utf-8", Body: doc.HTML, Title: title}, nil
	}

	contentType := http.DetectContentType(data)
	if !previewable(contentType) {
		return nil, nil, ErrPreviewUnsupported
	}

	// Uploaded markup is shown as source, never interpreted by the browser.
	if strings.HasPrefix(contentType, "text/html") || strings.HasPrefix(contentType, "text/xml") {
		contentType = "text/plain; charset=utf-8"
	}

	return file, &Preview{ContentType: contentType, Body: data, Title: file.DisplayName}, nil
}

func isMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func previewable(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") ||
		strings.HasPrefix(contentType, "image/") ||
		strings.HasPrefix(contentType, "application/pdf")
}
