package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"

	"github.com/vinnodrive/vinnodrive/internal/ctxkeys"
	"github.com/vinnodrive/vinnodrive/internal/model"
	"github.com/vinnodrive/vinnodrive/internal/service"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

type FileHandler struct {
	fileService    *service.FileService
	uploadService  *service.UploadService
	previewService *service.PreviewService
	maxUploadSize  int64
	appURL         string
}

func NewFileHandler(fileService *service.FileService, uploadService *service.UploadService, previewService *service.PreviewService, maxUploadSize int64, appURL string) *FileHandler {
	return &FileHandler{
		fileService:    fileService,
		uploadService:  uploadService,
		previewService: previewService,
		maxUploadSize:  maxUploadSize,
		appURL:         appURL,
	}
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.SessionFrom(r.Context())

	files, err := h.fileService.Files(r.Context(), session.UserID, r.URL.Query().Get("folder"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if files == nil {
		files = []*model.File{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (h *FileHandler) Folders(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.SessionFrom(r.Context())

	folders, err := h.fileService.Folders(r.Context(), session.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if folders == nil {
		folders = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// Upload ingests the "files" parts of a multipart form into the "folder" field.
// The batch is committed as a whole or rejected with a single error.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.SessionFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	err := r.ParseMultipartForm(multipartMemory)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, CodeTooLarge, "Upload exceeds the maximum request size")
			return
		}
		WriteError(w, http.StatusBadRequest, CodeValidation, "Expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files := make([]service.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			closeAll(files)
			slog.Error("failed to open multipart part", "error", err, "user_id", session.UserID)
			WriteError(w, http.StatusBadRequest, CodeValidation, "Could not read uploaded file")
			return
		}
		files = append(files, service.UploadFile{Name: header.Filename, Content: f})
	}
	defer closeAll(files)

	report := h.uploadService.Upload(r.Context(), session.UserID, r.FormValue("folder"), files)
	if report.Error != nil {
		WriteError(w, batchStatus(report.Error.Code), string(report.Error.Code), report.Error.Message)
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.SessionFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, CodeNotFound, "File not found")
		return
	}

	file, rc, err := h.fileService.Download(r.Context(), session.UserID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer rc.Close()

	serveAttachment(w, file, rc)
}

// PublicDownload serves a file through its public link. No session is needed.
func (h *FileHandler) PublicDownload(w http.ResponseWriter, r *http.Request) {
	file, rc, err := h.fileService.PublicDownload(r.Context(), r.PathValue("token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer rc.Close()

	serveAttachment(w, file, rc)
}

func (h *FileHandler) Preview(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.SessionFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, CodeNotFound, "File not found")
		return
	}

	file, preview, err := h.previewService.Preview(r.Context(), session.UserID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", preview.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(preview.Body)))
	w.Header().Set("Content-Disposition", disposition("inline", file.DisplayName))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "sandbox; default-src 'none'; img-src 'self' data:; style-src 'unsafe-inline'")
	// Non-ASCII titles are sent as an RFC 2047 encoded word.
	w.Header().Set("X-Preview-Title", mime.QEncoding.Encode("utf-8", preview.Title))
	w.WriteHeader(http.StatusOK)
	w.Write(preview.Body)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.SessionFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, CodeNotFound, "File not found")
		return
	}

	err := h.fileService.Delete(r.Context(), session.UserID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type publicLinkResponse struct {
	File *model.File `json:"file"`
	URL  string      `json:"url,omitempty"`
}

func (h *FileHandler) EnablePublic(w http.ResponseWriter, r *http.Request) {
	h.setPublic(w, r, true)
}

func (h *FileHandler) DisablePublic(w http.ResponseWriter, r *http.Request) {
	h.setPublic(w, r, false)
}

func (h *FileHandler) setPublic(w http.ResponseWriter, r *http.Request, public bool) {
	session := ctxkeys.SessionFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, CodeNotFound, "File not found")
		return
	}

	file, err := h.fileService.SetPublic(r.Context(), session.UserID, id, public)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := publicLinkResponse{File: file}
	if file.ShareToken != nil {
		resp.URL = h.appURL + "/s/" + *file.ShareToken
	}
	writeJSON(w, http.StatusOK, resp)
}

func serveAttachment(w http.ResponseWriter, file *model.File, body io.Reader) {
	contentType := mime.TypeByExtension(path.Ext(file.DisplayName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.SizeBytes, 10))
	w.Header().Set("Content-Disposition", disposition("attachment", file.DisplayName))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	_, err := io.Copy(w, body)
	if err != nil {
		slog.Warn("download interrupted", "error", err, "file_id", file.ID)
	}
}

// disposition builds a Content-Disposition header; non-ASCII names are
// encoded per RFC 2231.
func disposition(kind, filename string) string {
	value := mime.FormatMediaType(kind, map[string]string{"filename": filename})
	if value == "" {
		return kind
	}
	return value
}

func closeAll(files []service.UploadFile) {
	for _, f := range files {
		if c, ok := f.Content.(multipart.File); ok {
			c.Close()
		}
	}
}
