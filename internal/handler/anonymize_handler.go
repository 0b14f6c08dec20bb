// Package handler provides HTTP handlers for the API.
package handler

import (
	"fmt"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	"github.com/jojospausch-web/redact-clinical-german/internal/service"
	"github.com/jojospausch-web/redact-clinical-german/internal/template"
	apperrors "github.com/jojospausch-web/redact-clinical-german/pkg/errors"
)

// AnonymizeHandler handles anonymization HTTP requests
type AnonymizeHandler struct {
	service *service.AnonymizeService
	config  domain.Config
	logger  domain.Logger

	mu  sync.RWMutex
	tpl *template.Template
}

// NewAnonymizeHandler creates a new anonymize handler
func NewAnonymizeHandler(svc *service.AnonymizeService, cfg domain.Config, tpl *template.Template, logger domain.Logger) *AnonymizeHandler {
	return &AnonymizeHandler{
		service: svc,
		config:  cfg,
		logger:  logger,
		tpl:     tpl,
	}
}

// SetTemplate swaps the active template. Called by the hot-reload watcher;
// requests already in flight keep the template they started with.
func (h *AnonymizeHandler) SetTemplate(tpl *template.Template) {
	h.mu.Lock()
	h.tpl = tpl
	h.mu.Unlock()
}

func (h *AnonymizeHandler) currentTemplate() *template.Template {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tpl
}

type fileResult struct {
	Filename   string        `json:"filename"`
	OutputFile string        `json:"output_file,omitempty"`
	Stats      *domain.Stats `json:"stats,omitempty"`
	Error      string        `json:"error,omitempty"`
}

type batchResponse struct {
	JobID   string       `json:"job_id"`
	Results []fileResult `json:"results"`
}

// Anonymize handles a single PDF upload and streams the redacted PDF back.
func (h *AnonymizeHandler) Anonymize(w http.ResponseWriter, r *http.Request) {
	data, name, ok := h.readUpload(w, r, "file")
	if !ok {
		return
	}

	tpl, err := h.requestTemplate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobDir := filepath.Join(h.config.GetUploadPath(), uuid.NewString())
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "could not create working directory")
		return
	}
	defer os.RemoveAll(jobDir)

	outPath := filepath.Join(jobDir, outputName(name))

	result, err := h.service.Anonymize(service.AnonymizeRequest{
		InputBytes:    data,
		OutputPath:    outPath,
		Template:      tpl,
		ShiftDays:     parseShiftDays(r.FormValue("shift_days")),
		ExtractImages: r.FormValue("extract_images") == "true",
	})
	if err != nil {
		h.logger.Error("Anonymization failed", err, "filename", name)
		writeError(w, statusForError(err), err.Error())
		return
	}

	out, err := os.Open(result.OutputPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "redacted document missing")
		return
	}
	defer out.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName(name)))
	w.Header().Set("X-Anonymization-Stats", statsHeader(result.Stats))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, out)
}

// AnonymizeBatch handles a multi-file upload. Outputs stay on disk under a
// job directory and are fetched one by one via DownloadBatchFile.
func (h *AnonymizeHandler) AnonymizeBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.GetMaxFileSize())
	if err := r.ParseMultipartForm(h.config.GetMaxFileSize()); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	tpl, err := h.requestTemplate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID := uuid.NewString()
	jobDir := filepath.Join(h.config.GetUploadPath(), jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "could not create job directory")
		return
	}

	shiftDays := parseShiftDays(r.FormValue("shift_days"))

	resp := batchResponse{JobID: jobID, Results: make([]fileResult, 0, len(files))}
	for _, fh := range files {
		name := sanitizeFilename(fh.Filename)
		res := fileResult{Filename: name}

		f, err := fh.Open()
		if err != nil {
			res.Error = "could not read upload"
			resp.Results = append(resp.Results, res)
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			res.Error = "could not read upload"
			resp.Results = append(resp.Results, res)
			continue
		}

		result, err := h.service.Anonymize(service.AnonymizeRequest{
			InputBytes: data,
			OutputPath: filepath.Join(jobDir, outputName(name)),
			Template:   tpl,
			ShiftDays:  shiftDays,
		})
		if err != nil {
			h.logger.Error("Batch anonymization failed", err, "job_id", jobID, "filename", name)
			res.Error = err.Error()
		} else {
			res.OutputFile = filepath.Base(result.OutputPath)
			res.Stats = &result.Stats
		}
		resp.Results = append(resp.Results, res)
	}

	writeJSON(w, http.StatusOK, resp)
}

// DownloadBatchFile serves one redacted output of a previously run batch job.
func (h *AnonymizeHandler) DownloadBatchFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["jobId"]
	filename := filepath.Base(vars["filename"])

	if _, err := uuid.Parse(jobID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	if filename == "" || filename == "." || strings.HasPrefix(filename, "..") {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(h.config.GetUploadPath(), jobID, filename)
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = io.Copy(w, f)
}

// Preview renders the first page of the upload with tinted header and footer
// zones so clients can calibrate zone heights before a real run.
func (h *AnonymizeHandler) Preview(w http.ResponseWriter, r *http.Request) {
	data, name, ok := h.readUpload(w, r, "file")
	if !ok {
		return
	}

	headerHeight := parseFloatOrDefault(r.FormValue("header_height"), 100)
	footerHeight := parseFloatOrDefault(r.FormValue("footer_height"), 50)

	img, err := h.service.Preview(data, headerHeight, footerHeight)
	if err != nil {
		h.logger.Error("Preview rendering failed", err, "filename", name)
		writeError(w, statusForError(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_ = png.Encode(w, img)
}

// readUpload pulls a single PDF upload out of the request body.
func (h *AnonymizeHandler) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.GetMaxFileSize())

	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return nil, "", false
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		writeError(w, http.StatusBadRequest, "Only PDF files are supported")
		return nil, "", false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return nil, "", false
	}
	return data, name, true
}

// requestTemplate returns the active template, customized when the request
// carries zone overrides.
func (h *AnonymizeHandler) requestTemplate(r *http.Request) (*template.Template, error) {
	tpl := h.currentTemplate()
	if tpl == nil {
		return nil, fmt.Errorf("no anonymization template configured")
	}

	headerRaw := r.FormValue("header_height")
	footerRaw := r.FormValue("footer_height")
	if headerRaw == "" && footerRaw == "" {
		return tpl, nil
	}

	settings := template.CustomSettings{
		HeaderHeight: parseFloatOrDefault(headerRaw, 100),
		HeaderPage:   r.FormValue("header_page"),
		FooterHeight: parseFloatOrDefault(footerRaw, 50),
	}
	if settings.HeaderPage == "" {
		settings.HeaderPage = "1"
	}
	if kw := strings.TrimSpace(r.FormValue("footer_keywords")); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				settings.FooterKeywords = append(settings.FooterKeywords, k)
			}
		}
	}
	return template.Customize(tpl, settings), nil
}

// sanitizeFilename strips any path components from an uploaded filename.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "document.pdf"
	}
	return name
}

func outputName(uploadName string) string {
	base := strings.TrimSuffix(uploadName, filepath.Ext(uploadName))
	return base + "_anonymized.pdf"
}

func parseShiftDays(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	// Zero keeps the random offset from the template range.
	if err != nil || n == 0 {
		return nil
	}
	return &n
}

func parseFloatOrDefault(raw string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

func statsHeader(stats domain.Stats) string {
	return fmt.Sprintf("pages=%d zones=%d entities=%d dates=%d images=%d",
		stats.TotalPages, stats.ZonesRedacted, stats.PIIEntitiesFound,
		stats.DatesShifted, stats.ImagesExtracted)
}

// statusForError maps the error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeInput):
		return http.StatusBadRequest
	case apperrors.IsType(err, apperrors.ErrorTypeConfig):
		return http.StatusUnprocessableEntity
	case apperrors.IsType(err, apperrors.ErrorTypeBackend):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
