package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"log"
	"net/http"
	"strings"

	"github.com/jenerCruz/asistencias-backend/internal/directory"
	"github.com/jenerCruz/asistencias-backend/internal/evidence"
)

type Submitter interface {
	Submit(ctx context.Context, raw evidence.RawSubmission) (evidence.Result, error)
}

type Handler struct {
	service      Submitter
	maxBodyBytes int64
}

type Options struct {
	// MaxBodyBytes caps the upload request body. Size it from the content
	// limit plus base64 and JSON envelope overhead.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 35 << 20

func NewHandler(service Submitter, options Options) *Handler {
	maxBody := options.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &Handler{
		service:      service,
		maxBodyBytes: maxBody,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/api/upload", h.handleUpload)
	mux.Handle("/metrics", expvar.Handler())
	return mux
}

type uploadRequest struct {
	EmployeeID    string `json:"employeeId"`
	Kind          string `json:"kind"`
	Notes         string `json:"notes"`
	Filename      string `json:"filename"`
	ContentBase64 string `json:"contentBase64"`
}

type uploadResponse struct {
	OK    bool   `json:"ok"`
	PRURL string `json:"prUrl"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{OK: true})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeMessage(w, http.StatusBadRequest, msgContentTooLarge)
			return
		}
		writeMessage(w, http.StatusBadRequest, msgMissingFields)
		return
	}

	raw := evidence.RawSubmission{
		EmployeeID:    strings.TrimSpace(req.EmployeeID),
		Kind:          strings.TrimSpace(req.Kind),
		Notes:         req.Notes,
		Filename:      strings.TrimSpace(req.Filename),
		ContentBase64: req.ContentBase64,
	}

	result, err := h.service.Submit(r.Context(), raw)
	if err != nil {
		status, msg := mapError(err)
		if status == http.StatusInternalServerError {
			// Backend detail stays in the log; callers get the generic message.
			log.Printf("upload failed: %v", err)
		}
		writeMessage(w, status, msg)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{OK: true, PRURL: result.PRURL})
}

const (
	msgMissingFields       = "Faltan campos requeridos."
	msgInvalidKind         = "Tipo inválido."
	msgInvalidContent      = "Contenido inválido."
	msgContentTooLarge     = "Archivo demasiado grande."
	msgDisallowedExtension = "Extensión no permitida."
	msgUnknownEmployee     = "Empleado no válido."
	msgInternal            = "Error interno al procesar la evidencia."
)

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, evidence.ErrMissingFields):
		return http.StatusBadRequest, msgMissingFields
	case errors.Is(err, evidence.ErrInvalidKind):
		return http.StatusBadRequest, msgInvalidKind
	case errors.Is(err, evidence.ErrInvalidContent):
		return http.StatusBadRequest, msgInvalidContent
	case errors.Is(err, evidence.ErrContentTooLarge):
		return http.StatusBadRequest, msgContentTooLarge
	case errors.Is(err, evidence.ErrDisallowedExtension):
		return http.StatusBadRequest, msgDisallowedExtension
	case errors.Is(err, directory.ErrUnknownEmployee):
		return http.StatusBadRequest, msgUnknownEmployee
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
