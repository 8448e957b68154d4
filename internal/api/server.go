package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docqa/internal/config"
	"docqa/internal/extract"
	"docqa/internal/models"
	"docqa/internal/pipeline"
	"docqa/internal/providers"
	"docqa/internal/storage"
	"docqa/internal/util"
	"docqa/internal/vectorindex"

	"github.com/google/uuid"
)

const maxQuestionLen = 1000

// DocumentStore is the record-store surface the API needs.
type DocumentStore interface {
	CreateDocument(ctx context.Context, d models.Document) error
	GetDocument(ctx context.Context, docID string) (models.Document, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	DeleteDocument(ctx context.Context, docID string) error
}

// Pipeline is the ingestion/query surface the API drives.
type Pipeline interface {
	Process(ctx context.Context, doc models.Document) error
	Ask(ctx context.Context, docID, question string, params models.SearchParams) string
	Cleanup(docID string) error
}

type Server struct {
	cfg      config.Config
	docs     DocumentStore
	pipeline Pipeline
}

// NewServer wires the full stack: record store, provider set, index store,
// and the shared processor.
func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		panic(err)
	}
	pm, err := providers.NewManager(cfg)
	if err != nil {
		panic(err)
	}
	docRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	proc := pipeline.New(cfg, docRepo, chunkRepo, vectorindex.NewStore(cfg.IndexRoot), pm)
	return NewServerWith(cfg, docRepo, proc)
}

// NewServerWith injects the collaborators directly; tests use it with fakes.
func NewServerWith(cfg config.Config, docs DocumentStore, p Pipeline) *Server {
	return &Server{cfg: cfg, docs: docs, pipeline: p}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/documents", s.handleDocuments)
	mux.HandleFunc("/documents/upload", s.handleUpload)
	mux.HandleFunc("/documents/question", s.handleQuestion)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	docs, err := s.docs.ListDocuments(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("title is required"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no file provided"))
		return
	}
	defer file.Close()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if !extract.Supported(ext) {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("file type not supported: %s", ext))
		return
	}

	doc := models.Document{
		DocID:    uuid.NewString(),
		Title:    title,
		FileType: ext,
	}
	doc.Filename = doc.DocID + "." + ext
	if err := saveUploadedFile(s.cfg.UploadRoot, doc.Filename, file, header); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.docs.CreateDocument(r.Context(), doc); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	if err := s.pipeline.Process(r.Context(), doc); err != nil {
		// Remove the inconsistent partial record; the pipeline only
		// reports failure, deletion is this layer's job.
		_ = s.docs.DeleteDocument(r.Context(), doc.DocID)
		_ = s.pipeline.Cleanup(doc.DocID)
		_ = os.Remove(util.SafeJoin(s.cfg.UploadRoot, doc.Filename))
		writeErr(w, http.StatusBadRequest, fmt.Errorf("failed to process document: %w", err))
		return
	}

	stored, err := s.docs.GetDocument(r.Context(), doc.DocID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	stored.Content = ""
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Document uploaded and processed successfully",
		"document": stored,
	})
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		DocumentID   string         `json:"document_id"`
		Question     string         `json:"question"`
		SearchKwargs map[string]any `json:"search_kwargs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.DocumentID = strings.TrimSpace(req.DocumentID)
	req.Question = strings.TrimSpace(req.Question)
	if req.DocumentID == "" || req.Question == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("document_id and question are required"))
		return
	}
	if len([]rune(req.Question)) > maxQuestionLen {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("question exceeds %d characters", maxQuestionLen))
		return
	}

	// The request boundary rejects out-of-range k outright; the pipeline
	// separately clamps whatever reaches it. Both layers are intentional.
	params := models.SearchParams{}
	if raw, ok := req.SearchKwargs["k"]; ok {
		k, valid := intFromJSON(raw)
		if !valid || k < models.MinK || k > models.MaxK {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("'k' must be an integer between %d and %d", models.MinK, models.MaxK))
			return
		}
		params.K = k
	}

	doc, err := s.docs.GetDocument(r.Context(), req.DocumentID)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if !doc.Processed {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("document is not yet processed"))
		return
	}

	answer := s.pipeline.Ask(r.Context(), req.DocumentID, req.Question, params)
	writeJSON(w, http.StatusOK, map[string]any{
		"question":      req.Question,
		"answer":        answer,
		"document_id":   req.DocumentID,
		"search_kwargs": req.SearchKwargs,
	})
}

// intFromJSON accepts only integral numbers; JSON numbers decode as float64.
func intFromJSON(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func saveUploadedFile(dstDir, name string, src multipart.File, _ *multipart.FileHeader) error {
	if err := util.EnsureDir(dstDir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dstDir, "upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), util.SafeJoin(dstDir, name)); err != nil {
		return fmt.Errorf("atomic move upload: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "DQ-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "DQ-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "DQ-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "DQ-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "DQ-API-4004"
		msg = "Requested document was not found."
	case status == http.StatusMethodNotAllowed:
		code = "DQ-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "title is required"):
			msg = "Document title is required."
		case strings.Contains(raw, "no file provided"):
			msg = "No file was provided."
		case strings.Contains(raw, "file type not supported"):
			msg = "File type not supported. Allowed types: pdf, txt, docx."
		case strings.Contains(raw, "document_id and question are required"):
			msg = "Both document and question are required."
		case strings.Contains(raw, "question exceeds"):
			msg = "Question is too long (maximum 1000 characters)."
		case strings.Contains(raw, "'k' must be an integer"):
			msg = "'k' must be an integer between 3 and 5."
		case strings.Contains(raw, "not yet processed"):
			msg = "Document is not yet processed. Please wait and try again."
		case strings.Contains(raw, "failed to process document"):
			msg = "Failed to process document."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
