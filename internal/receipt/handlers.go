package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/KenCariquitan/Receipt-Spendle/internal/brands"
	"github.com/KenCariquitan/Receipt-Spendle/internal/scanning"
)

const (
	maxUploadSize  = int64(50 << 20) // high-resolution phone photos
	maxResolveSize = int64(10 << 20)
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body with CORS headers set
func writeError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	writeJSON(w, code, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidUpdate):
		return http.StatusBadRequest
	case errors.Is(err, ErrScanFailed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListReceipts returns all receipts, newest first
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.service.ListReceipts()
	if err != nil {
		slog.Error("Error listing receipts", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

// contentTypeFor picks the upload's MIME type from the part header, the data
// itself or the file extension
func contentTypeFor(header string, filename string, data []byte) string {
	contentType := strings.ToLower(strings.TrimSpace(header))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	// only scannable sniffs win; text and unknown bytes defer to the extension
	detected := mimetype.Detect(data).String()
	if strings.HasPrefix(detected, "image/") || detected == "application/pdf" {
		return detected
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	return "application/octet-stream"
}

// handleUploadReceipt scans and stores an uploaded receipt
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		msg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "File is too large. Maximum size is 50MB."
		}
		writeError(w, msg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		msg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			msg = "No file was selected. Please choose a file to upload."
		}
		writeError(w, msg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		writeError(w, "Uploaded file is empty", http.StatusBadRequest)
		return
	}

	contentType := contentTypeFor(header.Header.Get("Content-Type"), header.Filename, data)
	receipt, err := s.service.ProcessReceipt(r.Context(), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		writeError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

// handleResolve runs the extraction pipeline over caller-supplied payloads
// without storing anything. Payloads without an error are treated as OK.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var payloads []scanning.Payload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxResolveSize))
	if err := dec.Decode(&payloads); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	for i := range payloads {
		payloads[i].OK = payloads[i].Error == ""
	}

	writeJSON(w, http.StatusOK, s.service.ResolvePayloads(r.Context(), payloads))
}

// handleGetReceipt returns a single receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.service.GetReceipt(r.PathValue("id"))
	if err != nil {
		writeError(w, "Receipt not found", statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleGetReceiptFile returns the uploaded file for a receipt
func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetReceiptFile(r.PathValue("id"))
	if err != nil {
		slog.Warn("Error getting receipt file", "id", r.PathValue("id"), "error", err)
		writeError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleUpdateReceipt applies a manual correction
func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	var u Update
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	receipt, err := s.service.UpdateReceipt(r.PathValue("id"), u)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			slog.Error("Error updating receipt", "error", err)
		}
		writeError(w, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleDeleteReceipt deletes a receipt and its file
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteReceipt(r.PathValue("id")); err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			slog.Error("Error deleting receipt", "error", err)
		}
		writeError(w, "Error deleting receipt", code)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// queryInt reads an optional integer query parameter
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

// queryFloat reads an optional float query parameter
func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return f, nil
}

type classifyRequest struct {
	Text string `json:"text"`
}

// handleClassify categorizes raw receipt text
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxResolveSize))
	if err := dec.Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, "text is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.service.ClassifyText(r.Context(), req.Text))
}

// handleLowConfidence lists receipts that need a manual category review
func (s *Server) handleLowConfidence(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryFloat(r, "threshold", DefaultLowConfidence)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipts, err := s.service.LowConfidence(threshold, limit)
	if err != nil {
		slog.Error("Error listing low-confidence receipts", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

// handleListCorrections returns the manual correction log
func (s *Server) handleListCorrections(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	corrections, err := s.service.ListCorrections(r.URL.Query().Get("receipt_id"), limit)
	if err != nil {
		slog.Error("Error listing corrections", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, corrections)
}

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summary()
	if err != nil {
		slog.Error("Error computing summary", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStatsByCategory(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.SpendByCategory()
	if err != nil {
		slog.Error("Error computing category stats", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleStatsByMonth requires a year query parameter
func (s *Server) handleStatsByMonth(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", 0)
	if err != nil || year <= 0 {
		writeError(w, "year is required", http.StatusBadRequest)
		return
	}

	stats, err := s.service.SpendByMonth(year)
	if err != nil {
		slog.Error("Error computing monthly stats", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTopMerchants(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	merchants, err := s.service.TopMerchants(limit)
	if err != nil {
		slog.Error("Error computing top merchants", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, merchants)
}

func (s *Server) handleStatsByWeekday(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.SpendByWeekday()
	if err != nil {
		slog.Error("Error computing weekday stats", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStatsRolling(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.RollingSpend()
	if err != nil {
		slog.Error("Error computing rolling stats", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCategories lists the categories a receipt can be filed under
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, brands.Categories)
}
