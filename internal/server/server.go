// Package server exposes detection and extraction over HTTP.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"moulding-cropper/internal/detect"
	"moulding-cropper/internal/extract"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const maxUploadBytes = 64 << 20

// Server wires the detection and extraction engines to HTTP handlers.
type Server struct {
	detector  *detect.Engine
	extractor *extract.Engine
	log       *zap.SugaredLogger
}

// New creates a server.
func New(detector *detect.Engine, extractor *extract.Engine, log *zap.SugaredLogger) *Server {
	return &Server{detector: detector, extractor: extractor, log: log}
}

// Routes returns the HTTP mux. Extracted crops are served read-only under
// /crops/ for previews.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/detect", s.handleDetect)
	mux.HandleFunc("POST /api/extract", s.handleExtract)
	mux.Handle("GET /crops/",
		http.StripPrefix("/crops/", http.FileServer(http.Dir(s.extractor.OutputDir()))))
	return mux
}

// detectResponse mirrors the detection interface: it never reports an error
// status for an empty result.
type detectResponse struct {
	Detections   []detect.Candidate `json:"detections"`
	ItemNumbers  []string           `json:"itemNumbers"`
	ImageWidth   int                `json:"imageWidth"`
	ImageHeight  int                `json:"imageHeight"`
	StrategyUsed string             `json:"strategyUsed"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	mode := resolveMode(r.FormValue("strategy"), filename)

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || img.Empty() {
		http.Error(w, "unreadable image payload", http.StatusBadRequest)
		return
	}
	defer img.Close()

	resp := detectResponse{
		Detections:   []detect.Candidate{},
		ItemNumbers:  []string{},
		ImageWidth:   img.Cols(),
		ImageHeight:  img.Rows(),
		StrategyUsed: string(detect.StrategyPrimary),
	}

	result, err := s.detector.Detect(r.Context(), img, mode)
	if err != nil {
		// Caller abandoned the request; nothing useful to write.
		s.log.Debugw("detection aborted", "error", err)
		return
	}

	resp.StrategyUsed = string(result.Strategy)
	resp.Detections = append(resp.Detections, result.Candidates...)
	for _, c := range result.Candidates {
		resp.ItemNumbers = append(resp.ItemNumbers, c.Text)
	}

	writeJSON(w, resp)
}

// resolveMode picks the detection mode: explicit request field first, then a
// mode hint embedded in the uploaded filename, then the primary default.
func resolveMode(field, filename string) detect.Mode {
	switch strings.ToLower(field) {
	case string(detect.StrategySecondary), "screenshot":
		return detect.ModeScreenshot
	case string(detect.StrategyPrimary), "catalog":
		return detect.ModeCatalog
	}
	if strings.Contains(strings.ToLower(filename), "screenshot") {
		return detect.ModeScreenshot
	}
	return detect.ModeCatalog
}

type croppedMoulding struct {
	ID             int    `json:"id"`
	ImageURL       string `json:"imageUrl"`
	DetectedNumber string `json:"detectedNumber"`
}

type extractResponse struct {
	CroppedMouldings []croppedMoulding `json:"croppedMouldings"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	data, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	// A malformed box array rejects the whole request: per-box recovery is
	// only possible once the list parses.
	var boxes []extract.Box
	if err := json.Unmarshal([]byte(r.FormValue("boxes")), &boxes); err != nil {
		http.Error(w, fmt.Sprintf("malformed boxes payload: %v", err), http.StatusBadRequest)
		return
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || img.Empty() {
		http.Error(w, "unreadable image payload", http.StatusBadRequest)
		return
	}
	defer img.Close()

	labeled := boxes[:0]
	for _, b := range boxes {
		if strings.TrimSpace(b.ItemNumber) != "" {
			labeled = append(labeled, b)
		}
	}

	crops := s.extractor.ExtractAll(img, labeled, r.FormValue("vendor"))

	resp := extractResponse{CroppedMouldings: []croppedMoulding{}}
	for _, c := range crops {
		resp.CroppedMouldings = append(resp.CroppedMouldings, croppedMoulding{
			ID:             c.ID,
			ImageURL:       "/crops/" + c.Filename,
			DetectedNumber: c.Label,
		})
	}
	writeJSON(w, resp)
}

// readUpload pulls the bitmap payload out of a multipart request. A missing
// payload is a validation failure and rejects the request outright.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "expected multipart form", http.StatusBadRequest)
		return nil, "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "missing image payload", http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read image payload", http.StatusBadRequest)
		return nil, "", false
	}
	return data, header.Filename, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
