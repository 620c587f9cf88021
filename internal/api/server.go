// Package api exposes one analysis session over HTTP for the dashboard
// frontend: upload endpoints for telemetry and zone files, the manual CRS
// override, the pass configuration, and read endpoints for every derived
// table.
package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/harbour-data/dredge.report/internal/config"
	"github.com/harbour-data/dredge.report/internal/geo"
	"github.com/harbour-data/dredge.report/internal/httputil"
	"github.com/harbour-data/dredge.report/internal/session"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxUploadBytes caps a single telemetry or zone upload. A full day of
// per-second records is a few megabytes; 64MB leaves room for multi-week
// uploads without letting a stray request exhaust memory.
const maxUploadBytes = 64 * 1024 * 1024

type Server struct {
	session *session.Session
}

func NewServer(s *session.Session) *Server {
	return &Server{session: s}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status and duration of every request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/telemetry", s.uploadTelemetry)
	mux.HandleFunc("/api/zones", s.handleZones)
	mux.HandleFunc("/api/crs", s.handleCRS)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/samples", s.listSamples)
	mux.HandleFunc("/api/cycles", s.listCycles)
	mux.HandleFunc("/api/metrics", s.listMetrics)
	mux.HandleFunc("/api/extraction-trace", s.showExtractionTrace)
	return mux
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.session.Status())
}

func (s *Server) uploadTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		httputil.BadRequest(w, "failed to read upload body")
		return
	}
	if len(data) == 0 {
		httputil.BadRequest(w, "empty upload")
		return
	}
	if err := s.session.AddTelemetry(data); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, s.session.Status())
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.session.Zones())
	case http.MethodPost:
		format := session.ZoneFormat(r.URL.Query().Get("format"))
		if format == "" {
			format = session.ZoneFormatLandXML
		}
		data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
		if err != nil || len(data) == 0 {
			httputil.BadRequest(w, "empty or unreadable upload")
			return
		}
		if err := s.session.AddZones(data, format); err != nil {
			if err == geo.ErrCRSUnresolved {
				httputil.Conflict(w, err.Error())
				return
			}
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, s.session.Status())
	default:
		httputil.MethodNotAllowed(w)
	}
}

type crsRequest struct {
	System string `json:"system"`
	Zone   int    `json:"zone"`
}

func (s *Server) handleCRS(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.session.CRS())
	case http.MethodPost:
		var req crsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "invalid JSON body")
			return
		}
		if err := s.session.SetManualCRS(geo.System(req.System), req.Zone); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, s.session.CRS())
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.session.Config())
	case http.MethodPost:
		cfg := config.EmptyPassConfig()
		if err := json.NewDecoder(r.Body).Decode(cfg); err != nil {
			httputil.BadRequest(w, "invalid JSON body")
			return
		}
		if err := s.session.SetConfig(cfg); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, s.session.Config())
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) listSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.session.Snapshot())
}

func (s *Server) listCycles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.session.Cycles())
}

func (s *Server) listMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.session.Metrics())
}

func (s *Server) showExtractionTrace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	cycleStr := r.URL.Query().Get("cycle")
	number, err := strconv.Atoi(cycleStr)
	if err != nil {
		httputil.BadRequest(w, "missing or invalid cycle parameter")
		return
	}
	values, ok := s.session.ExtractionValues(number)
	if !ok {
		httputil.NotFound(w, "no such cycle")
		return
	}
	httputil.WriteJSONOK(w, values)
}
