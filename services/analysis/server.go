package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aahmdakml/MatkulBigdata/logger"
)

// maxBodyBytes bounds uploaded row files
const maxBodyBytes = 25 << 20

// response is the envelope of every endpoint
type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Raw   string      `json:"raw,omitempty"`
	Text  string      `json:"text,omitempty"`
	Meta  interface{} `json:"meta,omitempty"`
	Error string      `json:"error,omitempty"`
}

type rowsRequest struct {
	Rows   json.RawMessage `json:"rows"`
	Prompt string          `json:"prompt"`
	By     By              `json:"by"`
}

type askRequest struct {
	Prompt         string          `json:"prompt"`
	Data           json.RawMessage `json:"data"`
	ResponseAsJSON *bool           `json:"responseAsJson"`
}

type handler struct {
	svc *Service
	log *logger.Logger
}

// NewHandler routes the API:
//
//	POST /api/ingest-file        normalize uploaded rows
//	POST /api/analyze-sentiment  word cloud and sentiment of rows
//	POST /api/prompt             free prompt with optional JSON data
func NewHandler(svc *Service) http.Handler {
	h := &handler{svc: svc, log: logger.ForComponent("api")}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ingest-file", h.ingest)
	mux.HandleFunc("POST /api/analyze-sentiment", h.analyze)
	mux.HandleFunc("POST /api/prompt", h.ask)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{OK: true})
	})

	return withCORS(mux)
}

func (h *handler) ingest(w http.ResponseWriter, r *http.Request) {
	req, rows, ok := h.decodeRows(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Normalize(r.Context(), rows, req.Prompt)
	if err != nil {
		h.fail(w, "ingest", err)
		return
	}
	resp := response{OK: true, Raw: result.Raw, Meta: result.Meta}
	if result.Data != nil {
		resp.Data = result.Data
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	req, rows, ok := h.decodeRows(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Analyze(r.Context(), rows, req.By, req.Prompt)
	if err != nil {
		h.fail(w, "analyze", err)
		return
	}

	resp := response{OK: true, Raw: result.Raw}
	if result.Data != nil {
		resp.Data = result.Data
	}
	if result.Note != "" {
		resp.Meta = map[string]string{"note": result.Note}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: "invalid JSON body"})
		return
	}
	asJSON := req.ResponseAsJSON == nil || *req.ResponseAsJSON
	if string(req.Data) == "null" {
		req.Data = nil
	}

	result, err := h.svc.Ask(r.Context(), req.Prompt, req.Data, asJSON)
	if err != nil {
		h.fail(w, "prompt", err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Data: result.Data, Raw: result.Raw, Text: result.Text})
}

// decodeRows reads a body whose rows field must be a JSON array
func (h *handler) decodeRows(w http.ResponseWriter, r *http.Request) (rowsRequest, []interface{}, bool) {
	var req rowsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: "invalid JSON body"})
		return req, nil, false
	}

	var rows []interface{}
	if len(req.Rows) > 0 {
		if err := json.Unmarshal(req.Rows, &rows); err != nil {
			writeJSON(w, http.StatusBadRequest, response{Error: "`rows` must be an array"})
			return req, nil, false
		}
	}
	return req, rows, true
}

func (h *handler) fail(w http.ResponseWriter, endpoint string, err error) {
	h.log.Error().Err(err).Str("endpoint", endpoint).Msg("Request failed")
	writeJSON(w, http.StatusInternalServerError, response{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// withCORS lets the browser dashboard call the API from another origin
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Serve serves h on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, h http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.ForComponent("api").Info().Str("addr", addr).Msg("Serving analysis API")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
