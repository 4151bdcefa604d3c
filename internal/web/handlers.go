package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/ledgerrecon/internal/columns"
	"github.com/JonMunkholm/ledgerrecon/internal/core"
	"github.com/JonMunkholm/ledgerrecon/internal/export"
	"github.com/JonMunkholm/ledgerrecon/internal/indicators"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
	"github.com/JonMunkholm/ledgerrecon/internal/logging"
)

const (
	// multipartMemory is kept in memory before parts spill to disk.
	multipartMemory = 8 << 20

	// formOverhead allows for multipart boundaries and form fields on top of
	// the file itself.
	formOverhead = 1 << 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type healthResponse struct {
	Status       string             `json:"status"`
	Store        string             `json:"store"`
	Imports      core.LimiterStatus `json:"imports"`
	CachedScopes int                `json:"cachedScopes"`
}

// handleHealth reports store reachability and import load. An unreachable
// store answers 503 since imports would run degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:       "ok",
		Store:        "ok",
		Imports:      s.service.LimiterStatus(),
		CachedScopes: s.service.Cache().Len(),
	}
	status := http.StatusOK
	if err := s.service.Ping(r.Context()); err != nil {
		resp.Status, resp.Store = "degraded", "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Profiles())
}

// importResponse is the import result plus, for degraded imports, the
// user message explaining why nothing was saved.
type importResponse struct {
	*core.ImportResult
	Warning *core.UserMessage `json:"warning,omitempty"`
}

// handleImport imports one multipart file. A persisted import answers 201.
// A degraded import answers 200 with the unsaved entries and a warning.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: invalid multipart form: %v", core.ErrInvalidRequest, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form, err := s.readImportForm(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			s.respondError(w, r, core.ErrNoFile)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: read file part: %v", core.ErrInvalidRequest, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read %s: %w", header.Filename, err))
		return
	}

	req := core.ImportRequest{
		ClientID: form.ClientID,
		Period:   form.Period,
		FileName: header.Filename,
		Data:     data,
		Profile:  form.Profile,
		Clear:    form.Clear,
	}
	if len(form.Columns) > 0 {
		fields, err := columns.ParseFields(form.Columns)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
			return
		}
		req.Columns = fields
	}

	res, err := s.service.Import(r.Context(), req)
	if err != nil {
		if res == nil || !errors.Is(err, ledger.ErrPersistenceUnavailable) {
			s.respondError(w, r, err)
			return
		}
		msg := core.MapError(err)
		writeJSON(w, r, http.StatusOK, importResponse{ImportResult: res, Warning: &msg})
		return
	}
	writeJSON(w, r, http.StatusCreated, importResponse{ImportResult: res})
}

type entriesResponse struct {
	ClientID string         `json:"clientId"`
	Period   string         `json:"period,omitempty"`
	Count    int            `json:"count"`
	Entries  []ledger.Entry `json:"entries"`
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	q, err := s.readScope(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	entries, err := s.service.Entries(r.Context(), q.ClientID, q.Period)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	writeJSON(w, r, http.StatusOK, entriesResponse{
		ClientID: q.ClientID,
		Period:   q.Period,
		Count:    len(entries),
		Entries:  entries,
	})
}

type clearResponse struct {
	ClientID     string `json:"clientId"`
	Period       string `json:"period,omitempty"`
	RemovedCount int    `json:"removedCount"`
}

// handleClear deletes a period. Clearing every period of a client needs
// all=true so a missing period parameter cannot wipe the client.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	q, err := s.readScope(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if q.Period == "" && !q.All {
		s.respondError(w, r, fmt.Errorf("%w: period is required unless all=true", core.ErrInvalidRequest))
		return
	}

	removed, err := s.service.Clear(r.Context(), q.ClientID, q.Period)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, clearResponse{
		ClientID:     q.ClientID,
		Period:       q.Period,
		RemovedCount: removed,
	})
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	q, err := s.readScope(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ind, err := s.service.Indicators(r.Context(), q.ClientID, q.Period)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ind)
}

// handleExport downloads the entries and indicators as a workbook. The
// workbook is built in memory first so failures still answer JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q, err := s.readScope(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	entries, err := s.service.Entries(r.Context(), q.ClientID, q.Period)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, entries, indicators.Compute(entries)); err != nil {
		s.respondError(w, r, err)
		return
	}

	period := q.Period
	if period == "" {
		period = "all"
	}
	attachment(w, xlsxContentType, fmt.Sprintf("%s-%s.xlsx", q.ClientID, period))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("export write failed", "client_id", q.ClientID, "error", err)
	}
}
