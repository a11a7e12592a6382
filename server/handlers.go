package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	swimdata "github.com/PeterK-end/swim-data-analyser"
	"github.com/PeterK-end/swim-data-analyser/store"
)

type sessionResponse struct {
	SessionID    string             `json:"session_id"`
	Document     *swimdata.Document `json:"document"`
	Warnings     []string           `json:"warnings,omitempty"`
	RecordStride int                `json:"record_stride,omitempty"`
}

type analysisResponse struct {
	Summary   swimdata.Summary    `json:"summary"`
	Intervals []swimdata.Interval `json:"intervals"`
	BestTimes []swimdata.BestTime `json:"best_times"`
}

type selectionRequest struct {
	Indices []int  `json:"indices"`
	Index   *int   `json:"index,omitempty"`
	Stroke  string `json:"stroke,omitempty"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

func (s *Server) defaultData(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write(swimdata.DefaultDocumentJSON())

	return err
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, hdr, err := r.FormFile("file")
	if err != nil {
		return badRequest("No file part", err)
	}
	defer file.Close()

	if hdr.Filename == "" {
		return badRequest("No selected file", fmt.Errorf("empty file name"))
	}

	if !strings.EqualFold(filepath.Ext(hdr.Filename), ".fit") {
		return badRequest("Invalid file type", errBadExtension)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return badRequest("Failed to read file", err)
	}

	doc, report, err := swimdata.Decode(data)
	if err != nil {
		return err
	}

	if !doc.IsPoolSwim() {
		return badRequest("Not a pool swim", errNotSwim)
	}

	return s.startSession(w, doc, hdr.Filename, report.Warnings())
}

// createSession starts an edit session from a document posted as JSON, for
// example the default data.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) error {
	doc, err := s.readDocument(w, r)
	if err != nil {
		return err
	}

	return s.startSession(w, doc, "", nil)
}

func (s *Server) startSession(w http.ResponseWriter, doc *swimdata.Document, name string, warnings []string) error {
	reduced, stride, err := swimdata.Reduce(doc, s.cfg.MaxDocumentBytes)
	if err != nil {
		return err
	}

	if stride > 1 {
		warnings = append(warnings, fmt.Sprintf("large file: keeping one record in %d", stride))
	}

	e := swimdata.NewEditor(reduced)
	rec := &store.Record{
		ID:         uuid.NewString(),
		SourceName: name,
		Original:   e.Original(),
		Current:    e.Document(),
	}
	if err := s.store.Save(rec); err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID:    rec.ID,
		Document:     rec.Current,
		Warnings:     warnings,
		RecordStride: stride,
	})

	return nil
}

func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*swimdata.Document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, badRequest("Failed to read body", err)
	}

	doc, err := swimdata.ParseDocument(body)
	if err != nil {
		return nil, badRequest("Invalid JSON", err)
	}

	return doc, nil
}

func (s *Server) encodeObject(w http.ResponseWriter, r *http.Request) error {
	doc, err := s.readDocument(w, r)
	if err != nil {
		return err
	}

	return s.writeFIT(w, doc)
}

func (s *Server) writeFIT(w http.ResponseWriter, doc *swimdata.Document) error {
	data, err := swimdata.Encode(doc, swimdata.EncodeOptions{TempDir: s.tmp, Now: s.now})
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="activity.fit"`)
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)

	return err
}

// loadSession fetches a stored session with its session totals recomputed
// from the current lengths.
func (s *Server) loadSession(r *http.Request) (*store.Record, error) {
	rec, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		return nil, err
	}

	swimdata.RefreshAggregates(rec.Current)

	return rec, nil
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) error {
	rec, err := s.loadSession(r)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, sessionResponse{SessionID: rec.ID, Document: rec.Current})

	return nil
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")

	unlock := s.locks.lock(id)
	err := s.store.Delete(id)
	unlock()

	if err != nil {
		return err
	}

	s.locks.forget(id)
	w.WriteHeader(http.StatusNoContent)

	return nil
}

// edit runs fn against the stored session under its lock and persists the
// result. A failing fn leaves the stored session as it was.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(*swimdata.Editor, selectionRequest) error) error {
	id := r.PathValue("id")

	var req selectionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil && err != io.EOF {
			return badRequest("Invalid JSON", err)
		}
	}

	unlock := s.locks.lock(id)
	defer unlock()

	rec, err := s.store.Get(id)
	if err != nil {
		return err
	}

	e := swimdata.RestoreEditor(rec.Current, rec.Original)
	if err := fn(e, req); err != nil {
		return err
	}

	rec.Current = e.Document()
	if err := s.store.Save(rec); err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, sessionResponse{SessionID: rec.ID, Document: rec.Current})

	return nil
}

func (s *Server) merge(w http.ResponseWriter, r *http.Request) error {
	return s.edit(w, r, func(e *swimdata.Editor, req selectionRequest) error {
		return e.Merge(req.Indices)
	})
}

func (s *Server) split(w http.ResponseWriter, r *http.Request) error {
	return s.edit(w, r, func(e *swimdata.Editor, req selectionRequest) error {
		switch {
		case req.Index != nil:
			return e.Split(*req.Index)
		case len(req.Indices) == 1:
			return e.Split(req.Indices[0])
		case len(req.Indices) == 0:
			return swimdata.ErrEmptySelection
		default:
			return badRequest("Invalid selection", fmt.Errorf("split takes one index, got %d", len(req.Indices)))
		}
	})
}

func (s *Server) restroke(w http.ResponseWriter, r *http.Request) error {
	return s.edit(w, r, func(e *swimdata.Editor, req selectionRequest) error {
		return e.Restroke(req.Indices, req.Stroke)
	})
}

func (s *Server) deleteLengths(w http.ResponseWriter, r *http.Request) error {
	return s.edit(w, r, func(e *swimdata.Editor, req selectionRequest) error {
		return e.DeleteLengths(req.Indices)
	})
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) error {
	return s.edit(w, r, func(e *swimdata.Editor, _ selectionRequest) error {
		return e.Undo()
	})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) error {
	rec, err := s.loadSession(r)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, analysisResponse{
		Summary:   swimdata.Summarize(rec.Current),
		Intervals: swimdata.Intervals(rec.Current),
		BestTimes: swimdata.BestTimes(rec.Current),
	})

	return nil
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) error {
	rec, err := s.loadSession(r)
	if err != nil {
		return err
	}

	return s.writeFIT(w, rec.Current)
}
