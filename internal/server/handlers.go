package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nmcanvas/pkg/buildinfo"
	"github.com/matzehuels/nmcanvas/pkg/canvas"
	"github.com/matzehuels/nmcanvas/pkg/diff"
	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/httputil"
	"github.com/matzehuels/nmcanvas/pkg/ops"
	"github.com/matzehuels/nmcanvas/pkg/render/nodelink"
	"github.com/matzehuels/nmcanvas/pkg/snapshot"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Build     buildinfo.Info `json:"build"`
	Snapshots string         `json:"snapshots"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, healthResponse{
		Status:    "ok",
		Build:     buildinfo.Get(),
		Snapshots: canvas.Backend(s.contract.Snapshots),
	})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.contract.LoadModel(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, g)
}

func (s *Server) handleGraphDOT(w http.ResponseWriter, r *http.Request) {
	g, err := s.contract.LoadModel(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(nodelink.ToDOT(g, nodelink.Options{Detailed: detailed})))
}

// operationsRequest accepts {"operations": [...]}. A bare array is accepted
// too.
type operationsRequest struct {
	Operations []ops.Operation `json:"operations"`
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	batch, err := decodeBatch(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	var res *canvas.SaveResult
	if dryRun {
		res, err = s.contract.Preview(r.Context(), batch)
	} else {
		s.saveMu.Lock()
		res, err = s.contract.SaveModel(r.Context(), batch)
		s.saveMu.Unlock()
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, res)
}

func decodeBatch(r *http.Request) ([]ops.Operation, error) {
	var raw json.RawMessage
	if err := httputil.DecodeJSON(r, &raw); err != nil {
		return nil, err
	}

	var batch []ops.Operation
	switch trimmed := bytes.TrimSpace(raw); {
	case bytes.HasPrefix(trimmed, []byte("[")):
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode operations")
		}
	case bytes.HasPrefix(trimmed, []byte("{")):
		var req operationsRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode operations")
		}
		batch = req.Operations
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, `request body must be an operation array or {"operations": [...]}`)
	}
	return batch, nil
}

type diffRequest struct {
	Base    string `json:"base"`
	Head    string `json:"head"`
	Details bool   `json:"details"`
}

type diffResponse struct {
	Base    string         `json:"base"`
	Head    string         `json:"head"`
	Summary map[string]int `json:"summary"`
	Changes []diff.Result  `json:"changes"`
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var req diffRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Base == "" || req.Head == "" {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "both base and head are required"))
		return
	}
	if !isServedRef(req.Base) || !isServedRef(req.Head) {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "refs must be %q or %q<hash>", canvas.RefModel, snapshot.RefPrefix))
		return
	}

	base, err := s.contract.LoadRef(r.Context(), req.Base)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	head, err := s.contract.LoadRef(r.Context(), req.Head)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	changes := s.contract.GetDiffWithOptions(r.Context(), base, head, diff.Options{Details: req.Details})
	summary := make(map[string]int)
	for t, n := range diff.Summary(changes) {
		summary[string(t)] = n
	}
	s.respond(w, r, http.StatusOK, diffResponse{Base: req.Base, Head: req.Head, Summary: summary, Changes: changes})
}

// isServedRef limits HTTP clients to the model and snapshots; file paths
// would expose the server's filesystem.
func isServedRef(ref string) bool {
	if ref == canvas.RefModel {
		return true
	}
	_, ok := snapshot.ParseRef(ref)
	return ok
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	entries, err := s.contract.Snapshots.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []snapshot.Entry{}
	}
	s.respond(w, r, http.StatusOK, entries)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	g, err := s.contract.LoadRef(r.Context(), snapshot.RefPrefix+chi.URLParam(r, "hash"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, g)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := httputil.WriteJSON(w, status, v); err != nil {
		s.logger.Warn("write response", "err", err, "request_id", RequestIDFromContext(r.Context()))
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httputil.StatusFor(errors.GetCode(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err, "request_id", RequestIDFromContext(r.Context()))
	}
	if werr := httputil.WriteError(w, err); werr != nil {
		s.logger.Warn("write error response", "err", werr)
	}
}
