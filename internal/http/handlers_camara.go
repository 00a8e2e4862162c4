package http

import (
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	"deputados/internal/cache"
	"deputados/internal/camara"
	"deputados/internal/core"
	"deputados/internal/log"
)

// passthrough fetches req and relays the upstream JSON body unchanged.
// Parameterless listings are served from the listing memo.
func (s *Server) passthrough(ctx context.Context, req camara.Request, memoize bool) ([]byte, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		body, err := s.source.Raw(ctx, req)
		if err != nil {
			return nil, err
		}
		if !json.Valid(body) {
			return nil, core.DecodeError(req.Op, fmt.Errorf("upstream body is not JSON"))
		}
		return body, nil
	}
	if !memoize {
		return fetch(ctx)
	}
	return cache.Memo[[]byte](ctx, s.listings, req.Key(), fetch)
}

// failUpstream logs err and answers with the status derived from it.
func (s *Server) failUpstream(w http.ResponseWriter, r *http.Request, err error, op, message string) {
	status := core.HTTPStatus(err)
	logger := log.FromContext(r.Context())
	level := logger.WarnContext
	if status >= http.StatusInternalServerError {
		level = logger.ErrorContext
	}
	level(r.Context(), "Request failed",
		log.FieldOperation, op,
		log.FieldErrorType, core.KindOf(err).String(),
		log.FieldStatusCode, status,
		log.FieldError, err)
	writeError(w, r, status, message)
}

func (s *Server) handleSearchDeputies(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("nome")
	req := camara.SearchDeputiesRequest(name)

	body, err := s.passthrough(r.Context(), req, req.Query.Get("nome") == "")
	if err != nil {
		s.failUpstream(w, r, err, log.OpSearch, "Failed to search deputies")
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (s *Server) handleDeputy(w http.ResponseWriter, r *http.Request) {
	id, err := parseDeputyID(r, log.OpDeputy)
	if err != nil {
		s.failUpstream(w, r, err, log.OpDeputy, "Invalid deputy id")
		return
	}
	req, err := camara.DeputyRequest(id)
	if err != nil {
		s.failUpstream(w, r, err, log.OpDeputy, "Invalid deputy id")
		return
	}

	body, err := s.passthrough(r.Context(), req, false)
	if err != nil {
		s.failUpstream(w, r, err, log.OpDeputy, "Failed to fetch deputy details")
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	id, year, month, err := expenseParams(r)
	if err != nil {
		message := "Invalid parameters"
		if isMissingParam(err) {
			message = "Missing required parameters"
		}
		s.failUpstream(w, r, err, log.OpExpenses, message)
		return
	}
	req, err := camara.ExpensesRequest(id, year, month)
	if err != nil {
		s.failUpstream(w, r, err, log.OpExpenses, "Invalid parameters")
		return
	}

	body, err := s.passthrough(r.Context(), req, false)
	if err != nil {
		message := "Erro interno ao buscar despesas"
		if status, ok := core.UpstreamStatus(err); ok {
			message = fmt.Sprintf("Erro da API da Câmara: status %d", status)
		}
		s.failUpstream(w, r, err, log.OpExpenses, message)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (s *Server) handleVotes(w http.ResponseWriter, r *http.Request) {
	body, err := s.passthrough(r.Context(), camara.VotesRequest(), true)
	if err != nil {
		s.failUpstream(w, r, err, log.OpVotes, "Failed to fetch voting data")
		return
	}
	writeRaw(w, http.StatusOK, body)
}
