package camara

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"deputados/internal/core"
	"deputados/internal/log"
)

// ExpensePageSize is the fixed page size requested for monthly expenses.
const ExpensePageSize = 100

// Request identifies one upstream call. Path is relative to the API base URL.
type Request struct {
	Op    string
	Path  string
	Query url.Values
}

// Key is a stable identifier for the request, used for memoization.
func (r Request) Key() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

func SearchDeputiesRequest(name string) Request {
	q := url.Values{}
	if name = strings.TrimSpace(name); name != "" {
		q.Set("nome", name)
	}
	q.Set("ordem", "ASC")
	q.Set("ordenarPor", "nome")
	return Request{Op: log.OpSearch, Path: "/deputados", Query: q}
}

func DeputyRequest(id int) (Request, error) {
	if id <= 0 {
		return Request{}, core.ValidationError(log.OpDeputy, fmt.Errorf("%w: %d", core.ErrInvalidDeputyID, id))
	}
	return Request{Op: log.OpDeputy, Path: "/deputados/" + strconv.Itoa(id)}, nil
}

// ExpensesRequest asks for one month of expenses, newest document first.
func ExpensesRequest(deputyID, year, month int) (Request, error) {
	switch {
	case deputyID <= 0:
		return Request{}, core.ValidationError(log.OpExpenses, fmt.Errorf("%w: %d", core.ErrInvalidDeputyID, deputyID))
	case year < 1:
		return Request{}, core.ValidationError(log.OpExpenses, fmt.Errorf("%w: %d", core.ErrInvalidYear, year))
	case month < 1 || month > 12:
		return Request{}, core.ValidationError(log.OpExpenses, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month))
	}
	q := url.Values{}
	q.Set("ano", strconv.Itoa(year))
	q.Set("mes", strconv.Itoa(month))
	q.Set("itens", strconv.Itoa(ExpensePageSize))
	q.Set("ordem", "DESC")
	q.Set("ordenarPor", "dataDocumento")
	return Request{Op: log.OpExpenses, Path: "/deputados/" + strconv.Itoa(deputyID) + "/despesas", Query: q}, nil
}

// VotesRequest lists votes, most recently registered first.
func VotesRequest() Request {
	q := url.Values{}
	q.Set("ordem", "DESC")
	q.Set("ordenarPor", "dataHoraRegistro")
	return Request{Op: log.OpVotes, Path: "/votacoes", Query: q}
}
