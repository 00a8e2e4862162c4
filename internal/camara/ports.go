package camara

import (
	"context"

	"deputados/internal/core"
)

// Ports for the open-data API. Client talks to the real service; the memory
// store backs tests.
type (
	DeputySearcher interface {
		// SearchDeputies returns deputies whose name contains name. No match is
		// an empty list, not an error.
		SearchDeputies(ctx context.Context, name string) ([]core.DeputySummary, error)
		ListDeputies(ctx context.Context) ([]core.DeputySummary, error)
	}

	DeputyReader interface {
		GetDeputy(ctx context.Context, id int) (core.DeputyDetail, error)
	}

	// ExpenseLister returns one month of a deputy's expenses.
	ExpenseLister interface {
		ListExpenses(ctx context.Context, deputyID, year, month int) ([]core.Expense, error)
	}

	VoteLister interface {
		ListVotes(ctx context.Context) ([]core.Vote, error)
	}

	// Passthrough fetches the upstream body for req without decoding it.
	Passthrough interface {
		Raw(ctx context.Context, req Request) ([]byte, error)
	}

	Source interface {
		DeputySearcher
		DeputyReader
		ExpenseLister
		VoteLister
		Passthrough
	}
)
