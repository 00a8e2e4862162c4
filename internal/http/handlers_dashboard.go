package http

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"deputados/internal/core"
	"deputados/internal/expenses"
	"deputados/internal/format"
	"deputados/internal/log"
)

type (
	monthView struct {
		Month     int             `json:"mes"`
		Label     string          `json:"rotulo"`
		Total     decimal.Decimal `json:"total"`
		Formatted string          `json:"totalFormatado"`
	}

	categoryView struct {
		Category  string          `json:"tipoDespesa"`
		Total     decimal.Decimal `json:"total"`
		Formatted string          `json:"totalFormatado"`
	}

	dashboardView struct {
		DeputyID     int             `json:"idDeputado"`
		Year         int             `json:"ano"`
		Total        decimal.Decimal `json:"total"`
		Formatted    string          `json:"totalFormatado"`
		Count        int             `json:"quantidade"`
		ByMonth      []monthView     `json:"porMes"`
		ByCategory   []categoryView  `json:"porTipo"`
		Principal    *categoryView   `json:"tipoPrincipal"`
		FailedMonths []int           `json:"mesesComFalha"`
		Complete     bool            `json:"completo"`
	}
)

func newDashboardView(s expenses.Summary) dashboardView {
	v := dashboardView{
		DeputyID:     s.DeputyID,
		Year:         s.Year,
		Total:        s.Total,
		Formatted:    format.BRL(s.Total),
		Count:        s.Count,
		ByMonth:      make([]monthView, 0, len(s.ByMonth)),
		ByCategory:   make([]categoryView, 0, len(s.ByCategory)),
		FailedMonths: s.FailedMonths,
		Complete:     s.Complete,
	}
	for _, m := range s.ByMonth {
		v.ByMonth = append(v.ByMonth, monthView{
			Month:     m.Month,
			Label:     format.MonthAbbr(m.Month),
			Total:     m.Total,
			Formatted: format.BRL(m.Total),
		})
	}
	for _, c := range s.ByCategory {
		v.ByCategory = append(v.ByCategory, newCategoryView(c))
	}
	if s.HasPrincipal {
		p := newCategoryView(s.Principal)
		v.Principal = &p
	}
	return v
}

func newCategoryView(c core.CategoryTotal) categoryView {
	return categoryView{Category: c.Category, Total: c.Total, Formatted: format.BRL(c.Total)}
}

// handleDashboard fetches every elapsed month of ?ano= (default: this year)
// and returns the aggregated view. Months that failed upstream are listed in
// mesesComFalha and left out of the totals.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, err := parseDeputyID(r, log.OpSummarize)
	if err != nil {
		s.failUpstream(w, r, err, log.OpSummarize, "Invalid deputy id")
		return
	}

	now := s.fetcher.Now()
	year, err := optionalInt(r.URL.Query(), "ano", now.Year(), log.OpSummarize)
	if err == nil && (year < 1 || year > now.Year()) {
		err = core.ValidationError(log.OpSummarize, fmt.Errorf("%w: %d", core.ErrInvalidYear, year))
	}
	if err != nil {
		s.failUpstream(w, r, err, log.OpSummarize, "Invalid parameters")
		return
	}

	result := s.fetcher.FetchYear(r.Context(), id, year)
	summary := expenses.Summarize(result)
	if result.AllFailed() {
		s.logger.WarnContext(r.Context(), "Every month failed for dashboard",
			log.FieldDeputyID, id,
			log.FieldYear, year)
	}
	writeJSON(w, r, http.StatusOK, core.Envelope[dashboardView]{Data: newDashboardView(summary)})
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, core.Envelope[[]int]{Data: expenses.Years(s.fetcher.Now(), s.yearsBack)})
}
