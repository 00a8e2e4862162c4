// Package report renders deputies and expense summaries as plain terminal
// text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"deputados/internal/core"
	"deputados/internal/expenses"
	"deputados/internal/format"
)

const barWidth = 30

var (
	title   = color.New(color.Bold).SprintFunc()
	failed  = color.New(color.FgRed).SprintFunc()
	muted   = color.New(color.Faint).SprintFunc()
	emphase = color.New(color.FgCyan, color.Bold).SprintFunc()
	passed  = color.New(color.FgGreen).SprintFunc()
)

// Terminal colors for the party badge color families.
var badgeAttributes = map[string]color.Attribute{
	"red":    color.FgRed,
	"yellow": color.FgYellow,
	"green":  color.FgGreen,
	"blue":   color.FgBlue,
	"orange": color.FgHiYellow,
	"pink":   color.FgHiMagenta,
	"purple": color.FgMagenta,
}

// badgeAttribute maps a party to the terminal color of its badge. Parties
// with the gray fallback badge have none.
func badgeAttribute(party string) (color.Attribute, bool) {
	text := strings.TrimPrefix(format.PartyColors(party).Text, "text-")
	family, _, _ := strings.Cut(text, "-")
	attr, ok := badgeAttributes[family]
	return attr, ok
}

// partyBadge renders "PARTY-UF" in the party's badge color.
func partyBadge(party, state string) string {
	label := party
	if state != "" {
		label += "-" + state
	}
	if attr, ok := badgeAttribute(party); ok {
		return color.New(attr, color.Bold).Sprint(label)
	}
	return muted(label)
}

// Deputies prints one line per deputy: id, name, party and state.
func Deputies(w io.Writer, deputies []core.DeputySummary) {
	if len(deputies) == 0 {
		fmt.Fprintln(w, muted("Nenhum deputado encontrado"))
		return
	}
	for _, d := range deputies {
		fmt.Fprintf(w, "%7d  %-40s %s\n", d.ID, d.Name, partyBadge(d.Party, d.State))
	}
}

// Deputy prints the header of a deputy report.
func Deputy(w io.Writer, d core.DeputyDetail) {
	fmt.Fprintln(w, title(d.Status.Name), partyBadge(d.Status.Party, d.Status.State))
	if d.CivilName != "" {
		fmt.Fprintf(w, "Nome civil: %s\n", d.CivilName)
	}
	if d.BirthDate != "" {
		fmt.Fprintf(w, "Nascimento: %s, %s-%s\n", format.Date(d.BirthDate), d.BirthMunicipality, d.BirthState)
	}
	if office := d.Status.Office; office.Room != "" {
		fmt.Fprintf(w, "Gabinete: %s, telefone %s\n", office.Location(), office.Phone)
	}
	fmt.Fprintln(w)
}

// Votes prints one block per vote: registration time, outcome, scores and
// description.
func Votes(w io.Writer, votes []core.Vote) {
	if len(votes) == 0 {
		fmt.Fprintln(w, muted("Nenhuma votação encontrada"))
		return
	}
	for _, v := range votes {
		when := format.Date(v.Date)
		if v.RegisteredAt != "" {
			when = format.DateTime(v.RegisteredAt)
		}
		fmt.Fprintf(w, "%s  %s\n", muted(when), outcome(v.Approval))
		fmt.Fprintf(w, "  %s\n", v.Description)
		if v.Yes+v.No+v.Abstentions > 0 {
			fmt.Fprintf(w, "  Sim %s  Não %s  Abstenção %s\n",
				format.Integer(v.Yes), format.Integer(v.No), format.Integer(v.Abstentions))
		}
		fmt.Fprintln(w)
	}
}

func outcome(a core.Approval) string {
	switch {
	case !a.Known:
		return muted("Sem resultado")
	case a.Passed:
		return passed("Aprovada")
	default:
		return failed("Rejeitada")
	}
}

// Summary prints the yearly total, a bar per month and the category
// breakdown.
func Summary(w io.Writer, s expenses.Summary) {
	fmt.Fprintf(w, "%s %d: %s (%s despesas)\n\n", title("Total de despesas"), s.Year, emphase(format.BRL(s.Total)), format.Integer(s.Count))

	failedSet := make(map[int]bool, len(s.FailedMonths))
	for _, m := range s.FailedMonths {
		failedSet[m] = true
	}

	peak := decimal.Zero
	for _, m := range s.ByMonth {
		if m.Total.GreaterThan(peak) {
			peak = m.Total
		}
	}

	fmt.Fprintln(w, title("Despesas por mês"))
	for _, m := range s.ByMonth {
		label := format.MonthAbbr(m.Month)
		if failedSet[m.Month] {
			fmt.Fprintf(w, "  %s %s\n", label, failed("indisponível"))
			continue
		}
		fmt.Fprintf(w, "  %s %-*s %s\n", label, barWidth, bar(m.Total, peak), format.BRL(m.Total))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, title("Despesas por tipo"))
	if len(s.ByCategory) == 0 {
		fmt.Fprintln(w, muted("  Sem dados disponíveis"))
	}
	for _, c := range s.ByCategory {
		fmt.Fprintf(w, "  %-16s %s\n", format.BRL(c.Total), c.Category)
	}

	if !s.Complete {
		fmt.Fprintln(w)
		fmt.Fprintln(w, failed(fmt.Sprintf("Atenção: %d mês(es) não puderam ser carregados; os totais estão incompletos.", len(s.FailedMonths))))
	}
}

// bar scales v against peak to at most barWidth blocks.
func bar(v, peak decimal.Decimal) string {
	if !peak.IsPositive() || !v.IsPositive() {
		return ""
	}
	n := int(v.Mul(decimal.NewFromInt(barWidth)).Div(peak).Round(0).IntPart())
	if n < 1 {
		n = 1
	}
	return strings.Repeat("█", n)
}
