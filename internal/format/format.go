// Package format renders values the way the dashboard shows them to a
// Brazilian audience.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

var monthAbbr = [12]string{"JAN", "FEV", "MAR", "ABR", "MAI", "JUN", "JUL", "AGO", "SET", "OUT", "NOV", "DEZ"}

var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// upstream timestamps carry no zone and are Brasília local time
var brasilia = loadBrasilia()

func loadBrasilia() *time.Location {
	if loc, err := time.LoadLocation("America/Sao_Paulo"); err == nil {
		return loc
	}
	return time.FixedZone("BRT", -3*60*60)
}

// BRL formats v as Brazilian reais, e.g. "R$ 1.234,56".
func BRL(v decimal.Decimal) string {
	v = v.Round(2)
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}
	return sign + "R$ " + printer.Sprint(number.Decimal(v.InexactFloat64(), number.Scale(2)))
}

// Integer formats n with pt-BR digit grouping.
func Integer(n int) string {
	return printer.Sprint(number.Decimal(n))
}

// MonthAbbr returns JAN..DEZ for months 1..12 and "" otherwise.
func MonthAbbr(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthAbbr[month-1]
}

var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp reads the date and timestamp shapes used by the open-data
// API. Values without a zone are taken as Brasília time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, brasilia); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Date renders an upstream date as dd/mm/yyyy. Unparseable input is returned
// unchanged.
func Date(s string) string {
	t, err := ParseTimestamp(s)
	if err != nil {
		return s
	}
	return t.In(brasilia).Format("02/01/2006")
}

// DateTime renders a vote timestamp as "14 de maio de 2024 às 19:35".
func DateTime(s string) string {
	t, err := ParseTimestamp(s)
	if err != nil {
		return s
	}
	t = t.In(brasilia)
	return fmt.Sprintf("%d de %s de %d às %s", t.Day(), monthNames[t.Month()-1], t.Year(), t.Format("15:04"))
}

// BadgeColors are the CSS classes of a party badge.
type BadgeColors struct {
	Background string `json:"bg"`
	Text       string `json:"text"`
}

var (
	red    = BadgeColors{"bg-red-100", "text-red-700"}
	yellow = BadgeColors{"bg-yellow-100", "text-yellow-800"}
	green  = BadgeColors{"bg-green-100", "text-green-700"}
	blue   = BadgeColors{"bg-blue-100", "text-blue-700"}
	orange = BadgeColors{"bg-orange-100", "text-orange-700"}
	pink   = BadgeColors{"bg-pink-100", "text-pink-700"}
	purple = BadgeColors{"bg-purple-100", "text-purple-700"}
	gray   = BadgeColors{"bg-gray-100", "text-gray-700"}
)

var partyColors = map[string]BadgeColors{
	"PT":            red,
	"PSOL":          red,
	"PCdoB":         red,
	"PDT":           red,
	"PSB":           yellow,
	"PV":            green,
	"REDE":          green,
	"PATRIOTA":      green,
	"PSC":           green,
	"MDB":           blue,
	"PSD":           blue,
	"UNIÃO":         blue,
	"PSDB":          blue,
	"PP":            blue,
	"REPUBLICANOS":  blue,
	"PL":            blue,
	"PODE":          blue,
	"NOVO":          orange,
	"AVANTE":        orange,
	"CIDADANIA":     pink,
	"SOLIDARIEDADE": pink,
	"PROS":          purple,
}

// PartyColors returns the badge colors for a party acronym, gray when unknown.
func PartyColors(party string) BadgeColors {
	if c, ok := partyColors[party]; ok {
		return c
	}
	return gray
}
