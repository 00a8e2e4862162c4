package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// DeputySummary is one row of a deputy search or listing.
	DeputySummary struct {
		ID            int    `json:"id"`
		URI           string `json:"uri,omitempty"`
		Name          string `json:"nome"`
		Party         string `json:"siglaPartido"`
		State         string `json:"siglaUf"`
		LegislatureID int    `json:"idLegislatura,omitempty"`
		PhotoURL      string `json:"urlFoto"`
		Email         string `json:"email,omitempty"`
	}

	Office struct {
		Name     string  `json:"nome"`
		Building string  `json:"predio"`
		Room     string  `json:"sala"`
		Floor    *string `json:"andar"`
		Phone    string  `json:"telefone"`
		Email    *string `json:"email"`
	}

	// Status is the deputy's current mandate status ("ultimoStatus" upstream).
	Status struct {
		ID                 int     `json:"id"`
		Name               string  `json:"nome"`
		Party              string  `json:"siglaPartido"`
		State              string  `json:"siglaUf"`
		PhotoURL           string  `json:"urlFoto"`
		Email              *string `json:"email"`
		ElectoralName      string  `json:"nomeEleitoral"`
		Office             Office  `json:"gabinete"`
		Situation          string  `json:"situacao"`
		ElectoralCondition string  `json:"condicaoEleitoral"`
	}

	DeputyDetail struct {
		ID                int      `json:"id"`
		CivilName         string   `json:"nomeCivil"`
		Status            Status   `json:"ultimoStatus"`
		BirthDate         string   `json:"dataNascimento"`
		BirthState        string   `json:"ufNascimento"`
		BirthMunicipality string   `json:"municipioNascimento"`
		Education         *string  `json:"escolaridade"`
		SocialMedia       []string `json:"redeSocial"`
	}

	// Expense is one reimbursement claim. All aggregates use NetValue.
	Expense struct {
		Year             int             `json:"ano"`
		Month            int             `json:"mes"`
		Type             string          `json:"tipoDespesa"`
		DocumentCode     int64           `json:"codDocumento"`
		DocumentType     string          `json:"tipoDocumento"`
		DocumentTypeCode int             `json:"codTipoDocumento"`
		DocumentDate     string          `json:"dataDocumento"`
		DocumentNumber   string          `json:"numDocumento"`
		GrossValue       decimal.Decimal `json:"valorDocumento"`
		DocumentURL      string          `json:"urlDocumento"`
		SupplierName     string          `json:"nomeFornecedor"`
		SupplierTaxID    string          `json:"cnpjCpfFornecedor"`
		NetValue         decimal.Decimal `json:"valorLiquido"`
		WriteOffValue    decimal.Decimal `json:"valorGlosa"`
		ReimbursementNum string          `json:"numRessarcimento"`
		BatchCode        int64           `json:"codLote"`
		Installment      int             `json:"parcela"`
	}

	Vote struct {
		ID           string   `json:"id"`
		URI          string   `json:"uri,omitempty"`
		Date         string   `json:"data"`
		RegisteredAt string   `json:"dataHoraRegistro"`
		Body         string   `json:"siglaOrgao,omitempty"`
		Description  string   `json:"descricao"`
		Approval     Approval `json:"aprovacao"`
		Yes          int      `json:"placarSim,omitempty"`
		No           int      `json:"placarNao,omitempty"`
		Abstentions  int      `json:"placarAbstencao,omitempty"`
	}

	// Approval is the pass/fail outcome of a vote. Upstream sends 1/0,
	// booleans or null depending on the endpoint.
	Approval struct {
		Known  bool
		Passed bool
	}

	// Envelope is the {"dados": ...} wrapper used by the upstream API.
	Envelope[T any] struct {
		Data T `json:"dados"`
	}

	ErrorBody struct {
		Error string `json:"error"`
	}
)

// Location renders the office location as shown on the deputy page.
func (o Office) Location() string {
	return fmt.Sprintf("%sº Andar, Sala %s", o.Building, o.Room)
}

func (a *Approval) UnmarshalJSON(b []byte) error {
	switch strings.TrimSpace(string(b)) {
	case "", "null":
		*a = Approval{}
	case "true", "1":
		*a = Approval{Known: true, Passed: true}
	case "false", "0":
		*a = Approval{Known: true, Passed: false}
	default:
		return fmt.Errorf("invalid aprovacao value %s", b)
	}
	return nil
}

func (a Approval) MarshalJSON() ([]byte, error) {
	switch {
	case !a.Known:
		return []byte("null"), nil
	case a.Passed:
		return []byte("true"), nil
	default:
		return []byte("false"), nil
	}
}
