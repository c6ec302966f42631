package invoice

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/payment"
)

const (
	abrasfNamespace = "http://www.abrasf.org.br/nfse.xsd"
	abrasfVersion   = "2.04"
	rpsSeries       = "NFS"
)

// AbrasfData is the data of one RPS (recibo provisório de serviços) sent in an
// EnviarLoteRpsEnvio batch.
type AbrasfData struct {
	BatchNumber           string
	RpsNumber             string
	IssueDate             time.Time
	ProviderCNPJ          string
	MunicipalRegistration string
	MunicipalityCode      string
	Amount                decimal.Decimal
	ISSRate               decimal.Decimal
	ServiceCode           string
	ServiceDescription    string
	PayerName             string
	PayerDocument         string
	PayerEmail            string
	PayerAddress          payment.Address
}

// NewAbrasfData maps an issued invoice and its transaction to ABRASF request data.
func NewAbrasfData(conf core.InvoiceConfig, tx payment.Transaction, inv Invoice) AbrasfData {
	number := strings.TrimPrefix(inv.Number, "NFS-")
	return AbrasfData{
		BatchNumber:           number,
		RpsNumber:             number,
		IssueDate:             inv.CreatedAt,
		ProviderCNPJ:          conf.ProviderCNPJ,
		MunicipalRegistration: conf.MunicipalRegistration,
		MunicipalityCode:      conf.MunicipalityCode,
		Amount:                inv.Amount,
		ISSRate:               conf.ISSRate,
		ServiceCode:           conf.ServiceCode,
		ServiceDescription:    inv.Description,
		PayerName:             inv.PayerName,
		PayerDocument:         tx.PayerDocument,
		PayerEmail:            tx.PayerEmail,
		PayerAddress:          tx.PayerAddress,
	}
}

type (
	enviarLoteRpsEnvio struct {
		XMLName xml.Name `xml:"EnviarLoteRpsEnvio"`
		Xmlns   string   `xml:"xmlns,attr"`
		LoteRps loteRps  `xml:"LoteRps"`
	}

	loteRps struct {
		ID                 string  `xml:"Id,attr"`
		Versao             string  `xml:"versao,attr"`
		NumeroLote         string  `xml:"NumeroLote"`
		CpfCnpj            cpfCnpj `xml:"CpfCnpj"`
		InscricaoMunicipal string  `xml:"InscricaoMunicipal"`
		QuantidadeRps      int     `xml:"QuantidadeRps"`
		ListaRps           []rps   `xml:"ListaRps>Rps"`
	}

	rps struct {
		InfDeclaracaoPrestacaoServico infDeclaracao `xml:"InfDeclaracaoPrestacaoServico"`
	}

	infDeclaracao struct {
		ID                     string    `xml:"Id,attr"`
		Rps                    infRps    `xml:"Rps"`
		Competencia            string    `xml:"Competencia"`
		Servico                servico   `xml:"Servico"`
		Prestador              prestador `xml:"Prestador"`
		Tomador                tomador   `xml:"Tomador"`
		OptanteSimplesNacional int       `xml:"OptanteSimplesNacional"`
		IncentivoFiscal        int       `xml:"IncentivoFiscal"`
	}

	infRps struct {
		IdentificacaoRps identificacaoRps `xml:"IdentificacaoRps"`
		DataEmissao      string           `xml:"DataEmissao"`
		Status           int              `xml:"Status"`
	}

	identificacaoRps struct {
		Numero string `xml:"Numero"`
		Serie  string `xml:"Serie"`
		Tipo   int    `xml:"Tipo"`
	}

	servico struct {
		Valores          valores `xml:"Valores"`
		IssRetido        int     `xml:"IssRetido"`
		ItemListaServico string  `xml:"ItemListaServico"`
		Discriminacao    string  `xml:"Discriminacao"`
		CodigoMunicipio  string  `xml:"CodigoMunicipio"`
		ExigibilidadeISS int     `xml:"ExigibilidadeISS"`
	}

	valores struct {
		ValorServicos string `xml:"ValorServicos"`
		ValorIss      string `xml:"ValorIss"`
		Aliquota      string `xml:"Aliquota"`
	}

	prestador struct {
		CpfCnpj            cpfCnpj `xml:"CpfCnpj"`
		InscricaoMunicipal string  `xml:"InscricaoMunicipal"`
	}

	tomador struct {
		IdentificacaoTomador *identificacaoTomador `xml:"IdentificacaoTomador,omitempty"`
		RazaoSocial          string                `xml:"RazaoSocial"`
		Endereco             *endereco             `xml:"Endereco,omitempty"`
		Contato              *contato              `xml:"Contato,omitempty"`
	}

	identificacaoTomador struct {
		CpfCnpj cpfCnpj `xml:"CpfCnpj"`
	}

	cpfCnpj struct {
		Cpf  string `xml:"Cpf,omitempty"`
		Cnpj string `xml:"Cnpj,omitempty"`
	}

	endereco struct {
		Endereco        string `xml:"Endereco"`
		Numero          string `xml:"Numero"`
		Complemento     string `xml:"Complemento,omitempty"`
		Bairro          string `xml:"Bairro"`
		CodigoMunicipio string `xml:"CodigoMunicipio"`
		Uf              string `xml:"Uf"`
		Cep             string `xml:"Cep"`
	}

	contato struct {
		Email string `xml:"Email"`
	}
)

func newCpfCnpj(doc string) cpfCnpj {
	doc = core.OnlyDigits(doc)
	if len(doc) == 11 {
		return cpfCnpj{Cpf: doc}
	}
	return cpfCnpj{Cnpj: doc}
}

// GenerateAbrasfXML renders data as an ABRASF EnviarLoteRpsEnvio document.
// Amounts use a comma decimal separator ("1234,50") and the ISS rate 4 decimals ("0,0200").
// Free-text fields are XML-escaped.
func GenerateAbrasfXML(data AbrasfData) (string, error) {
	issValue := data.Amount.Mul(data.ISSRate).Round(2)

	toma := tomador{RazaoSocial: data.PayerName}
	if doc := core.OnlyDigits(data.PayerDocument); doc != "" {
		toma.IdentificacaoTomador = &identificacaoTomador{CpfCnpj: newCpfCnpj(doc)}
	}
	if addr := data.PayerAddress; !addr.IsEmpty() {
		toma.Endereco = &endereco{
			Endereco:        addr.Street,
			Numero:          addr.Number,
			Complemento:     addr.Complement,
			Bairro:          addr.District,
			CodigoMunicipio: addr.CityCode,
			Uf:              addr.State,
			Cep:             core.OnlyDigits(addr.ZipCode),
		}
	}
	if data.PayerEmail != "" {
		toma.Contato = &contato{Email: data.PayerEmail}
	}

	doc := enviarLoteRpsEnvio{
		Xmlns: abrasfNamespace,
		LoteRps: loteRps{
			ID:                 "lote" + data.BatchNumber,
			Versao:             abrasfVersion,
			NumeroLote:         data.BatchNumber,
			CpfCnpj:            newCpfCnpj(data.ProviderCNPJ),
			InscricaoMunicipal: data.MunicipalRegistration,
			QuantidadeRps:      1,
			ListaRps: []rps{{
				InfDeclaracaoPrestacaoServico: infDeclaracao{
					ID: "rps" + data.RpsNumber,
					Rps: infRps{
						IdentificacaoRps: identificacaoRps{Numero: data.RpsNumber, Serie: rpsSeries, Tipo: 1},
						DataEmissao:      data.IssueDate.Format("2006-01-02"),
						Status:           1,
					},
					Competencia: data.IssueDate.Format("2006-01-02"),
					Servico: servico{
						Valores: valores{
							ValorServicos: core.FormatDecimal(data.Amount, 2),
							ValorIss:      core.FormatDecimal(issValue, 2),
							Aliquota:      core.FormatDecimal(data.ISSRate, 4),
						},
						IssRetido:        2, // não retido
						ItemListaServico: data.ServiceCode,
						Discriminacao:    data.ServiceDescription,
						CodigoMunicipio:  data.MunicipalityCode,
						ExigibilidadeISS: 1, // exigível
					},
					Prestador: prestador{
						CpfCnpj:            newCpfCnpj(data.ProviderCNPJ),
						InscricaoMunicipal: data.MunicipalRegistration,
					},
					Tomador:                toma,
					OptanteSimplesNacional: 2,
					IncentivoFiscal:        2,
				},
			}},
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshalling EnviarLoteRpsEnvio")
	}
	return xml.Header + string(out), nil
}
