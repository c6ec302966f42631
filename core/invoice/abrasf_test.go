package invoice

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fotoescola/core/payment"
)

func abrasfData() AbrasfData {
	return AbrasfData{
		BatchNumber:           "202412345",
		RpsNumber:             "202412345",
		IssueDate:             time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC),
		ProviderCNPJ:          "11222333000181",
		MunicipalRegistration: "1234567",
		MunicipalityCode:      "3550308",
		Amount:                decimal.RequireFromString("1234.5"),
		ISSRate:               decimal.RequireFromString("0.02"),
		ServiceCode:           "8.02",
		ServiceDescription:    "Curso de Fotografia Básica",
		PayerName:             "Carlos Silva",
		PayerDocument:         "529.982.247-25",
		PayerEmail:            "carlos@example.com",
		PayerAddress: payment.Address{
			Street:   "Rua Augusta",
			Number:   "100",
			District: "Consolação",
			City:     "São Paulo",
			CityCode: "3550308",
			State:    "SP",
			ZipCode:  "01305-000",
		},
	}
}

func TestGenerateAbrasfXML(t *testing.T) {
	out, err := GenerateAbrasfXML(abrasfData())
	require.NoError(t, err)

	for _, want := range []string{
		xml.Header,
		`<EnviarLoteRpsEnvio xmlns="http://www.abrasf.org.br/nfse.xsd">`,
		"<ValorServicos>1234,50</ValorServicos>",
		"<Aliquota>0,0200</Aliquota>",
		"<ValorIss>24,69</ValorIss>",
		"<Cnpj>11222333000181</Cnpj>",
		"<Cpf>52998224725</Cpf>",
		"<RazaoSocial>Carlos Silva</RazaoSocial>",
		"<Cep>01305000</Cep>",
		"<DataEmissao>2024-03-05</DataEmissao>",
		"<ItemListaServico>8.02</ItemListaServico>",
		"<Email>carlos@example.com</Email>",
	} {
		assert.Contains(t, out, want)
	}
}

func TestGenerateAbrasfXML_minimalPayer(t *testing.T) {
	data := abrasfData()
	data.PayerDocument = ""
	data.PayerEmail = ""
	data.PayerAddress = payment.Address{}

	out, err := GenerateAbrasfXML(data)
	require.NoError(t, err)
	assert.NotContains(t, out, "<IdentificacaoTomador>")
	assert.NotContains(t, out, "<Endereco>")
	assert.NotContains(t, out, "<Contato>")
}

func TestGenerateAbrasfXML_escaping(t *testing.T) {
	data := abrasfData()
	data.PayerName = `Silva & Filhos <Fotografia> "Ltda"`
	data.ServiceDescription = "Workshop <Luz & Sombra>"

	out, err := GenerateAbrasfXML(data)
	require.NoError(t, err)
	assert.Contains(t, out, "Silva &amp; Filhos &lt;Fotografia&gt;")
	assert.Contains(t, out, "Workshop &lt;Luz &amp; Sombra&gt;")

	// the document must stay well-formed
	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error())
			break
		}
	}

	var parsed struct {
		Tomador string `xml:"LoteRps>ListaRps>Rps>InfDeclaracaoPrestacaoServico>Tomador>RazaoSocial"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, data.PayerName, parsed.Tomador)
}
