package invoice

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	texttmpl "text/template"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/payment"
	appfs "github.com/trezcool/fotoescola/fs"
)

const (
	textTemplatePath = "assets/templates/invoice/receipt.txt"
	htmlTemplatePath = "assets/templates/invoice/receipt.gohtml"
)

// Renderer turns an issued invoice into human readable documents.
// Every document uses the same configured ISS rate as the ABRASF data.
type Renderer struct {
	conf core.InvoiceConfig
	text *texttmpl.Template
	html *htmltmpl.Template
}

func NewRenderer(conf core.InvoiceConfig) (*Renderer, error) {
	text, err := texttmpl.ParseFS(appfs.FS, textTemplatePath)
	if err != nil {
		return nil, errors.Wrap(err, "parsing text receipt")
	}
	html, err := htmltmpl.ParseFS(appfs.FS, htmlTemplatePath)
	if err != nil {
		return nil, errors.Wrap(err, "parsing html receipt")
	}
	return &Renderer{conf: conf, text: text, html: html}, nil
}

type receipt struct {
	Number        string
	IssueDate     string
	TransactionID string

	ProviderName          string
	ProviderCNPJ          string
	MunicipalRegistration string
	City                  string
	ServiceCode           string

	PayerName     string
	PayerDocument string
	PayerEmail    string
	Description   string

	ServiceValue string
	ISSRate      string
	ISSValue     string
	Total        string
}

func (r *Renderer) receipt(tx payment.Transaction, inv Invoice) receipt {
	var doc string
	if tx.PayerDocument != "" {
		doc = core.FormatDocument(tx.PayerDocument)
	}
	return receipt{
		Number:                inv.Number,
		IssueDate:             inv.IssueDate,
		TransactionID:         inv.TransactionID,
		ProviderName:          r.conf.ProviderName,
		ProviderCNPJ:          core.FormatDocument(r.conf.ProviderCNPJ),
		MunicipalRegistration: r.conf.MunicipalRegistration,
		City:                  r.conf.City,
		ServiceCode:           r.conf.ServiceCode,
		PayerName:             inv.PayerName,
		PayerDocument:         doc,
		PayerEmail:            tx.PayerEmail,
		Description:           inv.Description,
		ServiceValue:          core.FormatBRL(inv.Amount),
		ISSRate:               core.Percent(r.conf.ISSRate),
		ISSValue:              core.FormatBRL(inv.Amount.Mul(r.conf.ISSRate).Round(2)),
		Total:                 core.FormatBRL(inv.Amount),
	}
}

// RenderText renders the plain-text receipt, the content of Nota_Fiscal_<number>.txt.
func (r *Renderer) RenderText(tx payment.Transaction, inv Invoice) (string, error) {
	var buf bytes.Buffer
	if err := r.text.Execute(&buf, r.receipt(tx, inv)); err != nil {
		return "", errors.Wrap(err, "executing text receipt")
	}
	return buf.String(), nil
}

// RenderHTML renders a printable HTML page (inline CSS, print button).
func (r *Renderer) RenderHTML(tx payment.Transaction, inv Invoice) (string, error) {
	var buf bytes.Buffer
	if err := r.html.Execute(&buf, r.receipt(tx, inv)); err != nil {
		return "", errors.Wrap(err, "executing html receipt")
	}
	return buf.String(), nil
}

// RenderPDF renders a single page A4 PDF with the receipt content.
func (r *Renderer) RenderPDF(tx payment.Transaction, inv Invoice) ([]byte, error) {
	rc := r.receipt(tx, inv)

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252, core fonts
	pdf.SetTitle("Nota Fiscal "+rc.Number, true)
	pdf.SetAuthor(rc.ProviderName, true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr("NOTA FISCAL DE SERVIÇO ELETRÔNICA"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Número: %s - Emissão: %s", rc.Number, rc.IssueDate)), "", 1, "C", false, 0, "")

	section := func(title string) {
		pdf.Ln(4)
		pdf.SetFillColor(235, 235, 235)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 7, tr(title), "", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}
	line := func(s string) {
		pdf.CellFormat(0, 6, tr(s), "", 1, "L", false, 0, "")
	}
	amount := func(label, value string, bold bool) {
		if bold {
			pdf.SetFont("Helvetica", "B", 10)
		}
		pdf.CellFormat(120, 7, tr(label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, tr(value), "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}

	section("PRESTADOR DE SERVIÇOS")
	line(rc.ProviderName)
	line("CNPJ: " + rc.ProviderCNPJ)
	line("Inscrição Municipal: " + rc.MunicipalRegistration)
	line("Município: " + rc.City)

	section("TOMADOR DE SERVIÇOS")
	line("Nome: " + rc.PayerName)
	if rc.PayerDocument != "" {
		line("CPF/CNPJ: " + rc.PayerDocument)
	}
	if rc.PayerEmail != "" {
		line("E-mail: " + rc.PayerEmail)
	}

	section("DISCRIMINAÇÃO DOS SERVIÇOS")
	pdf.MultiCell(0, 6, tr(rc.Description), "", "L", false)

	pdf.Ln(4)
	amount("Valor dos Serviços", rc.ServiceValue, false)
	amount(fmt.Sprintf("ISS (%s)", rc.ISSRate), rc.ISSValue, false)
	amount("Valor Total da Nota", rc.Total, true)

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Código do Serviço: %s - Transação: %s", rc.ServiceCode, rc.TransactionID)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, tr("Documento emitido eletronicamente."), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing pdf")
	}
	return buf.Bytes(), nil
}

// Filename returns the download name of inv in the given format.
func Filename(inv Invoice, format Format) string {
	if format == FormatPDF {
		return "NFSe_" + inv.Number + ".pdf"
	}
	return "Nota_Fiscal_" + inv.Number + ".txt"
}
