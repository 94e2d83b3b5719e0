package docgen

import (
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Document kinds produced as PDF.
const (
	KindContract     = "contract"
	KindDeclaration  = "declaration"
	KindServiceOrder = "service_order"
	KindReceipt      = "receipt"
	KindQuote        = "quote"
)

// Document writes one PDF of the given kind and returns the generated file
// name. Unknown kinds are an error; the dispatcher turns that into a
// user-visible unsupported-type reply.
func (g *Generator) Document(kind string, data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}

	pdf := newBrandedPDF()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	switch kind {
	case KindContract:
		writeTitle(pdf, tr, "CONTRATO DE PRESTAÇÃO DE SERVIÇOS")
		pdf.SetFont("Arial", "", 12)
		pdf.MultiCell(0, 8, tr(fmt.Sprintf(
			"CONTRATANTE: %s\nCONTRATADO: %s",
			stringField(data, "contratante"), stringField(data, "contratado"),
		)), "", "L", false)
		writeSection(pdf, tr, "OBJETO", stringField(data, "objeto"))
		writeSection(pdf, tr, "VALOR", formatCurrency(data["valor"]))
		pdf.Ln(10)
		pdf.MultiCell(0, 8, tr("Contratante: __________________________\n\nContratado: __________________________"), "", "L", false)

	case KindDeclaration:
		writeTitle(pdf, tr, "DECLARAÇÃO DE CONTEÚDO")
		writeSection(pdf, tr, "REMETENTE", fmt.Sprintf("%s\n%s",
			stringField(data, "remetente_nome"), stringField(data, "remetente_doc")))
		writeSection(pdf, tr, "DESTINATÁRIO", fmt.Sprintf("%s\n%s",
			stringField(data, "destinatario_nome"), stringField(data, "destinatario_doc")))
		writeDeclarationItems(pdf, tr, data)
		pdf.Ln(12)
		pdf.MultiCell(0, 8, tr("_________________________________\nAssinatura do Remetente"), "", "L", false)

	case KindServiceOrder:
		writeTitle(pdf, tr, "ORDEM DE SERVIÇO")
		pdf.SetFont("Arial", "", 12)
		pdf.MultiCell(0, 8, tr(fmt.Sprintf(
			"CLIENTE: %s\nEQUIPAMENTO: %s\nDEFEITO: %s",
			stringField(data, "cliente"), stringField(data, "equipamento"), stringField(data, "defeito"),
		)), "", "L", false)
		pdf.Ln(12)
		pdf.MultiCell(0, 8, tr("_________________________________\nAssinatura do Cliente"), "", "L", false)
		pdf.Ln(6)
		pdf.MultiCell(0, 8, tr("_________________________________\nAssinatura do Técnico"), "", "L", false)

	case KindReceipt:
		writeTitle(pdf, tr, "RECIBO")
		pdf.SetFont("Arial", "", 12)
		pdf.MultiCell(0, 8, tr(fmt.Sprintf(
			"Valor: %s\nRecebido de: %s\nReferente a: %s",
			formatCurrency(data["valor"]), stringField(data, "nome_cliente"), stringField(data, "descricao"),
		)), "1", "L", false)

	case KindQuote:
		writeTitle(pdf, tr, "ORÇAMENTO")
		pdf.SetFont("Arial", "", 12)
		pdf.MultiCell(0, 8, tr(fmt.Sprintf(
			"Cliente: %s\nValor Total: %s",
			stringField(data, "cliente"), formatCurrency(data["valor"]),
		)), "", "L", false)

	default:
		return "", fmt.Errorf("unsupported document kind: %s", kind)
	}

	name, path := g.filename(pdfPrefix(kind), "pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return name, nil
}

func pdfPrefix(kind string) string {
	switch kind {
	case KindContract:
		return "contrato"
	case KindDeclaration:
		return "declaracao"
	case KindServiceOrder:
		return "os"
	case KindReceipt:
		return "recibo"
	case KindQuote:
		return "orcamento"
	default:
		return "documento"
	}
}

func newBrandedPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFillColor(50, 50, 50)
		pdf.Rect(0, 0, 210, 30, "F")
		pdf.SetFont("Arial", "B", 18)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(10, 8)
		pdf.CellFormat(0, 10, "GEN SYSTEM", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(15)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, tr("Gerado por Gen System IA."), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	return pdf
}

func writeTitle(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(5)
}

func writeSection(pdf *fpdf.Fpdf, tr func(string) string, heading, body string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, tr(heading), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 7, tr(body), "", "L", false)
	pdf.Ln(3)
}

// writeDeclarationItems renders the declared item table and its total.
func writeDeclarationItems(pdf *fpdf.Fpdf, tr func(string) string, data map[string]any) {
	items, _ := data["lista_itens"].([]map[string]any)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, tr("ITENS"), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(100, 8, tr("Descrição"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Qtd", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 8, "Valor (R$)", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	total := 0.0
	for _, item := range items {
		desc := stringField(item, "item")
		qty := 1
		if q, ok := item["qtd"].(int); ok && q > 0 {
			qty = q
		} else if q, ok := item["qtd"].(float64); ok && q > 0 {
			qty = int(q)
		}
		cost := 0.0
		switch c := item["custo"].(type) {
		case float64:
			cost = c
		case int:
			cost = float64(c)
		}
		total += cost * float64(qty)

		pdf.CellFormat(100, 8, tr(desc), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%d", qty), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 8, tr(formatCurrency(cost)), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, tr("TOTAL DECLARADO: "+formatCurrency(total)), "", 1, "R", false, 0, "")
}
