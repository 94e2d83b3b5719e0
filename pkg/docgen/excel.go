package docgen

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Spreadsheet kinds produced as XLSX.
const (
	KindInventory = "inventory"
	KindCashFlow  = "cash_flow"
	KindPricing   = "pricing"
	KindChart     = "chart"
	KindPlain     = "plain"
)

// Spreadsheet writes one workbook of the given kind and returns the file
// name. Unmapped kinds fall back to the plain layout.
func (g *Generator) Spreadsheet(kind string, data map[string]any) (string, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	var (
		prefix string
		err    error
	)
	switch kind {
	case KindInventory:
		prefix, err = "estoque", writeInventory(f)
	case KindCashFlow:
		prefix, err = "fluxo_caixa", writeCashFlow(f)
	case KindPricing:
		prefix, err = "precificacao", writePricing(f, data)
	case KindChart:
		prefix, err = "grafico", writeChart(f, data)
	default:
		prefix, err = "planilha", writePlain(f, data)
	}
	if err != nil {
		return "", fmt.Errorf("build %s spreadsheet: %w", kind, err)
	}

	name, path := g.filename(prefix, "xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("write spreadsheet: %w", err)
	}
	return name, nil
}

func writeInventory(f *excelize.File) error {
	sheet := "Estoque"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Produto", "Quantidade", "Status"}); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A2", &[]any{"Exemplo", 10}); err != nil {
		return err
	}
	if err := f.SetCellFormula(sheet, "C2", `IF(B2<=5,"Baixo","OK")`); err != nil {
		return err
	}
	return styleHeader(f, sheet, "C1")
}

func writeCashFlow(f *excelize.File) error {
	sheet := "Fluxo de Caixa"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Data", "Entrada", "Saída", "Saldo"}); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A2", &[]any{"Hoje", 0, 0}); err != nil {
		return err
	}
	if err := f.SetCellFormula(sheet, "D2", "B2-C2"); err != nil {
		return err
	}
	// Running balance ready for manual entries.
	for r := 3; r < 100; r++ {
		formula := fmt.Sprintf("D%d+B%d-C%d", r-1, r, r)
		if err := f.SetCellFormula(sheet, fmt.Sprintf("D%d", r), formula); err != nil {
			return err
		}
	}
	return styleHeader(f, sheet, "D1")
}

func writePricing(f *excelize.File, data map[string]any) error {
	sheet := "Precificação"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Produto", "Custo", "Margem (%)", "Preço Final"}); err != nil {
		return err
	}

	items := pricingItems(data)
	for i, item := range items {
		row := i + 2
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(sheet, cell, &[]any{item.name, item.cost, item.margin}); err != nil {
			return err
		}
		formula := fmt.Sprintf("B%d+(B%d*(C%d/100))", row, row, row)
		if err := f.SetCellFormula(sheet, fmt.Sprintf("D%d", row), formula); err != nil {
			return err
		}
	}
	return styleHeader(f, sheet, "D1")
}

type pricingItem struct {
	name   string
	cost   float64
	margin float64
}

func pricingItems(data map[string]any) []pricingItem {
	raw, _ := data["itens"].([]map[string]any)
	if len(raw) == 0 {
		return []pricingItem{{name: "Exemplo", cost: 10, margin: 100}}
	}
	out := make([]pricingItem, 0, len(raw))
	for _, r := range raw {
		item := pricingItem{name: stringField(r, "item")}
		if c, ok := r["custo"].(float64); ok {
			item.cost = c
		}
		if m, ok := r["margem"].(float64); ok {
			item.margin = m
		}
		out = append(out, item)
	}
	return out
}

func writeChart(f *excelize.File, data map[string]any) error {
	sheet := "Análise Visual"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Item", "Valor"}); err != nil {
		return err
	}

	rows := chartRows(data)
	for i, r := range rows {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &[]any{r.label, r.value}); err != nil {
			return err
		}
	}

	last := len(rows) + 1
	chart := &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", sheet),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", sheet, last),
		}},
		Title: []excelize.RichTextRun{{Text: "Gráfico de Análise"}},
	}
	if err := f.AddChart(sheet, "E2", chart); err != nil {
		return err
	}
	return styleHeader(f, sheet, "B1")
}

type chartRow struct {
	label string
	value float64
}

func chartRows(data map[string]any) []chartRow {
	raw, _ := data["dados_grafico"].([]map[string]any)
	if len(raw) == 0 {
		return []chartRow{{label: "Exemplo", value: 10}}
	}
	out := make([]chartRow, 0, len(raw))
	for _, r := range raw {
		row := chartRow{label: stringField(r, "item")}
		if v, ok := r["valor"].(float64); ok {
			row.value = v
		}
		out = append(out, row)
	}
	return out
}

// writePlain dumps extracted key/value data as a two-row sheet.
func writePlain(f *excelize.File, data map[string]any) error {
	sheet := "Planilha"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	if len(data) == 0 {
		if err := f.SetSheetRow(sheet, "A1", &[]any{"Valor"}); err != nil {
			return err
		}
		return styleHeader(f, sheet, "A1")
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	header := make([]any, 0, len(keys))
	values := make([]any, 0, len(keys))
	for _, k := range keys {
		header = append(header, k)
		values = append(values, fmt.Sprint(data[k]))
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A2", &values); err != nil {
		return err
	}

	end, err := excelize.CoordinatesToCellName(len(keys), 1)
	if err != nil {
		return err
	}
	return styleHeader(f, sheet, end)
}

// styleHeader bolds and fills the header row from A1 through endCell and
// freezes it in place.
func styleHeader(f *excelize.File, sheet, endCell string) error {
	styleID, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", endCell, styleID); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "E", 18); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
