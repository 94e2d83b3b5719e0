// Package intent maps free-form user text to a structured Decision that
// drives dispatch: answer conversationally, or produce a document or
// spreadsheet. Classification is lexical substring matching over lowercased
// text; there is no scoring and no NLP.
package intent

import (
	"regexp"
	"strings"
)

// Action is the top-level outcome of classification.
type Action string

const (
	ActionConverse            Action = "converse"
	ActionGenerateDocument    Action = "generate_document"
	ActionGenerateSpreadsheet Action = "generate_spreadsheet"
	ActionAnalyzeFile         Action = "analyze_file"
)

// Document and spreadsheet subtypes select the concrete generator.
const (
	SubtypeContract     = "contract"
	SubtypeDeclaration  = "declaration"
	SubtypeReceipt      = "receipt"
	SubtypeQuote        = "quote"
	SubtypeServiceOrder = "service_order"

	SubtypeInventory = "inventory"
	SubtypeCashFlow  = "cash_flow"
	SubtypePricing   = "pricing"
	SubtypeChart     = "chart"
	SubtypePlain     = "plain"
)

// Decision is the classifier's output.
type Decision struct {
	Action             Action
	Subtype            string
	ShouldRespond      bool
	ShouldGenerateFile bool
}

var (
	creationVerbs    = []string{"crie", "gere", "faça", "monte"}
	spreadsheetTerms = []string{"planilha", "excel"}
	questionStarts   = []string{"como", "o que", "qual", "quando", "por que", "porque"}

	// "os" alone is too short for substring matching; require word boundaries.
	serviceOrderWord = regexp.MustCompile(`(^|[^\p{L}])os($|[^\p{L}])`)
)

// rule is one step of the classification chain: a named mutation over the
// draft Decision. Rules run in fixed order and later rules may override
// earlier ones; that ordering is the precedence contract.
type rule struct {
	name  string
	apply func(text string, d *Decision)
}

var chain = []rule{
	{name: "creation-verb", apply: creationVerbRule},
	{name: "spreadsheet", apply: spreadsheetRule},
	{name: "document", apply: documentRule},
	{name: "question-override", apply: questionOverrideRule},
}

// Classify never fails: unmatched text falls through to a conversational
// Decision. Matching is case-insensitive. The extra context map is accepted
// for parity with the dispatch contract but carries no classification signal
// today.
func Classify(text string, extra map[string]any) Decision {
	lowered := strings.ToLower(text)

	d := Decision{
		Action:        ActionConverse,
		ShouldRespond: true,
	}
	for _, r := range chain {
		r.apply(lowered, &d)
	}
	return d
}

func creationVerbRule(text string, d *Decision) {
	for _, verb := range creationVerbs {
		if strings.Contains(text, verb) {
			d.ShouldGenerateFile = true
			return
		}
	}
}

func spreadsheetRule(text string, d *Decision) {
	if !containsAny(text, spreadsheetTerms) {
		return
	}
	d.Action = ActionGenerateSpreadsheet
	d.ShouldGenerateFile = true
	d.ShouldRespond = false

	switch {
	case strings.Contains(text, "estoque"):
		d.Subtype = SubtypeInventory
	case strings.Contains(text, "caixa") || strings.Contains(text, "fluxo"):
		d.Subtype = SubtypeCashFlow
	case strings.Contains(text, "preço") || strings.Contains(text, "precificação"):
		d.Subtype = SubtypePricing
	case strings.Contains(text, "gráfico") || strings.Contains(text, "grafico"):
		d.Subtype = SubtypeChart
	default:
		d.Subtype = SubtypePlain
	}
}

func documentRule(text string, d *Decision) {
	triggered := containsAny(text, []string{
		"contrato", "declaração", "declaraçao", "declara",
		"recibo", "orçamento", "orcamento", "ordem de serviço",
	}) || serviceOrderWord.MatchString(text)
	if !triggered {
		return
	}

	// Overrides the spreadsheet pass when both keyword sets are present:
	// last-applied wins by construction order.
	d.Action = ActionGenerateDocument
	d.ShouldGenerateFile = true
	d.ShouldRespond = false

	switch {
	case strings.Contains(text, "contrato"):
		d.Subtype = SubtypeContract
	case strings.Contains(text, "declara"):
		d.Subtype = SubtypeDeclaration
	case strings.Contains(text, "recibo"):
		d.Subtype = SubtypeReceipt
	case strings.Contains(text, "orçamento") || strings.Contains(text, "orcamento"):
		d.Subtype = SubtypeQuote
	default:
		d.Subtype = SubtypeServiceOrder
	}
}

// questionOverrideRule forces a conversational answer for questions, but only
// when no creation verb fired: "crie um contrato?" still generates a
// document. That precedence is deliberate.
func questionOverrideRule(text string, d *Decision) {
	if d.ShouldGenerateFile {
		return
	}

	trimmed := strings.TrimSpace(text)
	isQuestion := strings.HasSuffix(trimmed, "?")
	if !isQuestion {
		for _, start := range questionStarts {
			if strings.HasPrefix(trimmed, start) {
				isQuestion = true
				break
			}
		}
	}
	if !isQuestion {
		return
	}

	d.Action = ActionConverse
	d.ShouldRespond = true
	d.ShouldGenerateFile = false
	d.Subtype = ""
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
