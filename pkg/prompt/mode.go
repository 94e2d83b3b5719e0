package prompt

import "strings"

// Mode selects the conversational persona and which external facts are
// consulted during assembly.
type Mode string

const (
	ModeGeneral     Mode = "general"
	ModeLegal       Mode = "legal"
	ModeFinancial   Mode = "financial"
	ModeMarketing   Mode = "marketing"
	ModeFeasibility Mode = "feasibility"
)

// NormalizeMode maps user-supplied mode names, including the Portuguese ones
// the web shell sends, onto a known Mode. Unknown input falls back to general.
func NormalizeMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "legal", "juridico", "jurídico":
		return ModeLegal
	case "financial", "financeiro", "finanças", "financas":
		return ModeFinancial
	case "marketing":
		return ModeMarketing
	case "feasibility", "viabilidade":
		return ModeFeasibility
	default:
		return ModeGeneral
	}
}

// usesWebSearch reports whether a mode prioritizes fresh externally-sourced
// facts over static local data.
func (m Mode) usesWebSearch() bool {
	switch m {
	case ModeLegal, ModeFinancial, ModeFeasibility:
		return true
	}
	return false
}
