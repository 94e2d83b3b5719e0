package prompt

import (
	"encoding/json"
	"strings"
)

// Reply is the structured shape the mode templates demand from the model.
// Only RespostaUsuario is mandatory.
type Reply struct {
	RespostaUsuario     string         `json:"resposta_usuario"`
	DadosExtraidos      map[string]any `json:"dados_extraidos"`
	DocumentoSolicitado *string        `json:"documento_solicitado"`
	DadosGrafico        []any          `json:"dados_grafico"`
}

// ParseReply extracts the user-facing reply from raw model output. Code
// fences are stripped first; malformed JSON degrades to returning the raw
// text as the reply instead of failing the request.
func ParseReply(raw string) string {
	cleaned := stripFences(raw)

	var r Reply
	if err := json.Unmarshal([]byte(cleaned), &r); err == nil && strings.TrimSpace(r.RespostaUsuario) != "" {
		return r.RespostaUsuario
	}
	return strings.TrimSpace(raw)
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
