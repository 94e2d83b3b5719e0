// Package docgen writes the generated business files (PDF documents and
// Excel spreadsheets) into the shared documents directory. Generators are
// deterministic formatting routines; all decision logic lives upstream in
// pkg/intent and pkg/dispatch.
package docgen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Generator writes files into Dir. One instance is shared by all requests.
type Generator struct {
	Dir    string
	now    func() time.Time
	logger *zap.Logger
}

func New(dir string, logger *zap.Logger) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{Dir: dir, now: time.Now, logger: logger}, nil
}

// filename builds "<prefix>_<HHMMSS>.<ext>" inside the documents directory
// and returns both the bare name (for the registry) and the full path.
func (g *Generator) filename(prefix, ext string) (name, path string) {
	name = fmt.Sprintf("%s_%s.%s", prefix, g.now().Format("150405"), ext)
	return name, filepath.Join(g.Dir, name)
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	if v, ok := data[key]; ok {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}

var nonNumeric = regexp.MustCompile(`[^\d.,-]`)

// formatCurrency renders a value as "R$ 1.234,56" (pt-BR separators).
// Unparseable input is returned as-is; empty input becomes R$ 0,00.
func formatCurrency(raw any) string {
	if raw == nil {
		return "R$ 0,00"
	}

	var val float64
	switch v := raw.(type) {
	case float64:
		val = v
	case float32:
		val = float64(v)
	case int:
		val = float64(v)
	case int64:
		val = float64(v)
	default:
		s := strings.TrimSpace(fmt.Sprint(raw))
		if s == "" {
			return "R$ 0,00"
		}
		cleaned := nonNumeric.ReplaceAllString(s, "")
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return s
		}
		val = parsed
	}

	whole := fmt.Sprintf("%.2f", val)
	parts := strings.SplitN(whole, ".", 2)
	intPart, decPart := parts[0], parts[1]

	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ".") + "," + decPart
	if neg {
		out = "-" + out
	}
	return "R$ " + out
}
