// Package dispatch executes a classified Decision: file-producing actions go
// straight to the generators, everything else falls through to the model
// router. The dispatcher owns the user-visible success and failure phrases
// for file generation.
package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/gen-labs/gen-assistant/pkg/intent"
	"github.com/gen-labs/gen-assistant/pkg/store"
)

// User-visible replies for the fast path.
const (
	MsgSpreadsheetCreated = "📊 Planilha criada com sucesso."
	MsgDocumentCreated    = "📄 Documento criado com sucesso."
	MsgUnknownDocument    = "Tipo de documento não reconhecido."
	MsgGenerationFailed   = "❌ Não foi possível gerar o arquivo. Tente novamente."
)

// FileGenerator is the docgen surface the dispatcher needs.
type FileGenerator interface {
	Document(kind string, data map[string]any) (string, error)
	Spreadsheet(kind string, data map[string]any) (string, error)
}

// Result is the outcome of dispatching one Decision. Handled reports whether
// the dispatcher produced the reply itself; when false the caller must route
// the text through the conversational pipeline.
type Result struct {
	Handled  bool
	Reply    string
	Filename string
}

// Dispatcher runs the file fast path. Registry recording is best effort: a
// failed insert is logged and the generated file is still reported.
type Dispatcher struct {
	gen      FileGenerator
	registry store.DocumentRegistry
	logger   *zap.Logger
	// OnFile, when set, observes generated files by kind for metrics.
	OnFile func(kind string)
}

func New(gen FileGenerator, registry store.DocumentRegistry, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{gen: gen, registry: registry, logger: logger}
}

// Dispatch executes d for the given session. The data map carries structured
// fields extracted upstream (client name, items, values) and may be nil.
func (dp *Dispatcher) Dispatch(ctx context.Context, sessionID string, d intent.Decision, data map[string]any) Result {
	switch d.Action {
	case intent.ActionGenerateSpreadsheet:
		return dp.generate(ctx, sessionID, d.Subtype, data, dp.gen.Spreadsheet, MsgSpreadsheetCreated)
	case intent.ActionGenerateDocument:
		if !knownDocumentKind(d.Subtype) {
			return Result{Handled: true, Reply: MsgUnknownDocument}
		}
		return dp.generate(ctx, sessionID, d.Subtype, data, dp.gen.Document, MsgDocumentCreated)
	default:
		return Result{}
	}
}

func (dp *Dispatcher) generate(ctx context.Context, sessionID, kind string, data map[string]any, produce func(string, map[string]any) (string, error), successMsg string) Result {
	filename, err := produce(kind, data)
	if err != nil {
		dp.logger.Error("file generation failed",
			zap.String("kind", kind),
			zap.Error(err))
		return Result{Handled: true, Reply: MsgGenerationFailed}
	}

	if dp.OnFile != nil {
		dp.OnFile(kind)
	}

	if dp.registry != nil {
		if err := dp.registry.Record(ctx, sessionID, filename, kind); err != nil {
			dp.logger.Warn("document registry insert failed",
				zap.String("filename", filename),
				zap.Error(err))
		}
	}

	return Result{Handled: true, Reply: successMsg, Filename: filename}
}

func knownDocumentKind(kind string) bool {
	switch kind {
	case intent.SubtypeContract, intent.SubtypeDeclaration, intent.SubtypeReceipt,
		intent.SubtypeQuote, intent.SubtypeServiceOrder:
		return true
	}
	return false
}
