// Package prompt assembles the full conversational prompt for the model
// router: mode template, locally-derived facts, web facts, market data and
// session history, concatenated in a fixed order. The assembled prompt is
// ephemeral; it is never persisted.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FactsSource yields structured local facts (tax tables and the like) when
// trigger keywords appear in the user text.
type FactsSource interface {
	Lookup(ctx context.Context, text string) (string, error)
}

// SearchSource is the optional web search collaborator. Implementations must
// degrade to an empty string instead of failing.
type SearchSource interface {
	Search(ctx context.Context, query string) string
}

// MarketSource yields the current market-data snapshot (cached upstream).
type MarketSource interface {
	Snapshot(ctx context.Context) string
}

// HistorySource yields the whole prior conversation rendered as
// "role: content" lines in insertion order.
type HistorySource interface {
	HistoryText(ctx context.Context, sessionID string) (string, error)
}

// Assembler gathers everything a contextual conversation needs into a single
// prompt string.
type Assembler struct {
	facts   FactsSource
	search  SearchSource
	market  MarketSource
	history HistorySource
	logger  *zap.Logger
}

func NewAssembler(facts FactsSource, search SearchSource, market MarketSource, history HistorySource, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		facts:   facts,
		search:  search,
		market:  market,
		history: history,
		logger:  logger,
	}
}

// Assemble builds the prompt in fixed order: mode template, SQL facts, web
// facts (search-enabled modes only), market snapshot, conversation history.
// Every contribution degrades to an empty section rather than failing the
// request.
func (a *Assembler) Assemble(ctx context.Context, sessionID, text string, mode Mode) string {
	template, ok := modeTemplates[mode]
	if !ok {
		template = modeTemplates[ModeGeneral]
	}

	var facts string
	if a.facts != nil {
		var err error
		facts, err = a.facts.Lookup(ctx, text)
		if err != nil {
			a.logger.Warn("local facts lookup failed", zap.Error(err))
			facts = ""
		}
	}

	var web string
	if a.search != nil && mode.usesWebSearch() {
		web = a.search.Search(ctx, text)
	}

	var market string
	if a.market != nil {
		market = a.market.Snapshot(ctx)
	}

	var history string
	if a.history != nil {
		var err error
		history, err = a.history.HistoryText(ctx, sessionID)
		if err != nil {
			a.logger.Warn("history load failed", zap.String("session", sessionID), zap.Error(err))
			history = ""
		}
	}

	var b strings.Builder
	b.WriteString(template)
	fmt.Fprintf(&b, "\nCONTEXTO SQL:\n%s\n", facts)
	fmt.Fprintf(&b, "\nCONTEXTO WEB:\n%s\n", web)
	fmt.Fprintf(&b, "\nDADOS DE MERCADO:\n%s\n", market)
	fmt.Fprintf(&b, "\nHISTÓRICO:\n%s\n", history)
	b.WriteString("\nResponda APENAS em JSON.\n")
	return b.String()
}
