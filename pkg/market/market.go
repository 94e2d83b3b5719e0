// Package market fetches currency quotes for the prompt's market-data
// section. Results flow through the shared TTL cache so a burst of chat
// requests costs one upstream call.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gen-labs/gen-assistant/pkg/cache"
)

const (
	// DefaultURL is the AwesomeAPI endpoint for USD/BTC/EUR against BRL.
	DefaultURL = "https://economia.awesomeapi.com.br/last/USD-BRL,BTC-BRL,EUR-BRL"

	// DefaultTTL keeps quotes for five minutes.
	DefaultTTL = 5 * time.Minute

	fetchTimeout = 5 * time.Second
	cacheKey     = "market"
)

// Service serves the formatted indicator block. A failed fetch degrades to an
// empty string; the prompt assembler treats that as an empty section.
type Service struct {
	URL    string
	TTL    time.Duration
	cache  *cache.TTLCache
	client *http.Client
	logger *zap.Logger
	// OnLookup, when set, observes cache outcome ("hit"/"miss") for metrics.
	OnLookup func(outcome string)
}

func NewService(c *cache.TTLCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		URL:    DefaultURL,
		TTL:    DefaultTTL,
		cache:  c,
		client: &http.Client{Timeout: fetchTimeout},
		logger: logger,
	}
}

type quote struct {
	Bid        string `json:"bid"`
	CreateDate string `json:"create_date"`
}

// Snapshot returns the indicator block, from cache when fresh.
func (s *Service) Snapshot(ctx context.Context) string {
	value, hit := s.cache.GetOrFetch(cacheKey, s.TTL, func() (string, error) {
		return s.fetch(ctx)
	})
	if s.OnLookup != nil {
		if hit {
			s.OnLookup("hit")
		} else {
			s.OnLookup("miss")
		}
	}
	return value
}

func (s *Service) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("market data fetch failed", zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("market data: status %d", resp.StatusCode)
		s.logger.Warn("market data fetch failed", zap.Error(err))
		return "", err
	}

	var raw map[string]quote
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		s.logger.Warn("market data decode failed", zap.Error(err))
		return "", err
	}

	usd, btc, eur := raw["USDBRL"], raw["BTCBRL"], raw["EURBRL"]
	out := "INDICADORES FINANCEIROS (FONTE: AwesomeAPI):\n"
	out += fmt.Sprintf("- Dólar Comercial: R$ %s (Atualizado: %s)\n", usd.Bid, usd.CreateDate)
	out += fmt.Sprintf("- Bitcoin: R$ %s (Atualizado: %s)\n", btc.Bid, btc.CreateDate)
	out += fmt.Sprintf("- Euro: R$ %s\n", eur.Bid)
	out += "- Taxa Selic (Meta): 10.50% a.a. (Referência)\n"
	return out, nil
}
