package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Provider is the external market-data boundary. Implementations may fail
// freely; the Service layer owns the fallback-to-default policy.
type Provider interface {
	TreasuryYield10Y(ctx context.Context) (float64, error)
	IndexSnapshot(ctx context.Context) (level, peRatio float64, err error)
	CreditSpreads(ctx context.Context) (igPct, hyPct float64, err error)
	DailyCloses(ctx context.Context, ticker string, days int) ([]float64, error)
}

// ScrapingProvider pulls quotes from a public market-data site. Selectors are
// configured rather than hardcoded so a markup change is a config edit.
type ScrapingProvider struct {
	BaseURL        string
	YieldSelector  string
	IndexSelector  string
	PESelector     string
	SpreadSelector string

	client *http.Client
}

// NewScrapingProvider builds a provider against the given site.
func NewScrapingProvider(baseURL string) *ScrapingProvider {
	return &ScrapingProvider{
		BaseURL:        baseURL,
		YieldSelector:  "span.treasury-10y",
		IndexSelector:  "span.index-level",
		PESelector:     "span.index-pe",
		SpreadSelector: "table.credit-spreads td",
		client:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *ScrapingProvider) fetchDocument(ctx context.Context, path string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "mna-valuation/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market data fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market data fetch returned %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func (p *ScrapingProvider) scrapeNumber(ctx context.Context, path, selector string) (float64, error) {
	doc, err := p.fetchDocument(ctx, path)
	if err != nil {
		return 0, err
	}

	text := strings.TrimSpace(doc.Find(selector).First().Text())
	text = strings.TrimSuffix(text, "%")
	text = strings.ReplaceAll(text, ",", "")
	if text == "" {
		return 0, fmt.Errorf("selector %q matched nothing", selector)
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse %q: %w", text, err)
	}
	return v, nil
}

// TreasuryYield10Y scrapes the 10-year treasury yield in percent.
func (p *ScrapingProvider) TreasuryYield10Y(ctx context.Context) (float64, error) {
	return p.scrapeNumber(ctx, "/rates", p.YieldSelector)
}

// IndexSnapshot scrapes the broad equity index level and trailing P/E.
func (p *ScrapingProvider) IndexSnapshot(ctx context.Context) (float64, float64, error) {
	level, err := p.scrapeNumber(ctx, "/index", p.IndexSelector)
	if err != nil {
		return 0, 0, err
	}
	pe, err := p.scrapeNumber(ctx, "/index", p.PESelector)
	if err != nil {
		return 0, 0, err
	}
	return level, pe, nil
}

// CreditSpreads scrapes investment-grade and high-yield spreads in percent.
func (p *ScrapingProvider) CreditSpreads(ctx context.Context) (float64, float64, error) {
	doc, err := p.fetchDocument(ctx, "/credit")
	if err != nil {
		return 0, 0, err
	}

	var spreads []float64
	doc.Find(p.SpreadSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSuffix(strings.TrimSpace(s.Text()), "%")
		if v, perr := strconv.ParseFloat(text, 64); perr == nil {
			spreads = append(spreads, v)
		}
	})
	if len(spreads) < 2 {
		return 0, 0, fmt.Errorf("expected IG and HY spreads, found %d values", len(spreads))
	}
	return spreads[0], spreads[1], nil
}

// DailyCloses scrapes a ticker's closing price history, oldest first.
func (p *ScrapingProvider) DailyCloses(ctx context.Context, ticker string, days int) ([]float64, error) {
	doc, err := p.fetchDocument(ctx, "/history/"+strings.ToUpper(ticker))
	if err != nil {
		return nil, err
	}

	var closes []float64
	doc.Find("table.price-history td.close").Each(func(_ int, s *goquery.Selection) {
		text := strings.ReplaceAll(strings.TrimSpace(s.Text()), ",", "")
		if v, perr := strconv.ParseFloat(text, 64); perr == nil {
			closes = append(closes, v)
		}
	})
	if len(closes) == 0 {
		return nil, fmt.Errorf("no price history for %s", ticker)
	}
	if len(closes) > days {
		closes = closes[len(closes)-days:]
	}
	return closes, nil
}
