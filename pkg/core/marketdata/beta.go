package marketdata

import (
	"context"
	"log"
)

// CalculateBeta estimates historical beta as cov(stock, market)/var(market)
// over daily returns. Any provider failure, mismatched history, or degenerate
// market variance returns the market beta of 1.0; this accessor never errors.
func (s *Service) CalculateBeta(ctx context.Context, ticker, marketTicker string, days int) float64 {
	stock, err := s.provider.DailyCloses(ctx, ticker, days)
	if err != nil {
		log.Printf("[MARKETDATA] beta fallback for %s: %v", ticker, err)
		return DefaultBeta
	}
	market, err := s.provider.DailyCloses(ctx, marketTicker, days)
	if err != nil {
		log.Printf("[MARKETDATA] beta fallback for %s: %v", marketTicker, err)
		return DefaultBeta
	}

	n := len(stock)
	if len(market) < n {
		n = len(market)
	}
	if n < 3 {
		return DefaultBeta
	}
	stock = stock[len(stock)-n:]
	market = market[len(market)-n:]

	stockRet := dailyReturns(stock)
	marketRet := dailyReturns(market)
	if stockRet == nil || marketRet == nil {
		return DefaultBeta
	}

	meanS := mean(stockRet)
	meanM := mean(marketRet)

	var cov, varM float64
	for i := range stockRet {
		cov += (stockRet[i] - meanS) * (marketRet[i] - meanM)
		varM += (marketRet[i] - meanM) * (marketRet[i] - meanM)
	}
	if varM == 0 {
		return DefaultBeta
	}
	return cov / varM
}

// dailyReturns converts closes to simple returns; nil when any close is
// non-positive (bad scrape).
func dailyReturns(closes []float64) []float64 {
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			return nil
		}
		out = append(out, closes[i]/closes[i-1]-1.0)
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
