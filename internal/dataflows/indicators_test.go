package dataflows

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func makeCandles(closes []float64) []*Candle {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]*Candle, len(closes))
	for i, c := range closes {
		candles[i] = &Candle{
			Symbol: "BTC",
			Date:   base.AddDate(0, 0, i),
			Open:   decimal.NewFromFloat(c),
			High:   decimal.NewFromFloat(c * 1.02),
			Low:    decimal.NewFromFloat(c * 0.98),
			Close:  decimal.NewFromFloat(c),
			Volume: decimal.NewFromInt(1000),
		}
	}
	return candles
}

func TestCalculateAllIndicatorsEmpty(t *testing.T) {
	results := CalculateAllIndicators(nil)
	if len(results) != 0 {
		t.Errorf("expected empty result set, got %d entries", len(results))
	}
}

func TestCalculateAllIndicatorsSkipsInsufficient(t *testing.T) {
	// 30 candles: enough for RSI and EMA(10), not for SMA(200).
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	results := CalculateAllIndicators(makeCandles(closes))

	if _, ok := results["close_200_sma"]; ok {
		t.Error("SMA(200) should be omitted with 30 candles")
	}
	if _, ok := results["rsi"]; !ok {
		t.Error("RSI should be present with 30 candles")
	}
	if _, ok := results["close_10_ema"]; !ok {
		t.Error("EMA(10) should be present with 30 candles")
	}
}

func TestSMAConstantSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 50
	}
	candles := makeCandles(closes)

	values, err := calculateSMA(candles, closes, 50)
	if err != nil {
		t.Fatalf("calculateSMA failed: %v", err)
	}
	if len(values) != 11 {
		t.Fatalf("got %d values, want 11", len(values))
	}
	for _, v := range values {
		if v.Value != 50 {
			t.Fatalf("constant series SMA should be 50, got %v", v.Value)
		}
	}
}

func TestRSIExtremes(t *testing.T) {
	// Strictly increasing closes: RSI should sit at 100.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	candles := makeCandles(closes)

	values, err := calculateRSI(candles, closes, 14)
	if err != nil {
		t.Fatalf("calculateRSI failed: %v", err)
	}
	last := values[len(values)-1].Value
	if last != 100 {
		t.Errorf("monotone gains should give RSI 100, got %v", last)
	}
}

func TestBollingerBandsOrdering(t *testing.T) {
	closes := []float64{100, 102, 98, 104, 96, 101, 99, 103, 97, 105,
		100, 102, 98, 104, 96, 101, 99, 103, 97, 105, 100, 102}
	candles := makeCandles(closes)

	upper, err := calculateBollinger(candles, closes, 20, 2)
	if err != nil {
		t.Fatalf("upper band failed: %v", err)
	}
	lower, err := calculateBollinger(candles, closes, 20, -2)
	if err != nil {
		t.Fatalf("lower band failed: %v", err)
	}
	for i := range upper {
		if upper[i].Value <= lower[i].Value {
			t.Fatalf("upper band %v not above lower band %v", upper[i].Value, lower[i].Value)
		}
	}
}

func TestATRPositive(t *testing.T) {
	closes := []float64{100, 101, 99, 102, 98, 103, 97, 104, 96, 105,
		100, 101, 99, 102, 98, 103}
	candles := makeCandles(closes)

	values, err := calculateATR(candles, 14)
	if err != nil {
		t.Fatalf("calculateATR failed: %v", err)
	}
	for _, v := range values {
		if v.Value <= 0 {
			t.Fatalf("ATR must be positive, got %v", v.Value)
		}
	}
}
