package dataflows

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// IndicatorValue is one dated technical indicator reading.
type IndicatorValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// CalculateAllIndicators computes the standard technical indicator set
// over a candle series. Indicators that lack enough history are
// omitted from the result rather than failing the whole set.
func CalculateAllIndicators(candles []*Candle) map[string][]IndicatorValue {
	if len(candles) == 0 {
		return map[string][]IndicatorValue{}
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close.InexactFloat64()
	}

	results := make(map[string][]IndicatorValue)
	calcs := map[string]func() ([]IndicatorValue, error){
		"close_10_ema":  func() ([]IndicatorValue, error) { return calculateEMA(candles, closes, 10) },
		"close_50_sma":  func() ([]IndicatorValue, error) { return calculateSMA(candles, closes, 50) },
		"close_200_sma": func() ([]IndicatorValue, error) { return calculateSMA(candles, closes, 200) },
		"rsi":           func() ([]IndicatorValue, error) { return calculateRSI(candles, closes, 14) },
		"macd":          func() ([]IndicatorValue, error) { return calculateMACD(candles, closes) },
		"boll_ub":       func() ([]IndicatorValue, error) { return calculateBollinger(candles, closes, 20, 2) },
		"boll_lb":       func() ([]IndicatorValue, error) { return calculateBollinger(candles, closes, 20, -2) },
		"atr":           func() ([]IndicatorValue, error) { return calculateATR(candles, 14) },
	}

	for name, calc := range calcs {
		if values, err := calc(); err == nil && len(values) > 0 {
			results[name] = values
		}
	}
	return results
}

func calculateSMA(candles []*Candle, closes []float64, period int) ([]IndicatorValue, error) {
	if len(closes) < period {
		return nil, fmt.Errorf("insufficient data for SMA(%d)", period)
	}
	var result []IndicatorValue
	for i := period - 1; i < len(closes); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += closes[j]
		}
		result = append(result, IndicatorValue{Date: candles[i].Date, Value: sum / float64(period)})
	}
	return result, nil
}

func calculateEMA(candles []*Candle, closes []float64, period int) ([]IndicatorValue, error) {
	if len(closes) < period {
		return nil, fmt.Errorf("insufficient data for EMA(%d)", period)
	}
	multiplier := 2.0 / (float64(period) + 1.0)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += closes[i]
	}
	ema := sum / float64(period)

	result := []IndicatorValue{{Date: candles[period-1].Date, Value: ema}}
	for i := period; i < len(closes); i++ {
		ema = closes[i]*multiplier + ema*(1-multiplier)
		result = append(result, IndicatorValue{Date: candles[i].Date, Value: ema})
	}
	return result, nil
}

func calculateRSI(candles []*Candle, closes []float64, period int) ([]IndicatorValue, error) {
	if len(closes) < period+1 {
		return nil, fmt.Errorf("insufficient data for RSI(%d)", period)
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	var result []IndicatorValue
	for i := period; i < len(closes); i++ {
		if i > period {
			change := closes[i] - closes[i-1]
			gain, loss := 0.0, 0.0
			if change > 0 {
				gain = change
			} else {
				loss = -change
			}
			// Wilder smoothing
			avgGain = (avgGain*float64(period-1) + gain) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		}

		rsi := 100.0
		if avgLoss > 0 {
			rs := avgGain / avgLoss
			rsi = 100.0 - 100.0/(1.0+rs)
		}
		result = append(result, IndicatorValue{Date: candles[i].Date, Value: rsi})
	}
	return result, nil
}

func calculateMACD(candles []*Candle, closes []float64) ([]IndicatorValue, error) {
	fast, err := calculateEMA(candles, closes, 12)
	if err != nil {
		return nil, err
	}
	slow, err := calculateEMA(candles, closes, 26)
	if err != nil {
		return nil, err
	}

	// EMA series start at different offsets; align by trailing length.
	n := len(slow)
	offset := len(fast) - n
	result := make([]IndicatorValue, 0, n)
	for i := 0; i < n; i++ {
		result = append(result, IndicatorValue{
			Date:  slow[i].Date,
			Value: fast[i+offset].Value - slow[i].Value,
		})
	}
	return result, nil
}

func calculateBollinger(candles []*Candle, closes []float64, period int, stdDevs float64) ([]IndicatorValue, error) {
	if len(closes) < period {
		return nil, fmt.Errorf("insufficient data for Bollinger(%d)", period)
	}
	var result []IndicatorValue
	for i := period - 1; i < len(closes); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += closes[j]
		}
		mean := sum / float64(period)

		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			variance += (closes[j] - mean) * (closes[j] - mean)
		}
		stdDev := math.Sqrt(variance / float64(period))

		result = append(result, IndicatorValue{Date: candles[i].Date, Value: mean + stdDevs*stdDev})
	}
	return result, nil
}

func calculateATR(candles []*Candle, period int) ([]IndicatorValue, error) {
	if len(candles) < period+1 {
		return nil, fmt.Errorf("insufficient data for ATR(%d)", period)
	}

	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		high := candles[i].High.InexactFloat64()
		low := candles[i].Low.InexactFloat64()
		prevClose := candles[i-1].Close.InexactFloat64()
		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trs = append(trs, tr)
	}

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)

	result := []IndicatorValue{{Date: candles[period].Date, Value: atr}}
	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
		result = append(result, IndicatorValue{Date: candles[i+1].Date, Value: atr})
	}
	return result, nil
}
