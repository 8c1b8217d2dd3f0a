package indicator

import "math"

// SMA returns the simple moving average of the last period samples, or the
// neutral 0 when the history holds fewer than period samples.
func SMA(h *History, period int) float64 {
	if period <= 0 || h.Len() < period {
		return 0
	}
	var sum float64
	for i := h.Len() - period; i < h.Len(); i++ {
		sum += h.At(i)
	}
	return sum / float64(period)
}

// RSI returns the Wilder-style relative strength index over the last period
// intervals. It returns the neutral 50 when the history is too short and 100
// when every move in the window is non-negative.
func RSI(h *History, period int) float64 {
	if period <= 0 || h.Len() < period+1 {
		return 50
	}
	var gains, losses float64
	for i := h.Len() - period; i < h.Len(); i++ {
		delta := h.At(i) - h.At(i-1)
		if delta >= 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line (fast EMA minus slow EMA) and its signal line.
// The signal line is approximated as an SMA of the trailing MACD series
// rather than an EMA; both lines are 0 when the history is shorter than the
// slow period.
func MACD(h *History, fast, slow, signal int) (macdLine, signalLine float64) {
	if fast <= 0 || slow <= 0 || fast >= slow || h.Len() < slow {
		return 0, 0
	}

	fastK := 2 / float64(fast+1)
	slowK := 2 / float64(slow+1)
	emaFast := h.At(0)
	emaSlow := h.At(0)

	// Walk the full history once, keeping the trailing MACD values needed
	// for the signal average.
	series := make([]float64, 0, signal)
	for i := 1; i < h.Len(); i++ {
		p := h.At(i)
		emaFast += (p - emaFast) * fastK
		emaSlow += (p - emaSlow) * slowK
		if i >= slow-1 {
			if len(series) == signal && signal > 0 {
				copy(series, series[1:])
				series = series[:signal-1]
			}
			series = append(series, emaFast-emaSlow)
		}
	}

	macdLine = emaFast - emaSlow
	if signal > 0 && len(series) > 0 {
		var sum float64
		for _, v := range series {
			sum += v
		}
		signalLine = sum / float64(len(series))
	}
	return macdLine, signalLine
}

// PercentChange returns the percentage move between the sample period steps
// back and the latest sample. It returns 0 when the history is too short or
// the earlier sample is 0.
func PercentChange(h *History, period int) float64 {
	if period <= 0 || h.Len() < period+1 {
		return 0
	}
	earlier := h.At(h.Len() - 1 - period)
	if earlier == 0 {
		return 0
	}
	return (h.Last() - earlier) / earlier * 100
}

// MomentumScore composes three normalized components — price versus the
// short SMA, short SMA versus long SMA, and a squashed short-period percent
// change — into a single score in [-1, 1].
func MomentumScore(h *History, short, long int) float64 {
	if short <= 0 || long <= 0 || h.Len() < long {
		return 0
	}
	shortSMA := SMA(h, short)
	longSMA := SMA(h, long)
	last := h.Last()

	score := sign(last-shortSMA) + sign(shortSMA-longSMA) + math.Tanh(PercentChange(h, short)/10)
	score /= 3
	return math.Max(-1, math.Min(1, score))
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
