package analysis

import "math"

// positiveThreshold splits reviewer scores into positive (>=) and negative (<)
const positiveThreshold = 5.0

type summary struct {
	avg      float64
	min      float64
	positive int
	negative int
	fiveSix  bool
}

func summarize(scores []float64) summary {
	s := summary{min: math.Inf(1), fiveSix: true}
	sum := 0.0
	for _, v := range scores {
		sum += v
		s.min = math.Min(s.min, v)
		if v >= positiveThreshold {
			s.positive++
		} else {
			s.negative++
		}
		if v != 5 && v != 6 {
			s.fiveSix = false
		}
	}
	s.avg = sum / float64(len(scores))
	return s
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
