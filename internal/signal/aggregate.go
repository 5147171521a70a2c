package signal

import "intraday-signals/internal/model"

// Aggregate sums the scores (BUY=+1, SELL=-1, NEUTRAL=0) and returns the
// verdict by the sign of the sum. With minAgreement > 1 a verdict also needs
// |score| >= minAgreement, otherwise it is NEUTRAL. The result does not depend
// on the order of signals.
func Aggregate(signals []model.Signal, minAgreement int) (model.Signal, int) {
	score := 0
	for _, s := range signals {
		score += s.Score()
	}
	if minAgreement > 1 && abs(score) < minAgreement {
		return model.Neutral, score
	}
	return model.FromSign(score), score
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
