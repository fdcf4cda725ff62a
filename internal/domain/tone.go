package domain

// Tone is the three-bucket display classification of a sentiment score.
// Every consumer must use ClassifyScore rather than reimplementing the
// thresholds, so history and stats render consistently.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

const toneThreshold = 0.2

// ClassifyScore maps a sentiment score in [-1,1] to a Tone.
// Scores above 0.2 are positive, below -0.2 negative, everything else neutral.
func ClassifyScore(score float64) Tone {
	switch {
	case score > toneThreshold:
		return TonePositive
	case score < -toneThreshold:
		return ToneNegative
	default:
		return ToneNeutral
	}
}
