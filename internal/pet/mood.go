package pet

// Mood is derived from stats, never stored.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
)

// ClassifyMood bands the average of all gauges. Both boundaries are strict:
// an average of exactly 75 is neutral and exactly 50 is sad.
func ClassifyMood(s Stats) Mood {
	avg := s.Average()
	if avg > 75 {
		return MoodHappy
	}
	if avg > 50 {
		return MoodNeutral
	}
	return MoodSad
}
