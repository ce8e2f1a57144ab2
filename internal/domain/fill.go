package domain

// ForwardFill replaces zero readings with the most recent positive reading of
// the same reservoir. Input must already be in chronological order. A reading
// stays 0 only while no positive value has been seen for that reservoir.
// The input slice is not modified.
func ForwardFill(observations []Observation) []Observation {
	filled := make([]Observation, len(observations))
	var lastKnown Readings

	for i, obs := range observations {
		out := obs
		for _, r := range Reservoirs {
			if obs.Readings[r] > 0 {
				lastKnown[r] = obs.Readings[r]
				continue
			}
			out.Readings[r] = lastKnown[r]
		}
		filled[i] = out
	}
	return filled
}
