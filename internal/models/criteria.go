package models

// Criteria is the filter predicate attached to a smart playlist. Zero-value
// criteria (empty filters, nil bounds) match every track.
type Criteria struct {
	ActiveTagFilters   []TagReference `json:"activeTagFilters"`
	ExcludedTagFilters []TagReference `json:"excludedTagFilters"`
	IsOrFilterMode     bool           `json:"isOrFilterMode"`
	RatingFilters      []int          `json:"ratingFilters"`
	EnergyMinFilter    *int           `json:"energyMinFilter"`
	EnergyMaxFilter    *int           `json:"energyMaxFilter"`
	BpmMinFilter       *float64       `json:"bpmMinFilter"`
	BpmMaxFilter       *float64       `json:"bpmMaxFilter"`
}

// Matches reports whether the track satisfies the criteria. Pure predicate:
// no side effects, no I/O, never errors. Absent or unset numeric fields are
// treated as non-matching where a bound requires them.
func (c Criteria) Matches(rec *TrackRecord) bool {
	if rec == nil {
		return false
	}
	return c.matchesIncludeTags(rec) &&
		c.matchesExcludeTags(rec) &&
		c.matchesRating(rec) &&
		c.matchesEnergy(rec) &&
		c.matchesBPM(rec)
}

// matchesIncludeTags applies the active tag filters: vacuously true when
// empty, ANY semantics in OR mode, ALL semantics otherwise.
func (c Criteria) matchesIncludeTags(rec *TrackRecord) bool {
	if len(c.ActiveTagFilters) == 0 {
		return true
	}

	if c.IsOrFilterMode {
		for _, ref := range c.ActiveTagFilters {
			if rec.HasTag(ref) {
				return true
			}
		}
		return false
	}

	for _, ref := range c.ActiveTagFilters {
		if !rec.HasTag(ref) {
			return false
		}
	}
	return true
}

// matchesExcludeTags is true iff the track has none of the excluded tags.
func (c Criteria) matchesExcludeTags(rec *TrackRecord) bool {
	for _, ref := range c.ExcludedTagFilters {
		if rec.HasTag(ref) {
			return false
		}
	}
	return true
}

// matchesRating requires a strictly positive rating that is a member of the
// filter set. An unset rating (0) never satisfies a non-empty filter.
func (c Criteria) matchesRating(rec *TrackRecord) bool {
	if len(c.RatingFilters) == 0 {
		return true
	}
	if rec.Rating <= 0 {
		return false
	}
	for _, r := range c.RatingFilters {
		if rec.Rating == r {
			return true
		}
	}
	return false
}

func (c Criteria) matchesEnergy(rec *TrackRecord) bool {
	if c.EnergyMinFilter != nil && rec.Energy < *c.EnergyMinFilter {
		return false
	}
	if c.EnergyMaxFilter != nil && rec.Energy > *c.EnergyMaxFilter {
		return false
	}
	return true
}

// matchesBPM mirrors matchesEnergy except a track with no known BPM fails
// any non-nil bound.
func (c Criteria) matchesBPM(rec *TrackRecord) bool {
	if c.BpmMinFilter == nil && c.BpmMaxFilter == nil {
		return true
	}
	if rec.BPM == nil {
		return false
	}
	if c.BpmMinFilter != nil && *rec.BPM < *c.BpmMinFilter {
		return false
	}
	if c.BpmMaxFilter != nil && *rec.BPM > *c.BpmMaxFilter {
		return false
	}
	return true
}
