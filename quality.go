package choices

// Completeness summarises which fields of a record are populated.
type Completeness struct {
	// Identity reports that both the id and the display name are present.
	Identity bool
	// Present counts the populated optional descriptive fields out of Total.
	Present int
	Total   int
}

// Optional records one optional field, counting it as present when ok.
func (c *Completeness) Optional(ok bool) {
	c.Total++
	if ok {
		c.Present++
	}
}

// AssessQuality maps a record's completeness onto a quality tier. A record
// missing its identity is always poor; a record without optional fields is
// excellent.
func AssessQuality(c Completeness) DataQuality {
	if !c.Identity {
		return QualityPoor
	}
	if c.Total <= 0 {
		return QualityExcellent
	}
	ratio := float64(c.Present) / float64(c.Total)
	switch {
	case ratio >= 0.8:
		return QualityExcellent
	case ratio >= 0.6:
		return QualityGood
	case ratio >= 0.4:
		return QualityFair
	default:
		return QualityPoor
	}
}
