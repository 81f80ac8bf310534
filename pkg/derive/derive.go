// Package derive recomputes dependent FarmRecord fields from a single field
// write. Every function here is pure: inputs are never mutated and the same
// input always yields the same output.
package derive

import (
	"errors"
	"slices"

	"krushi/entities"
	"krushi/pkg/validation"
)

// NoPestsSentinel is the UI value for "no pests/diseases detected". It is
// never stored next to real pest names.
const NoPestsSentinel = "None"

var ErrUnknownSoilField = errors.New("unknown soil health field")

// ParseDecimal reads the leading decimal of s ("2.5 ha" -> 2.5) with the
// same policy the field rules use. Anything unparsable is 0.
func ParseDecimal(s string) float64 {
	f, _ := validation.LeadingNumber(s)
	return f
}

// FarmCategoryFor buckets a field area in hectares. ok is false when the
// area is absent, unparsable or not positive.
func FarmCategoryFor(area string) (entities.FarmCategory, bool) {
	a := ParseDecimal(area)
	switch {
	case a <= 0:
		return "", false
	case a < 1:
		return entities.FarmMarginal, true
	case a <= 2:
		return entities.FarmSmall, true
	case a <= 4:
		return entities.FarmMedium, true
	default:
		return entities.FarmLarge, true
	}
}

// FieldArea sets the area and its category together.
func FieldArea(rec entities.FarmRecord, area string) entities.FarmRecord {
	rec.FieldArea = area
	rec.FarmCategory, _ = FarmCategoryFor(area)
	return rec
}

// District sets the district. A different district always clears the block,
// even when the new district has a block of the same name.
func District(rec entities.FarmRecord, district string) entities.FarmRecord {
	if district != rec.District {
		rec.Block = ""
	}
	rec.District = district
	return rec
}

// TogglePest flips one pest in the set. Toggling the sentinel empties the set.
func TogglePest(pests []string, pest string) []string {
	if pest == NoPestsSentinel {
		return []string{}
	}
	out := make([]string, 0, len(pests)+1)
	found := false
	for _, p := range pests {
		switch p {
		case NoPestsSentinel:
		case pest:
			found = true
		default:
			out = append(out, p)
		}
	}
	if !found {
		out = append(out, pest)
	}
	return out
}

// NoPests applies the "no pests" checkbox. Unchecking it has no effect; the
// set is only repopulated by toggling individual pests.
func NoPests(pests []string, checked bool) []string {
	if checked {
		return []string{}
	}
	return slices.Clone(pests)
}

// SoilHealthCard applies the soil-health switch. Turning it on keeps any
// previously entered data; turning it off discards it.
func SoilHealthCard(rec entities.FarmRecord, enabled bool) entities.FarmRecord {
	rec.HasSoilHealthCard = enabled
	if !enabled {
		rec.SoilHealthData = nil
		return rec
	}
	if rec.SoilHealthData == nil {
		rec.SoilHealthData = &entities.SoilHealthData{}
	} else {
		d := *rec.SoilHealthData
		rec.SoilHealthData = &d
	}
	return rec
}

// SoilHealthValue returns a copy of data with one test value replaced.
func SoilHealthValue(data *entities.SoilHealthData, field, value string) (*entities.SoilHealthData, error) {
	var out entities.SoilHealthData
	if data != nil {
		out = *data
	}
	switch field {
	case "nitrogen":
		out.Nitrogen = value
	case "phosphorus":
		out.Phosphorus = value
	case "potassium":
		out.Potassium = value
	case "ph":
		out.PH = value
	case "organicCarbon":
		out.OrganicCarbon = value
	default:
		return data, ErrUnknownSoilField
	}
	return &out, nil
}
