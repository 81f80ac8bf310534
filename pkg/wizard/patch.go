package wizard

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"krushi/entities"
	"krushi/pkg/derive"
	"krushi/pkg/fertilizer"
)

// Date is a calendar day in JSON ("2024-07-01"). An empty string clears the
// field it is patched into.
type Date struct{ time.Time }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// Patch is a shallow update of top-level record fields; nil means untouched.
// Derived and device-only fields (farmCategory, gpsCoordinates, gpsDetected)
// and the fertilizer rows have no patch field.
type Patch struct {
	District            *string                  `json:"district"`
	Block               *string                  `json:"block"`
	Crop                *string                  `json:"crop"`
	Season              *entities.Season         `json:"season"`
	SowingDate          *Date                    `json:"sowingDate"`
	FieldArea           *string                  `json:"fieldArea"`
	Irrigation          *string                  `json:"irrigation"`
	SoilType            *string                  `json:"soilType"`
	HasSoilHealthCard   *bool                    `json:"hasSoilHealthCard"`
	SoilHealthData      *entities.SoilHealthData `json:"soilHealthData"`
	SeedVariety         *string                  `json:"seedVariety"`
	SeedReplacementRate *string                  `json:"seedReplacementRate"`
	Pests               *[]string                `json:"pests"`
	Mechanization       *bool                    `json:"mechanization"`
	CreditAccess        *bool                    `json:"creditAccess"`
}

// DecodePatch reads one JSON patch, rejecting fields the record does not have.
func DecodePatch(r io.Reader) (Patch, error) {
	var p Patch
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Patch{}, fmt.Errorf("decode patch: %w", err)
	}
	return p, nil
}

// Apply merges p into the record. The patch is applied entirely or not at all.
func (c *Controller) Apply(p Patch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted {
		return ErrSubmitted
	}
	next, err := c.merge(c.rec, p)
	if err != nil {
		return err
	}
	c.rec = next
	return nil
}

func (c *Controller) merge(rec entities.FarmRecord, p Patch) (entities.FarmRecord, error) {
	rec = rec.Clone()
	if p.District != nil {
		rec = derive.District(rec, strings.TrimSpace(*p.District))
	}
	if p.Block != nil {
		block := strings.TrimSpace(*p.Block)
		if err := c.checkBlock(rec.District, block); err != nil {
			return rec, err
		}
		rec.Block = block
	}
	if p.Crop != nil {
		rec.Crop = *p.Crop
	}
	if p.Season != nil {
		if *p.Season != "" && !p.Season.Valid() {
			return rec, fmt.Errorf("%w: %q", ErrInvalidSeason, *p.Season)
		}
		rec.Season = *p.Season
	}
	if p.SowingDate != nil {
		if p.SowingDate.IsZero() {
			rec.SowingDate = nil
		} else {
			d := p.SowingDate.Time
			rec.SowingDate = &d
		}
	}
	if p.FieldArea != nil {
		rec = derive.FieldArea(rec, *p.FieldArea)
	}
	if p.Irrigation != nil {
		rec.Irrigation = *p.Irrigation
	}
	if p.SoilType != nil {
		rec.SoilType = *p.SoilType
	}
	if p.HasSoilHealthCard != nil {
		rec = derive.SoilHealthCard(rec, *p.HasSoilHealthCard)
	}
	if p.SoilHealthData != nil {
		if !rec.HasSoilHealthCard {
			return rec, ErrNoSoilHealthCard
		}
		d := *p.SoilHealthData
		rec.SoilHealthData = &d
	}
	if p.SeedVariety != nil {
		rec.SeedVariety = *p.SeedVariety
	}
	if p.SeedReplacementRate != nil {
		rec.SeedReplacementRate = *p.SeedReplacementRate
	}
	if p.Pests != nil {
		rec.Pests = normalizePests(*p.Pests)
	}
	if p.Mechanization != nil {
		rec.Mechanization = *p.Mechanization
	}
	if p.CreditAccess != nil {
		rec.CreditAccess = *p.CreditAccess
	}
	return rec, nil
}

// checkBlock enforces that a block belongs to the selected district.
func (c *Controller) checkBlock(district, block string) error {
	if block == "" {
		return nil
	}
	if district == "" {
		return fmt.Errorf("%w: no district selected", ErrBlockNotInDistrict)
	}
	if c.blocks == nil {
		return nil
	}
	known, err := c.blocks.BlocksOf(district)
	if err != nil {
		return fmt.Errorf("lookup blocks of %s: %w", district, err)
	}
	if !slices.Contains(known, block) {
		return fmt.Errorf("%w: %s is not in %s", ErrBlockNotInDistrict, block, district)
	}
	return nil
}

// normalizePests dedupes and drops the sentinel, which only ever means "empty".
func normalizePests(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || p == derive.NoPestsSentinel || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// TogglePest flips one pest; toggling the sentinel clears the set.
func (c *Controller) TogglePest(pest string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted {
		return nil, ErrSubmitted
	}
	c.rec.Pests = derive.TogglePest(c.rec.Pests, pest)
	return slices.Clone(c.rec.Pests), nil
}

// SetNoPests applies the "no pests detected" checkbox.
func (c *Controller) SetNoPests(checked bool) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted {
		return nil, ErrSubmitted
	}
	c.rec.Pests = derive.NoPests(c.rec.Pests, checked)
	return slices.Clone(c.rec.Pests), nil
}

// SetSoilHealthValue edits one soil test value while the card is enabled.
func (c *Controller) SetSoilHealthValue(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted {
		return ErrSubmitted
	}
	if !c.rec.HasSoilHealthCard {
		return ErrNoSoilHealthCard
	}
	data, err := derive.SoilHealthValue(c.rec.SoilHealthData, field, value)
	if err != nil {
		return fmt.Errorf("%w: %q", err, field)
	}
	c.rec.SoilHealthData = data
	return nil
}

// AddFertilizer appends an empty application row and returns its id.
func (c *Controller) AddFertilizer() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted {
		return 0, ErrSubmitted
	}
	var id int64
	c.rec.Fertilizers, id = c.fert.Add(c.rec.Fertilizers)
	return id, nil
}

// RemoveFertilizer drops a row; an unknown id is not an error.
func (c *Controller) RemoveFertilizer(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted {
		return ErrSubmitted
	}
	c.rec.Fertilizers = fertilizer.Remove(c.rec.Fertilizers, id)
	return nil
}

// UpdateFertilizer edits columns of a row; an unknown id is not an error.
func (c *Controller) UpdateFertilizer(id int64, changes ...fertilizer.Change) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted {
		return ErrSubmitted
	}
	for _, ch := range changes {
		c.rec.Fertilizers = fertilizer.Update(c.rec.Fertilizers, id, ch)
	}
	return nil
}
