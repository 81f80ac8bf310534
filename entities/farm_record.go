package entities

import (
	"slices"
	"time"
)

type Season string

const (
	SeasonKharif Season = "kharif" // Jun-Oct
	SeasonRabi   Season = "rabi"   // Nov-Apr
	SeasonZaid   Season = "zaid"   // May-Jun
)

func (s Season) Valid() bool {
	switch s {
	case SeasonKharif, SeasonRabi, SeasonZaid:
		return true
	}
	return false
}

type FarmCategory string

const (
	FarmMarginal FarmCategory = "marginal" // <1 ha
	FarmSmall    FarmCategory = "small"    // 1-2 ha
	FarmMedium   FarmCategory = "medium"   // 2-4 ha
	FarmLarge    FarmCategory = "large"    // >4 ha
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SoilHealthData holds soil test card values as entered (kg/ha, pH, %).
type SoilHealthData struct {
	Nitrogen      string `json:"nitrogen,omitempty"`
	Phosphorus    string `json:"phosphorus,omitempty"`
	Potassium     string `json:"potassium,omitempty"`
	PH            string `json:"ph,omitempty"`
	OrganicCarbon string `json:"organicCarbon,omitempty"`
}

type FertilizerRecord struct {
	ID       int64      `json:"id"`
	Type     string     `json:"type"`
	Quantity string     `json:"quantity"` // kg/ha
	Date     *time.Time `json:"date"`
}

// FarmRecord is the survey aggregate. An empty string means the field is absent.
type FarmRecord struct {
	// Location
	District       string       `json:"district,omitempty"`
	Block          string       `json:"block,omitempty"`
	GPSCoordinates *Coordinates `json:"gpsCoordinates,omitempty"`
	GPSDetected    bool         `json:"gpsDetected"`

	// Crop
	Crop         string       `json:"crop,omitempty"`
	Season       Season       `json:"season,omitempty"`
	SowingDate   *time.Time   `json:"sowingDate,omitempty"`
	FieldArea    string       `json:"fieldArea,omitempty"` // hectares
	FarmCategory FarmCategory `json:"farmCategory,omitempty"`

	// Soil & irrigation
	Irrigation        string          `json:"irrigation,omitempty"`
	SoilType          string          `json:"soilType,omitempty"`
	HasSoilHealthCard bool            `json:"hasSoilHealthCard"`
	SoilHealthData    *SoilHealthData `json:"soilHealthData,omitempty"`

	// Inputs & practices
	SeedVariety         string             `json:"seedVariety,omitempty"`
	SeedReplacementRate string             `json:"seedReplacementRate,omitempty"` // percent
	Fertilizers         []FertilizerRecord `json:"fertilizers"`
	Pests               []string           `json:"pests"`
	Mechanization       bool               `json:"mechanization"`
	CreditAccess        bool               `json:"creditAccess"`
}

// Clone returns a deep copy; the result shares no memory with r.
func (r FarmRecord) Clone() FarmRecord {
	out := r
	if r.GPSCoordinates != nil {
		c := *r.GPSCoordinates
		out.GPSCoordinates = &c
	}
	if r.SowingDate != nil {
		d := *r.SowingDate
		out.SowingDate = &d
	}
	if r.SoilHealthData != nil {
		s := *r.SoilHealthData
		out.SoilHealthData = &s
	}
	if r.Fertilizers != nil {
		out.Fertilizers = make([]FertilizerRecord, len(r.Fertilizers))
		for i, f := range r.Fertilizers {
			if f.Date != nil {
				d := *f.Date
				f.Date = &d
			}
			out.Fertilizers[i] = f
		}
	}
	out.Pests = slices.Clone(r.Pests)
	return out
}
