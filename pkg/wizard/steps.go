package wizard

import (
	"krushi/entities"
	"krushi/pkg/derive"
)

const TotalSteps = 4

const (
	StepLocation = 1
	StepCrop     = 2
	StepSoil     = 3
	StepInputs   = 4
)

var stepLabels = [TotalSteps + 1]string{
	StepLocation: "Location",
	StepCrop:     "Crop Details",
	StepSoil:     "Soil & Irrigation",
	StepInputs:   "Inputs & Practices",
}

// stepFields lists the record fields each step edits, in form order. Only
// some of them gate navigation; see stepValid.
var stepFields = [TotalSteps + 1][]string{
	StepLocation: {"district", "block"},
	StepCrop:     {"crop", "season", "sowingDate", "fieldArea"},
	StepSoil: {"irrigation", "soilType",
		"soilHealthData.nitrogen", "soilHealthData.phosphorus", "soilHealthData.potassium",
		"soilHealthData.ph", "soilHealthData.organicCarbon"},
	StepInputs: {"seedVariety", "seedReplacementRate"},
}

func validStep(step int) bool { return step >= 1 && step <= TotalSteps }

// stepValid is the navigation gate. Step 4 only requires the seed variety;
// fertilizers, pests and the access switches never block advancing.
func stepValid(r entities.FarmRecord, step int) bool {
	switch step {
	case StepLocation:
		return r.District != ""
	case StepCrop:
		return r.Crop != "" && r.Season != "" && r.SowingDate != nil &&
			r.FieldArea != "" && derive.ParseDecimal(r.FieldArea) > 0
	case StepSoil:
		return r.Irrigation != "" && r.SoilType != ""
	case StepInputs:
		return r.SeedVariety != ""
	}
	return false
}

// fieldValue reads a record field by its JSON name for rule evaluation.
func fieldValue(r entities.FarmRecord, name string) any {
	switch name {
	case "district":
		return r.District
	case "block":
		return r.Block
	case "crop":
		return r.Crop
	case "season":
		return string(r.Season)
	case "sowingDate":
		return r.SowingDate
	case "fieldArea":
		return r.FieldArea
	case "irrigation":
		return r.Irrigation
	case "soilType":
		return r.SoilType
	case "seedVariety":
		return r.SeedVariety
	case "seedReplacementRate":
		return r.SeedReplacementRate
	}
	if r.SoilHealthData == nil {
		return nil
	}
	switch name {
	case "soilHealthData.nitrogen":
		return r.SoilHealthData.Nitrogen
	case "soilHealthData.phosphorus":
		return r.SoilHealthData.Phosphorus
	case "soilHealthData.potassium":
		return r.SoilHealthData.Potassium
	case "soilHealthData.ph":
		return r.SoilHealthData.PH
	case "soilHealthData.organicCarbon":
		return r.SoilHealthData.OrganicCarbon
	}
	return nil
}
