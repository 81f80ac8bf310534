package derive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krushi/entities"
)

func TestParseDecimal(t *testing.T) {
	cases := map[string]float64{
		"":        0,
		"abc":     0,
		"1.5":     1.5,
		" 2.25 ":  2.25,
		"3ha":     3,
		".5":      0.5,
		"-2":      -2,
		"1e1":     10,
		"4.":      4,
		"ha 3":    0,
		"1.2.3":   1.2,
		"+0.75kg": 0.75,
		"1e-400":  0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseDecimal(in), "input %q", in)
	}
}

func TestParseDecimalOverflowIsInfinite(t *testing.T) {
	assert.True(t, math.IsInf(ParseDecimal("1e400"), 1))
	assert.True(t, math.IsInf(ParseDecimal("-1e400 ha"), -1))
}

func TestFarmCategoryFor(t *testing.T) {
	cases := []struct {
		area string
		want entities.FarmCategory
		ok   bool
	}{
		{"", "", false},
		{"0", "", false},
		{"-3", "", false},
		{"junk", "", false},
		{"0.01", entities.FarmMarginal, true},
		{"0.99", entities.FarmMarginal, true},
		{"1", entities.FarmSmall, true},
		{"1.5", entities.FarmSmall, true},
		{"2", entities.FarmSmall, true},
		{"2.01", entities.FarmMedium, true},
		{"4", entities.FarmMedium, true},
		{"4.1", entities.FarmLarge, true},
		{"250", entities.FarmLarge, true},
		{"2.5 ha", entities.FarmMedium, true},
		{"1e400", entities.FarmLarge, true},
	}
	for _, tc := range cases {
		got, ok := FarmCategoryFor(tc.area)
		assert.Equal(t, tc.want, got, "area %q", tc.area)
		assert.Equal(t, tc.ok, ok, "area %q", tc.area)
	}
}

func TestFieldAreaFollowsLastWrite(t *testing.T) {
	rec := FieldArea(entities.FarmRecord{}, "5")
	assert.Equal(t, entities.FarmLarge, rec.FarmCategory)

	// partial entry while typing "0.8"
	rec = FieldArea(rec, "0.")
	assert.Equal(t, entities.FarmCategory(""), rec.FarmCategory)
	rec = FieldArea(rec, "0.8")
	assert.Equal(t, entities.FarmMarginal, rec.FarmCategory)
	assert.Equal(t, "0.8", rec.FieldArea)
}

func TestDistrictChangeClearsBlock(t *testing.T) {
	rec := entities.FarmRecord{District: "Gajapati", Block: "Rayagada"}

	same := District(rec, "Gajapati")
	assert.Equal(t, "Rayagada", same.Block)

	// Rayagada district also has a Rayagada block; the block still resets.
	moved := District(rec, "Rayagada")
	assert.Equal(t, "Rayagada", moved.District)
	assert.Empty(t, moved.Block)
	assert.Equal(t, "Rayagada", rec.Block, "input untouched")
}

func TestTogglePest(t *testing.T) {
	pests := TogglePest(nil, "Stem Borer")
	assert.Equal(t, []string{"Stem Borer"}, pests)

	pests = TogglePest(pests, "Leaf Folder")
	assert.ElementsMatch(t, []string{"Stem Borer", "Leaf Folder"}, pests)

	pests = TogglePest(pests, "Stem Borer")
	assert.Equal(t, []string{"Leaf Folder"}, pests)

	withSentinel := []string{NoPestsSentinel}
	assert.Equal(t, []string{"Rice Bug"}, TogglePest(withSentinel, "Rice Bug"))

	assert.Empty(t, TogglePest([]string{"Rice Bug"}, NoPestsSentinel))
}

func TestTogglePestNeverProducesSentinel(t *testing.T) {
	seq := []string{"Stem Borer", "Rice Bug", "Stem Borer", "Gall Midge", "Rice Bug", "Blast Disease"}
	pests := []string{NoPestsSentinel}
	for _, p := range seq {
		pests = TogglePest(pests, p)
		assert.NotContains(t, pests, NoPestsSentinel)
	}
	assert.ElementsMatch(t, []string{"Gall Midge", "Blast Disease"}, pests)
}

func TestNoPests(t *testing.T) {
	assert.Empty(t, NoPests([]string{"Stem Borer"}, true))
	assert.Empty(t, NoPests([]string{}, true), "idempotent on empty set")
	assert.Equal(t, []string{"Stem Borer"}, NoPests([]string{"Stem Borer"}, false))
}

func TestSoilHealthCard(t *testing.T) {
	rec := SoilHealthCard(entities.FarmRecord{}, true)
	require.NotNil(t, rec.SoilHealthData)
	assert.True(t, rec.HasSoilHealthCard)

	data, err := SoilHealthValue(rec.SoilHealthData, "ph", "6.5")
	require.NoError(t, err)
	rec.SoilHealthData = data

	on := SoilHealthCard(rec, true)
	assert.Equal(t, "6.5", on.SoilHealthData.PH, "re-enabling keeps entered data")

	off := SoilHealthCard(rec, false)
	assert.False(t, off.HasSoilHealthCard)
	assert.Nil(t, off.SoilHealthData)

	again := SoilHealthCard(off, true)
	assert.Equal(t, entities.SoilHealthData{}, *again.SoilHealthData)
}

func TestSoilHealthValue(t *testing.T) {
	orig := &entities.SoilHealthData{Nitrogen: "250"}
	got, err := SoilHealthValue(orig, "organicCarbon", "0.8")
	require.NoError(t, err)
	assert.Equal(t, entities.SoilHealthData{Nitrogen: "250", OrganicCarbon: "0.8"}, *got)
	assert.Empty(t, orig.OrganicCarbon)

	_, err = SoilHealthValue(orig, "zinc", "1")
	assert.ErrorIs(t, err, ErrUnknownSoilField)
}
