package wizard

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"krushi/entities"
	"krushi/pkg/fertilizer"
	"krushi/pkg/geo"
	"krushi/pkg/notice"
	"krushi/pkg/renderer"
	"krushi/pkg/validation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type blockTable map[string][]string

func (b blockTable) BlocksOf(d string) ([]string, error) { return b[d], nil }

var july1 = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	c       *Controller
	notices *notice.Queue
	render  *renderer.Recorder
}

func newFixture(t *testing.T, mod func(*Options)) fixture {
	t.Helper()
	f := fixture{notices: notice.NewQueue(50), render: &renderer.Recorder{}}
	o := Options{
		ID:        "s1",
		Renderer:  f.render,
		Notices:   f.notices,
		Validator: validation.Validator{Now: func() time.Time { return july1.AddDate(0, 1, 0) }},
	}
	if mod != nil {
		mod(&o)
	}
	f.c = New(o)
	return f
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func seasonp(s entities.Season) *entities.Season { return &s }

func fillStep2(t *testing.T, c *Controller, area string) {
	t.Helper()
	require.NoError(t, c.Apply(Patch{
		Crop:       strp("Rice"),
		Season:     seasonp(entities.SeasonKharif),
		SowingDate: &Date{july1},
		FieldArea:  strp(area),
	}))
}

func awaitOutcome(t *testing.T, ch <-chan geo.Outcome) geo.Outcome {
	t.Helper()
	select {
	case o, ok := <-ch:
		require.True(t, ok)
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("location probe did not resolve")
	}
	return geo.Outcome{}
}

func TestNewWizardStartsEmpty(t *testing.T) {
	f := newFixture(t, nil)
	st := f.c.State()
	assert.Equal(t, StepLocation, st.CurrentStep)
	assert.Empty(t, st.CompletedSteps)
	assert.False(t, st.Submitted)

	rec := f.c.Record()
	assert.NotNil(t, rec.Fertilizers)
	assert.NotNil(t, rec.Pests)
	assert.False(t, rec.GPSDetected)
}

func TestCropStepDerivesCategoryAndAdvances(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Apply(Patch{District: strp("Puri")}))
	_, err := f.c.Next(context.Background())
	require.NoError(t, err)

	fillStep2(t, f.c, "1.5")
	assert.Equal(t, entities.FarmSmall, f.c.Record().FarmCategory)

	st, err := f.c.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepSoil, st.CurrentStep)
	assert.Equal(t, []int{StepLocation, StepCrop}, st.CompletedSteps)
}

func TestZeroAreaBlocksNavigation(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Apply(Patch{District: strp("Puri")}))
	_, err := f.c.Next(context.Background())
	require.NoError(t, err)
	f.notices.Drain()

	fillStep2(t, f.c, "0")
	assert.Empty(t, f.c.Record().FarmCategory)

	st, err := f.c.Next(context.Background())
	assert.ErrorIs(t, err, ErrStepIncomplete)
	assert.Equal(t, StepCrop, st.CurrentStep)
	assert.Equal(t, []int{StepLocation}, st.CompletedSteps)

	n := f.notices.Drain()
	require.Len(t, n, 1)
	assert.Equal(t, notice.Warning, n[0].Level)
	assert.Equal(t, "Please complete required fields", n[0].Title)
}

func TestNoPestsSentinelClearsSelection(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Apply(Patch{Pests: &[]string{"Stem Borer"}}))

	pests, err := f.c.SetNoPests(true)
	require.NoError(t, err)
	assert.Empty(t, pests)
	assert.Empty(t, f.c.Record().Pests)
}

func TestTogglePest(t *testing.T) {
	f := newFixture(t, nil)
	pests, err := f.c.TogglePest("Stem Borer")
	require.NoError(t, err)
	assert.Equal(t, []string{"Stem Borer"}, pests)

	pests, err = f.c.TogglePest("Leaf Folder")
	require.NoError(t, err)
	assert.Equal(t, []string{"Stem Borer", "Leaf Folder"}, pests)

	pests, err = f.c.TogglePest("Stem Borer")
	require.NoError(t, err)
	assert.Equal(t, []string{"Leaf Folder"}, pests)
}

func TestPestPatchDropsSentinelAndDuplicates(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Apply(Patch{Pests: &[]string{"Aphids", "None", "Aphids", " "}}))
	assert.Equal(t, []string{"Aphids"}, f.c.Record().Pests)
}

func TestFertilizerAddUpdateRemove(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.IDs = fertilizer.NewIDSource(func() time.Time { return july1 })
	})
	id, err := f.c.AddFertilizer()
	require.NoError(t, err)

	rec := f.c.Record()
	require.Len(t, rec.Fertilizers, 1)
	assert.Equal(t, entities.FertilizerRecord{ID: id}, rec.Fertilizers[0])

	require.NoError(t, f.c.UpdateFertilizer(id, fertilizer.SetQuantity("50")))
	rec = f.c.Record()
	assert.Equal(t, "50", rec.Fertilizers[0].Quantity)
	assert.Equal(t, id, rec.Fertilizers[0].ID)

	id2, err := f.c.AddFertilizer()
	require.NoError(t, err)
	assert.Greater(t, id2, id)

	require.NoError(t, f.c.RemoveFertilizer(id))
	rec = f.c.Record()
	require.Len(t, rec.Fertilizers, 1)
	assert.Equal(t, id2, rec.Fertilizers[0].ID)

	require.NoError(t, f.c.RemoveFertilizer(999))
	assert.Len(t, f.c.Record().Fertilizers, 1)
}

func TestDeniedLocationLeavesRecordUntouched(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Locator = geo.Failing(geo.Denied) })
	require.NoError(t, f.c.Apply(Patch{District: strp("Puri")}))
	before := f.c.Record()

	o := awaitOutcome(t, f.c.DetectLocation(context.Background()))
	assert.Equal(t, geo.Denied, o.FailureKind())

	after := f.c.Record()
	assert.Equal(t, before, after)
	assert.False(t, after.GPSDetected)
	assert.Nil(t, after.GPSCoordinates)

	n := f.notices.Drain()
	require.Len(t, n, 1)
	assert.Equal(t, "Location access denied", n[0].Title)
}

func TestDetectedLocationIsMerged(t *testing.T) {
	pos := entities.Coordinates{Latitude: 19.8135, Longitude: 85.8312}
	f := newFixture(t, func(o *Options) { o.Locator = geo.Fixed(pos) })

	o := awaitOutcome(t, f.c.DetectLocation(context.Background()))
	require.True(t, o.OK())

	rec := f.c.Record()
	assert.True(t, rec.GPSDetected)
	require.NotNil(t, rec.GPSCoordinates)
	assert.Equal(t, pos, *rec.GPSCoordinates)
	assert.False(t, f.c.Snapshot().Locating)

	n := f.notices.Drain()
	require.Len(t, n, 1)
	assert.Equal(t, "Location detected", n[0].Title)
	assert.Equal(t, "GPS coordinates: 19.8135, 85.8312", n[0].Message)
}

func TestDuplicateDetectJoinsPendingProbe(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	loc := geo.LocatorFunc(func(ctx context.Context) (entities.Coordinates, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return entities.Coordinates{Latitude: 20.1, Longitude: 85.6}, nil
	})
	f := newFixture(t, func(o *Options) { o.Locator = loc })

	first := f.c.DetectLocation(context.Background())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	second := f.c.DetectLocation(context.Background())
	assert.True(t, f.c.Snapshot().Locating)
	close(release)

	a, b := awaitOutcome(t, first), awaitOutcome(t, second)
	assert.Equal(t, a.Coordinates, b.Coordinates)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Len(t, f.notices.Drain(), 1)
}

func TestDeviceLocationDoesNotJoinPendingLookup(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	server := geo.LocatorFunc(func(ctx context.Context) (entities.Coordinates, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return entities.Coordinates{}, &geo.Failure{Kind: geo.Denied}
	})
	f := newFixture(t, func(o *Options) { o.Locator = server })

	pending := f.c.DetectLocation(context.Background())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)

	pos := entities.Coordinates{Latitude: 20.2961, Longitude: 85.8245}
	o := awaitOutcome(t, f.c.DetectLocationWith(context.Background(), geo.Reported(&pos, "")))
	require.True(t, o.OK())
	rec := f.c.Record()
	assert.True(t, rec.GPSDetected)
	require.NotNil(t, rec.GPSCoordinates)
	assert.Equal(t, pos, *rec.GPSCoordinates)
	assert.True(t, f.c.Snapshot().Locating)

	close(release)
	assert.Equal(t, geo.Denied, awaitOutcome(t, pending).FailureKind())
	rec = f.c.Record()
	assert.True(t, rec.GPSDetected, "a failed lookup leaves the record untouched")
	assert.Equal(t, pos, *rec.GPSCoordinates)
	assert.False(t, f.c.Snapshot().Locating)
	assert.Len(t, f.notices.Drain(), 2)
}

func TestResetDropsLateLocation(t *testing.T) {
	release := make(chan struct{})
	loc := geo.LocatorFunc(func(ctx context.Context) (entities.Coordinates, error) {
		<-release
		return entities.Coordinates{Latitude: 20.1, Longitude: 85.6}, nil
	})
	f := newFixture(t, func(o *Options) { o.Locator = loc })

	ch := f.c.DetectLocation(context.Background())
	f.c.Reset()
	close(release)
	awaitOutcome(t, ch)

	rec := f.c.Record()
	assert.False(t, rec.GPSDetected)
	assert.Nil(t, rec.GPSCoordinates)
	assert.Empty(t, f.notices.Drain())
}

func TestCannotSkipAhead(t *testing.T) {
	f := newFixture(t, nil)
	fillStep2(t, f.c, "3")
	require.NoError(t, f.c.Apply(Patch{Irrigation: strp("Canal"), SoilType: strp("Alluvial"), SeedVariety: strp("MTU-7029")}))

	st, err := f.c.Next(context.Background())
	assert.ErrorIs(t, err, ErrStepIncomplete)
	assert.Equal(t, StepLocation, st.CurrentStep)
}

func TestPreviousKeepsCompletionMarks(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Apply(Patch{District: strp("Puri")}))
	_, err := f.c.Next(context.Background())
	require.NoError(t, err)

	st, err := f.c.Previous()
	require.NoError(t, err)
	assert.Equal(t, StepLocation, st.CurrentStep)
	assert.Equal(t, []int{StepLocation}, st.CompletedSteps)

	st, err = f.c.Previous()
	require.NoError(t, err)
	assert.Equal(t, StepLocation, st.CurrentStep)

	// clearing the district leaves the stale mark in place
	require.NoError(t, f.c.Apply(Patch{District: strp("")}))
	assert.Equal(t, []int{StepLocation}, f.c.State().CompletedSteps)
	assert.False(t, f.c.IsStepValid(StepLocation))

	prog := f.c.Progress()
	require.Len(t, prog, TotalSteps)
	assert.Equal(t, StepProgress{Number: 1, Label: "Location", Status: StatusCompleted}, prog[0])
	assert.Equal(t, StatusPending, prog[1].Status)
}

func completeSurvey(t *testing.T, c *Controller) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.Apply(Patch{District: strp("Puri"), Block: strp("Pipili")}))
	_, err := c.Next(ctx)
	require.NoError(t, err)
	fillStep2(t, c, "2.5")
	_, err = c.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Apply(Patch{Irrigation: strp("Canal"), SoilType: strp("Alluvial")}))
	_, err = c.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Apply(Patch{SeedVariety: strp("MTU-7029"), Mechanization: boolp(true)}))
}

func TestSubmitHandsFrozenRecordToRenderer(t *testing.T) {
	f := newFixture(t, nil)
	completeSurvey(t, f.c)
	_, err := f.c.AddFertilizer()
	require.NoError(t, err)
	f.notices.Drain()

	st, err := f.c.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Submitted)
	assert.Equal(t, []int{1, 2, 3, 4}, st.CompletedSteps)

	recs := f.render.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "Puri", recs[0].District)
	assert.Equal(t, entities.FarmMedium, recs[0].FarmCategory)
	require.Len(t, recs[0].Fertilizers, 1)

	n := f.notices.Drain()
	require.Len(t, n, 1)
	assert.Equal(t, "Analysis Complete!", n[0].Title)

	assert.ErrorIs(t, f.c.Apply(Patch{Crop: strp("Wheat")}), ErrSubmitted)
	_, err = f.c.AddFertilizer()
	assert.ErrorIs(t, err, ErrSubmitted)
	_, err = f.c.Next(context.Background())
	assert.ErrorIs(t, err, ErrSubmitted)
	_, err = f.c.Previous()
	assert.ErrorIs(t, err, ErrSubmitted)
	assert.Equal(t, "Rice", f.render.Records()[0].Crop)
	assert.False(t, f.c.Snapshot().CanNext)

	st = f.c.Reset()
	assert.False(t, st.Submitted)
	assert.Equal(t, StepLocation, st.CurrentStep)
	assert.Empty(t, f.c.Record().District)
}

func TestRendererFailureStillSubmits(t *testing.T) {
	f := newFixture(t, nil)
	f.render.Err = errors.New("model offline")
	completeSurvey(t, f.c)
	f.notices.Drain()

	st, err := f.c.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Submitted)

	n := f.notices.Drain()
	require.Len(t, n, 1)
	assert.Equal(t, notice.Warning, n[0].Level)
	assert.Equal(t, "Recommendations unavailable", n[0].Title)
}

func TestBlockMustBelongToDistrict(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Blocks = blockTable{"Puri": {"Pipili", "Nimapara"}, "Khordha": {"Jatni"}}
	})
	err := f.c.Apply(Patch{Block: strp("Pipili")})
	assert.ErrorIs(t, err, ErrBlockNotInDistrict)

	require.NoError(t, f.c.Apply(Patch{District: strp("Puri"), Block: strp("Pipili")}))
	assert.ErrorIs(t, f.c.Apply(Patch{Block: strp("Jatni")}), ErrBlockNotInDistrict)
	assert.Equal(t, "Pipili", f.c.Record().Block)

	// same district keeps the block, a new district clears it
	require.NoError(t, f.c.Apply(Patch{District: strp("Puri")}))
	assert.Equal(t, "Pipili", f.c.Record().Block)
	require.NoError(t, f.c.Apply(Patch{District: strp("Khordha")}))
	assert.Empty(t, f.c.Record().Block)
}

func TestApplyIsAllOrNothing(t *testing.T) {
	f := newFixture(t, nil)
	err := f.c.Apply(Patch{Crop: strp("Rice"), Season: seasonp("monsoon")})
	assert.ErrorIs(t, err, ErrInvalidSeason)
	assert.Empty(t, f.c.Record().Crop)
}

func TestSoilHealthCardToggle(t *testing.T) {
	f := newFixture(t, nil)
	assert.ErrorIs(t, f.c.SetSoilHealthValue("ph", "6.5"), ErrNoSoilHealthCard)

	require.NoError(t, f.c.Apply(Patch{HasSoilHealthCard: boolp(true)}))
	require.NoError(t, f.c.SetSoilHealthValue("ph", "6.5"))
	require.NoError(t, f.c.SetSoilHealthValue("nitrogen", "280"))
	rec := f.c.Record()
	require.NotNil(t, rec.SoilHealthData)
	assert.Equal(t, "6.5", rec.SoilHealthData.PH)
	assert.Equal(t, "280", rec.SoilHealthData.Nitrogen)

	assert.Error(t, f.c.SetSoilHealthValue("zinc", "1"))

	require.NoError(t, f.c.Apply(Patch{HasSoilHealthCard: boolp(false)}))
	assert.Nil(t, f.c.Record().SoilHealthData)
}

func TestInspectReportsFieldMessages(t *testing.T) {
	f := newFixture(t, nil)
	fillStep2(t, f.c, "0")
	require.NoError(t, f.c.Apply(Patch{SowingDate: &Date{july1.AddDate(1, 0, 0)}}))

	issues, err := f.c.Inspect(StepCrop)
	require.NoError(t, err)
	assert.Equal(t, []FieldIssue{
		{Field: "sowingDate", Message: "Date cannot be in the future"},
		{Field: "fieldArea", Message: "Field area must be greater than 0"},
	}, issues)

	require.NoError(t, f.c.Apply(Patch{HasSoilHealthCard: boolp(true)}))
	require.NoError(t, f.c.SetSoilHealthValue("ph", "15"))
	issues, err = f.c.Inspect(StepSoil)
	require.NoError(t, err)
	assert.Contains(t, issues, FieldIssue{Field: "soilHealthData.ph", Message: "pH level must be less than 14"})
	assert.Contains(t, issues, FieldIssue{Field: "irrigation", Message: "Irrigation type is required"})

	_, err = f.c.Inspect(9)
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestInspectAgreesWithStepGate(t *testing.T) {
	for _, area := range []string{"2.5 ha", "3", ".5", "ha 2", "-1", "0"} {
		f := newFixture(t, nil)
		fillStep2(t, f.c, area)

		issues, err := f.c.Inspect(StepCrop)
		require.NoError(t, err)
		assert.Equal(t, f.c.IsStepValid(StepCrop), len(issues) == 0, "area %q: %v", area, issues)
	}

	f := newFixture(t, nil)
	fillStep2(t, f.c, "2.5 ha")
	assert.Equal(t, entities.FarmMedium, f.c.Record().FarmCategory)
}

func TestDecodePatch(t *testing.T) {
	p, err := DecodePatch(strings.NewReader(`{"district":"Puri","sowingDate":"2024-07-01","pests":["Aphids"]}`))
	require.NoError(t, err)
	assert.Equal(t, "Puri", *p.District)
	assert.True(t, july1.Equal(p.SowingDate.Time))
	assert.Equal(t, []string{"Aphids"}, *p.Pests)

	_, err = DecodePatch(strings.NewReader(`{"farmCategory":"large"}`))
	assert.Error(t, err)
	_, err = DecodePatch(strings.NewReader(`{"gpsDetected":true}`))
	assert.Error(t, err)
	_, err = DecodePatch(strings.NewReader(`{"sowingDate":"01/07/2024"}`))
	assert.Error(t, err)

	p, err = DecodePatch(strings.NewReader(`{"sowingDate":""}`))
	require.NoError(t, err)
	require.NotNil(t, p.SowingDate)
	assert.True(t, p.SowingDate.IsZero())
}
