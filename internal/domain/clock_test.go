package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestAnchorDates(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.October, 17, 13, 45, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	anchors := AnchorDates(3, time.UTC)

	assert.Equal(t, []time.Time{
		time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 10, 17, 0, 0, 0, 0, time.UTC),
	}, anchors)
}

func TestToday_UsesLocation(t *testing.T) {
	// 23:30 UTC is already the next day in Athens.
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.October, 17, 23, 30, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	athens := time.FixedZone("EEST", 3*60*60)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, athens), Today(athens))
}

func TestSubYears_ClampsLeapDay(t *testing.T) {
	leap := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), SubYears(leap, 1))
	assert.Equal(t, time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC), SubYears(leap, 4))
	assert.Equal(t, leap, SubYears(leap, 0))
}

func TestSubMonths(t *testing.T) {
	assert.Equal(t, time.Date(2026, 4, 17, 0, 0, 0, 0, time.UTC), SubMonths(time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), 6))
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), SubMonths(time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC), 3))
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), SubMonths(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 3))
}

func TestCatalog(t *testing.T) {
	entries := Catalog()

	assert.Len(t, entries, 4)
	assert.Equal(t, "Eyinos", entries[1].Key)
	assert.Equal(t, "Evinos", entries[1].Label)
	assert.Equal(t, []string{"Yliko", "yliko", "Yliki", "yliki"}, entries[2].Aliases)

	entries[0].Aliases[0] = "mutated"
	assert.Equal(t, "Mornos", Mornos.Aliases()[0], "catalog must hand out copies")
}
