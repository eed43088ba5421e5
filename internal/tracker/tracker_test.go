package tracker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitd/internal/models"
)

var t0 = time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)

func TestApplyDetectedVisit(t *testing.T) {
	tr := NewVisitTracker(Retention{})

	rv, first, err := tr.ApplyDetectedVisit("nevada", t0)
	require.NoError(t, err)
	assert.True(t, first)
	assert.True(t, rv.Visited)
	assert.True(t, rv.WasEverVisited)
	assert.True(t, rv.IsActive)
	assert.Equal(t, t0, *rv.FirstVisitedAt)
	assert.Equal(t, t0, *rv.LastVisitedAt)

	rv, first, err = tr.ApplyDetectedVisit("NV", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, t0, *rv.FirstVisitedAt)
	assert.Equal(t, t0.Add(time.Hour), *rv.LastVisitedAt, "same-day revisit still advances lastVisitedAt")

	snap := tr.Snapshot()
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, t0.Add(time.Hour), snap.LastUpdated)

	events := tr.Events()
	require.Len(t, events, 2)
	assert.Equal(t, models.SourceGPS, events[0].Source)
	assert.Equal(t, "Nevada", events[0].Region)
}

func TestApplyDetectedVisit_UnknownRegion(t *testing.T) {
	tr := NewVisitTracker(Retention{})

	_, _, err := tr.ApplyDetectedVisit("Atlantis", t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownRegion))
	assert.Equal(t, 0, tr.Snapshot().Len())
	assert.Empty(t, tr.Events())
}

func TestApplyManualEdit(t *testing.T) {
	tr := NewVisitTracker(Retention{})

	rv, err := tr.ApplyManualEdit("Utah", true, t0)
	require.NoError(t, err)
	assert.True(t, rv.Edited)
	assert.True(t, rv.IsActive)
	assert.False(t, rv.Visited)
	assert.False(t, rv.WasEverVisited)
	assert.Nil(t, rv.FirstVisitedAt)
	assert.Nil(t, rv.LastVisitedAt)

	events := tr.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.SourceManual, events[0].Source)
}

func TestApplyManualEdit_RemovalKeepsHistory(t *testing.T) {
	tr := NewVisitTracker(Retention{})
	_, _, err := tr.ApplyDetectedVisit("Oregon", t0)
	require.NoError(t, err)

	rv, err := tr.ApplyManualEdit("Oregon", false, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, rv.IsActive)
	assert.True(t, rv.Visited)
	assert.True(t, rv.WasEverVisited)
	assert.Equal(t, t0, *rv.LastVisitedAt)
	assert.Len(t, tr.Events(), 1, "removal appends no event")
}

func TestApplyManualEdit_UnknownRegion(t *testing.T) {
	tr := NewVisitTracker(Retention{})
	_, err := tr.ApplyManualEdit("Puerto Rico", true, t0)
	assert.ErrorIs(t, err, ErrUnknownRegion)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	tr := NewVisitTracker(Retention{})
	_, _, _ = tr.ApplyDetectedVisit("Idaho", t0)

	snap := tr.Snapshot()
	rv := snap.Regions["Idaho"]
	*rv.FirstVisitedAt = t0.Add(-time.Hour)
	snap.Regions["Idaho"] = models.RegionVisit{}

	again := tr.Snapshot().Regions["Idaho"]
	assert.True(t, again.Visited)
	assert.Equal(t, t0, *again.FirstVisitedAt)
}

func TestReplace(t *testing.T) {
	tr := NewVisitTracker(Retention{})
	_, _, _ = tr.ApplyDetectedVisit("Idaho", t0)

	rs := models.NewRecordSet()
	rs.Regions["texas"] = models.RegionVisit{Edited: true, IsActive: true}
	tr.Replace(rs)

	snap := tr.Snapshot()
	assert.Equal(t, []string{"Texas"}, snap.Active())
	_, ok := snap.Get("Idaho")
	assert.False(t, ok)
}

func TestEventsDeduplicated(t *testing.T) {
	tr := NewVisitTracker(Retention{})
	_, _, _ = tr.ApplyDetectedVisit("Ohio", t0)
	_, _, _ = tr.ApplyDetectedVisit("Ohio", t0)
	assert.Len(t, tr.Events(), 1)
}

func TestEventsKeptSorted(t *testing.T) {
	tr := NewVisitTracker(Retention{})
	_, _, _ = tr.ApplyDetectedVisit("Ohio", t0.Add(time.Hour))
	_, _, _ = tr.ApplyDetectedVisit("Indiana", t0)

	events := tr.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "Indiana", events[0].Region)
}

func TestRetention_MaxEntriesKeepsLastDay(t *testing.T) {
	tr := NewVisitTracker(Retention{MaxEntries: 2})
	_, _, _ = tr.ApplyDetectedVisit("Ohio", t0.Add(-72*time.Hour))
	_, _, _ = tr.ApplyDetectedVisit("Iowa", t0.Add(-48*time.Hour))
	_, _, _ = tr.ApplyDetectedVisit("Maine", t0)
	_, _, _ = tr.ApplyDetectedVisit("Texas", t0.Add(time.Minute))
	_, _, _ = tr.ApplyDetectedVisit("Utah", t0.Add(2*time.Minute))

	events := tr.Events()
	require.Len(t, events, 3, "events inside the last 24h survive the cap")
	assert.Equal(t, "Maine", events[0].Region)
}

func TestRetention_MaxAgeHasFloor(t *testing.T) {
	tr := NewVisitTracker(Retention{MaxAge: time.Hour})
	_, _, _ = tr.ApplyDetectedVisit("Ohio", t0.Add(-30*time.Hour))
	_, _, _ = tr.ApplyDetectedVisit("Iowa", t0.Add(-20*time.Hour))
	_, _, _ = tr.ApplyDetectedVisit("Maine", t0)

	events := tr.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "Iowa", events[0].Region)
}

func TestReplaceEvents(t *testing.T) {
	tr := NewVisitTracker(Retention{})
	tr.ReplaceEvents(models.EventLog{
		{Region: "utah", Timestamp: t0.Add(time.Hour), Source: models.SourceGPS},
		{Region: "Utah", Timestamp: t0.Add(time.Hour), Source: models.SourceGPS},
		{Region: "Nevada", Timestamp: t0, Source: models.SourceManual},
	})

	events := tr.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "Nevada", events[0].Region)

	_, _, _ = tr.ApplyDetectedVisit("Utah", t0.Add(time.Hour))
	assert.Len(t, tr.Events(), 2)
}

type sliceArchive struct {
	got models.EventLog
}

func (a *sliceArchive) Archive(log models.EventLog) {
	a.got = append(a.got, log...)
}

func TestRetention_DroppedEventsAreArchived(t *testing.T) {
	archive := &sliceArchive{}
	tr := NewVisitTracker(Retention{MaxAge: time.Hour, Archive: archive})
	_, _, _ = tr.ApplyDetectedVisit("Ohio", t0.Add(-30*time.Hour))
	_, _, _ = tr.ApplyDetectedVisit("Iowa", t0.Add(-20*time.Hour))
	_, _, _ = tr.ApplyDetectedVisit("Maine", t0)

	require.Len(t, archive.got, 1)
	assert.Equal(t, "Ohio", archive.got[0].Region)
	assert.Len(t, tr.Events(), 2)
}
