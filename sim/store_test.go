package sim

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleStore_CreateGetArchive(t *testing.T) {
	// GIVEN a part store with one active record
	s := NewPartStore()
	id := s.NextID()
	require.NoError(t, s.Create(PartRecord{SimID: id, PartID: 7, Cycle: 3, Path: []string{PathInitFleetStart}}))

	// WHEN the record is updated and archived
	ok := s.Update(id, func(p *PartRecord) { p.AddPath(PathFleetEndInstall) })
	require.True(t, ok)
	frozen, ok := s.Archive(id)
	require.True(t, ok)

	// THEN it left the active set and the log holds the updated copy
	assert.False(t, s.IsActive(id))
	assert.True(t, s.IsArchived(id))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.LogLen())
	assert.Equal(t, "IC_IZFS, FE_IE", frozen.PathString())
	assert.Equal(t, frozen, s.Log()[0])
}

func TestCycleStore_ArchivedCopyIsImmutable(t *testing.T) {
	s := NewPartStore()
	require.NoError(t, s.Create(PartRecord{SimID: 0, Path: []string{"A"}}))
	frozen, _ := s.Archive(0)

	// mutating the returned copy must not reach the log
	frozen.Path[0] = "mutated"
	assert.Equal(t, "A", s.Log()[0].Path[0])
}

func TestCycleStore_DuplicateCreateRejected(t *testing.T) {
	s := NewAircraftStore()
	require.NoError(t, s.Create(AircraftRecord{DesID: 4, AircraftID: 1}))

	// active duplicate
	err := s.Create(AircraftRecord{DesID: 4, AircraftID: 2})
	require.Error(t, err)
	assert.True(t, IsRejected(err))

	// archived duplicate
	s.Archive(4)
	err = s.Create(AircraftRecord{DesID: 4, AircraftID: 3})
	assert.True(t, IsRejected(err))
	assert.Equal(t, 0, s.Len())
}

func TestCycleStore_NextIDSkipsExplicitIDs(t *testing.T) {
	s := NewPartStore()
	require.NoError(t, s.Create(PartRecord{SimID: 10}))
	assert.Equal(t, SimID(11), s.NextID())
	assert.Equal(t, SimID(12), s.NextID())
}

func TestCycleStore_ArchiveUnknownID(t *testing.T) {
	s := NewPartStore()
	_, ok := s.Archive(99)
	assert.False(t, ok)
	assert.False(t, s.Update(99, func(*PartRecord) {}))
}

func TestCycleStore_ExportAllMergesSorted(t *testing.T) {
	// GIVEN active and archived records created out of order
	s := NewPartStore()
	for _, id := range []SimID{3, 0, 2, 1} {
		require.NoError(t, s.Create(PartRecord{SimID: id}))
	}
	s.Archive(2)
	s.Archive(0)

	// WHEN exported
	all, err := s.ExportAll()
	require.NoError(t, err)

	// THEN every id appears once in ascending order
	ids := make([]SimID, len(all))
	for i, p := range all {
		ids[i] = p.SimID
	}
	assert.Equal(t, []SimID{0, 1, 2, 3}, ids)
	assert.Equal(t, []SimID{1, 3}, s.ActiveIDs())
}

func TestWindow_SetCloseContains(t *testing.T) {
	var w Window
	assert.False(t, w.Contains(0), "empty window contains nothing")

	w.Open(10)
	assert.True(t, w.Contains(10))
	assert.True(t, w.Contains(1e9), "open window extends forever")
	assert.False(t, w.Contains(9.99))

	w.Close(15)
	assert.Equal(t, 5.0, w.Duration.MustGet())
	assert.True(t, w.Contains(14.99))
	assert.False(t, w.Contains(15), "end is exclusive")

	var s Window
	s.Set(2, 3)
	assert.Equal(t, 5.0, s.End.MustGet())
}

func TestOpt_JSONNull(t *testing.T) {
	var w Window
	w.Open(1.5)
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":1.5,"end":null,"duration":null}`, string(data))
}

func TestIntegrityErrors_Wrap(t *testing.T) {
	err := integrityf("cycle %d missing", 5)
	assert.True(t, errors.Is(err, ErrIntegrity))
	assert.Contains(t, err.Error(), "cycle 5 missing")
}
