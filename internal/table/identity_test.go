package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(fields map[string]Value) *Record {
	return NewRecord(0, fields)
}

func TestAssign_NumbersRowsInLoadOrder(t *testing.T) {
	ds := New([]string{ColLocation}, []*Record{
		rec(map[string]Value{ColLocation: String("Paris")}),
		rec(map[string]Value{ColLocation: String("Berlin")}),
		rec(map[string]Value{ColLocation: String("Rome")}),
	})

	require.NoError(t, Assign(ds))

	assert.True(t, ds.Assigned())
	assert.Equal(t, RowID(3), ds.LastID())
	for i, r := range ds.Rows() {
		assert.Equal(t, RowID(i+1), r.ID)
	}
	assert.Equal(t, "Berlin", ds.ByID(2).Value(ColLocation).String())
}

func TestAssign_AddsDefaultColumns(t *testing.T) {
	ds := New([]string{ColLocation}, []*Record{
		rec(map[string]Value{ColLocation: String("Paris")}),
	})

	require.NoError(t, Assign(ds))

	assert.Equal(t, []string{ColLocation, ColRemarks, ColLat, ColLon}, ds.Columns())
	r := ds.At(0)
	v, ok := r.Get(ColRemarks)
	require.True(t, ok)
	assert.Equal(t, "", v.String())
	assert.True(t, r.NeedsGeocoding())
}

func TestAssign_KeepsExistingIDs(t *testing.T) {
	ds := New([]string{ColRowID, ColLocation}, []*Record{
		rec(map[string]Value{ColRowID: String("10"), ColLocation: String("Paris")}),
		rec(map[string]Value{ColRowID: Number(4), ColLocation: String("Berlin")}),
	})

	require.NoError(t, Assign(ds))

	assert.Equal(t, RowID(10), ds.At(0).ID)
	assert.Equal(t, RowID(4), ds.At(1).ID)
	assert.Equal(t, RowID(10), ds.LastID())
	assert.False(t, ds.At(0).Has(ColRowID))
	assert.NotContains(t, ds.Columns(), ColRowID)
}

func TestAssign_Idempotent(t *testing.T) {
	ds := New([]string{ColLocation}, []*Record{
		rec(map[string]Value{ColLocation: String("Paris")}),
		rec(map[string]Value{ColLocation: String("Berlin")}),
	})
	require.NoError(t, Assign(ds))
	once := ds.Clone()

	require.NoError(t, Assign(ds))

	assert.Equal(t, once, ds.Clone())
}

func TestAssign_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		ids  []Value
	}{
		{"duplicate", []Value{String("1"), String("1")}},
		{"non-integer", []Value{String("1"), String("abc")}},
		{"fractional", []Value{Number(1), Number(2.5)}},
		{"blank", []Value{String("1"), Missing()}},
		{"zero", []Value{String("0"), String("1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]*Record, len(tt.ids))
			for i, id := range tt.ids {
				rows[i] = rec(map[string]Value{ColRowID: id, ColLocation: String("x")})
			}
			ds := New([]string{ColRowID, ColLocation}, rows)

			err := Assign(ds)

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, ColRowID, se.Column)
			assert.False(t, ds.Assigned())
			for _, r := range ds.Rows() {
				assert.Equal(t, RowID(0), r.ID, "no mutation on schema error")
				assert.True(t, r.Has(ColRowID))
			}
		})
	}
}

func TestIdentifyView_AllowsBlankIDs(t *testing.T) {
	ds := New([]string{ColRowID, ColRemarks}, []*Record{
		rec(map[string]Value{ColRowID: String("2"), ColRemarks: String("call back")}),
		rec(map[string]Value{ColRowID: Missing(), ColRemarks: String("new lead")}),
	})

	require.NoError(t, IdentifyView(ds))

	assert.Equal(t, RowID(2), ds.At(0).ID)
	assert.Equal(t, RowID(0), ds.At(1).ID)
	assert.False(t, ds.Assigned())
}

func TestIdentifyView_RejectsGarbage(t *testing.T) {
	ds := New([]string{ColRowID}, []*Record{
		rec(map[string]Value{ColRowID: String("two")}),
	})

	var se *SchemaError
	require.ErrorAs(t, IdentifyView(ds), &se)
}

func TestHasIdentity(t *testing.T) {
	plain := New([]string{ColLocation}, []*Record{rec(map[string]Value{ColLocation: String("Paris")})})
	assert.False(t, HasIdentity(plain))

	withCol := New([]string{ColRowID}, []*Record{rec(map[string]Value{ColRowID: String("1")})})
	assert.True(t, HasIdentity(withCol))

	require.NoError(t, Assign(plain))
	assert.True(t, HasIdentity(plain))

	preset := New(nil, []*Record{NewRecord(7, map[string]Value{ColRemarks: String("x")})})
	assert.True(t, HasIdentity(preset))
}

func TestAssign_KeepsIDsSetOnRecords(t *testing.T) {
	ds := New([]string{ColLocation}, []*Record{
		NewRecord(5, map[string]Value{ColLocation: String("Paris")}),
		NewRecord(9, map[string]Value{ColLocation: String("Berlin")}),
	})

	require.NoError(t, Assign(ds))

	assert.Equal(t, RowID(5), ds.At(0).ID)
	assert.Equal(t, RowID(9), ds.At(1).ID)
	assert.Equal(t, RowID(9), ds.LastID())
	assert.Equal(t, "Berlin", ds.ByID(9).Value(ColLocation).String())
	assert.Equal(t, RowID(10), ds.NextID())
}

func TestAssign_MixedPresetAndMissingIDs(t *testing.T) {
	ds := New([]string{ColLocation}, []*Record{
		NewRecord(5, map[string]Value{ColLocation: String("Paris")}),
		rec(map[string]Value{ColLocation: String("Berlin")}),
	})

	var se *SchemaError
	require.ErrorAs(t, Assign(ds), &se)
	assert.Equal(t, 1, se.Row)
	assert.False(t, ds.Assigned())
}

func TestIdentifyView_KeepsIDsSetOnRecords(t *testing.T) {
	ds := New(nil, []*Record{
		NewRecord(2, map[string]Value{ColRemarks: String("call back")}),
		rec(map[string]Value{ColRowID: Missing(), ColRemarks: String("new lead")}),
	})

	require.NoError(t, IdentifyView(ds))

	assert.Equal(t, RowID(2), ds.At(0).ID)
	assert.Equal(t, RowID(0), ds.At(1).ID)
	assert.True(t, HasIdentity(ds))
}

func TestIdentifyView_ResultStillHasIdentity(t *testing.T) {
	ds := New([]string{ColRowID}, []*Record{
		rec(map[string]Value{ColRowID: Missing(), ColRemarks: String("new lead")}),
	})

	require.NoError(t, IdentifyView(ds))

	assert.False(t, ds.At(0).Has(ColRowID))
	assert.True(t, HasIdentity(ds))
	assert.True(t, HasIdentity(ds.Clone()))
}

func TestDataset_RemoveDoesNotRecycleIDs(t *testing.T) {
	ds := New([]string{ColLocation}, []*Record{
		rec(map[string]Value{ColLocation: String("a")}),
		rec(map[string]Value{ColLocation: String("b")}),
		rec(map[string]Value{ColLocation: String("c")}),
	})
	require.NoError(t, Assign(ds))

	assert.Equal(t, 1, ds.Remove(map[RowID]bool{3: true}))
	assert.Nil(t, ds.ByID(3))
	assert.Equal(t, RowID(4), ds.NextID())
}
