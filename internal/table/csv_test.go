package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = ` Customer ,Location,Qty,lat,lon
Acme,Paris,3,,
Globex,Berlin,5,52.52,13.405
Initech,,nan,nan,
`

func TestReadCSV_TrimsHeaderAndKeepsMissing(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{ColCustomer, ColLocation, ColQty, ColLat, ColLon}, ds.Columns())
	require.Equal(t, 3, ds.Len())

	first := ds.At(0)
	assert.Equal(t, "Acme", first.Value(ColCustomer).String())
	assert.True(t, first.Value(ColLat).IsMissing())
	assert.True(t, first.NeedsGeocoding())

	second := ds.At(1)
	lat, lon, ok := second.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 52.52, lat, 1e-9)
	assert.InDelta(t, 13.405, lon, 1e-9)

	third := ds.At(2)
	assert.True(t, third.NeedsGeocoding(), "nan is not a coordinate")
	assert.True(t, third.Value(ColLocation).IsBlank())
}

func TestReadCSV_PadsShortRowsAndSkipsBlankLines(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("Location,Customer\nParis\n,\nRome,Acme\n"))
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	v, ok := ds.At(0).Get(ColCustomer)
	assert.True(t, ok)
	assert.True(t, v.IsMissing())
}

func TestReadCSV_DuplicateHeaders(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("Location,Location\na,b\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Location", "Location.1"}, ds.Columns())
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteCSV_IdentityFirstAndRoundTrip(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, Assign(ds))
	ds.ByID(1).SetCoordinates(48.8566, 2.3522)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "__row_id__,Customer,Location,Qty,lat,lon,Remarks", lines[0])
	assert.Equal(t, "1,Acme,Paris,3,48.8566,2.3522,", lines[1])

	back, err := ReadCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.NoError(t, Assign(back))
	assert.Equal(t, ds.Len(), back.Len())
	assert.Equal(t, RowID(3), back.LastID())
	lat, _, ok := back.ByID(1).Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 48.8566, lat, 1e-9)
}

func TestCSVFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte(sampleCSV), 0o644))

	ds, err := ReadCSVFile(in)
	require.NoError(t, err)
	require.NoError(t, Assign(ds))

	out := filepath.Join(dir, "out.csv")
	require.NoError(t, WriteCSVFile(out, ds))

	back, err := ReadCSVFile(out)
	require.NoError(t, err)
	assert.True(t, HasIdentity(back))
	assert.Equal(t, 3, back.Len())
}

func TestXLSXFile_RoundTrip(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, Assign(ds))
	ds.ByID(1).SetCoordinates(48.8566, 2.3522)

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, WriteXLSXFile(path, ds))

	back, err := ReadXLSXFile(path, XLSXOptions{})
	require.NoError(t, err)
	require.NoError(t, Assign(back))

	assert.Equal(t, 3, back.Len())
	assert.Equal(t, "Globex", back.ByID(2).Value(ColCustomer).String())
	lat, lon, ok := back.ByID(1).Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 48.8566, lat, 1e-6)
	assert.InDelta(t, 2.3522, lon, 1e-6)
}

func TestReadXLSXFile_MissingSheet(t *testing.T) {
	ds := New([]string{ColLocation}, []*Record{rec(map[string]Value{ColLocation: String("Paris")})})
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, WriteXLSXFile(path, ds))

	_, err := ReadXLSXFile(path, XLSXOptions{SheetName: "Nope"})
	assert.Error(t, err)

	_, err = ReadXLSXFile(path, XLSXOptions{SheetIndex: 3})
	assert.Error(t, err)
}
