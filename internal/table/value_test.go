package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_Float(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want float64
		ok   bool
	}{
		{"number", Number(1.5), 1.5, true},
		{"numeric string", String(" 48.85 "), 48.85, true},
		{"nan string", String("nan"), 0, false},
		{"inf string", String("Inf"), 0, false},
		{"text", String("Paris"), 0, false},
		{"missing", Missing(), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.v.Float()
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestNumber_RejectsNonFinite(t *testing.T) {
	assert.True(t, Number(math.NaN()).IsMissing())
	assert.True(t, Number(math.Inf(1)).IsMissing())
}

func TestValue_Int(t *testing.T) {
	n, ok := String("42").Int()
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	n, ok = String("7.0").Int()
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	_, ok = Number(7.5).Int()
	assert.False(t, ok)
}

func TestValue_IsBlank(t *testing.T) {
	for _, s := range []string{"", "  ", "nan", "NaN", "None", "null", "<NA>", "N/A"} {
		assert.True(t, String(s).IsBlank(), s)
	}
	assert.True(t, Missing().IsBlank())
	assert.False(t, String("Paris").IsBlank())
	assert.False(t, Number(0).IsBlank())
}

func TestParseCell(t *testing.T) {
	assert.True(t, ParseCell("").IsMissing())
	assert.Equal(t, String(" x "), ParseCell(" x "))
}
