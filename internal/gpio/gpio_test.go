package gpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/alarm-station/internal/logic"
)

func TestScanMatrixEveryKey(t *testing.T) {
	for r := 0; r < KeypadRows; r++ {
		for c := 0; c < KeypadCols; c++ {
			want := KeyMap[r][c]
			got, err := scanMatrix(newFakeMatrix(want))
			require.NoError(t, err)
			assert.Equalf(t, want, got, "row %d col %d", r, c)
		}
	}
}

func TestScanMatrixNothingHeld(t *testing.T) {
	m := newFakeMatrix()
	got, err := scanMatrix(m)
	require.NoError(t, err)
	assert.Equal(t, logic.NoKey, got)
	assert.Equal(t, []int{0, 1, 2, 3}, m.selects, "every row visited")
}

func TestScanMatrixRowMajorFirstMatch(t *testing.T) {
	tests := []struct {
		name string
		held []logic.Key
		want logic.Key
	}{
		{"same row, left column wins", []logic.Key{'3', '2'}, '2'},
		{"upper row wins", []logic.Key{'5', '2'}, '2'},
		{"upper row wins over left column", []logic.Key{'*', 'B'}, 'B'},
		{"hash", []logic.Key{'#', 'D'}, '#'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newFakeMatrix(tt.held...)
			got, err := scanMatrix(m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanMatrixStopsAtMatch(t *testing.T) {
	m := newFakeMatrix('4')
	_, err := scanMatrix(m)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, m.selects)
}

type brokenMatrix struct{ fakeMatrix }

func (brokenMatrix) readCols([]int) error { return errors.New("read failed") }

func TestScanMatrixError(t *testing.T) {
	_, err := scanMatrix(&brokenMatrix{fakeMatrix: *newFakeMatrix('1')})
	assert.EqualError(t, err, "read failed")
}

func TestRowLevels(t *testing.T) {
	assert.Equal(t, []int{0, 1, 1, 1}, rowLevels(0))
	assert.Equal(t, []int{1, 1, 0, 1}, rowLevels(2))
}

func TestDefaultPinsUnique(t *testing.T) {
	p := DefaultPins()
	seen := map[int]bool{}
	all := []int{p.Siren, p.AlarmLed, p.IncorrectCodeLed, p.LockoutLed, p.TestButton}
	all = append(all, p.Rows[:]...)
	all = append(all, p.Cols[:]...)
	for _, pin := range all {
		assert.Falsef(t, seen[pin], "pin %d assigned twice", pin)
		seen[pin] = true
	}
	assert.Equal(t, DefaultChip, p.Chip)
}
