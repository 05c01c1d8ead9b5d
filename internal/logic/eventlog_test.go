package logic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeObserve(t *testing.T) {
	var e Edge[bool]
	assert.False(t, e.Observe(true))
	assert.True(t, e.Observe(true))
	assert.True(t, e.Observe(false))
	assert.False(t, e.Last())

	var s Edge[AlarmState]
	assert.Equal(t, AlarmState(""), s.Observe(AlarmActive))
	assert.Equal(t, AlarmActive, s.Last())
}

func TestRecordIfEdgeOnlyRisingEdges(t *testing.T) {
	var l EventLog

	_, ok := l.RecordIfEdge(false, false, ElementGas, 1)
	assert.False(t, ok)
	_, ok = l.RecordIfEdge(true, true, ElementGas, 2)
	assert.False(t, ok, "steady ON is not an edge")
	_, ok = l.RecordIfEdge(true, false, ElementGas, 3)
	assert.False(t, ok, "OFF transitions are not logged")

	r, ok := l.RecordIfEdge(false, true, ElementGas, 4)
	require.True(t, ok)
	assert.Equal(t, Record{Seconds: 4, Label: "GAS_DET_ON"}, r)
	assert.Equal(t, 1, l.Len())
}

func TestEventLogEvictsOldest(t *testing.T) {
	var l EventLog
	for i := 1; i <= LogCapacity+1; i++ {
		_, ok := l.RecordIfEdge(false, true, fmt.Sprintf("E%d", i), int64(i))
		require.True(t, ok)
		require.LessOrEqual(t, l.Len(), LogCapacity)
	}

	got := l.Records()
	require.Len(t, got, LogCapacity)
	for i, r := range got {
		assert.Equal(t, int64(i+2), r.Seconds, "records should be the most recent, oldest first")
		assert.Equal(t, fmt.Sprintf("E%d_ON", i+2), r.Label)
	}
}

func TestEventLogRecordsIsACopy(t *testing.T) {
	var l EventLog
	l.RecordIfEdge(false, true, ElementAlarm, 10)
	got := l.Records()
	got[0].Label = "changed"
	assert.Equal(t, "ALARM_ON", l.Records()[0].Label)
}

func TestEventLogLabelBounded(t *testing.T) {
	var l EventLog
	r, ok := l.RecordIfEdge(false, true, "VERY_LONG_ELEMENT", 1)
	require.True(t, ok)
	assert.Len(t, r.Label, LabelMaxLength)
	assert.Equal(t, "VERY_LONG_ELE", r.Label)

	r, _ = l.RecordIfEdge(false, true, ElementOverTemp, 2)
	assert.Equal(t, "OVER_TEMP_ON", r.Label)
}

func TestRecordTime(t *testing.T) {
	r := Record{Seconds: 1767225600}
	assert.Equal(t, int64(1767225600), r.Time().Unix())
}
