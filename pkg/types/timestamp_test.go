package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampAcceptsZonelessValues(t *testing.T) {
	var payload struct {
		CreatedAt Timestamp `json:"createdAt"`
		ReadAt    Timestamp `json:"readAt"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"createdAt":"2026-03-01T09:30:15.123456","readAt":null}`), &payload))

	assert.Equal(t, 2026, payload.CreatedAt.Year())
	assert.Equal(t, 15, payload.CreatedAt.Second())
	assert.Equal(t, time.UTC, payload.CreatedAt.Location())
	assert.True(t, payload.ReadAt.IsZero())
}

func TestTimestampAcceptsOffsets(t *testing.T) {
	ts, err := ParseTimestamp("2026-03-01T09:30:00+01:00")
	require.NoError(t, err)
	assert.Equal(t, 8, ts.UTC().Hour())

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestDateRoundTripsAsDay(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2020-05-17"`), &d))
	assert.Equal(t, "2020-05-17", d.String())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2020-05-17"`, string(out))

	out, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestParseDateTruncatesDateTimes(t *testing.T) {
	d, err := ParseDate("2026-10-17T08:00:00")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.October, 17), d)

	_, err = ParseDate("17/10/2026")
	assert.Error(t, err)
}

func TestYearsSinceIgnoresBirthday(t *testing.T) {
	born := NewDate(2020, time.December, 31)
	assert.Equal(t, 6, born.YearsSince(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
}
