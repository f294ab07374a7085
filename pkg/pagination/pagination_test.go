package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSize(t *testing.T) {
	assert.Equal(t, DefaultSize, NormalizeSize(0))
	assert.Equal(t, MaxSize, NormalizeSize(1000))
	assert.Equal(t, 7, NormalizeSize(7))
}

func TestParamsQuery(t *testing.T) {
	q := Params{Page: -3, Size: 0}.Query()
	assert.Equal(t, "0", q.Get("page"))
	assert.Equal(t, "20", q.Get("size"))
}

func TestPageNavigation(t *testing.T) {
	p := Page[int]{Number: 0, TotalPages: 2}
	assert.True(t, p.HasNext())
	assert.False(t, p.HasPrev())

	p.Number = 1
	assert.False(t, p.HasNext())
	assert.True(t, p.HasPrev())
}
