package util

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		offset     int
		limit      int
	}{
		{"first page", 1, 10, 0, 10},
		{"third page", 3, 10, 20, 10},
		{"page below one", 0, 10, 0, 10},
		{"default size", 1, 0, 0, DefaultPageSize},
		{"size capped", 1, 1000, 0, MaxPageSize},
		{"huge page clamped", math.MaxInt, MaxPageSize, (MaxPage - 1) * MaxPageSize, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.limit, limit)
			assert.GreaterOrEqual(t, offset, 0)
		})
	}
}

func TestCalculate_FromQuery(t *testing.T) {
	page := ParseIntDefault(strconv.Itoa(math.MaxInt), 1)
	offset, _ := Calculate(page, DefaultPageSize)
	assert.GreaterOrEqual(t, offset, 0)

	assert.Equal(t, 7, ParseIntDefault("7", 1))
	assert.Equal(t, 1, ParseIntDefault("seven", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
}

func TestMeta(t *testing.T) {
	m := Meta(2, 10, 10, 25)
	assert.Equal(t, 2, m["page"])
	assert.EqualValues(t, 3, m["total_pages"])
	assert.Equal(t, true, m["has_prev"])
	assert.Equal(t, true, m["has_next"])

	m = Meta(math.MaxInt, (MaxPage-1)*10, 10, 5)
	assert.Equal(t, MaxPage, m["page"])
	assert.Equal(t, false, m["has_next"])
}
