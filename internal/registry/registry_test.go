package registry

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseTypes(t *testing.T) {
	types := CaseTypes()
	require.NotEmpty(t, types)
	assert.Contains(t, types, "Civil Suit")
	assert.Contains(t, types, "Writ Petition (Civil)")

	// returned slice is a copy
	types[0] = "mutated"
	assert.NotEqual(t, "mutated", CaseTypes()[0])
}

func TestIsValidCaseType(t *testing.T) {
	assert.True(t, IsValidCaseType("Criminal Appeal"))
	assert.False(t, IsValidCaseType("Parking Ticket"))
	assert.False(t, IsValidCaseType(""))
}

func TestYears(t *testing.T) {
	years := Years()
	require.Len(t, years, YearSpan)

	current := time.Now().Year()
	assert.Equal(t, strconv.Itoa(current), years[0])
	assert.Equal(t, strconv.Itoa(current-YearSpan+1), years[len(years)-1])

	// strictly descending
	for i := 1; i < len(years); i++ {
		prev, _ := strconv.Atoi(years[i-1])
		cur, _ := strconv.Atoi(years[i])
		assert.Equal(t, prev-1, cur)
	}
}
