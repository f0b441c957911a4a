package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCourtDate(t *testing.T) {
	want := time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC)

	tests := []string{
		"15-03-2021",
		"15/03/2021",
		"15.03.2021",
		"15-Mar-2021",
		"15 March 2021",
		"2021-03-15",
		"Mar 15, 2021",
		"Monday, 15-03-2021",
		"  15-03-2021  ",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := ParseCourtDate(in)
			require.NoError(t, err)
			assert.True(t, got.Equal(want), "parsed %v", got)
		})
	}
}

func TestParseCourtDateFailure(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "15-13-2021", "next hearing tbd"} {
		_, err := ParseCourtDate(in)
		assert.Error(t, err, "input %q", in)
	}
}
