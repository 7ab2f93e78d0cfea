package ranks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriority(t *testing.T) {
	tables := Default()
	cases := []struct {
		name  string
		rank  string
		staff bool
		want  int
	}{
		{name: "top staff", rank: "SQNLDR", staff: true, want: 0},
		{name: "bottom staff", rank: "CIV", staff: true, want: len(tables.Staff) - 1},
		{name: "top cadet", rank: "CUO", staff: false, want: 0},
		{name: "bottom real cadet", rank: "CDT", staff: false, want: 6},
		{name: "sentinel keeps cadet slot", rank: Unknown, staff: false, want: 7},
		{name: "sentinel absent from staff", rank: Unknown, staff: true, want: NotFound},
		{name: "cadet rank in staff domain", rank: "CUO", staff: true, want: NotFound},
		{name: "staff rank in cadet domain", rank: "SGT", staff: false, want: NotFound},
		{name: "garbage", rank: "XYZ", staff: false, want: NotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tables.Priority(tc.rank, tc.staff))
		})
	}
}

func TestSentinelSortsBeforeUnmatchedRank(t *testing.T) {
	tables := Default()
	assert.Less(t, tables.Priority(Unknown, false), tables.Priority("BOGUS", false))
}

func TestIsRank(t *testing.T) {
	tables := Default()
	for _, r := range tables.Staff {
		assert.True(t, tables.IsRank(r), r)
		assert.True(t, tables.IsStaff(r), r)
	}
	for _, r := range tables.Cadet[:len(tables.Cadet)-1] {
		assert.True(t, tables.IsRank(r), r)
		assert.False(t, tables.IsStaff(r), r)
	}
	assert.False(t, tables.IsRank(Unknown))
	assert.False(t, tables.IsRank(""))
	assert.False(t, tables.IsRank("sgt"))
}

func TestDefaultReturnsFreshCopy(t *testing.T) {
	a := Default()
	a.Staff[0] = "CHANGED"
	b := Default()
	assert.Equal(t, "SQNLDR", b.Staff[0])
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	bad := Default()
	bad.Cadet = bad.Cadet[:len(bad.Cadet)-1]
	require.Error(t, bad.Validate())

	overlap := Default()
	overlap.Staff = append(overlap.Staff, "CUO")
	require.Error(t, overlap.Validate())

	require.Error(t, Tables{}.Validate())
}
