package orbit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

func writeTLEFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "amateur.tle")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFindTLE(t *testing.T) {
	path := writeTLEFile(t, strings.Join([]string{
		"OTHER SAT",
		"1 00001U 00000A   08264.51782528 -.00002182  00000-0 -11606-4 0  2920",
		"2 00001  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563530",
		"  ISS (ZARYA)  ",
		issLine1,
		issLine2,
		"",
	}, "\n"))

	tle, err := FindTLE("ISS (ZARYA)", path)
	require.NoError(t, err)
	assert.Equal(t, "ISS (ZARYA)", tle.Name)
	assert.Equal(t, issLine1, tle.Line1)
	assert.Equal(t, issLine2, tle.Line2)
	assert.Equal(t, "25544", tle.CatalogNumber())
}

func TestFindTLEErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := FindTLE("ISS", filepath.Join(t.TempDir(), "nope.tle"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not open file")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("name not present", func(t *testing.T) {
		path := writeTLEFile(t, "ISS\n"+issLine1+"\n"+issLine2+"\n")
		_, err := FindTLE("ISS (ZARYA)", path)
		assert.ErrorIs(t, err, ErrTLENotFound)
	})

	t.Run("partial name does not match", func(t *testing.T) {
		path := writeTLEFile(t, "ISS (ZARYA)\n"+issLine1+"\n"+issLine2+"\n")
		_, err := FindTLE("ISS", path)
		assert.ErrorIs(t, err, ErrTLENotFound)
	})

	t.Run("truncated file", func(t *testing.T) {
		path := writeTLEFile(t, "ISS\n"+issLine1+"\n")
		_, err := FindTLE("ISS", path)
		assert.ErrorIs(t, err, ErrInvalidTLE)
	})
}

func TestTLEValidate(t *testing.T) {
	corrupt := []byte(issLine2)
	corrupt[20] = '9'

	tests := []struct {
		name string
		tle  TLE
		ok   bool
	}{
		{name: "valid", tle: TLE{Name: "ISS", Line1: issLine1, Line2: issLine2}, ok: true},
		{name: "swapped lines", tle: TLE{Name: "ISS", Line1: issLine2, Line2: issLine1}},
		{name: "bad checksum", tle: TLE{Name: "ISS", Line1: issLine1, Line2: string(corrupt)}},
		{name: "short line", tle: TLE{Name: "ISS", Line1: issLine1[:60], Line2: issLine2}},
		{name: "catalog mismatch", tle: TLE{Name: "ISS", Line1: issLine1, Line2: "2 25545" + issLine2[7:68] + "8"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tle.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTLE)
			}
		})
	}
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, 7, checksum(issLine1))
	assert.Equal(t, 7, checksum(issLine2))
}
