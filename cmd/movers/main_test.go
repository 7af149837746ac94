package main

import (
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func point(first, rest byte) string {
	b := make([]byte, 32)
	b[0] = first
	for i := 1; i < 32; i++ {
		b[i] = rest
	}
	return base58.Encode(b)
}

var (
	basePoint = point(0x58, 0x66)
	identity  = point(0x01, 0x00)
	offCurve  = point(0x02, 0x00)
)

func TestParseMovers(t *testing.T) {
	in := "wallet,role,name\n" +
		basePoint + ",kol,Ansem\n" +
		"# comment\n" +
		identity + ", fund\n" +
		basePoint + ",fund,Ansem 2\n"

	movers, err := parseMovers(strings.NewReader(in), now)
	require.NoError(t, err)
	require.Len(t, movers, 2)

	assert.Equal(t, basePoint, movers[0].WalletAddress)
	assert.Equal(t, "fund", movers[0].Role, "later row wins")
	assert.Equal(t, "Ansem 2", movers[0].Name)
	assert.Equal(t, now, movers[0].CreatedAt)

	assert.Equal(t, identity, movers[1].WalletAddress)
	assert.Equal(t, "fund", movers[1].Role)
	assert.Empty(t, movers[1].Name)
}

func TestParseMovers_RejectsInvalidRows(t *testing.T) {
	in := basePoint + ",kol\n" +
		offCurve + ",kol\n" +
		"not-a-wallet,kol\n" +
		identity + "\n"

	_, err := parseMovers(strings.NewReader(in), now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "row 3")
	assert.Contains(t, err.Error(), "row 4")
	assert.NotContains(t, err.Error(), "row 1:")
}
