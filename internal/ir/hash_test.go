package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	a := IRObject{"field": IRString("year"), "min": IRInt(1995)}
	b := IRObject{"min": IRInt(1995), "field": IRString("year")}

	ha, err := Hash(DomainProgram, a)
	require.NoError(t, err)
	hb, err := Hash(DomainProgram, b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	raw, err := hex.DecodeString(ha)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestHashChangesWithContent(t *testing.T) {
	ha, err := Hash(DomainProgram, IRObject{"limit": IRInt(5)})
	require.NoError(t, err)
	hb, err := Hash(DomainProgram, IRObject{"limit": IRInt(6)})
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestHashDomainSeparation(t *testing.T) {
	v := IRString("artist:radiohead")
	hp, err := Hash(DomainProgram, v)
	require.NoError(t, err)
	hq, err := Hash(DomainQuery, v)
	require.NoError(t, err)
	assert.NotEqual(t, hp, hq)
	assert.Equal(t, hq, QueryID("artist:radiohead"))
}

func TestHashWithDomainSeparator(t *testing.T) {
	// "ab" + 0x00 + "c" must differ from "a" + 0x00 + "bc".
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestHashRejectsNull(t *testing.T) {
	_, err := Hash(DomainProgram, IRObject{"x": IRNull{}})
	assert.Error(t, err)
}
