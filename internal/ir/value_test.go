package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("")
	var _ IRValue = IRInt(0)
	var _ IRValue = IRBool(false)
	var _ IRValue = IRArray{}
	var _ IRValue = IRObject{}
}

func TestSortedKeys(t *testing.T) {
	obj := IRObject{"zebra": IRInt(1), "alpha": IRInt(2), "Beta": IRInt(3)}
	assert.Equal(t, []string{"Beta", "alpha", "zebra"}, obj.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Equal(t, 0, compareKeysRFC8785("a", "a"))
	assert.Equal(t, -1, compareKeysRFC8785("a", "ab"))
	assert.Equal(t, 1, compareKeysRFC8785("b", "a"))
	assert.Equal(t, -1, compareKeysRFC8785("\U00010000", "\uE000"))
}

func TestMarshalJSON(t *testing.T) {
	v := IRObject{
		"b": IRArray{IRInt(1), IRNull{}},
		"a": IRString("x"),
	}
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":[1,null]}`, string(out))
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{
		"n":    json.Number("12"),
		"i":    3,
		"s":    "x",
		"b":    true,
		"list": []any{int64(1), nil},
	})
	require.NoError(t, err)
	assert.Equal(t, IRObject{
		"n":    IRInt(12),
		"i":    IRInt(3),
		"s":    IRString("x"),
		"b":    IRBool(true),
		"list": IRArray{IRInt(1), IRNull{}},
	}, v)
}

func TestFromGoRejectsFloats(t *testing.T) {
	_, err := FromGo(2.5)
	assert.Error(t, err)

	_, err = FromGo(json.Number("2.5"))
	assert.Error(t, err)

	_, err = FromGo([]any{"ok", 1.0})
	assert.Error(t, err)
}
