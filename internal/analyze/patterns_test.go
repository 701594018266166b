package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternContainsHex(t *testing.T) {
	m, err := compilePatterns([]PayloadPattern{{ContainsHex: "DE:AD be-ef"}})
	require.NoError(t, err)

	_, ok := m.match([]byte{0x00, 0xDE, 0xAD, 0xBE, 0xEF, 0x00})
	assert.True(t, ok, "separators and case must not matter")

	reason, ok := m.match([]byte{0xDE, 0xAD})
	assert.False(t, ok)
	assert.Contains(t, reason, "hex substring")
}

func TestPatternContainsASCII(t *testing.T) {
	m, err := compilePatterns([]PayloadPattern{{ContainsASCII: "INVITE"}})
	require.NoError(t, err)

	_, ok := m.match([]byte("xxINVITE sip:alice"))
	assert.True(t, ok)

	_, ok = m.match([]byte("invite"))
	assert.False(t, ok, "ascii containment is case-sensitive")
}

func TestPatternRegex(t *testing.T) {
	m, err := compilePatterns([]PayloadPattern{
		{RegexHex: "^deadbeef(00)+$"},
		{RegexASCII: `\x{00}*$`},
	})
	require.NoError(t, err)

	_, ok := m.match([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x00})
	assert.True(t, ok)

	reason, ok := m.match([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01})
	assert.False(t, ok)
	assert.Contains(t, reason, "hex regex")
}

func TestPatternAllMustMatch(t *testing.T) {
	m, err := compilePatterns([]PayloadPattern{
		{ContainsASCII: "abc"},
		{ContainsASCII: "xyz"},
	})
	require.NoError(t, err)

	_, ok := m.match([]byte("abc...xyz"))
	assert.True(t, ok)
	_, ok = m.match([]byte("abc only"))
	assert.False(t, ok)
}

func TestPatternBadRegex(t *testing.T) {
	_, err := compilePatterns([]PayloadPattern{{RegexHex: "("}})
	assert.Error(t, err)
	_, err = compilePatterns([]PayloadPattern{{RegexASCII: "[z-a]"}})
	assert.Error(t, err)
}

func TestPatternIsZero(t *testing.T) {
	assert.True(t, PayloadPattern{}.IsZero())
	assert.False(t, PayloadPattern{ContainsHex: "00"}.IsZero())
	assert.False(t, PayloadPattern{RegexASCII: "."}.IsZero())
}
