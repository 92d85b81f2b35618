package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashSenderIDIsStable(t *testing.T) {
	InitHashSalt()

	a := HashSenderID("+34666111222")
	b := HashSenderID("+34666111222")
	require.Equal(t, a, b)
	require.Len(t, a, 8)
}

func TestHashSenderIDDiffersPerSender(t *testing.T) {
	InitHashSalt()

	a := HashSenderID("+34666111222")
	b := HashSenderID("+34666111223")
	require.NotEqual(t, a, b)
}

func TestHashSenderIDNeverContainsInput(t *testing.T) {
	InitHashSalt()

	h := HashSenderID("+34666111222")
	require.NotContains(t, h, "34666111222")
}

func TestSanitizeText(t *testing.T) {
	require.Equal(t, "<empty>", SanitizeText(""))
	require.Equal(t, "<redacted: 2 words, 11 chars>", SanitizeText("Coffee 3,50"))
}
