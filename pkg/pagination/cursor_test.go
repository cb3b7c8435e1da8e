package pagination

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor_RoundTrip(t *testing.T) {
	c := Cursor{T: ListingLTE, F: "europe", Off: 30, Ps: 30}
	tok, err := EncodeCursor(c)
	require.NoError(t, err)
	// token should be url-safe base64 (no '+', '/', '=')
	require.False(t, strings.ContainsAny(tok, "+/="), "token %q", tok)

	out, err := DecodeCursor(tok)
	require.NoError(t, err)
	require.Equal(t, 1, out.V)
	require.Equal(t, ListingLTE, out.T)
	require.Equal(t, "europe", out.F)
	require.Equal(t, 30, out.Off)
	require.Equal(t, 30, out.Ps)
	require.NotZero(t, out.Iat)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	cases := []string{
		"",    // empty
		"!!!", // not base64
		base64.RawURLEncoding.EncodeToString([]byte("not-json")),
		mustB64(`{"v":1}`),
		mustB64(`{"v":1,"t":"nr","off":0,"ps":10}`),
		mustB64(`{"v":1,"t":"lte","off":-1,"ps":10}`),
		mustB64(`{"v":1,"t":"lte","off":0,"ps":0}`),
	}
	for i, tok := range cases {
		_, err := DecodeCursor(tok)
		require.Error(t, err, "case %d: token %q", i, tok)
	}
}

func TestNextOffset(t *testing.T) {
	require.Equal(t, 30, NextOffset(0, 30))
	require.Equal(t, 0, NextOffset(-5, 0))
	require.Equal(t, 60, NextOffset(30, 30))
}

func FuzzDecodeCursor(f *testing.F) {
	seeds := []string{
		"", "abc", mustB64(`{"v":1}`), mustB64(`{"t":"lte"}`),
		mustB64(`{"v":1,"t":"lte","f":"asia","off":30,"ps":30}`),
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, token string) {
		_, _ = DecodeCursor(token)
	})
}

func mustB64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
