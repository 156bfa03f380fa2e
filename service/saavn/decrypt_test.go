package saavn

import (
	"crypto/des"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecryptMediaURL_RoundTrip(t *testing.T) {
	urls := []string{
		"https://aac.saavncdn.com/815/abc123_96.mp4",
		"https://aac.saavncdn.com/1/x_320.mp4",
		"h",
		"exactly-16-bytes",
	}

	for _, u := range urls {
		t.Run(u, func(t *testing.T) {
			enc, err := EncryptMediaURL(u)
			require.NoError(t, err)

			got, err := DecryptMediaURL(enc)
			require.NoError(t, err)
			assert.Equal(t, u, got)

			for _, c := range []byte(got) {
				assert.False(t, c <= 0x08 || c == '\t' || c == '\n' || c == '\r', "control byte %#x in output", c)
			}
		})
	}
}

func TestDecryptMediaURL_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace", input: "   "},
		{name: "not base64", input: "%%%not-base64%%%"},
		{name: "length not a block multiple", input: base64.StdEncoding.EncodeToString([]byte("12345"))},
		{name: "only padding bytes", input: base64.StdEncoding.EncodeToString(desEncryptRaw(t, []byte{8, 8, 8, 8, 8, 8, 8, 8}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecryptMediaURL(tt.input)
			assert.ErrorIs(t, err, ErrDecryptionFailed)
		})
	}
}

func TestMediaLinks_UpgradesQuality(t *testing.T) {
	enc, err := EncryptMediaURL("https://aac.saavncdn.com/815/abc123_96.mp4")
	require.NoError(t, err)

	links, err := mediaLinks(enc)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "320kbps", links[0].Quality)
	assert.Equal(t, "https://aac.saavncdn.com/815/abc123_320.mp4", links[0].URL)
}

func TestStripControl(t *testing.T) {
	in := []byte("a\x00b\x01\tc\nd\re\x08f\x09")
	assert.Equal(t, "abcdef", string(stripControl(in)))

	// bytes outside the stripped set survive, including invalid utf-8
	raw := []byte{'x', 0xff, 0x7f, 'y'}
	assert.Equal(t, raw, stripControl(append([]byte(nil), raw...)))
	assert.False(t, strings.ContainsRune(string(stripControl([]byte("\n\n"))), '\n'))
}

func desEncryptRaw(t *testing.T, plain []byte) []byte {
	t.Helper()
	block, err := des.NewCipher(mediaKey)
	require.NoError(t, err)
	require.Zero(t, len(plain)%block.BlockSize())

	out := make([]byte, len(plain))
	for i := 0; i < len(plain); i += block.BlockSize() {
		block.Encrypt(out[i:i+block.BlockSize()], plain[i:i+block.BlockSize()])
	}
	return out
}
