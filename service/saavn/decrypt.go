package saavn

import (
	"bytes"
	"crypto/des"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/teal-fm/melody/models"
)

// mediaKey is the fixed DES key the catalog uses to obfuscate media URLs.
var mediaKey = []byte("38346591")

// DecryptMediaURL reverses the DES-ECB obfuscation on encrypted_media_url values.
//
// The upstream padding is not standards-compliant, so instead of validating a
// padding scheme every control byte (0x00-0x08, tab, newline, carriage return)
// is removed from the plaintext.
func DecryptMediaURL(ciphertext string) (string, error) {
	ciphertext = strings.TrimSpace(ciphertext)
	if ciphertext == "" {
		return "", fmt.Errorf("%w: empty input", ErrDecryptionFailed)
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	block, err := des.NewCipher(mediaKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	bs := block.BlockSize()
	if len(raw) == 0 || len(raw)%bs != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d is not a multiple of %d", ErrDecryptionFailed, len(raw), bs)
	}

	plain := make([]byte, len(raw))
	for i := 0; i < len(raw); i += bs {
		block.Decrypt(plain[i:i+bs], raw[i:i+bs])
	}

	url := string(stripControl(plain))
	if url == "" {
		return "", fmt.Errorf("%w: empty plaintext", ErrDecryptionFailed)
	}
	return url, nil
}

// EncryptMediaURL is the inverse of DecryptMediaURL, padding with PKCS#5 bytes.
func EncryptMediaURL(url string) (string, error) {
	block, err := des.NewCipher(mediaKey)
	if err != nil {
		return "", err
	}

	bs := block.BlockSize()
	pad := bs - len(url)%bs
	plain := append([]byte(url), bytes.Repeat([]byte{byte(pad)}, pad)...)

	out := make([]byte, len(plain))
	for i := 0; i < len(plain); i += bs {
		block.Encrypt(out[i:i+bs], plain[i:i+bs])
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

func stripControl(b []byte) []byte {
	out := b[:0]
	for _, c := range b {
		if c <= 0x08 || c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		out = append(out, c)
	}
	return out
}

// mediaLinks turns an encrypted media url into the single 320kbps download entry,
// or nil when it cannot be decrypted.
func mediaLinks(encrypted string) ([]models.Link, error) {
	url, err := DecryptMediaURL(encrypted)
	if err != nil {
		return nil, err
	}
	url = strings.Replace(url, "_96.", "_320.", 1)
	return []models.Link{{Quality: "320kbps", URL: url}}, nil
}
