package settings

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const encPrefix = "enc:"

// KeyProvider supplies the secret material the credential cipher key
// is derived from. The core never decides where that material lives.
type KeyProvider interface {
	KeyMaterial() []byte
}

// StaticKeyProvider wraps a secret handed in at process start.
type StaticKeyProvider struct {
	Secret string
}

func (p StaticKeyProvider) KeyMaterial() []byte {
	return []byte(p.Secret)
}

// Cipher encrypts and decrypts credential strings with AES-256-CBC.
// Stored form is "enc:" + base64(iv || ciphertext); values without the
// prefix are treated as legacy plaintext and pass through decryption.
type Cipher struct {
	key []byte
}

func NewCipher(kp KeyProvider) *Cipher {
	sum := sha256.Sum256(append(kp.KeyMaterial(), []byte("telegram-order-notify")...))
	return &Cipher{key: sum[:]}
}

func (c *Cipher) Encrypt(plain string) string {
	if plain == "" {
		return ""
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return plain
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return plain
	}
	padded := pkcs7Pad([]byte(plain), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return encPrefix + base64.StdEncoding.EncodeToString(append(iv, out...))
}

func (c *Cipher) Decrypt(stored string) string {
	if stored == "" {
		return ""
	}
	if !strings.HasPrefix(stored, encPrefix) {
		return stored
	}
	data, err := base64.StdEncoding.DecodeString(stored[len(encPrefix):])
	if err != nil || len(data) <= aes.BlockSize {
		return ""
	}
	iv, body := data[:aes.BlockSize], data[aes.BlockSize:]
	if len(body)%aes.BlockSize != 0 {
		return ""
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return ""
	}
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)
	plain, ok := pkcs7Unpad(plain, aes.BlockSize)
	if !ok {
		return ""
	}
	return string(plain)
}

// BotToken returns the decrypted primary credential.
func (c *Cipher) BotToken(s Settings) string {
	return strings.TrimSpace(c.Decrypt(s.BotToken))
}

// AdditionalBots returns the configured extra bots with decrypted
// tokens, dropping entries whose token decrypts to blank.
func (c *Cipher) AdditionalBots(s Settings) []BotConfig {
	out := make([]BotConfig, 0, len(s.AdditionalBots))
	for _, bot := range s.AdditionalBots {
		token := strings.TrimSpace(c.Decrypt(bot.Token))
		if token == "" {
			continue
		}
		out = append(out, BotConfig{Label: bot.Label, Token: token, ChatIDs: bot.ChatIDs})
	}
	return out
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	pad := make([]byte, n)
	for i := range pad {
		pad[i] = byte(n)
	}
	return append(b, pad...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, bool) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, false
	}
	for _, x := range b[len(b)-n:] {
		if int(x) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
