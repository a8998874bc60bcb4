package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// Vault parameters. Changing any of them invalidates every stored secret.
const (
	SaltSize         = 16
	IVSize           = 12
	TagSize          = 16
	KeySize          = 32
	PBKDF2Iterations = 100_000
)

// SecretMaterial is the output of one Encrypt call. All four fields are
// required to decrypt.
type SecretMaterial struct {
	Ciphertext []byte
	IV         []byte
	AuthTag    []byte
	Salt       []byte
}

// Vault adapts the package functions to the keycache.Decrypter interface.
type Vault struct{}

func (Vault) Decrypt(m *SecretMaterial, passwordHash string) ([]byte, error) {
	return Decrypt(m, passwordHash)
}

func deriveKey(passwordHash string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passwordHash), salt, PBKDF2Iterations, KeySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with a key derived from passwordHash. Salt and IV
// are drawn from crypto/rand on every call.
func Encrypt(plaintext []byte, passwordHash string) (*SecretMaterial, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("iv: %w", err)
	}

	key := deriveKey(passwordHash, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := aesgcm.Seal(nil, iv, plaintext, nil)
	n := len(sealed) - TagSize

	return &SecretMaterial{
		Ciphertext: sealed[:n:n],
		IV:         iv,
		AuthTag:    sealed[n:],
		Salt:       salt,
	}, nil
}

// Decrypt opens m with a key derived from passwordHash. Every failure,
// including malformed material, is reported as common.ErrorDecryptionFailed.
func Decrypt(m *SecretMaterial, passwordHash string) ([]byte, error) {
	if m == nil || len(m.IV) != IVSize || len(m.AuthTag) != TagSize || len(m.Salt) != SaltSize {
		return nil, common.ErrorDecryptionFailed
	}

	key := deriveKey(passwordHash, m.Salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, common.ErrorDecryptionFailed
	}

	sealed := make([]byte, 0, len(m.Ciphertext)+TagSize)
	sealed = append(sealed, m.Ciphertext...)
	sealed = append(sealed, m.AuthTag...)

	plaintext, err := aesgcm.Open(nil, m.IV, sealed, nil)
	if err != nil {
		return nil, common.ErrorDecryptionFailed
	}
	return plaintext, nil
}

// HexMaterial is the storage encoding of SecretMaterial.
type HexMaterial struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	AuthTag    string `json:"auth_tag"`
	Salt       string `json:"salt"`
}

// Hex encodes m for storage.
func (m *SecretMaterial) Hex() HexMaterial {
	return HexMaterial{
		Ciphertext: hex.EncodeToString(m.Ciphertext),
		IV:         hex.EncodeToString(m.IV),
		AuthTag:    hex.EncodeToString(m.AuthTag),
		Salt:       hex.EncodeToString(m.Salt),
	}
}

// Material decodes h. Corrupt columns surface as common.ErrorDecryptionFailed.
func (h HexMaterial) Material() (*SecretMaterial, error) {
	var (
		m   SecretMaterial
		err error
	)
	if m.Ciphertext, err = hex.DecodeString(h.Ciphertext); err != nil {
		return nil, common.ErrorDecryptionFailed
	}
	if m.IV, err = hex.DecodeString(h.IV); err != nil {
		return nil, common.ErrorDecryptionFailed
	}
	if m.AuthTag, err = hex.DecodeString(h.AuthTag); err != nil {
		return nil, common.ErrorDecryptionFailed
	}
	if m.Salt, err = hex.DecodeString(h.Salt); err != nil {
		return nil, common.ErrorDecryptionFailed
	}
	return &m, nil
}
