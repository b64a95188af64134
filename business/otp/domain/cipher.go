// Package domain implements the peer-to-peer OTP cipher: ECDH on secp256k1
// followed by AES-256-GCM.
package domain

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	ivSize  = 12
	tagSize = 16
)

var (
	// ErrInvalidPayload means the payload is not a complete OTP envelope.
	ErrInvalidPayload = errors.New("otp: invalid payload")
	// ErrDecryptFailed covers every failure after parsing, including a bad
	// ephemeral key and an authentication tag mismatch.
	ErrDecryptFailed = errors.New("otp: decryption failed")
	// ErrNoWalletMatched means no local key belongs to the payload's recipient.
	ErrNoWalletMatched = errors.New("otp: no matching wallet found")
)

// Payload is the encrypted envelope. All binary fields are hex.
type Payload struct {
	EphemeralPublicKey string `json:"ephemeralPublicKey"`
	IV                 string `json:"iv"`
	EncryptedMessage   string `json:"encryptedMessage"`
	PublicKey          string `json:"publicKey"`
	AuthTag            string `json:"authTag"`
	AppName            string `json:"appName,omitempty"`
	AppID              string `json:"appId,omitempty"`
}

// ParsePayload decodes a JSON envelope and checks that every required field
// is present.
func ParsePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.EphemeralPublicKey == "" || p.IV == "" || p.EncryptedMessage == "" || p.PublicKey == "" || p.AuthTag == "" {
		return Payload{}, fmt.Errorf("%w: missing field", ErrInvalidPayload)
	}
	return p, nil
}

// Decrypt steps reported by DecryptError.
const (
	StepDecode        = "decode"
	StepECDH          = "ecdh"
	StepKeyDerivation = "key derivation"
	StepOpen          = "gcm open"
)

// DecryptError records the step at which decryption failed. It matches
// ErrDecryptFailed with errors.Is.
type DecryptError struct {
	Step string
	Err  error
}

func (e *DecryptError) Error() string {
	return fmt.Sprintf("%s at %s: %v", ErrDecryptFailed, e.Step, e.Err)
}

func (e *DecryptError) Unwrap() error { return e.Err }

func (e *DecryptError) Is(target error) bool { return target == ErrDecryptFailed }

// DecryptStep returns the failing step of a decrypt error, or "".
func DecryptStep(err error) string {
	var de *DecryptError
	if errors.As(err, &de) {
		return de.Step
	}
	return ""
}

func stepError(step string, err error) error {
	return &DecryptError{Step: step, Err: err}
}

// Decrypt recovers the plaintext addressed to priv. No partial plaintext is
// ever returned.
func Decrypt(p Payload, priv *secp256k1.PrivateKey) (string, error) {
	ephemeral, err := decodeHex(p.EphemeralPublicKey, "ephemeral key")
	if err != nil {
		return "", err
	}
	iv, err := decodeHex(p.IV, "iv")
	if err != nil {
		return "", err
	}
	tag, err := decodeHex(p.AuthTag, "auth tag")
	if err != nil {
		return "", err
	}
	ciphertext, err := decodeHex(p.EncryptedMessage, "message")
	if err != nil {
		return "", err
	}
	if len(iv) != ivSize || len(tag) != tagSize {
		return "", stepError(StepDecode, fmt.Errorf("iv is %d bytes and tag is %d bytes", len(iv), len(tag)))
	}

	if priv == nil {
		return "", stepError(StepECDH, errors.New("no private key"))
	}
	pub, err := secp256k1.ParsePubKey(ephemeral)
	if err != nil {
		return "", stepError(StepECDH, fmt.Errorf("ephemeral key: %w", err))
	}
	key, err := sharedKey(priv, pub)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	plain, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", stepError(StepOpen, err)
	}
	return string(plain), nil
}

// Encrypt seals plaintext for the holder of recipient using a fresh
// ephemeral key. It is the sender side of Decrypt.
func Encrypt(plaintext string, recipient *secp256k1.PublicKey) (Payload, error) {
	ephemeral, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return Payload{}, err
	}
	key, err := sharedKey(ephemeral, recipient)
	if err != nil {
		return Payload{}, err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return Payload{}, err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return Payload{}, err
	}
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	n := len(sealed) - tagSize

	return Payload{
		EphemeralPublicKey: hex.EncodeToString(ephemeral.PubKey().SerializeCompressed()),
		IV:                 hex.EncodeToString(iv),
		EncryptedMessage:   hex.EncodeToString(sealed[:n]),
		PublicKey:          hex.EncodeToString(recipient.SerializeCompressed()),
		AuthTag:            hex.EncodeToString(sealed[n:]),
	}, nil
}

// sharedKey hashes the compressed encoding of priv*pub.
func sharedKey(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) ([]byte, error) {
	var point, shared secp256k1.JacobianPoint
	pub.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(&priv.Key, &point, &shared)
	if (shared.X.IsZero() && shared.Y.IsZero()) || shared.Z.IsZero() {
		return nil, stepError(StepECDH, errors.New("shared point at infinity"))
	}
	shared.ToAffine()

	sum := sha256.Sum256(secp256k1.NewPublicKey(&shared.X, &shared.Y).SerializeCompressed())
	return sum[:], nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, stepError(StepKeyDerivation, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, stepError(StepKeyDerivation, err)
	}
	return gcm, nil
}

func decodeHex(s, field string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, stepError(StepDecode, fmt.Errorf("%s is not hex", field))
	}
	return b, nil
}
