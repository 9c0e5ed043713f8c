package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Service keys look like vk_{env}_{prefix}_{secret}, for example
// vk_live_7a9x3k_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b. The prefix is
// stored in the clear for lookup; only the argon2 hash of the full
// key is persisted.
const (
	KeyPrefixLen = 6  // hex-encoded 3 bytes, visible
	KeySecretLen = 32 // hex-encoded 16 bytes
)

// Environment markers embedded in the key.
const (
	EnvLive = "live"
	EnvTest = "test"
)

var (
	// ErrInvalidKeyFormat indicates the presented key is malformed.
	ErrInvalidKeyFormat = errors.New("invalid service key format")

	keyFormatRegex = regexp.MustCompile(`^vk_(live|test)_([a-f0-9]{6})_([a-f0-9]{32})$`)
)

// GeneratedKey is a freshly minted service key. Plaintext is shown to
// the caller exactly once; only Hash and Prefix are stored.
type GeneratedKey struct {
	Plaintext string
	Hash      string
	Prefix    string
}

func randomHex(nbytes int) (string, error) {
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateServiceKey mints a key for the given environment. Unknown
// environments fall back to live.
func GenerateServiceKey(env string) (*GeneratedKey, error) {
	if env != EnvLive && env != EnvTest {
		env = EnvLive
	}

	prefix, err := randomHex(3)
	if err != nil {
		return nil, fmt.Errorf("generate prefix: %w", err)
	}
	secret, err := randomHex(16)
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := fmt.Sprintf("vk_%s_%s_%s", env, prefix, secret)
	hash, err := HashSecret(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	return &GeneratedKey{
		Plaintext: plaintext,
		Hash:      hash,
		Prefix:    prefix,
	}, nil
}

// ParsedKey is the decomposition of a well-formed service key.
type ParsedKey struct {
	Env    string
	Prefix string
	Secret string
}

// ParseServiceKey splits a plaintext key into its components, or
// returns ErrInvalidKeyFormat.
func ParseServiceKey(key string) (*ParsedKey, error) {
	m := keyFormatRegex.FindStringSubmatch(key)
	if m == nil {
		return nil, ErrInvalidKeyFormat
	}
	return &ParsedKey{Env: m[1], Prefix: m[2], Secret: m[3]}, nil
}

// ValidateKeyFormat reports whether the key is well-formed.
func ValidateKeyFormat(key string) bool {
	return keyFormatRegex.MatchString(key)
}
