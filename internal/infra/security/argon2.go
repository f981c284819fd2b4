package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Variant = "argon2id"
	argon2Version = "v=19"

	minArgon2Memory     = 8 * 1024
	minArgon2SaltLength = 8
	minArgon2KeyLength  = 16
)

var (
	errInvalidHashFormat = errors.New("argon2: invalid encoded hash format")
	errInvalidConfig     = errors.New("argon2: invalid configuration")
)

// Argon2Config defines tunable parameters for Argon2id password hashing.
type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (c Argon2Config) validate() error {
	switch {
	case c.Memory < minArgon2Memory:
		return fmt.Errorf("%w: memory below %d KiB", errInvalidConfig, minArgon2Memory)
	case c.Iterations == 0:
		return fmt.Errorf("%w: zero iterations", errInvalidConfig)
	case c.Parallelism == 0:
		return fmt.Errorf("%w: zero parallelism", errInvalidConfig)
	case c.SaltLength < minArgon2SaltLength:
		return fmt.Errorf("%w: salt shorter than %d bytes", errInvalidConfig, minArgon2SaltLength)
	case c.KeyLength < minArgon2KeyLength:
		return fmt.Errorf("%w: key shorter than %d bytes", errInvalidConfig, minArgon2KeyLength)
	}
	return nil
}

// activeArgon2 holds the hashing parameters in use; reads take a snapshot so
// a concurrent reconfigure never mixes parameters within one hash.
var activeArgon2 atomic.Pointer[Argon2Config]

func init() {
	activeArgon2.Store(&Argon2Config{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	})
}

// ConfigureArgon2 swaps in new hashing parameters after validation. Stored
// hashes keep verifying: parameters travel inside each encoded hash.
func ConfigureArgon2(cfg Argon2Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	activeArgon2.Store(&cfg)
	return nil
}

func currentArgon2Config() Argon2Config {
	return *activeArgon2.Load()
}

// HashPassword derives an Argon2id hash of the password and encodes it as
// argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>
// with salt and hash in unpadded base64.
func HashPassword(password string) (string, error) {
	cfg := currentArgon2Config()

	salt := make([]byte, cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2: generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, cfg.Iterations, cfg.Memory, cfg.Parallelism, cfg.KeyLength)

	return fmt.Sprintf("%s$%s$m=%d,t=%d,p=%d$%s$%s",
		argon2Variant,
		argon2Version,
		cfg.Memory, cfg.Iterations, cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// VerifyPassword reports whether the password matches the encoded hash. The
// comparison is constant time; empty inputs never match.
func VerifyPassword(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}

	cfg, salt, expected, err := decodeArgon2Hash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, cfg.Iterations, cfg.Memory, cfg.Parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func decodeArgon2Hash(encoded string) (Argon2Config, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 {
		return Argon2Config{}, nil, nil, errInvalidHashFormat
	}
	if parts[0] != argon2Variant {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: unexpected variant %q", parts[0])
	}
	if parts[1] != argon2Version {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: unsupported version %q", parts[1])
	}

	var cfg Argon2Config
	if n, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &cfg.Memory, &cfg.Iterations, &cfg.Parallelism); err != nil || n != 3 {
		return Argon2Config{}, nil, nil, errInvalidHashFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: decode hash: %w", err)
	}

	cfg.SaltLength = uint32(len(salt))
	cfg.KeyLength = uint32(len(hash))
	if err := cfg.validate(); err != nil {
		return Argon2Config{}, nil, nil, err
	}

	return cfg, salt, hash, nil
}
