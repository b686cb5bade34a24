package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var phcEncoding = base64.RawStdEncoding

// Hash derives an Argon2id key from password under c.Params and returns it
// as a PHC string:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := deriveKey(password, salt, c.Params, c.Params.KeyLength)

	var sb strings.Builder
	fmt.Fprintf(&sb, "$argon2id$v=%d$m=%d,t=%d,p=%d$",
		argon2.Version, c.Params.MemoryKiB, c.Params.Iterations, c.Params.Parallelism)
	sb.WriteString(phcEncoding.EncodeToString(salt))
	sb.WriteByte('$')
	sb.WriteString(phcEncoding.EncodeToString(key))
	return sb.String(), nil
}

// Verify re-derives the key for password from the parameters embedded in
// encodedHash and compares in constant time. It returns (true, nil) on a
// match, (false, nil) on a mismatch, and (false, ErrInvalidHash) when the
// hash string is malformed or carries parameters outside the bounds in
// decodePHC; stored hashes are treated as untrusted input.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	params, salt, want, err := decodePHC(encodedHash, c.Params)
	if err != nil {
		return false, err
	}

	got := deriveKey(password, salt, params, uint32(len(want))) // #nosec G115 -- len(want) bounded by decodePHC
	if subtle.ConstantTimeCompare(got, want) == 1 {
		return true, nil
	}
	return false, nil
}

func deriveKey(password string, salt []byte, p Argon2idParams, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, keyLen)
}

// decodePHC parses a PHC Argon2id string. Parameters may be smaller than the
// configured limits (older hashes stay verifiable) but a hash demanding more
// than twice the configured cost is rejected so attacker-supplied strings
// cannot drive memory or CPU use.
func decodePHC(encoded string, limits Argon2idParams) (Argon2idParams, []byte, []byte, error) {
	fail := func() (Argon2idParams, []byte, []byte, error) {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	rest, ok := strings.CutPrefix(encoded, "$argon2id$")
	if !ok {
		return fail()
	}
	verPart, rest, ok := strings.Cut(rest, "$")
	if !ok || verPart != fmt.Sprintf("v=%d", argon2.Version) {
		return fail()
	}
	costPart, rest, ok := strings.Cut(rest, "$")
	if !ok {
		return fail()
	}
	saltPart, hashPart, ok := strings.Cut(rest, "$")
	if !ok || strings.Contains(hashPart, "$") {
		return fail()
	}

	var mem, iters, par uint32
	if n, err := fmt.Sscanf(costPart, "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil || n != 3 {
		return fail()
	}
	if mem == 0 || iters == 0 || par == 0 || par > 255 {
		return fail()
	}
	if mem > limits.MemoryKiB*2 || iters > limits.Iterations*2 || par > uint32(limits.Parallelism)*2 {
		return fail()
	}

	salt, err := phcEncoding.DecodeString(saltPart)
	if err != nil || len(salt) < 8 || len(salt) > 64 {
		return fail()
	}
	hash, err := phcEncoding.DecodeString(hashPart)
	if err != nil || len(hash) < 16 || len(hash) > 128 {
		return fail()
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  iters,
		Parallelism: uint8(par), // #nosec G115 -- bounded above
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(hash)),
	}
	return params, salt, hash, nil
}
