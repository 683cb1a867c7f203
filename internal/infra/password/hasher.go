package password

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2idHasher salts and hashes with argon2id. Pepper is appended to every
// password before hashing and must stay stable for the lifetime of the data.
type Argon2idHasher struct {
	pepper string
	params *argon2id.Params
}

func NewArgon2id(pepper string) *Argon2idHasher {
	return &Argon2idHasher{pepper: pepper, params: argonParams}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password+h.pepper, h.params)
}

func (h *Argon2idHasher) Compare(password, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password+h.pepper, hash)
}

// BcryptHasher feeds bcrypt an HMAC-SHA256 of the password keyed by the
// pepper. The 44-byte digest stays under bcrypt's 72-byte input limit for any
// password length.
type BcryptHasher struct {
	pepper string
	cost   int
}

func NewBcrypt(pepper string, cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{pepper: pepper, cost: cost}
}

func (h *BcryptHasher) digest(password string) []byte {
	mac := hmac.New(sha256.New, []byte(h.pepper))
	mac.Write([]byte(password))
	sum := mac.Sum(nil)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum)
	return out
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(h.digest(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Compare(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), h.digest(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// Hasher is the subset both implementations share.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) (bool, error)
}

// New picks an implementation by name ("argon2id" or "bcrypt").
func New(kind, pepper string) (Hasher, error) {
	switch kind {
	case "", "argon2id":
		return NewArgon2id(pepper), nil
	case "bcrypt":
		return NewBcrypt(pepper, 0), nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", kind)
	}
}
