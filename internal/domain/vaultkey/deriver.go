// Package vaultkey derives storage keys and per-entry secrets from a user
// identity and a service name.
package vaultkey

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrMasterSecretRequired is returned by New when the master secret is empty.
var ErrMasterSecretRequired = errors.New("master secret must not be empty")

// SecretSize is the length in bytes of a per-entry secret.
const SecretSize = 64

// entrySecretInfo binds HKDF output to this use so the same keying material
// never yields the same bytes elsewhere.
var entrySecretInfo = []byte("ephemvault entry secret v1")

// Tag is a fixed-length one-way derivation, hex encoded.
type Tag string

// Deriver turns (identity, service) pairs into storage keys and entry secrets.
// It is safe for concurrent use.
type Deriver struct {
	master []byte
}

// New creates a Deriver keyed with the operator master secret.
func New(masterSecret []byte) (*Deriver, error) {
	if len(masterSecret) == 0 {
		return nil, ErrMasterSecretRequired
	}
	master := make([]byte, len(masterSecret))
	copy(master, masterSecret)
	return &Deriver{master: master}, nil
}

// DeriveUserTag returns HMAC-SHA512(master, identity).
func (d *Deriver) DeriveUserTag(identity string) Tag {
	return macTag(d.master, identity)
}

// DeriveServiceTag returns HMAC-SHA512(identity, service). The identity is the
// key, so the tag is per-user but computable by anyone who knows the identity.
func (d *Deriver) DeriveServiceTag(identity, service string) Tag {
	return macTag([]byte(identity), service)
}

// DeriveEntrySecret returns the secret protecting one entry's blob, derived
// with HKDF-SHA512 from identity and service together.
func (d *Deriver) DeriveEntrySecret(identity, service string) []byte {
	r := hkdf.New(sha512.New, keyingMaterial(identity, service), nil, entrySecretInfo)
	secret := make([]byte, SecretSize)
	if _, err := io.ReadFull(r, secret); err != nil {
		// HKDF-SHA512 can emit up to 255*64 bytes; a short read is impossible.
		panic(fmt.Sprintf("hkdf read: %v", err))
	}
	return secret
}

// StorageKey returns DeriveUserTag(identity) followed by DeriveServiceTag(identity, service).
func (d *Deriver) StorageKey(identity, service string) string {
	return string(d.DeriveUserTag(identity)) + string(d.DeriveServiceTag(identity, service))
}

func macTag(key []byte, msg string) Tag {
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(msg))
	return Tag(hex.EncodeToString(mac.Sum(nil)))
}

// keyingMaterial concatenates identity and service with a length prefix on
// the identity so that ("ab", "c") and ("a", "bc") never collide.
func keyingMaterial(identity, service string) []byte {
	buf := make([]byte, 8, 8+len(identity)+len(service))
	binary.BigEndian.PutUint64(buf, uint64(len(identity)))
	buf = append(buf, identity...)
	buf = append(buf, service...)
	return buf
}
