// Package codec turns credentials into tamper-evident blobs and back.
//
// A blob is a compact JWS (HS512) whose payload carries the login and the
// password as private JWT claims, signed with the per-entry secret. The
// payload is base64url, not encrypted: whoever can read the store and pick
// out an entry can read its credentials. What the construction guarantees is
// that a blob only decodes under the secret it was signed with, and that any
// modification is detected.
package codec

import (
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/ericfisherdev/ephemvault/internal/domain/model"
)

const (
	claimLogin    = "login"
	claimPassword = "password"
)

// ErrIntegrity is returned by Decode when the blob fails verification under
// the given secret, or verifies but lacks the expected claims.
var ErrIntegrity = errors.New("credential blob failed integrity check")

// Encode signs the login and password of cred with secret. The service name is
// not included; it is already bound through the secret derivation.
func Encode(cred model.Credential, secret []byte) (string, error) {
	tok, err := jwt.NewBuilder().
		Claim(claimLogin, cred.Login).
		Claim(claimPassword, cred.Password).
		Build()
	if err != nil {
		return "", fmt.Errorf("build credential token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS512, secret))
	if err != nil {
		return "", fmt.Errorf("sign credential token: %w", err)
	}
	return string(signed), nil
}

// Decode verifies blob with secret and returns the credential it carries.
// Every verification or shape failure is reported as ErrIntegrity.
func Decode(blob string, secret []byte) (model.Credential, error) {
	tok, err := jwt.Parse([]byte(blob), jwt.WithKey(jwa.HS512, secret))
	if err != nil {
		return model.Credential{}, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}

	login, err := stringClaim(tok, claimLogin)
	if err != nil {
		return model.Credential{}, err
	}
	password, err := stringClaim(tok, claimPassword)
	if err != nil {
		return model.Credential{}, err
	}

	return model.Credential{Login: login, Password: password}, nil
}

func stringClaim(tok jwt.Token, name string) (string, error) {
	v, ok := tok.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: missing %s claim", ErrIntegrity, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s claim is %T", ErrIntegrity, name, v)
	}
	return s, nil
}
