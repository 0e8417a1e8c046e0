package model

// Credential is the login/password pair a user parks under a service name.
// Service is carried for disclosure only; it is never part of the encoded blob.
type Credential struct {
	Service  string
	Login    string
	Password string
}
