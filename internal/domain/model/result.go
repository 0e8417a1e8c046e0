package model

import "time"

// Default lifetimes of a stored entry and of a disclosed message.
const (
	DefaultEntryTTL      = 60 * time.Second
	DefaultDisclosureTTL = 10 * time.Second
)

// DeletionRequest asks the transport to remove a message once After has elapsed.
type DeletionRequest struct {
	Target MessageTarget
	After  time.Duration
}

// Result is what every vault operation returns: the reply text plus the
// deletion requests the surrounding service must schedule. Credential is set
// only for a successful retrieve.
type Result struct {
	Outcome    Outcome
	Reply      string
	Credential *Credential
	Deletions  []DeletionRequest
}
