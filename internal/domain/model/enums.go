package model

// Outcome classifies the result of a vault operation.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeUsageError Outcome = "usage_error"
	OutcomeNotFound   Outcome = "not_found"
)

// MessageTarget names which chat message a deletion request applies to.
// The vault does not know message ids; the transport resolves the target.
type MessageTarget string

const (
	// TargetCommand is the user's own command message, which echoes the arguments.
	TargetCommand MessageTarget = "command"
	// TargetReply is the reply the bot sends for the command.
	TargetReply MessageTarget = "reply"
)

// StoreBackend selects the EntryStore adapter wired at startup.
type StoreBackend string

const (
	StoreBackendRedis  StoreBackend = "redis"
	StoreBackendSQLite StoreBackend = "sqlite"
	StoreBackendMemory StoreBackend = "memory"
)

// OutcomeUnknownCommand marks input that matched no command.
const OutcomeUnknownCommand Outcome = "unknown_command"
