package model

// IncomingMessage is a chat message as handed over by a driving adapter.
// Command is empty for plain text. Args holds the whitespace-split arguments.
type IncomingMessage struct {
	ChatID    int64
	MessageID int
	Command   string
	Args      []string
}

// OutgoingMessage identifies a message the bot sent.
type OutgoingMessage struct {
	ChatID    int64
	MessageID int
}
