package domain

// Command names the user action an Outcome resolves.
type Command string

const (
	CommandLoad       Command = "load"
	CommandSignup     Command = "signup"
	CommandUnregister Command = "unregister"
)

// Outcome is the resolution of one command: either success with its payload
// or failure with a user-facing reason.
type Outcome struct {
	Command  Command
	OK       bool
	Activity string
	Email    string
	EntryID  string
	// Message is the server's success text.
	Message string
	// Reason is the text shown to the user on failure.
	Reason string
	// Catalog is the payload of a successful load.
	Catalog Catalog
}

// Succeeded builds a successful outcome.
func Succeeded(cmd Command, message string) Outcome {
	return Outcome{Command: cmd, OK: true, Message: message}
}

// Failed builds a failed outcome.
func Failed(cmd Command, reason string) Outcome {
	return Outcome{Command: cmd, Reason: reason}
}
