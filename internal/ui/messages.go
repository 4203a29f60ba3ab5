package ui

// ErrorMsg carries a failed operation to the root model, which renders it in
// the status bar through api.UserMessage.
type ErrorMsg struct {
	Err error
}

// StatusMsg carries a transient confirmation for the status bar.
type StatusMsg struct {
	Text string
}
