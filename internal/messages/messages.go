package messages

// SubmittedMsg signals that the relay accepted a submission
type SubmittedMsg struct {
	PendingURL string
}

// SubmitErrorMsg signals that a submission failed
type SubmitErrorMsg struct {
	Err error
}

// ClipboardMsg reports the result of copying the final identifier
type ClipboardMsg struct {
	Text string
	Err  error
}
