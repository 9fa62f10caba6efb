// Package types holds the values passed between the transport, the classifier and the view.
package types

import "time"

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	// NetworkPending: the relay answered but has not produced a result yet. Not terminal.
	NetworkPending OutcomeKind = iota
	// Redirected: the request resolved to a result URL; FinalURL and Body are set.
	Redirected
	// ServerError: transport failure or non-success status; Body holds whatever text came back.
	ServerError
)

func (k OutcomeKind) String() string {
	switch k {
	case Redirected:
		return "redirected"
	case ServerError:
		return "server-error"
	default:
		return "pending"
	}
}

// Outcome is produced once per request and consumed by the view.
type Outcome struct {
	Kind     OutcomeKind
	FinalURL    string // display identifier, from the response marker onward
	Body        string
	ContentType string // declared media type of Body, lower-cased; empty when unknown
}

// NewRedirected builds a Redirected outcome.
func NewRedirected(finalURL, body string) Outcome {
	return Outcome{Kind: Redirected, FinalURL: finalURL, Body: body}
}

// NewServerError builds a ServerError outcome.
func NewServerError(body string) Outcome {
	return Outcome{Kind: ServerError, Body: body}
}

// NewNetworkPending builds a NetworkPending outcome.
func NewNetworkPending() Outcome {
	return Outcome{Kind: NetworkPending}
}

// Response is what the transport hands back for one request.
type Response struct {
	FinalURL    string // resolved URL after redirects
	StatusCode  int    // 0 when the request never produced a status
	Body        string
	ContentType string // media type from the Content-Type header, without parameters
	Err         error  // transport failure; StatusCode is 0 when set
}

// Complete reports whether the request reached a status line.
func (r Response) Complete() bool {
	return r.Err == nil && r.StatusCode != 0
}

// Job is a relay submission as stored by the relay server.
type Job struct {
	ID        string     `json:"id"`
	Message   string     `json:"message"`
	Reply     *string    `json:"reply,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	RepliedAt *time.Time `json:"replied_at,omitempty"`
}

// Ready reports whether the job has a reply.
func (j Job) Ready() bool {
	return j.Reply != nil
}

// JobStatus is the JSON view of a job returned by the server's status endpoints.
type JobStatus struct {
	ID      string `json:"id"`
	Status  string `json:"status"` // "pending", "ready"
	Bytes   int    `json:"bytes"`
	AddedAt int64  `json:"added_at"`
}
