package download

import "errors"

// Status is the phase of a download session.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusDownloading Status = "downloading"
	StatusLoaded      Status = "loaded"
	StatusFailed      Status = "failed"
)

// IsTerminal reports whether the session can no longer change state.
func (s Status) IsTerminal() bool {
	return s == StatusLoaded || s == StatusFailed
}

// Failure reasons shown to the reader.
const (
	ReasonDecodeFailed   = "could not open document"
	ReasonTransferFailed = "download failed, check connection"
)

var ErrNotFound = errors.New("download session not found")

// Document is a decoded, readable document.
type Document struct {
	Data        []byte
	Pages       int
	ContentType string
}

// State is one observable state of a session. Progress is only meaningful
// while downloading, Document only once loaded and Reason only once failed.
type State struct {
	Status   Status    `json:"status"`
	Progress float64   `json:"progress"`
	Received int64     `json:"received"`
	Expected int64     `json:"expected"`
	Document *Document `json:"-"`
	Reason   string    `json:"reason,omitempty"`
}

func idleState() State {
	return State{Status: StatusIdle}
}

func downloadingState(received, expected int64) State {
	st := State{Status: StatusDownloading, Received: received, Expected: expected}
	if expected > 0 {
		st.Progress = float64(received) / float64(expected)
		if st.Progress > 1 {
			st.Progress = 1
		}
	}
	return st
}

func failedState(reason string) State {
	return State{Status: StatusFailed, Reason: reason}
}
