package browser

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}

// ClearStatusMsg resets the status line to its idle text. Seq identifies
// the status it was scheduled for; a newer status ignores it.
type ClearStatusMsg struct {
	Seq int
}
