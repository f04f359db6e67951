package types

// Outcome is what an orchestrator hands back after a submit intent.
type Outcome struct {
	Model      any         `json:"model,omitempty"`
	Notices    []Notice    `json:"notices,omitempty"`
	Navigation *Navigation `json:"navigation,omitempty"`
}

// CommitNotices returns the success notice for a committed mutation, plus a
// warning when the snapshot could not be saved.
func CommitNotices(success string, saveErr error) []Notice {
	notices := []Notice{Success(success)}
	if saveErr != nil {
		notices = append(notices, NoticeFromError(saveErr))
	}
	return notices
}
