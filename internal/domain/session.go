package domain

// WorkflowPhase enumerates the discrete stages of the upload workflow.
type WorkflowPhase string

const (
	PhaseIdle      WorkflowPhase = "idle"
	PhaseUploading WorkflowPhase = "uploading"
	PhaseDetecting WorkflowPhase = "detecting"
	PhaseReviewing WorkflowPhase = "reviewing"
	PhaseCreating  WorkflowPhase = "creating"
	PhaseComplete  WorkflowPhase = "complete"
)

// Valid reports whether the phase is one of the known workflow stages.
func (p WorkflowPhase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseUploading, PhaseDetecting, PhaseReviewing, PhaseCreating, PhaseComplete:
		return true
	}
	return false
}

// UploadedImage references a user-supplied source image staged in the file
// store. FileKey points at the raw bytes, PreviewURL at a displayable copy.
type UploadedImage struct {
	ID         string `json:"id"`
	FileKey    string `json:"file_key"`
	PreviewURL string `json:"preview_url"`
}

// SessionState is the full workflow snapshot owned by the session store.
// SelectedCards is kept as a set in memory; the persisted form serializes it
// as a sorted array.
type SessionState struct {
	Phase            WorkflowPhase
	UploadedImages   []UploadedImage
	DetectionResults []DetectionResult
	SelectedCards    map[string]struct{}
	CreatedCards     []CreatedCard
	SessionID        string
}

// NewSessionState returns an empty state carrying the given session id.
func NewSessionState(sessionID string) SessionState {
	return SessionState{
		Phase:         PhaseIdle,
		SelectedCards: make(map[string]struct{}),
		SessionID:     sessionID,
	}
}
