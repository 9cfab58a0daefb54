package hermes

import "time"

const (
	// SubjectVoiceTranscribed carries finished speech-to-text transcripts.
	SubjectVoiceTranscribed = "roadlog.voice.transcribed"
	// SubjectVoiceInterpreted is published after a transcript is stored.
	SubjectVoiceInterpreted = "roadlog.voice.interpreted"
	// SubjectVoiceFeedback is published when a user confirms or corrects the
	// classifier's registration type.
	SubjectVoiceFeedback = "roadlog.voice.feedback"

	// QueueGroup is shared by all roadlog replicas.
	QueueGroup = "roadlog"
)

// TranscribedEvent is a voice memo whose audio has been transcribed.
type TranscribedEvent struct {
	MemoID           string    `json:"memo_id" validate:"required"`
	UserID           string    `json:"user_id" validate:"required"`
	ContractID       string    `json:"contract_id,omitempty"`
	Transcript       string    `json:"transcript" validate:"required"`
	RecordedAt       time.Time `json:"recorded_at"`
	RegistrationType string    `json:"registration_type,omitempty"`
}

// InterpretedEvent announces a stored registration draft.
type InterpretedEvent struct {
	MemoID           string   `json:"memo_id,omitempty"`
	RegistrationID   string   `json:"registration_id"`
	UserID           string   `json:"user_id"`
	RegistrationType string   `json:"registration_type"`
	Subcategory      string   `json:"subcategory"`
	Confidence       float64  `json:"confidence"`
	Uncertain        bool     `json:"uncertain"`
	MissingRequired  []string `json:"missing_required"`
	Summary          string   `json:"summary"`
}

// FeedbackSignal is emitted for every classification verdict so that
// keyword tuning can be reviewed offline.
type FeedbackSignal struct {
	FeedbackID     string  `json:"feedback_id"`
	RegistrationID string  `json:"registration_id,omitempty"`
	PredictedType  string  `json:"predicted_type"`
	CorrectedType  string  `json:"corrected_type"`
	Confidence     float64 `json:"confidence"`
	Correct        bool    `json:"correct"`
	AccuracyScore  float64 `json:"accuracy_score"`
}
