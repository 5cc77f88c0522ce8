package inference

import (
	"time"

	"github.com/google/uuid"
)

// ModelTypes are the registry slots a model can serve.
var ModelTypes = []string{
	"consultation_summary",
	"consultation_validation",
	"discharge_note_summary",
	"discharge_note_validation",
	"audio_transcription",
}

// Model maps to the ai_models table.
type Model struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ModelName    string    `db:"model_name" json:"model_name"`
	ModelType    string    `db:"model_type" json:"model_type"`
	ModelVersion *string   `db:"model_version" json:"model_version,omitempty"`
	Description  *string   `db:"description" json:"description,omitempty"`
	EndpointURL  *string   `db:"endpoint_url" json:"endpoint_url,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Inference maps to the ai_inferences table. One row per AI-assisted
// generation that a nurse reviewed.
type Inference struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	UserID            *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	PatientID         *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	InferenceType     string     `db:"inference_type" json:"inference_type"`
	OriginalContent   string     `db:"original_content" json:"original_content"`
	AIGeneratedResult *string    `db:"ai_generated_result" json:"ai_generated_result,omitempty"`
	NurseConfirmation *string    `db:"nurse_confirmation" json:"nurse_confirmation,omitempty"`
	RelevantText      []string   `db:"relevant_text" json:"relevant_text,omitempty"`
	ModelUsed         *string    `db:"model_used" json:"model_used,omitempty"`
	ProcessingTimeMs  *int       `db:"processing_time_ms" json:"processing_time_ms,omitempty"`
	Status            string     `db:"status" json:"status"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	ConfirmedAt       *time.Time `db:"confirmed_at" json:"confirmed_at,omitempty"`
}

// Stats summarizes inference activity for the history dashboard.
type Stats struct {
	Total          int            `json:"total_inferences"`
	ByStatus       map[string]int `json:"status_breakdown"`
	ByType         map[string]int `json:"type_breakdown"`
	RecentActivity int            `json:"recent_activity"`
}
