package model

// PatientCreate is the body of POST /patients/.
type PatientCreate struct {
	DocumentID   string  `json:"document_id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Age          *int    `json:"age" validate:"required"`
	Gender       string  `json:"gender" validate:"required"`
	Race         *string `json:"race,omitempty"`
	Region       *string `json:"region,omitempty"`
	UrbanOrRural *string `json:"urban_or_rural,omitempty"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
}

// PatientUpdate is the body of PATCH /patients/{document_id}. Only the
// fields present in the request are forwarded.
type PatientUpdate struct {
	Name         *string `json:"name,omitempty"`
	Age          *int    `json:"age,omitempty"`
	Gender       *string `json:"gender,omitempty"`
	Race         *string `json:"race,omitempty"`
	Region       *string `json:"region,omitempty"`
	UrbanOrRural *string `json:"urban_or_rural,omitempty"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
}

// ClinicalHistoryCreate is the body of POST /clinical_histories/.
type ClinicalHistoryCreate struct {
	DocumentID          string `json:"document_id" validate:"required"`
	StageAtDiagnosis    string `json:"stage_at_diagnosis" validate:"required"`
	TumorAggressiveness string `json:"tumor_aggressiveness" validate:"required"`
	TreatmentAccess     string `json:"treatment_access" validate:"required"`
	FollowUpAdherence   string `json:"follow_up_adherence" validate:"required"`
}

// ClinicalHistoryUpdate is the body of PATCH /clinical_histories/{history_id}.
type ClinicalHistoryUpdate struct {
	StageAtDiagnosis    *string `json:"stage_at_diagnosis,omitempty"`
	TumorAggressiveness *string `json:"tumor_aggressiveness,omitempty"`
	TreatmentAccess     *string `json:"treatment_access,omitempty"`
	FollowUpAdherence   *string `json:"follow_up_adherence,omitempty"`
}
