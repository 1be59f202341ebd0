package model

// RegisterPDLRequest carries the multipart form fields of the admission
// endpoint. Dates arrive as YYYY-MM-DD strings and are parsed by the
// service; the photo part is handled separately by the handler.
type RegisterPDLRequest struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	MiddleName string `json:"middle_name" validate:"max=100"`
	Birthdate  string `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
	Gender     string `json:"gender" validate:"required,oneof=Male Female"`
	RFIDTag    string `json:"rfid_tag" validate:"required,min=4,max=32"`
	CaseNumber string `json:"case_number" validate:"required,max=64"`
	CrimeName  string `json:"crime_name" validate:"required,max=200"`
	CaseStatus string `json:"case_status" validate:"required,oneof=Detained Sentenced 'Awaiting Transfer'"`

	DateCommitted string `json:"date_committed" validate:"omitempty,datetime=2006-01-02"`
	DateAdmitted  string `json:"date_admitted" validate:"required,datetime=2006-01-02"`

	SentenceYears  int `json:"sentence_years" validate:"min=0,max=200"`
	SentenceMonths int `json:"sentence_months" validate:"min=0,max=11"`
	SentenceDays   int `json:"sentence_days" validate:"min=0,max=30"`

	// Dependent detail fields; which group is required follows CaseStatus.
	CourtBranch         string `json:"court_branch" validate:"max=120"`
	ConvictionDate      string `json:"conviction_date" validate:"omitempty,datetime=2006-01-02"`
	SentenceDescription string `json:"sentence_description" validate:"max=500"`
	DetentionFacility   string `json:"detention_facility" validate:"max=120"`
	HearingDate         string `json:"hearing_date" validate:"omitempty,datetime=2006-01-02"`
	CaseStage           string `json:"case_stage" validate:"max=120"`

	// Optional background records.
	HighestLevel string             `json:"highest_level" validate:"max=120"`
	SchoolName   string             `json:"school_name" validate:"max=200"`
	Skills       string             `json:"skills" validate:"max=500"`
	WorkHistory  []WorkHistoryEntry `json:"work_history" validate:"dive"`
}

// UpdatePDLRequest is a partial update; nil fields are left untouched.
type UpdatePDLRequest struct {
	CaseNumber *string `json:"case_number,omitempty" validate:"omitempty,max=64"`
	CrimeName  *string `json:"crime_name,omitempty" validate:"omitempty,max=200"`
	CaseStatus *string `json:"case_status,omitempty" validate:"omitempty,oneof=Detained Sentenced 'Awaiting Transfer'"`

	SentenceYears  *int `json:"sentence_years,omitempty" validate:"omitempty,min=0,max=200"`
	SentenceMonths *int `json:"sentence_months,omitempty" validate:"omitempty,min=0,max=11"`
	SentenceDays   *int `json:"sentence_days,omitempty" validate:"omitempty,min=0,max=30"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"fullname" validate:"required,max=120"`
	RoleID   int64  `json:"role_id" validate:"required,min=1"`
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Active Inactive"`
}

type UpdateUserRoleRequest struct {
	RoleID int64 `json:"role_id" validate:"required,min=1"`
}
