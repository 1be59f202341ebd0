package model

import (
	"fmt"
	"time"
)

const (
	CaseStatusDetained  = "Detained"
	CaseStatusSentenced = "Sentenced"
	CaseStatusTransfer  = "Awaiting Transfer"
)

type PDLRecord struct {
	ID                  int64      `json:"id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	MiddleName          string     `json:"middle_name,omitempty"`
	Birthdate           *time.Time `json:"birthdate,omitempty"`
	Gender              string     `json:"gender"`
	RFIDTag             string     `json:"rfid_tag"`
	CaseNumber          string     `json:"case_number"`
	CrimeName           string     `json:"crime_name"`
	CaseStatus          string     `json:"case_status"`
	DateCommitted       *time.Time `json:"date_committed,omitempty"`
	DateAdmitted        time.Time  `json:"date_admitted"`
	SentenceYears       int        `json:"sentence_years"`
	SentenceMonths      int        `json:"sentence_months"`
	SentenceDays        int        `json:"sentence_days"`
	OriginalReleaseDate *time.Time `json:"original_release_date,omitempty"`
	ExpectedReleaseDate *time.Time `json:"expected_release_date,omitempty"`
	Photo               string     `json:"-"`
	CreatedBy           int64      `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
}

// PDLSummary is the list-view shape. PhotoURL is resolved from the stored
// filename at read time; nil when no photo exists.
type PDLSummary struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"first_name"`
	MiddleName     string     `json:"middle_name,omitempty"`
	LastName       string     `json:"last_name"`
	Gender         string     `json:"gender"`
	CaseStatus     string     `json:"case_status"`
	CaseNumber     string     `json:"case_number"`
	CrimeName      string     `json:"crime_name"`
	DateCommitted  *time.Time `json:"date_committed,omitempty"`
	DateAdmitted   time.Time  `json:"date_admitted"`
	SentenceYears  int        `json:"sentence_years"`
	SentenceMonths int        `json:"sentence_months"`
	SentenceDays   int        `json:"sentence_days"`
	PhotoURL       *string    `json:"photo_url"`
}

// CaseDetail is the dependent-detail variant attached to a record at
// admission. Exactly one concrete kind is valid per case status:
// Sentenced carries a ConvictionDetail, Detained a DetentionDetail, and
// Awaiting Transfer none (nil). The unexported marker keeps the set
// closed.
type CaseDetail interface {
	caseDetail()
}

type ConvictionDetail struct {
	CourtBranch         string     `json:"court_branch"`
	ConvictionDate      *time.Time `json:"conviction_date,omitempty"`
	SentenceDescription string     `json:"sentence_description"`
}

func (ConvictionDetail) caseDetail() {}

type DetentionDetail struct {
	DetentionFacility string     `json:"detention_facility"`
	HearingDate       *time.Time `json:"hearing_date,omitempty"`
	CaseStage         string     `json:"case_stage"`
}

func (DetentionDetail) caseDetail() {}

// DetailForStatus pairs a case status with its dependent detail and
// rejects mismatched combinations, so a record can never be admitted
// with the wrong kind of detail row.
func DetailForStatus(status string, conviction *ConvictionDetail, detention *DetentionDetail) (CaseDetail, error) {
	switch status {
	case CaseStatusSentenced:
		if conviction == nil || detention != nil {
			return nil, fmt.Errorf("%w: sentenced records require exactly a conviction detail", ErrValidation)
		}
		return *conviction, nil
	case CaseStatusDetained:
		if detention == nil || conviction != nil {
			return nil, fmt.Errorf("%w: detained records require exactly a detention detail", ErrValidation)
		}
		return *detention, nil
	case CaseStatusTransfer:
		if conviction != nil || detention != nil {
			return nil, fmt.Errorf("%w: awaiting-transfer records carry no case detail", ErrValidation)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown case status %q", ErrValidation, status)
}

type EducationDetail struct {
	HighestLevel string `json:"highest_level"`
	SchoolName   string `json:"school_name"`
	Skills       string `json:"skills"`
}

type WorkHistoryEntry struct {
	Occupation string `json:"occupation"`
	Employer   string `json:"employer"`
	Years      int    `json:"years"`
}

// Admission is the full multi-table unit written in one transaction when
// a PDL record is registered.
type Admission struct {
	Record      PDLRecord
	Detail      CaseDetail
	Education   *EducationDetail
	WorkHistory []WorkHistoryEntry
}

// ProjectedReleaseDate adds the sentence duration to the committal date
// using calendar arithmetic. time.AddDate normalizes overflow, so
// 2024-01-31 plus one month lands on 2024-03-02.
func ProjectedReleaseDate(committed time.Time, years, months, days int) time.Time {
	return committed.AddDate(years, months, days)
}
