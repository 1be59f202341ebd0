package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"pdl-records/internal/event"
	"pdl-records/internal/metrics"
	"pdl-records/internal/model"
)

const dateLayout = "2006-01-02"

type pdlStore interface {
	TagExists(ctx context.Context, rfidTag string) (bool, error)
	Register(ctx context.Context, adm model.Admission) (int64, error)
	List(ctx context.Context) ([]model.PDLSummary, []string, error)
	Get(ctx context.Context, id int64) (model.PDLRecord, error)
	Update(ctx context.Context, id int64, req model.UpdatePDLRequest) (model.PDLRecord, error)
}

type photoStore interface {
	Save(r io.Reader, originalName string) (string, error)
	Remove(filename string) error
}

// PDLService is the audited transactional writer for inmate records. The
// multi-table admission runs inside a single database transaction; the
// audit entry is published after commit and can never fail the admission.
type PDLService struct {
	repo     pdlStore
	photos   photoStore
	bus      event.Bus
	validate *validator.Validate
	metrics  *metrics.Metrics
}

func NewPDLService(repo pdlStore, photos photoStore, bus event.Bus, m *metrics.Metrics) *PDLService {
	return &PDLService{
		repo:     repo,
		photos:   photos,
		bus:      bus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  m,
	}
}

// Register admits a new PDL record. photo may be nil; originalName is the
// uploaded filename used for extension detection. When any step fails
// after the photo was stored, the file is removed so no orphan remains.
func (s *PDLService) Register(ctx context.Context, req model.RegisterPDLRequest, photo io.Reader, originalName string, actor model.Actor) (int64, error) {
	if err := s.validate.Struct(req); err != nil {
		return 0, fmt.Errorf("%w: %s", model.ErrValidation, validationDetails(err))
	}

	adm, err := buildAdmission(req, actor.UserID)
	if err != nil {
		return 0, err
	}

	var filename string
	if photo != nil {
		filename, err = s.photos.Save(photo, originalName)
		if err != nil {
			return 0, err
		}
		adm.Record.Photo = filename
	}

	// Fast-path duplicate check for a friendly error before the
	// transaction opens. The UNIQUE constraint on the tag column is the
	// actual guarantee; a concurrent admission that slips past this read
	// still fails at commit and is mapped to the same error below.
	exists, err := s.repo.TagExists(ctx, adm.Record.RFIDTag)
	if err != nil {
		s.removePhoto(filename)
		return 0, err
	}
	if exists {
		s.removePhoto(filename)
		return 0, model.ErrDuplicateTag
	}

	id, err := s.repo.Register(ctx, adm)
	if err != nil {
		s.removePhoto(filename)
		return 0, err
	}

	s.publish(event.TypePDLRegistered, actor, model.ActionCreatePDL, "pdl_records", id,
		fmt.Sprintf("Registered new PDL: %s %s (RFID: %s)", adm.Record.FirstName, adm.Record.LastName, adm.Record.RFIDTag))
	if s.metrics != nil {
		s.metrics.Admissions.Inc()
	}

	return id, nil
}

// List returns record summaries with fully-qualified photo URLs resolved
// from the stored filenames; records without a photo carry null.
func (s *PDLService) List(ctx context.Context, baseURL string) ([]model.PDLSummary, error) {
	summaries, photos, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	baseURL = strings.TrimRight(baseURL, "/")
	for i := range summaries {
		if photos[i] == "" {
			continue
		}
		url := baseURL + "/uploads/" + photos[i]
		summaries[i].PhotoURL = &url
	}

	return summaries, nil
}

func (s *PDLService) Get(ctx context.Context, id int64) (model.PDLRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *PDLService) Update(ctx context.Context, id int64, req model.UpdatePDLRequest, actor model.Actor) (model.PDLRecord, error) {
	if err := s.validate.Struct(req); err != nil {
		return model.PDLRecord{}, fmt.Errorf("%w: %s", model.ErrValidation, validationDetails(err))
	}

	rec, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return model.PDLRecord{}, err
	}

	s.publish(event.TypePDLUpdated, actor, model.ActionUpdatePDL, "pdl_records", id,
		fmt.Sprintf("Updated PDL record #%d", id))

	return rec, nil
}

func (s *PDLService) publish(eventType event.Type, actor model.Actor, action string, table string, recordID int64, details string) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.AuditEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Action:    action,
		TableName: table,
		RecordID:  recordID,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *PDLService) removePhoto(filename string) {
	if filename == "" {
		return
	}
	_ = s.photos.Remove(filename)
}

// buildAdmission turns the validated request into the transactional unit:
// parsed dates, the case-detail variant matching the status, and the
// projected release date when a committal date is present.
func buildAdmission(req model.RegisterPDLRequest, createdBy int64) (model.Admission, error) {
	rec := model.PDLRecord{
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		MiddleName:     strings.TrimSpace(req.MiddleName),
		Gender:         req.Gender,
		RFIDTag:        strings.TrimSpace(req.RFIDTag),
		CaseNumber:     strings.TrimSpace(req.CaseNumber),
		CrimeName:      strings.TrimSpace(req.CrimeName),
		CaseStatus:     req.CaseStatus,
		SentenceYears:  req.SentenceYears,
		SentenceMonths: req.SentenceMonths,
		SentenceDays:   req.SentenceDays,
		CreatedBy:      createdBy,
	}

	var err error
	if rec.Birthdate, err = parseOptionalDate(req.Birthdate); err != nil {
		return model.Admission{}, fmt.Errorf("%w: invalid birthdate", model.ErrValidation)
	}
	if rec.DateCommitted, err = parseOptionalDate(req.DateCommitted); err != nil {
		return model.Admission{}, fmt.Errorf("%w: invalid committal date", model.ErrValidation)
	}

	admitted, err := time.Parse(dateLayout, req.DateAdmitted)
	if err != nil {
		return model.Admission{}, fmt.Errorf("%w: invalid admission date", model.ErrValidation)
	}
	rec.DateAdmitted = admitted

	// Calendar arithmetic: the committal date plus the sentence duration,
	// normalized by AddDate's rollover rules. Original and expected dates
	// start identical and diverge only through later adjustments.
	if rec.DateCommitted != nil {
		release := model.ProjectedReleaseDate(*rec.DateCommitted, req.SentenceYears, req.SentenceMonths, req.SentenceDays)
		rec.OriginalReleaseDate = &release
		rec.ExpectedReleaseDate = &release
	}

	detail, err := buildDetailVariant(req)
	if err != nil {
		return model.Admission{}, err
	}

	adm := model.Admission{Record: rec, Detail: detail, WorkHistory: req.WorkHistory}

	if req.HighestLevel != "" || req.SchoolName != "" || req.Skills != "" {
		adm.Education = &model.EducationDetail{
			HighestLevel: strings.TrimSpace(req.HighestLevel),
			SchoolName:   strings.TrimSpace(req.SchoolName),
			Skills:       strings.TrimSpace(req.Skills),
		}
	}

	return adm, nil
}

func buildDetailVariant(req model.RegisterPDLRequest) (model.CaseDetail, error) {
	var conviction *model.ConvictionDetail
	var detention *model.DetentionDetail

	switch req.CaseStatus {
	case model.CaseStatusSentenced:
		date, err := parseOptionalDate(req.ConvictionDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid conviction date", model.ErrValidation)
		}
		conviction = &model.ConvictionDetail{
			CourtBranch:         strings.TrimSpace(req.CourtBranch),
			ConvictionDate:      date,
			SentenceDescription: strings.TrimSpace(req.SentenceDescription),
		}
	case model.CaseStatusDetained:
		date, err := parseOptionalDate(req.HearingDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid hearing date", model.ErrValidation)
		}
		detention = &model.DetentionDetail{
			DetentionFacility: strings.TrimSpace(req.DetentionFacility),
			HearingDate:       date,
			CaseStage:         strings.TrimSpace(req.CaseStage),
		}
	}

	return model.DetailForStatus(req.CaseStatus, conviction, detention)
}

func parseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func validationDetails(err error) string {
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return "invalid payload"
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return strings.Join(fields, ", ")
	}

	return err.Error()
}
