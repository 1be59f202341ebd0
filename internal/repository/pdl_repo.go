package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pdl-records/internal/model"
)

type PDLRepository struct {
	pool *pgxpool.Pool
}

func NewPDLRepository(pool *pgxpool.Pool) *PDLRepository {
	return &PDLRepository{pool: pool}
}

// TagExists is the fast-path uniqueness read performed before the
// admission transaction. It is a UX optimization only; the UNIQUE
// constraint on rfid_tag is what actually guarantees uniqueness under
// concurrent admissions.
func (r *PDLRepository) TagExists(ctx context.Context, rfidTag string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM pdl_records WHERE rfid_tag = $1)`,
		strings.TrimSpace(rfidTag)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check rfid tag: %w", err)
	}
	return exists, nil
}

// Register writes the admission as one transaction: the primary record,
// its case detail (conviction or detention, per status), the optional
// education row, and any work-history rows. Everything rolls back on the
// first failure, so a half-created record is never observable. A unique
// violation on the tag at commit time surfaces as ErrDuplicateTag.
func (r *PDLRepository) Register(ctx context.Context, adm model.Admission) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", model.ErrTransaction, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec := adm.Record
	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO pdl_records (
			first_name, last_name, middle_name, birthdate, gender,
			rfid_tag, case_number, crime_name, case_status,
			date_committed, date_admitted,
			sentence_years, sentence_months, sentence_days,
			original_release_date, expected_release_date,
			photo, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING pdl_id`,
		rec.FirstName, rec.LastName, rec.MiddleName, rec.Birthdate, rec.Gender,
		rec.RFIDTag, rec.CaseNumber, rec.CrimeName, rec.CaseStatus,
		rec.DateCommitted, rec.DateAdmitted,
		rec.SentenceYears, rec.SentenceMonths, rec.SentenceDays,
		rec.OriginalReleaseDate, rec.ExpectedReleaseDate,
		nullIfEmpty(rec.Photo), rec.CreatedBy).
		Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, model.ErrDuplicateTag
		}
		return 0, fmt.Errorf("%w: insert record: %v", model.ErrTransaction, err)
	}

	switch detail := adm.Detail.(type) {
	case model.ConvictionDetail:
		_, err = tx.Exec(ctx,
			`INSERT INTO conviction_details (pdl_id, court_branch, conviction_date, sentence_description)
			 VALUES ($1, $2, $3, $4)`,
			id, detail.CourtBranch, detail.ConvictionDate, detail.SentenceDescription)
	case model.DetentionDetail:
		_, err = tx.Exec(ctx,
			`INSERT INTO detention_details (pdl_id, detention_facility, hearing_date, case_stage)
			 VALUES ($1, $2, $3, $4)`,
			id, detail.DetentionFacility, detail.HearingDate, detail.CaseStage)
	case nil:
		// Awaiting Transfer carries no detail row.
	}
	if err != nil {
		return 0, fmt.Errorf("%w: insert case detail: %v", model.ErrTransaction, err)
	}

	if adm.Education != nil {
		_, err = tx.Exec(ctx,
			`INSERT INTO education_details (pdl_id, highest_level, school_name, skills)
			 VALUES ($1, $2, $3, $4)`,
			id, adm.Education.HighestLevel, adm.Education.SchoolName, adm.Education.Skills)
		if err != nil {
			return 0, fmt.Errorf("%w: insert education detail: %v", model.ErrTransaction, err)
		}
	}

	for _, work := range adm.WorkHistory {
		_, err = tx.Exec(ctx,
			`INSERT INTO work_history (pdl_id, occupation, employer, years)
			 VALUES ($1, $2, $3, $4)`,
			id, work.Occupation, work.Employer, work.Years)
		if err != nil {
			return 0, fmt.Errorf("%w: insert work history: %v", model.ErrTransaction, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return 0, model.ErrDuplicateTag
		}
		return 0, fmt.Errorf("%w: commit: %v", model.ErrTransaction, err)
	}

	return id, nil
}

const summaryColumns = `pdl_id, first_name, middle_name, last_name, gender,
	case_status, case_number, crime_name, date_committed, date_admitted,
	sentence_years, sentence_months, sentence_days, photo`

// List returns active (Detained/Sentenced/Awaiting Transfer) record
// summaries, newest first. The photo column is passed through as the
// bare filename; URL resolution belongs to the service.
func (r *PDLRepository) List(ctx context.Context) ([]model.PDLSummary, []string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+summaryColumns+`
		 FROM pdl_records
		 ORDER BY pdl_id DESC`)
	if err != nil {
		return nil, nil, fmt.Errorf("list pdl records: %w", err)
	}
	defer rows.Close()

	summaries := make([]model.PDLSummary, 0)
	photos := make([]string, 0)
	for rows.Next() {
		var s model.PDLSummary
		var photo *string
		if err := rows.Scan(&s.ID, &s.FirstName, &s.MiddleName, &s.LastName, &s.Gender,
			&s.CaseStatus, &s.CaseNumber, &s.CrimeName, &s.DateCommitted, &s.DateAdmitted,
			&s.SentenceYears, &s.SentenceMonths, &s.SentenceDays, &photo); err != nil {
			return nil, nil, fmt.Errorf("scan pdl summary: %w", err)
		}
		summaries = append(summaries, s)
		if photo != nil {
			photos = append(photos, *photo)
		} else {
			photos = append(photos, "")
		}
	}
	return summaries, photos, rows.Err()
}

func (r *PDLRepository) Get(ctx context.Context, id int64) (model.PDLRecord, error) {
	var rec model.PDLRecord
	var photo *string
	err := r.pool.QueryRow(ctx,
		`SELECT pdl_id, first_name, last_name, middle_name, birthdate, gender,
		        rfid_tag, case_number, crime_name, case_status,
		        date_committed, date_admitted,
		        sentence_years, sentence_months, sentence_days,
		        original_release_date, expected_release_date,
		        photo, created_by, created_at
		 FROM pdl_records WHERE pdl_id = $1`, id).
		Scan(&rec.ID, &rec.FirstName, &rec.LastName, &rec.MiddleName, &rec.Birthdate, &rec.Gender,
			&rec.RFIDTag, &rec.CaseNumber, &rec.CrimeName, &rec.CaseStatus,
			&rec.DateCommitted, &rec.DateAdmitted,
			&rec.SentenceYears, &rec.SentenceMonths, &rec.SentenceDays,
			&rec.OriginalReleaseDate, &rec.ExpectedReleaseDate,
			&photo, &rec.CreatedBy, &rec.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.PDLRecord{}, model.ErrRecordNotFound
	}
	if err != nil {
		return model.PDLRecord{}, fmt.Errorf("get pdl record: %w", err)
	}
	if photo != nil {
		rec.Photo = *photo
	}
	return rec, nil
}

// Update applies a partial update of mutable case fields inside one
// transaction. A record keeps exactly one detail row matching its
// status, so a status change to Awaiting Transfer drops the dependent
// row in the same transaction, and a change into Detained or Sentenced
// is rejected: those variants need detail data this update does not
// carry.
func (r *PDLRepository) Update(ctx context.Context, id int64, req model.UpdatePDLRequest) (model.PDLRecord, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.PDLRecord{}, fmt.Errorf("%w: begin: %v", model.ErrTransaction, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx,
		`SELECT case_status FROM pdl_records WHERE pdl_id = $1 FOR UPDATE`, id).
		Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PDLRecord{}, model.ErrRecordNotFound
	}
	if err != nil {
		return model.PDLRecord{}, fmt.Errorf("%w: lock record: %v", model.ErrTransaction, err)
	}

	if req.CaseStatus != nil && *req.CaseStatus != current {
		if *req.CaseStatus != model.CaseStatusTransfer {
			return model.PDLRecord{}, fmt.Errorf(
				"%w: case status can only change to %s; %s requires new admission details",
				model.ErrValidation, model.CaseStatusTransfer, *req.CaseStatus)
		}
		for _, table := range []string{"conviction_details", "detention_details"} {
			if _, err := tx.Exec(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE pdl_id = $1`, table), id); err != nil {
				return model.PDLRecord{}, fmt.Errorf("%w: drop case detail: %v", model.ErrTransaction, err)
			}
		}
	}

	set := make([]string, 0, 6)
	args := make([]any, 0, 7)
	argIdx := 1

	appendSet := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if req.CaseNumber != nil {
		appendSet("case_number", *req.CaseNumber)
	}
	if req.CrimeName != nil {
		appendSet("crime_name", *req.CrimeName)
	}
	if req.CaseStatus != nil {
		appendSet("case_status", *req.CaseStatus)
	}
	if req.SentenceYears != nil {
		appendSet("sentence_years", *req.SentenceYears)
	}
	if req.SentenceMonths != nil {
		appendSet("sentence_months", *req.SentenceMonths)
	}
	if req.SentenceDays != nil {
		appendSet("sentence_days", *req.SentenceDays)
	}

	if len(set) > 0 {
		query := fmt.Sprintf(`UPDATE pdl_records SET %s WHERE pdl_id = $%d`,
			strings.Join(set, ", "), argIdx)
		args = append(args, id)

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return model.PDLRecord{}, fmt.Errorf("%w: update record: %v", model.ErrTransaction, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.PDLRecord{}, fmt.Errorf("%w: commit: %v", model.ErrTransaction, err)
	}

	return r.Get(ctx, id)
}

// Stats aggregates counts for the dashboard in a single round trip.
func (r *PDLRepository) Stats(ctx context.Context) (model.DashboardStats, error) {
	var stats model.DashboardStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE case_status = 'Detained'),
		        COUNT(*) FILTER (WHERE case_status = 'Sentenced'),
		        COUNT(*) FILTER (WHERE case_status = 'Awaiting Transfer')
		 FROM pdl_records`).
		Scan(&stats.TotalPDL, &stats.Detained, &stats.Sentenced, &stats.Transfer)
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}

func nullIfEmpty(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
