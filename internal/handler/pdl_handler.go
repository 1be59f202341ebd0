package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pdl-records/internal/model"
	"pdl-records/internal/service"
	"pdl-records/internal/storage"
	"pdl-records/pkg/apierror"
)

type PDLHandler struct {
	service      *service.PDLService
	photos       *storage.PhotoStore
	publicBase   string
	maxPhotoSize int64
}

func NewPDLHandler(service *service.PDLService, photos *storage.PhotoStore, publicBase string, maxPhotoSize int64) *PDLHandler {
	return &PDLHandler{
		service:      service,
		photos:       photos,
		publicBase:   publicBase,
		maxPhotoSize: maxPhotoSize,
	}
}

// Register handles the multipart admission form. The optional photo part
// is named profile_photo; all other fields are plain form values.
func (h *PDLHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	// Cap the whole request body, not just the in-memory spool that
	// ParseMultipartForm's argument controls. Overflow surfaces from the
	// parse as *http.MaxBytesError.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxPhotoSize)

	if err := r.ParseMultipartForm(h.maxPhotoSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apierror.New("VALIDATION_ERROR",
				"upload exceeds the size limit",
				fmt.Sprintf("limit is %d bytes", tooLarge.Limit),
				http.StatusRequestEntityTooLarge))
			return
		}
		writeError(w, apierror.Validation("invalid multipart form", ""))
		return
	}

	req, err := admissionRequestFromForm(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var photo io.Reader
	var photoName string
	if file, header, fileErr := r.FormFile("profile_photo"); fileErr == nil {
		defer file.Close()
		photo = file
		photoName = header.Filename
	}

	id, err := h.service.Register(r.Context(), req, photo, photoName, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"id": id}, nil)
}

func (h *PDLHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.List(r.Context(), h.baseURL(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, summaries, nil)
}

func (h *PDLHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, rec, nil)
}

func (h *PDLHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdatePDLRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body", ""))
		return
	}

	rec, err := h.service.Update(r.Context(), id, payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, rec, nil)
}

// Thumbnail serves a scaled mugshot for list views.
func (h *PDLHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if rec.Photo == "" {
		writeError(w, model.ErrRecordNotFound)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	file, info, err := h.photos.Thumbnail(rec.Photo, size)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

func (h *PDLHandler) baseURL(r *http.Request) string {
	if h.publicBase != "" {
		return h.publicBase
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.Validation("invalid record id", raw)
	}
	return id, nil
}

func admissionRequestFromForm(r *http.Request) (model.RegisterPDLRequest, error) {
	form := r.Form

	req := model.RegisterPDLRequest{
		FirstName:           form.Get("first_name"),
		LastName:            form.Get("last_name"),
		MiddleName:          form.Get("middle_name"),
		Birthdate:           form.Get("birthdate"),
		Gender:              form.Get("gender"),
		RFIDTag:             form.Get("rfid_tag"),
		CaseNumber:          form.Get("case_number"),
		CrimeName:           form.Get("crime_name"),
		CaseStatus:          form.Get("case_status"),
		DateCommitted:       form.Get("date_committed"),
		DateAdmitted:        form.Get("date_admitted"),
		CourtBranch:         form.Get("court_branch"),
		ConvictionDate:      form.Get("conviction_date"),
		SentenceDescription: form.Get("sentence_description"),
		DetentionFacility:   form.Get("detention_facility"),
		HearingDate:         form.Get("hearing_date"),
		CaseStage:           form.Get("case_stage"),
		HighestLevel:        form.Get("highest_level"),
		SchoolName:          form.Get("school_name"),
		Skills:              form.Get("skills"),
	}

	var err error
	if req.SentenceYears, err = formInt(form.Get("sentence_years")); err != nil {
		return req, apierror.Validation("invalid sentence_years", "")
	}
	if req.SentenceMonths, err = formInt(form.Get("sentence_months")); err != nil {
		return req, apierror.Validation("invalid sentence_months", "")
	}
	if req.SentenceDays, err = formInt(form.Get("sentence_days")); err != nil {
		return req, apierror.Validation("invalid sentence_days", "")
	}

	// Work history arrives as a JSON array in a single field.
	if raw := strings.TrimSpace(form.Get("work_history")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.WorkHistory); err != nil {
			return req, apierror.Validation("invalid work_history JSON", "")
		}
	}

	return req, nil
}

func formInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
