package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pdl-records/internal/event"
	"pdl-records/internal/model"
)

type mockPDLStore struct {
	mock.Mock
}

func (m *mockPDLStore) TagExists(ctx context.Context, rfidTag string) (bool, error) {
	args := m.Called(ctx, rfidTag)
	return args.Bool(0), args.Error(1)
}

func (m *mockPDLStore) Register(ctx context.Context, adm model.Admission) (int64, error) {
	args := m.Called(ctx, adm)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPDLStore) List(ctx context.Context) ([]model.PDLSummary, []string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.PDLSummary), args.Get(1).([]string), args.Error(2)
}

func (m *mockPDLStore) Get(ctx context.Context, id int64) (model.PDLRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.PDLRecord), args.Error(1)
}

func (m *mockPDLStore) Update(ctx context.Context, id int64, req model.UpdatePDLRequest) (model.PDLRecord, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(model.PDLRecord), args.Error(1)
}

type mockPhotoStore struct {
	mock.Mock
}

func (m *mockPhotoStore) Save(r io.Reader, originalName string) (string, error) {
	args := m.Called(r, originalName)
	return args.String(0), args.Error(1)
}

func (m *mockPhotoStore) Remove(filename string) error {
	args := m.Called(filename)
	return args.Error(0)
}

func validRegisterRequest() model.RegisterPDLRequest {
	return model.RegisterPDLRequest{
		FirstName:     "Pedro",
		LastName:      "Reyes",
		Gender:        "Male",
		RFIDTag:       "RFID-0001",
		CaseNumber:    "CRIM-2024-117",
		CrimeName:     "Theft",
		CaseStatus:    model.CaseStatusDetained,
		DateCommitted: "2024-01-31",
		DateAdmitted:  "2024-02-01",

		DetentionFacility: "Municipal Jail",
		HearingDate:       "2024-03-15",
		CaseStage:         "Arraignment",
	}
}

func TestPDLService_Register(t *testing.T) {
	actor := model.Actor{UserID: 5, Username: "warden", Role: "Warden", IP: "10.0.0.2"}

	t.Run("duplicate tag removes the stored photo and never opens the transaction", func(t *testing.T) {
		repo := new(mockPDLStore)
		photos := new(mockPhotoStore)
		svc := NewPDLService(repo, photos, nil, nil)

		photos.On("Save", mock.Anything, "mugshot.jpg").Return("pdl-abc.jpg", nil)
		repo.On("TagExists", mock.Anything, "RFID-0001").Return(true, nil)
		photos.On("Remove", "pdl-abc.jpg").Return(nil)

		_, err := svc.Register(context.Background(), validRegisterRequest(), strings.NewReader("img"), "mugshot.jpg", actor)
		assert.ErrorIs(t, err, model.ErrDuplicateTag)

		repo.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		photos.AssertExpectations(t)
	})

	t.Run("transaction failure removes the stored photo", func(t *testing.T) {
		repo := new(mockPDLStore)
		photos := new(mockPhotoStore)
		svc := NewPDLService(repo, photos, nil, nil)

		photos.On("Save", mock.Anything, "mugshot.jpg").Return("pdl-abc.jpg", nil)
		repo.On("TagExists", mock.Anything, "RFID-0001").Return(false, nil)
		repo.On("Register", mock.Anything, mock.Anything).Return(int64(0), model.ErrTransaction)
		photos.On("Remove", "pdl-abc.jpg").Return(nil)

		_, err := svc.Register(context.Background(), validRegisterRequest(), strings.NewReader("img"), "mugshot.jpg", actor)
		assert.ErrorIs(t, err, model.ErrTransaction)
		photos.AssertExpectations(t)
	})

	t.Run("success publishes one audit event after the write", func(t *testing.T) {
		repo := new(mockPDLStore)
		photos := new(mockPhotoStore)
		bus := event.NewBus()
		events, unsubscribe := bus.Subscribe()
		defer unsubscribe()
		svc := NewPDLService(repo, photos, bus, nil)

		repo.On("TagExists", mock.Anything, "RFID-0001").Return(false, nil)
		repo.On("Register", mock.Anything, mock.Anything).Return(int64(31), nil)

		id, err := svc.Register(context.Background(), validRegisterRequest(), nil, "", actor)
		assert.NoError(t, err)
		assert.Equal(t, int64(31), id)

		e := drainOne(t, events)
		assert.Equal(t, event.TypePDLRegistered, e.Type)
		assert.Equal(t, model.ActionCreatePDL, e.Action)
		assert.Equal(t, "pdl_records", e.TableName)
		assert.Equal(t, int64(31), e.RecordID)
		assert.Equal(t, int64(5), e.Actor.UserID)
		assert.Contains(t, e.Details, "RFID-0001")
		assertNoMoreEvents(t, events)

		photos.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("release date follows calendar normalization", func(t *testing.T) {
		repo := new(mockPDLStore)
		photos := new(mockPhotoStore)
		svc := NewPDLService(repo, photos, nil, nil)

		req := validRegisterRequest()
		req.DateCommitted = "2024-01-31"
		req.SentenceMonths = 1

		var captured model.Admission
		repo.On("TagExists", mock.Anything, "RFID-0001").Return(false, nil)
		repo.On("Register", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			captured = args.Get(1).(model.Admission)
		}).Return(int64(1), nil)

		_, err := svc.Register(context.Background(), req, nil, "", actor)
		assert.NoError(t, err)

		// 2024-01-31 plus one month rolls over to March 2nd.
		want := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
		assert.NotNil(t, captured.Record.OriginalReleaseDate)
		assert.Equal(t, want, *captured.Record.OriginalReleaseDate)
		assert.NotNil(t, captured.Record.ExpectedReleaseDate)
		assert.Equal(t, want, *captured.Record.ExpectedReleaseDate)
	})

	t.Run("no committal date means no projected release date", func(t *testing.T) {
		repo := new(mockPDLStore)
		photos := new(mockPhotoStore)
		svc := NewPDLService(repo, photos, nil, nil)

		req := validRegisterRequest()
		req.DateCommitted = ""

		var captured model.Admission
		repo.On("TagExists", mock.Anything, "RFID-0001").Return(false, nil)
		repo.On("Register", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			captured = args.Get(1).(model.Admission)
		}).Return(int64(1), nil)

		_, err := svc.Register(context.Background(), req, nil, "", actor)
		assert.NoError(t, err)
		assert.Nil(t, captured.Record.OriginalReleaseDate)
		assert.Nil(t, captured.Record.ExpectedReleaseDate)
	})

	t.Run("detail variant matches case status", func(t *testing.T) {
		repo := new(mockPDLStore)
		photos := new(mockPhotoStore)
		svc := NewPDLService(repo, photos, nil, nil)

		req := validRegisterRequest()
		req.CaseStatus = model.CaseStatusSentenced
		req.SentenceYears = 2
		req.CourtBranch = "RTC Branch 12"
		req.ConvictionDate = "2024-01-20"
		req.SentenceDescription = "2 years imprisonment"
		req.DetentionFacility = ""
		req.HearingDate = ""
		req.CaseStage = ""

		var captured model.Admission
		repo.On("TagExists", mock.Anything, "RFID-0001").Return(false, nil)
		repo.On("Register", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			captured = args.Get(1).(model.Admission)
		}).Return(int64(1), nil)

		_, err := svc.Register(context.Background(), req, nil, "", actor)
		assert.NoError(t, err)

		conviction, ok := captured.Detail.(model.ConvictionDetail)
		assert.True(t, ok)
		assert.Equal(t, "RTC Branch 12", conviction.CourtBranch)
	})

	t.Run("awaiting transfer carries no detail", func(t *testing.T) {
		repo := new(mockPDLStore)
		photos := new(mockPhotoStore)
		svc := NewPDLService(repo, photos, nil, nil)

		req := validRegisterRequest()
		req.CaseStatus = model.CaseStatusTransfer
		req.DetentionFacility = ""
		req.HearingDate = ""
		req.CaseStage = ""

		var captured model.Admission
		repo.On("TagExists", mock.Anything, "RFID-0001").Return(false, nil)
		repo.On("Register", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			captured = args.Get(1).(model.Admission)
		}).Return(int64(1), nil)

		_, err := svc.Register(context.Background(), req, nil, "", actor)
		assert.NoError(t, err)
		assert.Nil(t, captured.Detail)
	})

	t.Run("rejects an invalid payload before touching storage", func(t *testing.T) {
		repo := new(mockPDLStore)
		photos := new(mockPhotoStore)
		svc := NewPDLService(repo, photos, nil, nil)

		req := validRegisterRequest()
		req.CaseStatus = "Paroled"

		_, err := svc.Register(context.Background(), req, nil, "", actor)
		assert.ErrorIs(t, err, model.ErrValidation)

		repo.AssertNotCalled(t, "TagExists", mock.Anything, mock.Anything)
		photos.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestPDLService_List(t *testing.T) {
	repo := new(mockPDLStore)
	photos := new(mockPhotoStore)
	svc := NewPDLService(repo, photos, nil, nil)

	repo.On("List", mock.Anything).Return([]model.PDLSummary{
		{ID: 1, LastName: "Reyes"},
		{ID: 2, LastName: "Santos"},
	}, []string{"pdl-a.jpg", ""}, nil)

	summaries, err := svc.List(context.Background(), "http://localhost:8080/")
	assert.NoError(t, err)
	assert.Len(t, summaries, 2)

	assert.NotNil(t, summaries[0].PhotoURL)
	assert.Equal(t, "http://localhost:8080/uploads/pdl-a.jpg", *summaries[0].PhotoURL)
	assert.Nil(t, summaries[1].PhotoURL)
}

func TestPDLService_Update(t *testing.T) {
	actor := model.Actor{UserID: 5, Username: "warden"}

	t.Run("publishes an update audit event", func(t *testing.T) {
		repo := new(mockPDLStore)
		bus := event.NewBus()
		events, unsubscribe := bus.Subscribe()
		defer unsubscribe()
		svc := NewPDLService(repo, new(mockPhotoStore), bus, nil)

		status := model.CaseStatusSentenced
		req := model.UpdatePDLRequest{CaseStatus: &status}
		repo.On("Update", mock.Anything, int64(9), req).Return(model.PDLRecord{ID: 9, CaseStatus: status}, nil)

		rec, err := svc.Update(context.Background(), 9, req, actor)
		assert.NoError(t, err)
		assert.Equal(t, status, rec.CaseStatus)

		e := drainOne(t, events)
		assert.Equal(t, event.TypePDLUpdated, e.Type)
		assert.Equal(t, int64(9), e.RecordID)
	})

	t.Run("not found passes through untouched", func(t *testing.T) {
		repo := new(mockPDLStore)
		svc := NewPDLService(repo, new(mockPhotoStore), nil, nil)

		repo.On("Update", mock.Anything, int64(404), mock.Anything).Return(model.PDLRecord{}, model.ErrRecordNotFound)

		_, err := svc.Update(context.Background(), 404, model.UpdatePDLRequest{}, actor)
		assert.ErrorIs(t, err, model.ErrRecordNotFound)
	})
}

func TestBuildAdmission_InvalidDates(t *testing.T) {
	req := validRegisterRequest()
	req.DateAdmitted = "31-01-2024"

	_, err := buildAdmission(req, 1)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestPDLService_SaveFailurePropagates(t *testing.T) {
	repo := new(mockPDLStore)
	photos := new(mockPhotoStore)
	svc := NewPDLService(repo, photos, nil, nil)

	photos.On("Save", mock.Anything, "mugshot.exe").Return("", errors.New("unsupported image type"))

	_, err := svc.Register(context.Background(), validRegisterRequest(), strings.NewReader("MZ"), "mugshot.exe", model.Actor{UserID: 1})
	assert.Error(t, err)
	repo.AssertNotCalled(t, "TagExists", mock.Anything, mock.Anything)
}
