package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"skyshot_backend/internal/adapters/storage"
	"skyshot_backend/internal/events"
	"skyshot_backend/internal/pilots/domain"
	"skyshot_backend/internal/pilots/repository"
	"skyshot_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]repository.Profile
	docs     map[uuid.UUID]repository.Document
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles: make(map[uuid.UUID]repository.Profile),
		docs:     make(map[uuid.UUID]repository.Document),
	}
}

func (f *fakeRepo) CreateProfile(_ context.Context, params repository.CreateProfileParams) (repository.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.profiles[params.ID]; exists {
		return repository.Profile{}, apperr.Conflict("pilot profile already exists")
	}
	now := time.Now().UTC()
	p := repository.Profile{
		ID:        params.ID,
		Name:      params.Name,
		Email:     params.Email,
		Phone:     params.Phone,
		Latitude:  params.Latitude,
		Longitude: params.Longitude,
		Approval:  domain.ApprovalPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.profiles[params.ID] = p
	return p, nil
}

func (f *fakeRepo) GetProfile(_ context.Context, id uuid.UUID) (repository.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return repository.Profile{}, apperr.NotFound("pilot not found")
	}
	return p, nil
}

func (f *fakeRepo) ListProfiles(_ context.Context, params repository.ListParams) ([]repository.Profile, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Profile
	for _, p := range f.profiles {
		if params.Approval != nil && p.Approval != *params.Approval {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateProfile(_ context.Context, id uuid.UUID, params repository.UpdateProfileParams) (repository.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return repository.Profile{}, apperr.NotFound("pilot not found")
	}
	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.Phone != nil {
		p.Phone = *params.Phone
	}
	if params.Latitude != nil {
		p.Latitude = params.Latitude
	}
	if params.Longitude != nil {
		p.Longitude = params.Longitude
	}
	f.profiles[id] = p
	return p, nil
}

func (f *fakeRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool) (repository.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return repository.Profile{}, apperr.NotFound("pilot not found")
	}
	p.Available = available
	f.profiles[id] = p
	return p, nil
}

func (f *fakeRepo) Heartbeat(_ context.Context, id uuid.UUID, lat, lon *float64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return apperr.NotFound("pilot not found")
	}
	p.LastHeartbeatAt = &at
	if lat != nil {
		p.Latitude = lat
	}
	if lon != nil {
		p.Longitude = lon
	}
	f.profiles[id] = p
	return nil
}

func (f *fakeRepo) SetApproval(_ context.Context, id uuid.UUID, status domain.ApprovalStatus) (repository.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return repository.Profile{}, apperr.NotFound("pilot not found")
	}
	p.Approval = status
	f.profiles[id] = p
	return p, nil
}

func (f *fakeRepo) IncrementCompletedJobs(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return apperr.NotFound("pilot not found")
	}
	p.CompletedJobs++
	f.profiles[id] = p
	return nil
}

func (f *fakeRepo) ListDispatchCandidates(_ context.Context, exclude []uuid.UUID) ([]repository.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	excluded := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}
	var out []repository.Candidate
	for _, p := range f.profiles {
		if excluded[p.ID] || p.Approval != domain.ApprovalApproved || !p.Available {
			continue
		}
		var states []domain.DocumentState
		for _, d := range f.docs {
			if d.PilotID == p.ID {
				states = append(states, domain.DocumentState{Status: d.Status, ExpiresAt: d.ExpiresAt})
			}
		}
		out = append(out, repository.Candidate{Profile: p, Documents: states})
	}
	return out, nil
}

func (f *fakeRepo) UpsertDocument(_ context.Context, params repository.UpsertDocumentParams) (repository.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, d := range f.docs {
		if d.PilotID == params.PilotID && d.Type == params.Type {
			d.FileKey = params.FileKey
			d.ExpiresAt = params.ExpiresAt
			d.Status = domain.DocPending
			d.ReviewNote = nil
			d.ReviewedAt = nil
			f.docs[id] = d
			return d, nil
		}
	}
	doc := repository.Document{
		ID:        uuid.New(),
		PilotID:   params.PilotID,
		Type:      params.Type,
		Status:    domain.DocPending,
		FileKey:   params.FileKey,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	}
	f.docs[doc.ID] = doc
	return doc, nil
}

func (f *fakeRepo) GetDocument(_ context.Context, id uuid.UUID) (repository.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return repository.Document{}, apperr.NotFound("document not found")
	}
	return d, nil
}

func (f *fakeRepo) ListDocuments(_ context.Context, pilotID uuid.UUID) ([]repository.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Document
	for _, d := range f.docs {
		if d.PilotID == pilotID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReviewDocument(_ context.Context, id uuid.UUID, params repository.ReviewDocumentParams) (repository.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return repository.Document{}, apperr.NotFound("document not found")
	}
	d.Status = params.Status
	d.ReviewNote = params.ReviewNote
	reviewedAt := params.ReviewedAt
	d.ReviewedAt = &reviewedAt
	if params.ExpiresAt != nil {
		d.ExpiresAt = params.ExpiresAt
	}
	f.docs[id] = d
	return d, nil
}

type fakeStorage struct {
	uploads int
}

func (f *fakeStorage) GenerateUploadURL(_ context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*storage.PresignedURL, error) {
	f.uploads++
	return &storage.PresignedURL{
		URL:       "https://minio.test/" + bucket + "/" + folder + "/" + fileName,
		FileKey:   folder + "/" + fileName,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{
		URL:       "https://minio.test/" + bucket + "/" + fileKey,
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (f *fakeStorage) DownloadFile(_ context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	return nil, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, bucket, fileKey string) error { return nil }

func (f *fakeStorage) EnsureBucketExists(_ context.Context, bucket string) error { return nil }

func (f *fakeStorage) ValidateContentType(contentType string) error { return nil }

func (f *fakeStorage) ValidateFileSize(sizeBytes int64) error { return nil }

func registeredPilot(t *testing.T, svc *Service) repository.Profile {
	t.Helper()
	profile, err := svc.Register(context.Background(), RegisterParams{
		UserID: uuid.New(),
		Name:   "Ada",
		Email:  "ada@example.com",
		Phone:  "(202) 555-0143",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return profile
}

func TestRegisterNormalizesPhoneAndStartsPending(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, "", nil, nil)

	profile := registeredPilot(t, svc)

	if profile.Phone != "+12025550143" {
		t.Fatalf("phone = %q, want E.164", profile.Phone)
	}
	if profile.Approval != domain.ApprovalPending {
		t.Fatalf("approval = %q, want pending", profile.Approval)
	}
}

func TestRegisterTwiceIsConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, "", nil, nil)

	profile := registeredPilot(t, svc)
	_, err := svc.Register(context.Background(), RegisterParams{
		UserID: profile.ID,
		Name:   "Ada",
		Email:  "ada@example.com",
		Phone:  "+12025550143",
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestApprovalLifecycle(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, "", nil, nil)
	profile := registeredPilot(t, svc)

	approved, err := svc.Approve(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Approval != domain.ApprovalApproved {
		t.Fatalf("approval = %q, want approved", approved.Approval)
	}

	suspended, err := svc.Suspend(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if suspended.Approval != domain.ApprovalSuspended {
		t.Fatalf("approval = %q, want suspended", suspended.Approval)
	}
}

func TestDispatchCandidatesExcludeUnapprovedAndUnavailable(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, "", nil, nil)

	ready := registeredPilot(t, svc)
	if _, err := svc.Approve(context.Background(), ready.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.SetAvailability(context.Background(), ready.ID, true); err != nil {
		t.Fatalf("set availability: %v", err)
	}

	pending := registeredPilot(t, svc)
	if _, err := svc.SetAvailability(context.Background(), pending.ID, true); err != nil {
		t.Fatalf("set availability: %v", err)
	}

	candidates, err := svc.DispatchCandidates(context.Background(), nil)
	if err != nil {
		t.Fatalf("dispatch candidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Profile.ID != ready.ID {
		t.Fatalf("candidates = %v, want only the approved available pilot", candidates)
	}
}

func TestDispatchCandidatesHonorExclusions(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, "", nil, nil)

	pilot := registeredPilot(t, svc)
	if _, err := svc.Approve(context.Background(), pilot.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.SetAvailability(context.Background(), pilot.ID, true); err != nil {
		t.Fatalf("set availability: %v", err)
	}

	candidates, err := svc.DispatchCandidates(context.Background(), []uuid.UUID{pilot.ID})
	if err != nil {
		t.Fatalf("dispatch candidates: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("candidates = %v, want none", candidates)
	}
}

func TestHeartbeatUpdatesPositionAndTimestamp(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, "", nil, nil)
	profile := registeredPilot(t, svc)

	lat, lon := 52.1, 5.2
	if err := svc.Heartbeat(context.Background(), profile.ID, &lat, &lon); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	got, err := svc.Get(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastHeartbeatAt == nil {
		t.Fatal("heartbeat timestamp not recorded")
	}
	if got.Latitude == nil || *got.Latitude != lat {
		t.Fatalf("latitude = %v, want %v", got.Latitude, lat)
	}
}

func TestRequestDocumentUploadRejectsUnknownType(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStorage{}
	svc := New(repo, store, "pilot-documents", nil, nil)
	profile := registeredPilot(t, svc)

	_, err := svc.RequestDocumentUpload(context.Background(), profile.ID, "passport_scan", "scan.pdf", "application/pdf", 1024)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if store.uploads != 0 {
		t.Fatal("presign should not run for an unknown type")
	}
}

func TestRequestDocumentUploadPresignsSlot(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStorage{}
	svc := New(repo, store, "pilot-documents", nil, nil)
	profile := registeredPilot(t, svc)

	upload, err := svc.RequestDocumentUpload(context.Background(), profile.ID, domain.DocLicense, "license.pdf", "application/pdf", 1024)
	if err != nil {
		t.Fatalf("request upload: %v", err)
	}
	if upload.UploadURL == "" || upload.FileKey == "" {
		t.Fatalf("upload = %+v, want populated slot", upload)
	}
}

func TestResubmittingDocumentResetsReview(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, "", nil, nil)
	profile := registeredPilot(t, svc)

	doc, err := svc.AttachDocument(context.Background(), profile.ID, domain.DocInsurance, "keys/v1.pdf", nil)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	note := "blurry scan"
	if _, err := svc.ReviewDocument(context.Background(), doc.ID, false, &note, nil); err != nil {
		t.Fatalf("review: %v", err)
	}

	resubmitted, err := svc.AttachDocument(context.Background(), profile.ID, domain.DocInsurance, "keys/v2.pdf", nil)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resubmitted.ID != doc.ID {
		t.Fatalf("resubmission created a new row, want upsert on (pilot, type)")
	}
	if resubmitted.Status != domain.DocPending {
		t.Fatalf("status = %q, want pending after resubmission", resubmitted.Status)
	}
	if resubmitted.FileKey != "keys/v2.pdf" {
		t.Fatalf("fileKey = %q, want replaced", resubmitted.FileKey)
	}
}

func TestReviewDocumentRecordsVerdict(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, "", nil, nil)
	profile := registeredPilot(t, svc)

	doc, err := svc.AttachDocument(context.Background(), profile.ID, domain.DocIdentity, "keys/id.pdf", nil)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	expires := time.Now().Add(365 * 24 * time.Hour)
	reviewed, err := svc.ReviewDocument(context.Background(), doc.ID, true, nil, &expires)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != domain.DocApproved {
		t.Fatalf("status = %q, want approved", reviewed.Status)
	}
	if reviewed.ReviewedAt == nil {
		t.Fatal("reviewedAt not recorded")
	}
}

func TestPublishedJobBumpsCompletedJobs(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, "", nil, nil)
	profile := registeredPilot(t, svc)

	var handler events.Handler
	bus := &capturingBus{onSubscribe: func(name string, h events.Handler) {
		if name == "dispatch.job.status_changed" {
			handler = h
		}
	}}
	svc.RegisterHandlers(bus)
	if handler == nil {
		t.Fatal("no handler registered for job status changes")
	}

	pilotID := profile.ID
	err := handler.Handle(context.Background(), events.JobStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		JobID:     uuid.New(),
		From:      "ready_for_publish",
		To:        "published",
		PilotID:   &pilotID,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, err := svc.Get(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CompletedJobs != 1 {
		t.Fatalf("completedJobs = %d, want 1", got.CompletedJobs)
	}

	// Non-terminal transitions leave the counter alone.
	err = handler.Handle(context.Background(), events.JobStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		JobID:     uuid.New(),
		From:      "assigned",
		To:        "scheduled",
		PilotID:   &pilotID,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	got, _ = svc.Get(context.Background(), profile.ID)
	if got.CompletedJobs != 1 {
		t.Fatalf("completedJobs = %d, want still 1", got.CompletedJobs)
	}
}

type capturingBus struct {
	onSubscribe func(name string, h events.Handler)
}

func (b *capturingBus) Publish(context.Context, events.Event) {}

func (b *capturingBus) PublishSync(context.Context, events.Event) error { return nil }

func (b *capturingBus) Subscribe(name string, h events.Handler) {
	if b.onSubscribe != nil {
		b.onSubscribe(name, h)
	}
}
