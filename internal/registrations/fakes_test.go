package registrations

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingscode/bootcamp-api/internal/models"
)

// memStore enforces email uniqueness inside Create, like the registrations_email_key constraint.
type memStore struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.Registration
	lookupErr error
	createErr error
	qrErr     error
	lookups   int
	// afterCreate runs once a record is stored, e.g. to simulate a client disconnect.
	afterCreate func()
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[uuid.UUID]*models.Registration)}
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	for _, r := range s.byID {
		if r.Email == email {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, r := range s.byID {
		if r.Email == reg.Email {
			return ErrEmailTaken
		}
	}
	reg.ID = uuid.New()
	reg.Status = models.StatusConfirmed
	reg.CreatedAt = time.Now()
	cp := *reg
	s.byID[reg.ID] = &cp
	if s.afterCreate != nil {
		s.afterCreate()
	}
	return nil
}

func (s *memStore) SetQRCode(ctx context.Context, id uuid.UUID, dataURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.qrErr != nil {
		return s.qrErr
	}
	r, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	r.QRCode = dataURL
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) List(_ context.Context, f ListFilter) ([]models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Registration
	for _, r := range s.byID {
		if f.Course == "" || r.Course == f.Course {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memStore) CountByCourse(_ context.Context) ([]models.CourseCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byCourse := map[string]*models.CourseCount{}
	for _, r := range s.byID {
		cc, ok := byCourse[r.Course]
		if !ok {
			cc = &models.CourseCount{Course: r.Course}
			byCourse[r.Course] = cc
		}
		cc.Total++
		if r.HasLaptop {
			cc.WithLaptop++
		}
	}
	var out []models.CourseCount
	for _, cc := range byCourse {
		out = append(out, *cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Course < out[j].Course })
	return out, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *memStore) only() models.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.byID {
		return *r
	}
	return models.Registration{}
}

type stubEncoder struct {
	err      error
	payloads []string
	mu       sync.Mutex
}

func (e *stubEncoder) Encode(content string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.payloads = append(e.payloads, content)
	return []byte("\x89PNG-" + content), nil
}

type sentMail struct {
	to, name string
	png      []byte
}

type stubMailer struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

func (m *stubMailer) SendConfirmation(ctx context.Context, to, name string, png []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, name: name, png: png})
	return nil
}

type memEmailLogs struct {
	mu   sync.Mutex
	logs []models.EmailLog
	err  error
}

func (l *memEmailLogs) Create(_ context.Context, e *models.EmailLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	e.ID = uuid.New()
	l.logs = append(l.logs, *e)
	return nil
}

var errDB = errors.New("connection reset by peer")
