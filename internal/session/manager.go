// internal/session/manager.go
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"recycle-pickup-api-server/config"
	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"
	"recycle-pickup-api-server/internal/pickup"
	"recycle-pickup-api-server/internal/storage"

	"github.com/google/uuid"
)

// Manager keeps the wizard sessions of every user in memory.
type Manager struct {
	cfg       config.WizardConfig
	uploader  pickup.Uploader
	submitter pickup.Submitter
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

const defaultSubmitTimeout = 2 * time.Minute

func NewManager(cfg config.WizardConfig, uploader pickup.Uploader, submitter pickup.Submitter) *Manager {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = defaultSubmitTimeout
	}
	return &Manager{
		cfg:       cfg,
		uploader:  uploader,
		submitter: submitter,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Start opens a new session for caller on the first wizard step.
func (m *Manager) Start(caller models.Caller) (View, error) {
	if caller.UserID == "" {
		return View{}, apperr.New(apperr.CodeUnauthenticated, "sign in to request a pickup")
	}
	if caller.AccountType == models.AccountDriver {
		return View{}, apperr.New(apperr.CodePermissionDenied, "drivers cannot request pickups")
	}
	w, err := pickup.NewWizard()
	if err != nil {
		return View{}, err
	}

	id := uuid.NewString()
	dir := filepath.Join(m.cfg.UploadDir, id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return View{}, fmt.Errorf("failed to create session directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := m.now()
	s := &Session{
		ID:        id,
		Caller:    caller,
		Dir:       dir,
		CreatedAt: now,
		ctx:       ctx,
		cancel:    cancel,
		wizard:    w,
		touched:   now,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(m.cfg.SessionTTL), nil
}

// lookup returns the live session id of caller. Sessions of other users look
// the same as missing ones.
func (m *Manager) lookup(caller models.Caller, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || s.Caller.UserID != caller.UserID || s.ctx.Err() != nil {
		return nil, apperr.New(apperr.CodeNotFound, "wizard session %s not found", id)
	}
	return s, nil
}

// do runs fn on the wizard of a live session and returns the resulting view.
func (m *Manager) do(caller models.Caller, id string, fn func(s *Session) error) (View, error) {
	s, err := m.lookup(caller, id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = m.now()
	err = fn(s)
	return s.view(m.cfg.SessionTTL), err
}

func (m *Manager) Get(caller models.Caller, id string) (View, error) {
	return m.do(caller, id, func(*Session) error { return nil })
}

// SetData replaces the form data wholesale.
func (m *Manager) SetData(caller models.Caller, id string, data pickup.FormData) (View, error) {
	return m.do(caller, id, func(s *Session) error { return s.wizard.SetData(data) })
}

func (m *Manager) Next(caller models.Caller, id string) (View, error) {
	return m.do(caller, id, func(s *Session) error { return s.wizard.Next() })
}

func (m *Manager) Back(caller models.Caller, id string) (View, error) {
	return m.do(caller, id, func(s *Session) error { return s.wizard.Back() })
}

// AddPhoto stores body in the session directory and appends it, as a local
// reference, to material i. It is uploaded on submit.
func (m *Manager) AddPhoto(caller models.Caller, id string, i int, filename string, body io.Reader) (View, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := storage.PhotoContentType(ext); !ok {
		return View{}, apperr.New(apperr.CodeInvalidArgument, "unsupported photo type %q", ext)
	}
	return m.do(caller, id, func(s *Session) error {
		if s.wizard.Phase() != pickup.PhaseEditing {
			return pickup.ErrSubmitting
		}
		ref := uuid.NewString() + ext
		if err := m.savePhoto(filepath.Join(s.Dir, ref), body); err != nil {
			return err
		}
		if err := s.wizard.AddPhoto(i, ref); err != nil {
			os.Remove(filepath.Join(s.Dir, ref))
			return err
		}
		return nil
	})
}

func (m *Manager) savePhoto(dst string, body io.Reader) error {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create photo file: %w", err)
	}
	limit := m.cfg.MaxPhotoBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	n, err := io.Copy(f, io.LimitReader(body, limit+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("failed to store photo: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("failed to store photo: %w", closeErr)
	case n > limit:
		err = apperr.New(apperr.CodeInvalidArgument, "photo is larger than %d bytes", limit)
	case n == 0:
		err = apperr.New(apperr.CodeInvalidArgument, "photo is empty")
	}
	if err != nil {
		os.Remove(dst)
	}
	return err
}

// Submit uploads the session's local photos and creates the pickup. The
// wizard is locked for edits while this runs, and the work is bound to the
// session context, not the request, so Discard aborts it. A successful
// submission ends the session.
func (m *Manager) Submit(caller models.Caller, id string) (View, error) {
	s, err := m.lookup(caller, id)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	s.touched = m.now()
	data, err := s.wizard.BeginSubmit()
	if err != nil {
		v := s.view(m.cfg.SessionTTL)
		s.mu.Unlock()
		return v, err
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, m.cfg.SubmitTimeout)
	defer cancel()
	resolver := &pickup.PhotoUploader{
		Uploader:    m.uploader,
		Source:      pickup.DirSource{Dir: s.Dir},
		Prefix:      storage.UserPrefix(s.Caller.UserID),
		Concurrency: m.cfg.UploadConcurrency,
	}
	resolved, p, err := pickup.Deliver(ctx, s.Caller, data, resolver, m.submitter)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = apperr.Wrap(apperr.CodeUnavailable, err, "submission timed out")
	}

	s.mu.Lock()
	s.touched = m.now()
	s.wizard.FinishSubmit(resolved, p, err)
	v := s.view(m.cfg.SessionTTL)
	s.mu.Unlock()

	if err != nil {
		log.Printf("Wizard session %s submit failed: %v", id, err)
		return v, err
	}
	log.Printf("Wizard session %s submitted pickup %s", id, p.ID)
	m.remove(id)
	return v, nil
}

// Discard cancels the session, aborting any submission in flight.
func (m *Manager) Discard(caller models.Caller, id string) error {
	if _, err := m.lookup(caller, id); err != nil {
		return err
	}
	m.remove(id)
	return nil
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.cancel()
	if err := os.RemoveAll(s.Dir); err != nil {
		log.Printf("Failed to remove wizard session directory %s: %v", s.Dir, err)
	}
}

// Sweep discards sessions idle for longer than the TTL. Sessions that are
// submitting are left to finish.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.cfg.SessionTTL)

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if !s.mu.TryLock() {
			continue
		}
		if s.touched.Before(cutoff) && s.wizard.Phase() != pickup.PhaseSubmitting {
			expired = append(expired, id)
		}
		s.mu.Unlock()
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.remove(id)
	}
	if len(expired) > 0 {
		log.Printf("Expired %d wizard session(s)", len(expired))
	}
	return len(expired)
}

// Run sweeps expired sessions until ctx is done, then discards the rest.
func (m *Manager) Run(ctx context.Context) {
	interval := m.cfg.SessionTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Close()
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close discards every session.
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.remove(id)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
