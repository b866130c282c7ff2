// internal/session/session.go
package session

import (
	"context"
	"sync"
	"time"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"
	"recycle-pickup-api-server/internal/pickup"
)

// Session owns one wizard for one user. Its context lives from Start until
// the session is discarded, submitted or expires.
type Session struct {
	ID        string
	Caller    models.Caller
	Dir       string
	CreatedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	wizard  *pickup.Wizard
	touched time.Time
}

// FailedPhoto points at one photo that did not upload.
type FailedPhoto struct {
	Material int    `json:"material"`
	Photo    int    `json:"photo"`
	Ref      string `json:"ref"`
	Message  string `json:"message"`
}

type ErrorView struct {
	Status       apperr.Code   `json:"status"`
	Message      string        `json:"message"`
	FailedPhotos []FailedPhoto `json:"failedPhotos,omitempty"`
}

// View is what the API returns for a session.
type View struct {
	ID          string          `json:"id"`
	Steps       []pickup.Step   `json:"steps"`
	Step        pickup.Step     `json:"step"`
	StepIndex   int             `json:"stepIndex"`
	Phase       pickup.Phase    `json:"phase"`
	CanAdvance  bool            `json:"canAdvance"`
	CanSubmit   bool            `json:"canSubmit"`
	IsFirstStep bool            `json:"isFirstStep"`
	IsLastStep  bool            `json:"isLastStep"`
	Eligible    bool            `json:"eligible"`
	Data        pickup.FormData `json:"data"`
	Pickup      *models.Pickup  `json:"pickup,omitempty"`
	LastError   *ErrorView      `json:"lastError,omitempty"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

// NewErrorView describes err for clients, listing failed photos separately.
func NewErrorView(err error) *ErrorView {
	if err == nil {
		return nil
	}
	v := &ErrorView{Status: apperr.CodeOf(err), Message: apperr.MessageOf(err)}
	for _, pe := range pickup.FailedPhotos(err) {
		v.FailedPhotos = append(v.FailedPhotos, FailedPhoto{
			Material: pe.Material,
			Photo:    pe.Photo,
			Ref:      pe.Ref,
			Message:  apperr.MessageOf(pe),
		})
	}
	if len(v.FailedPhotos) > 0 {
		v.Status = apperr.CodeUnavailable
		v.Message = "some photos could not be uploaded"
	}
	return v
}

// view must be called with s.mu held.
func (s *Session) view(ttl time.Duration) View {
	w := s.wizard
	data := w.Data()
	return View{
		ID:          s.ID,
		Steps:       w.Steps(),
		Step:        w.Step(),
		StepIndex:   w.StepIndex(),
		Phase:       w.Phase(),
		CanAdvance:  w.CanAdvance(),
		CanSubmit:   w.CheckSubmit() == nil,
		IsFirstStep: w.IsFirstStep(),
		IsLastStep:  w.IsLastStep(),
		Eligible:    pickup.IsEligible(data.Materials),
		Data:        data,
		Pickup:      w.Pickup(),
		LastError:   NewErrorView(w.LastError()),
		ExpiresAt:   s.touched.Add(ttl),
	}
}
