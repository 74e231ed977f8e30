package inspection

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/crimow28-boop/ins-radiolab/internal/checklist"
	"github.com/crimow28-boop/ins-radiolab/internal/metrics"
	"github.com/crimow28-boop/ins-radiolab/internal/model"
	"github.com/crimow28-boop/ins-radiolab/internal/parse"
	"github.com/crimow28-boop/ins-radiolab/internal/store"
)

const (
	// NoFault is the fault description meaning nothing was found.
	NoFault = "אין"

	encryptionLabel = "הצפנ"
)

// Notifier is told about every inspection completed against a card.
type Notifier interface {
	Dispatch(cardID int64)
}

// Request carries the user-entered state of an inspection.
type Request struct {
	DeviceSerialNumbers []string          `json:"device_serial_numbers"`
	Profile             string            `json:"profile" binding:"required"`
	Answers             checklist.Answers `json:"checklist_answers"`
	CardID              *int64            `json:"card_id"`
	Remarks             string            `json:"remarks"`
	SoldierName         string            `json:"soldier_name"`
	FaultDescription    string            `json:"fault_description"`
	InspectionDate      *time.Time        `json:"inspection_date"`
	SoldierSignature    string            `json:"soldier_signature"`
	SupervisorSignature string            `json:"supervisor_signature"`
	Delivery            model.Delivery    `json:"delivery"`
}

// Service runs the draft and submit lifecycle of inspections.
type Service struct {
	store     store.Store
	threshold int64
	notifier  Notifier
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewService creates a service. notifier and m may be nil.
func NewService(s store.Store, threshold int64, notifier Notifier, m *metrics.Metrics) *Service {
	return &Service{
		store:     s,
		threshold: threshold,
		notifier:  notifier,
		metrics:   m,
		now:       time.Now,
	}
}

// Definition returns the field list governing profile. Stored definitions
// win over the built-in legacy checklists; an unknown profile has no fields.
func (s *Service) Definition(ctx context.Context, profile string) ([]checklist.Field, bool, error) {
	profile = CanonicalProfile(profile)
	def, err := s.store.GetChecklist(ctx, profile)
	if err == nil {
		return def.Items, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	if items, ok := checklist.LegacyChecklist(profile); ok {
		return items, true, nil
	}
	log.Printf("No checklist definition for profile %q", profile)
	return nil, false, nil
}

// CanonicalProfile rewrites device profile codes such as " 710_AMP" to their
// canonical form. Custom checklist codes are only trimmed.
func CanonicalProfile(raw string) string {
	if p, err := parse.ParseProfileCode(raw); err == nil {
		return p.Code()
	}
	return strings.TrimSpace(raw)
}

// SaveDraft persists partial answers and their progress. It never validates
// required fields and never records a verdict.
func (s *Service) SaveDraft(ctx context.Context, req Request) (*model.Inspection, error) {
	insp, err := s.saveDraft(ctx, req)
	s.observe(err)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDraft()
	return insp, nil
}

func (s *Service) saveDraft(ctx context.Context, req Request) (*model.Inspection, error) {
	serials, err := normalizeSerials(req.DeviceSerialNumbers)
	if err != nil {
		return nil, err
	}
	items, _, err := s.Definition(ctx, req.Profile)
	if err != nil {
		return nil, err
	}

	insp, err := s.openDraft(ctx, serials)
	if err != nil {
		return nil, err
	}
	if err := apply(insp, req, serials); err != nil {
		return nil, err
	}
	insp.Progress = checklist.ComputeProgress(items, req.Answers)
	insp.CavadStatus = ""
	insp.Summary = ""

	if err := s.store.SaveDraft(ctx, insp); err != nil {
		return nil, err
	}
	return insp, nil
}

// Submit validates the answers and completes the inspection, finalising the
// devices' open draft when there is one. On a ValidationError nothing is
// written.
func (s *Service) Submit(ctx context.Context, req Request) (*model.Inspection, error) {
	insp, err := s.submit(ctx, req)
	s.observe(err)
	if err != nil {
		return nil, err
	}

	log.Printf("Inspection %d completed for %v (%s)", insp.InspectionNumber, insp.DeviceSerialNumbers, insp.CavadStatus)
	s.metrics.ObserveSubmit(insp.CavadStatus == model.CavadPassed)
	if insp.CardID != nil && s.notifier != nil {
		s.notifier.Dispatch(*insp.CardID)
	}
	return insp, nil
}

func (s *Service) submit(ctx context.Context, req Request) (*model.Inspection, error) {
	serials, err := normalizeSerials(req.DeviceSerialNumbers)
	if err != nil {
		return nil, err
	}
	items, legacy, err := s.Definition(ctx, req.Profile)
	if err != nil {
		return nil, err
	}

	if missing := checklist.CollectMissingRequired(items, req.Answers); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	passed := checklist.ComputePassFail(items, req.Answers)
	if legacy {
		passed = checklist.LegacyPassFail(items, req.Answers)
	}

	insp, err := s.openDraft(ctx, serials)
	if err != nil {
		return nil, err
	}
	if err := apply(insp, req, serials); err != nil {
		return nil, err
	}

	now := s.now()
	if insp.InspectionDate == nil {
		insp.InspectionDate = &now
	}
	insp.CavadStatus = model.CavadFailed
	if passed {
		insp.CavadStatus = model.CavadPassed
	}
	insp.Summary = checklist.Summary(items, req.Answers)

	completion := store.Completion{
		At:        now,
		Encrypted: encrypted(items, req.Answers),
		Fault:     faultOf(req.FaultDescription),
	}
	if err := s.store.CompleteInspection(ctx, insp, completion); err != nil {
		return nil, err
	}
	return insp, nil
}

func (s *Service) observe(err error) {
	var verr *ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		s.metrics.ObserveValidationFailure()
	case errors.Is(err, store.ErrDraftConflict):
		s.metrics.ObserveDraftConflict()
	}
}

// Delete removes an inspection and releases its draft locks.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteInspection(ctx, id)
}

// PeekNumber returns the number the next new inspection will receive.
func (s *Service) PeekNumber(ctx context.Context) (int64, error) {
	return s.store.PeekInspectionNumber(ctx, s.seed)
}

// CardProgress reports the state of every device on a card.
func (s *Service) CardProgress(ctx context.Context, cardID int64) (*CardProgress, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	inspections, err := s.store.CardInspections(ctx, cardID, "")
	if err != nil {
		return nil, err
	}
	p := ComputeCardProgress(*card, inspections)
	return &p, nil
}

// ApproveCard closes a card when pin matches the manager PIN, then rotates
// the PIN so that it cannot be reused.
func (s *Service) ApproveCard(ctx context.Context, cardID int64, pin string) error {
	err := s.store.ApproveCard(ctx, cardID, func(current string) (string, error) {
		if current == "" || subtle.ConstantTimeCompare([]byte(current), []byte(pin)) != 1 {
			return "", ErrInvalidPIN
		}
		return newPIN()
	})
	if err != nil {
		return err
	}
	log.Printf("Card %d approved", cardID)
	return nil
}

func (s *Service) seed(existing []int64) int64 {
	return NextNumber(existing, s.threshold)
}

// openDraft returns the draft holding serials, or a fresh numbered record.
func (s *Service) openDraft(ctx context.Context, serials []string) (*model.Inspection, error) {
	insp, err := s.store.FindDraft(ctx, serials)
	if err == nil {
		return insp, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	n, err := s.store.NextInspectionNumber(ctx, s.seed)
	if err != nil {
		return nil, err
	}
	return &model.Inspection{InspectionNumber: n}, nil
}

func apply(insp *model.Inspection, req Request, serials []string) error {
	answers, err := req.Answers.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	insp.DeviceSerialNumbers = serials
	insp.Profile = CanonicalProfile(req.Profile)
	insp.ChecklistAnswers = answers
	insp.CardID = req.CardID
	insp.Remarks = req.Remarks
	insp.SoldierName = req.SoldierName
	insp.FaultDescription = strings.TrimSpace(req.FaultDescription)
	if req.InspectionDate != nil {
		insp.InspectionDate = req.InspectionDate
	}
	insp.SoldierSignature = req.SoldierSignature
	insp.SupervisorSignature = req.SupervisorSignature
	insp.Delivery = req.Delivery
	return nil
}

// normalizeSerials cleans and de-duplicates serials, keeping their order.
func normalizeSerials(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		serial, err := parse.NormalizeSerial(r)
		if err != nil {
			continue
		}
		if seen[serial] {
			continue
		}
		seen[serial] = true
		out = append(out, serial)
	}
	if len(out) == 0 {
		return nil, ErrNoDevices
	}
	return out, nil
}

// encrypted reports whether an encryption checkbox was ticked.
func encrypted(items []checklist.Field, answers checklist.Answers) bool {
	for _, f := range items {
		if !f.IsCheckbox() || !strings.Contains(f.Label, encryptionLabel) {
			continue
		}
		if v, ok := answers.Get(f.ID); ok && v.Equal(checklist.Bool(true)) {
			return true
		}
	}
	return false
}

func faultOf(description string) string {
	d := strings.TrimSpace(description)
	if d == NoFault {
		return ""
	}
	return d
}

func newPIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("failed to generate pin: %w", err)
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}
