package inspection

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimow28-boop/ins-radiolab/config"
	"github.com/crimow28-boop/ins-radiolab/internal/checklist"
	"github.com/crimow28-boop/ins-radiolab/internal/db"
	"github.com/crimow28-boop/ins-radiolab/internal/metrics"
	"github.com/crimow28-boop/ins-radiolab/internal/model"
	"github.com/crimow28-boop/ins-radiolab/internal/store"
)

type recordingNotifier struct {
	mu    sync.Mutex
	cards []int64
}

func (n *recordingNotifier) Dispatch(cardID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cards = append(n.cards, cardID)
}

func newTestService(t *testing.T) (*Service, store.Store, *recordingNotifier, *metrics.Metrics) {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gormDB, err := db.Open(&config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))

	st := store.NewGormStore(gormDB)
	n := &recordingNotifier{}
	m := metrics.New()
	return NewService(st, config.DefaultTimestampThreshold, n, m), st, n, m
}

func radioChecklist() *model.InspectionChecklist {
	return &model.InspectionChecklist{
		Code: "710_amp",
		Name: "710 עם מגבר",
		Items: []checklist.Field{
			{ID: "enc", Label: "הצפנה", Required: true, Kind: checklist.Checkbox{}},
			{ID: "name", Label: "שם", Required: true, Kind: checklist.Text{}},
		},
	}
}

func TestService_DraftThenSubmit(t *testing.T) {
	svc, st, notifier, m := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.SaveChecklist(ctx, radioChecklist()))
	require.NoError(t, st.CreateDevice(ctx, &model.Device{SerialNumber: "RX1", DeviceGroup: "710", EncryptionStatus: model.EncryptionNotEncrypted}))
	cardID := int64(12)

	req := Request{
		DeviceSerialNumbers: []string{" rx1 "},
		Profile:             "710_amp",
		Answers:             checklist.Answers{"enc": checklist.Bool(true)},
		CardID:              &cardID,
	}

	draft, err := svc.SaveDraft(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.InspectionStatusDraft, draft.Status)
	assert.Equal(t, 50, draft.Progress)
	assert.Equal(t, int64(1), draft.InspectionNumber)
	assert.Equal(t, []string{"RX1"}, draft.DeviceSerialNumbers)

	again, err := svc.SaveDraft(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, again.ID, "repeated saves reuse the draft")
	assert.Equal(t, int64(1), again.InspectionNumber)

	// Missing required fields leave the draft untouched.
	_, err = svc.Submit(ctx, req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"שם"}, verr.Missing)
	stored, err := st.GetInspection(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InspectionStatusDraft, stored.Status)

	req.Answers["name"] = checklist.String("דני")
	req.FaultDescription = NoFault
	done, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, done.ID)
	assert.Equal(t, model.InspectionStatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, model.CavadPassed, done.CavadStatus)
	assert.Equal(t, "הצפנה: V\nשם: דני", done.Summary)
	assert.NotNil(t, done.InspectionDate)

	dev, err := st.GetDevice(ctx, "RX1")
	require.NoError(t, err)
	assert.Equal(t, 1, dev.TotalInspections)
	assert.Equal(t, 0, dev.TotalFaults)
	assert.Equal(t, model.EncryptionEncrypted, dev.EncryptionStatus)

	assert.Equal(t, []int64{cardID}, notifier.cards)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submitted.WithLabelValues("passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures))

	// The lock is gone, so the next draft is a new record.
	next, err := svc.SaveDraft(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, draft.ID, next.ID)
	assert.Equal(t, int64(2), next.InspectionNumber)
}

func TestService_SubmitRecordsFault(t *testing.T) {
	svc, st, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.SaveChecklist(ctx, radioChecklist()))
	require.NoError(t, st.CreateDevice(ctx, &model.Device{SerialNumber: "RX2", DeviceGroup: "710"}))

	done, err := svc.Submit(ctx, Request{
		DeviceSerialNumbers: []string{"RX2"},
		Profile:             "710_amp",
		Answers:             checklist.Answers{"enc": checklist.Bool(false), "name": checklist.String("רון")},
		FaultDescription:    " סוללה נפוחה ",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CavadFailed, done.CavadStatus)

	dev, err := st.GetDevice(ctx, "RX2")
	require.NoError(t, err)
	assert.Equal(t, 1, dev.TotalFaults)
	assert.NotEqual(t, model.EncryptionEncrypted, dev.EncryptionStatus)

	faults, err := st.ListFaults(ctx, store.FaultFilter{Serial: "RX2"})
	require.NoError(t, err)
	require.Len(t, faults, 1)
	assert.Equal(t, "סוללה נפוחה", faults[0].FaultDescription)
}

func TestService_LegacyProfile(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	req := Request{
		DeviceSerialNumbers: []string{"EL1"},
		Profile:             "elal",
		Answers:             checklist.Answers{"visual": checklist.Bool(true)},
	}
	done, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.CavadFailed, done.CavadStatus, "every legacy item must pass")

	req.Answers = checklist.Answers{"visual": checklist.Bool(true), "leds": checklist.Bool(true), "func": checklist.Bool(true)}
	done, err = svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.CavadPassed, done.CavadStatus)
}

func TestService_DraftConflict(t *testing.T) {
	svc, _, _, m := newTestService(t)
	ctx := context.Background()

	_, err := svc.SaveDraft(ctx, Request{DeviceSerialNumbers: []string{"A"}, Profile: "lotus"})
	require.NoError(t, err)
	_, err = svc.SaveDraft(ctx, Request{DeviceSerialNumbers: []string{"B"}, Profile: "lotus"})
	require.NoError(t, err)

	_, err = svc.SaveDraft(ctx, Request{DeviceSerialNumbers: []string{"A", "B"}, Profile: "lotus"})
	assert.ErrorIs(t, err, store.ErrDraftConflict)

	_, err = svc.SaveDraft(ctx, Request{DeviceSerialNumbers: []string{" ", ""}, Profile: "lotus"})
	assert.ErrorIs(t, err, ErrNoDevices)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DraftConflicts))
}

func TestService_PeekNumber(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.PeekNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.SaveDraft(ctx, Request{DeviceSerialNumbers: []string{"A"}, Profile: "lotus"})
	require.NoError(t, err)

	n, err = svc.PeekNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestService_CardProgressAndApproval(t *testing.T) {
	svc, st, _, _ := newTestService(t)
	ctx := context.Background()

	card := &model.Card{Kind: model.CardKindSpecial, Title: "תרגיל", Devices: []string{"A", "B"}, IsActive: true}
	require.NoError(t, st.CreateCard(ctx, card))

	_, err := svc.Submit(ctx, Request{DeviceSerialNumbers: []string{"A"}, Profile: "lotus", CardID: &card.ID,
		Answers: checklist.Answers{"visual": checklist.Bool(true), "screen": checklist.Bool(true), "app": checklist.Bool(true)}})
	require.NoError(t, err)
	_, err = svc.SaveDraft(ctx, Request{DeviceSerialNumbers: []string{"B"}, Profile: "lotus", CardID: &card.ID,
		Answers: checklist.Answers{"visual": checklist.Bool(true)}})
	require.NoError(t, err)

	p, err := svc.CardProgress(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, p.Devices, 2)
	assert.Equal(t, DeviceCompleted, p.Devices[0].Status)
	assert.Equal(t, DeviceDraft, p.Devices[1].Status)
	assert.Equal(t, 33, p.Devices[1].Progress)
	assert.False(t, p.AllCompleted)

	_, err = svc.CardProgress(ctx, card.ID+1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.ApproveCard(ctx, card.ID, "1234"), ErrInvalidPIN, "no pin configured")

	require.NoError(t, st.PutSetting(ctx, model.SettingManagerPIN, "1234"))
	assert.ErrorIs(t, svc.ApproveCard(ctx, card.ID, "4321"), ErrInvalidPIN)
	require.NoError(t, svc.ApproveCard(ctx, card.ID, "1234"))

	got, err := st.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	pin, err := st.GetSetting(ctx, model.SettingManagerPIN)
	require.NoError(t, err)
	assert.Len(t, pin, 4)
	assert.GreaterOrEqual(t, pin, "1000")
}

func TestService_CanonicalProfile(t *testing.T) {
	assert.Equal(t, "710_amp", CanonicalProfile(" 710_AMP "))
	assert.Equal(t, "hargol_4400", CanonicalProfile("Hargol_4400"))
	assert.Equal(t, "Custom Code", CanonicalProfile(" Custom Code "))

	svc, st, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, st.SaveChecklist(ctx, radioChecklist()))

	insp, err := svc.SaveDraft(ctx, Request{
		DeviceSerialNumbers: []string{"RX9"},
		Profile:             "710_AMP",
		Answers:             checklist.Answers{"enc": checklist.Bool(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, "710_amp", insp.Profile)
	assert.Equal(t, 50, insp.Progress, "stored definition applies to the upper-case code")
}
