package inspection

import (
	"context"
	"io"
	"time"

	"github.com/crimow28-boop/ins-radiolab/internal/export"
	"github.com/crimow28-boop/ins-radiolab/internal/model"
	"github.com/crimow28-boop/ins-radiolab/internal/store"
)

// Report is a projected export table ready for rendering.
type Report struct {
	Name string // file name context, e.g. the card title
	Rows [][]string
}

// CardReport projects the latest completed inspection of every device on a
// card. Answers are read through the stored checklist definitions.
func (s *Service) CardReport(ctx context.Context, cardID int64) (*Report, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	inspections, err := s.store.CardInspections(ctx, cardID, model.InspectionStatusCompleted)
	if err != nil {
		return nil, err
	}
	defs, err := s.definitions(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{Name: card.Title, Rows: export.CardRows(*card, inspections, defs)}, nil
}

// GlobalReport projects up to limit completed inspections, newest first.
func (s *Service) GlobalReport(ctx context.Context, limit int) (*Report, error) {
	inspections, err := s.store.ListInspections(ctx, store.InspectionFilter{
		Status: model.InspectionStatusCompleted,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	defs, err := s.definitions(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{Name: "all", Rows: export.AllRows(inspections, defs)}, nil
}

// Render writes the report in format f and returns the file name to offer.
func (s *Service) Render(w io.Writer, r *Report, f export.Format, opts export.PDFOptions) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = s.now()
	}
	if opts.Title == "" {
		opts.Title = r.Name
	}
	if err := export.Write(w, f, r.Rows, opts); err != nil {
		return "", err
	}
	s.metrics.ObserveExport(string(f))
	return export.FileName(r.Name, string(f), opts.GeneratedAt), nil
}

func (s *Service) definitions(ctx context.Context) (export.Definitions, error) {
	lists, err := s.store.ListChecklists(ctx)
	if err != nil {
		return nil, err
	}
	return export.DefinitionsOf(lists), nil
}

// In returns t in the named location, or t unchanged when the zone is unknown.
func In(t time.Time, zone string) time.Time {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return t
	}
	return t.In(loc)
}
