package analyzer

import (
	"context"

	"torncorp-analyzer/internal/bookmarks"
	"torncorp-analyzer/internal/filter"
	"torncorp-analyzer/internal/models"
	"torncorp-analyzer/internal/sorting"
	"torncorp-analyzer/internal/state"
	"torncorp-analyzer/internal/stats"
)

// View is everything the table screen renders.
type View struct {
	CategoryID int                      `json:"categoryId"`
	Total      int                      `json:"total"`
	Rows       []models.RankedCompany   `json:"rows"`
	Bookmarked []models.EnrichedCompany `json:"bookmarked"`
	Highlights []stats.Highlight        `json:"highlights"`
	Limits     stats.Limits             `json:"limits"`
	Filters    models.FilterCriteria    `json:"filters"`
	Sort       models.SortSpec          `json:"sort"`
	Marked     []int64                  `json:"marked"`
}

// BuildView runs numeric bounds, sort and display ranking, then the name
// query. Bookmarks are ordered by the ranks assigned before the name query.
func BuildView(batch []models.EnrichedCompany, session state.Session) View {
	marked := session.Marked
	if marked == nil {
		marked = bookmarks.NewSet()
	}

	ranked := sorting.Sort(filter.ApplyBounds(batch, session.Filters), session.Sort)
	rows := filter.MatchName(ranked, session.Filters.Name)

	return View{
		Total:      len(batch),
		Rows:       rows,
		Bookmarked: bookmarks.Project(batch, marked, sorting.RankIndex(ranked)),
		Highlights: stats.Highlights(rows),
		Limits:     stats.ComputeLimits(batch),
		Filters:    session.Filters,
		Sort:       session.Sort,
		Marked:     marked.IDs(),
	}
}

// View renders the current batch with the stored filters, sort and marks.
func (s *Service) View(ctx context.Context) View {
	batch, categoryID := s.Batch()
	view := BuildView(batch, s.state.Snapshot())
	view.CategoryID = categoryID
	s.recorder.RecordViewRows(ctx, len(view.Rows))
	return view
}

// ApplyFilters validates and stores criteria, then renders.
func (s *Service) ApplyFilters(ctx context.Context, criteria models.FilterCriteria) (View, error) {
	if err := filter.Validate(criteria); err != nil {
		return View{}, err
	}
	if _, err := s.state.SetFilters(ctx, criteria); err != nil {
		s.logger.Warn("filters not persisted", map[string]interface{}{"error": err})
	}
	return s.View(ctx), nil
}

func (s *Service) ResetFilters(ctx context.Context) View {
	if _, err := s.state.ResetFilters(ctx); err != nil {
		s.logger.Warn("filters not persisted", map[string]interface{}{"error": err})
	}
	return s.View(ctx)
}

// SetSort selects a sort field. Without a direction, re-selecting the
// current field flips it and a new field starts descending.
func (s *Service) SetSort(ctx context.Context, field string, direction *string) (View, error) {
	f, err := sorting.ParseField(field)
	if err != nil {
		return View{}, err
	}
	var dir *models.SortDirection
	if direction != nil {
		d, err := sorting.ParseDirection(*direction)
		if err != nil {
			return View{}, err
		}
		dir = &d
	}

	_, err = s.state.Update(ctx, func(sess *state.Session) {
		sess.Sort = sess.Sort.Select(f, dir)
	})
	if err != nil {
		s.logger.Warn("sort not persisted", map[string]interface{}{"error": err})
	}
	return s.View(ctx), nil
}

// ToggleBookmark flips the mark on id and reports whether it is now marked.
func (s *Service) ToggleBookmark(ctx context.Context, id int64) (bool, View) {
	marked, _, err := s.state.ToggleBookmark(ctx, id)
	if err != nil {
		s.logger.Warn("bookmarks not persisted", map[string]interface{}{"error": err})
	}
	return marked, s.View(ctx)
}
