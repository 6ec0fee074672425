package hubclient

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aihubhq/aihub/internal/domain"
)

// LeadSelection tracks which rows of an execution's lead table are selected and which
// were already added as contacts. Added rows cannot be selected again.
type LeadSelection struct {
	executionID string
	rowCount    int

	mu       sync.Mutex
	selected map[int]struct{}
	added    map[int]struct{}
}

func NewLeadSelection(executionID string, rowCount int) *LeadSelection {
	return &LeadSelection{
		executionID: executionID,
		rowCount:    rowCount,
		selected:    make(map[int]struct{}),
		added:       make(map[int]struct{}),
	}
}

// NewLeadSelectionForExecution sizes the selection from the execution's lead array.
// It fails when the output is not a lead array.
func NewLeadSelectionForExecution(view *domain.ExecutionView) (*LeadSelection, error) {
	if view == nil || view.ToolExecution == nil {
		return nil, fmt.Errorf("execution is required")
	}
	leads, ok := domain.DetectLeads(view.OutputData)
	if !ok {
		return nil, fmt.Errorf("execution %s has no lead array", view.ID)
	}
	return NewLeadSelection(view.ID, len(leads.Rows)), nil
}

// Toggle flips a row. Out of range and added rows are ignored.
func (s *LeadSelection) Toggle(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.selectableLocked(index) {
		return
	}
	if _, ok := s.selected[index]; ok {
		delete(s.selected, index)
		return
	}
	s.selected[index] = struct{}{}
}

// SelectAll selects every row not yet added
func (s *LeadSelection) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < s.rowCount; i++ {
		if s.selectableLocked(i) {
			s.selected[i] = struct{}{}
		}
	}
}

func (s *LeadSelection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[int]struct{})
}

// Selected returns the selected row indexes in ascending order
func (s *LeadSelection) Selected() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.selected)
}

func (s *LeadSelection) IsAdded(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.added[index]
	return ok
}

// Selectable reports whether a row can still be selected
func (s *LeadSelection) Selectable(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectableLocked(index)
}

func (s *LeadSelection) selectableLocked(index int) bool {
	if index < 0 || index >= s.rowCount {
		return false
	}
	_, added := s.added[index]
	return !added
}

// MarkAdded disables rows and drops them from the selection
func (s *LeadSelection) MarkAdded(indexes []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range indexes {
		if i < 0 || i >= s.rowCount {
			continue
		}
		s.added[i] = struct{}{}
		delete(s.selected, i)
	}
}

// AddSelected ingests the selected rows as contacts with the given initial tags.
// Rows are marked added only when the batch was stored.
func (s *LeadSelection) AddSelected(ctx context.Context, c *Client, tags []string) (*domain.IngestionResult, error) {
	indexes := s.Selected()
	if len(indexes) == 0 {
		return nil, domain.NewValidationError("no rows selected")
	}

	result, err := c.AddFromExecution(ctx, &domain.AddFromExecutionRequest{
		ExecutionID: s.executionID,
		Indexes:     indexes,
		Tags:        tags,
	})
	if err != nil {
		return nil, err
	}
	if result.Success {
		s.MarkAdded(indexes)
	}
	return result, nil
}

func sortedKeys(m map[int]struct{}) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
