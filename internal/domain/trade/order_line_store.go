package trade

import (
	"github.com/erp/orderdesk/internal/domain/pricing"
	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderLineStore holds the lines of a draft keyed by product id.
//
// The authoritative sequence is the insertion/display order vector plus the
// id->line map. The displayed sequence is the authoritative sequence narrowed
// by the active search, so every structural change is seen by both at once.
// The store is not safe for concurrent use; the owning draft serializes access.
type OrderLineStore struct {
	order    []int64
	lines    map[int64]*OrderLine
	visible  map[int64]struct{} // nil when no search is active
	term     string
	selected map[int64]struct{}
}

// NewOrderLineStore creates an empty store
func NewOrderLineStore() *OrderLineStore {
	return &OrderLineStore{
		lines:    make(map[int64]*OrderLine),
		selected: make(map[int64]struct{}),
	}
}

// Add appends a line. Unspecified fields get their defaults (qty 1, status published).
// A line whose product is already present is rejected and nothing changes.
func (s *OrderLineStore) Add(line OrderLine) (OrderLine, error) {
	if _, exists := s.lines[line.ProductID]; exists {
		return OrderLine{}, shared.ErrDuplicateProduct
	}
	line.normalize()
	if err := line.validate(); err != nil {
		return OrderLine{}, err
	}
	line.recalculate()
	s.insert(line)
	return line, nil
}

// AddMany appends several lines. The batch is rejected as a whole when any
// line is invalid or duplicates a present or sibling product.
func (s *OrderLineStore) AddMany(lines []OrderLine) ([]OrderLine, error) {
	seen := make(map[int64]struct{}, len(lines))
	prepared := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		if _, exists := s.lines[line.ProductID]; exists {
			return nil, shared.ErrDuplicateProduct
		}
		if _, dup := seen[line.ProductID]; dup {
			return nil, shared.ErrDuplicateProduct
		}
		seen[line.ProductID] = struct{}{}
		line.normalize()
		if err := line.validate(); err != nil {
			return nil, err
		}
		line.recalculate()
		prepared = append(prepared, line)
	}
	for _, line := range prepared {
		s.insert(line)
	}
	return prepared, nil
}

func (s *OrderLineStore) insert(line OrderLine) {
	l := line
	s.lines[l.ProductID] = &l
	s.order = append(s.order, l.ProductID)
	// New lines stay visible while a search is active.
	if s.visible != nil {
		s.visible[l.ProductID] = struct{}{}
	}
}

// Update applies patch to the line of productID and recomputes its total.
// Re-keying to a product that is already present is rejected.
func (s *OrderLineStore) Update(productID int64, patch LinePatch) (OrderLine, error) {
	current, ok := s.lines[productID]
	if !ok {
		return OrderLine{}, shared.ErrLineNotFound
	}
	updated := patch.apply(*current)
	if updated.ProductID != productID {
		if _, exists := s.lines[updated.ProductID]; exists {
			return OrderLine{}, shared.ErrDuplicateProduct
		}
	}
	if err := updated.validate(); err != nil {
		return OrderLine{}, err
	}
	updated.recalculate()

	if updated.ProductID != productID {
		s.rekey(productID, updated.ProductID)
	}
	*s.lines[updated.ProductID] = updated
	return updated, nil
}

func (s *OrderLineStore) rekey(from, to int64) {
	s.lines[to] = s.lines[from]
	delete(s.lines, from)
	for i, id := range s.order {
		if id == from {
			s.order[i] = to
			break
		}
	}
	if s.visible != nil {
		if _, ok := s.visible[from]; ok {
			delete(s.visible, from)
			s.visible[to] = struct{}{}
		}
	}
	if _, ok := s.selected[from]; ok {
		delete(s.selected, from)
		s.selected[to] = struct{}{}
	}
}

// Delete removes the line of productID and drops it from the selection
func (s *OrderLineStore) Delete(productID int64) error {
	if _, ok := s.lines[productID]; !ok {
		return shared.ErrLineNotFound
	}
	delete(s.lines, productID)
	delete(s.selected, productID)
	if s.visible != nil {
		delete(s.visible, productID)
	}
	s.order = removeID(s.order, productID)
	return nil
}

// Reorder moves the line activeID to the position of overID.
// It is a no-op when the ids are equal or either is not present.
func (s *OrderLineStore) Reorder(activeID, overID int64) {
	if activeID == overID {
		return
	}
	from, to := s.indexOf(activeID), s.indexOf(overID)
	if from < 0 || to < 0 {
		return
	}
	s.order = moveID(s.order, from, to)
}

// ToggleRecurring flips the recurring flag of a line
func (s *OrderLineStore) ToggleRecurring(productID int64) (OrderLine, error) {
	l, ok := s.lines[productID]
	if !ok {
		return OrderLine{}, shared.ErrLineNotFound
	}
	l.Recurring = 1 - l.Recurring
	return *l, nil
}

// ApplyBulkDiscount sets the discount of every selected line and returns how many changed
func (s *OrderLineStore) ApplyBulkDiscount(discountPct decimal.Decimal) (int, error) {
	if err := validateDiscount(discountPct); err != nil {
		return 0, err
	}
	return s.applySelected(func(l *OrderLine) { l.Discount = discountPct }), nil
}

// ApplyBulkTax sets the tax rate of every selected line and returns how many changed
func (s *OrderLineStore) ApplyBulkTax(taxRate decimal.Decimal) (int, error) {
	if err := validateTaxRate(taxRate); err != nil {
		return 0, err
	}
	return s.applySelected(func(l *OrderLine) { l.TaxRate = taxRate }), nil
}

func (s *OrderLineStore) applySelected(fn func(*OrderLine)) int {
	n := 0
	for id := range s.selected {
		if l, ok := s.lines[id]; ok {
			fn(l)
			l.recalculate()
			n++
		}
	}
	return n
}

// Search narrows the displayed lines to those whose name or code contains
// term, ignoring case. It is always computed from the authoritative sequence.
// An empty term shows every line again.
func (s *OrderLineStore) Search(term string) {
	s.term = term
	if term == "" {
		s.visible = nil
		return
	}
	s.visible = make(map[int64]struct{})
	for _, id := range s.order {
		if s.lines[id].Matches(term) {
			s.visible[id] = struct{}{}
		}
	}
}

// SearchTerm returns the active search term
func (s *OrderLineStore) SearchTerm() string {
	return s.term
}

// Clear removes every line, the selection and the search
func (s *OrderLineStore) Clear() {
	s.order = nil
	s.lines = make(map[int64]*OrderLine)
	s.selected = make(map[int64]struct{})
	s.visible = nil
	s.term = ""
}

// Replace swaps the whole content for lines, as when copying from another order.
// Lines repeating an earlier product id are skipped and their ids returned.
func (s *OrderLineStore) Replace(lines []OrderLine) ([]int64, error) {
	next := NewOrderLineStore()
	var skipped []int64
	for _, line := range lines {
		if _, err := next.Add(line); err != nil {
			if shared.IsDomainError(err, shared.ErrDuplicateProduct.Code) {
				skipped = append(skipped, line.ProductID)
				continue
			}
			return nil, err
		}
	}
	*s = *next
	return skipped, nil
}

// Select adds product ids to the selection. Unknown ids are ignored.
func (s *OrderLineStore) Select(ids ...int64) {
	for _, id := range ids {
		if _, ok := s.lines[id]; ok {
			s.selected[id] = struct{}{}
		}
	}
}

// Deselect removes product ids from the selection
func (s *OrderLineStore) Deselect(ids ...int64) {
	for _, id := range ids {
		delete(s.selected, id)
	}
}

// SetSelection replaces the selection
func (s *OrderLineStore) SetSelection(ids []int64) {
	s.selected = make(map[int64]struct{}, len(ids))
	s.Select(ids...)
}

// SelectAll selects every displayed line
func (s *OrderLineStore) SelectAll() {
	for _, id := range s.displayedIDs() {
		s.selected[id] = struct{}{}
	}
}

// IsSelected reports whether a line is selected
func (s *OrderLineStore) IsSelected(productID int64) bool {
	_, ok := s.selected[productID]
	return ok
}

// Selected returns the selected ids in display order
func (s *OrderLineStore) Selected() []int64 {
	out := make([]int64, 0, len(s.selected))
	for _, id := range s.order {
		if _, ok := s.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Lines returns a copy of the displayed lines
func (s *OrderLineStore) Lines() []OrderLine {
	ids := s.displayedIDs()
	out := make([]OrderLine, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.lines[id])
	}
	return out
}

// OriginalLines returns a copy of every line in display order, ignoring the search
func (s *OrderLineStore) OriginalLines() []OrderLine {
	out := make([]OrderLine, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.lines[id])
	}
	return out
}

// Line returns the line of a product
func (s *OrderLineStore) Line(productID int64) (OrderLine, bool) {
	l, ok := s.lines[productID]
	if !ok {
		return OrderLine{}, false
	}
	return *l, true
}

// Contains reports whether a product has a line
func (s *OrderLineStore) Contains(productID int64) bool {
	_, ok := s.lines[productID]
	return ok
}

// Len returns the number of lines, ignoring the search
func (s *OrderLineStore) Len() int {
	return len(s.order)
}

// Totals aggregates every line, ignoring the search
func (s *OrderLineStore) Totals() pricing.Totals {
	return pricing.OrderTotals(s.OriginalLines())
}

func (s *OrderLineStore) displayedIDs() []int64 {
	if s.visible == nil {
		return s.order
	}
	out := make([]int64, 0, len(s.visible))
	for _, id := range s.order {
		if _, ok := s.visible[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (s *OrderLineStore) indexOf(id int64) int {
	for i, v := range s.order {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// moveID moves the element at from to index to, shifting the elements between
func moveID(ids []int64, from, to int) []int64 {
	out := make([]int64, 0, len(ids))
	moved := ids[from]
	for i, v := range ids {
		if i == from {
			continue
		}
		out = append(out, v)
	}
	out = append(out[:to], append([]int64{moved}, out[to:]...)...)
	return out
}
