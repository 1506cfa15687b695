package listing

import "fmt"

// ControlKind distinguishes a page-number control from a jump control
type ControlKind int

const (
	// PageControl selects a single page
	PageControl ControlKind = iota
	// JumpControl lets the visitor type an arbitrary page number
	JumpControl
)

// String returns the wire name of the control kind
func (k ControlKind) String() string {
	switch k {
	case PageControl:
		return "page"
	case JumpControl:
		return "jump"
	default:
		return fmt.Sprintf("ControlKind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler
func (k ControlKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Control is one render instruction of the pagination bar
type Control struct {
	Kind ControlKind `json:"kind"`
	Page int         `json:"page,omitempty"`
}

// IsJump reports whether the control is a jump control
func (c Control) IsJump() bool {
	return c.Kind == JumpControl
}

// Paginate computes the page controls to render for the given position.
// totalPages is expected to be capped by the caller.
func Paginate(currentPage, totalPages int) []Control {
	switch {
	case totalPages <= 5:
		return pageRange(nil, 1, totalPages)
	case currentPage <= 3:
		controls := pageRange(nil, 1, 3)
		controls = append(controls, Control{Kind: JumpControl})
		return pageRange(controls, totalPages, totalPages)
	case currentPage >= totalPages-2:
		controls := pageRange(nil, 1, 1)
		controls = append(controls, Control{Kind: JumpControl})
		return pageRange(controls, totalPages-2, totalPages)
	default:
		controls := pageRange(nil, 1, 1)
		controls = append(controls, Control{Kind: JumpControl})
		controls = pageRange(controls, currentPage, currentPage)
		controls = append(controls, Control{Kind: JumpControl})
		return pageRange(controls, totalPages, totalPages)
	}
}

func pageRange(controls []Control, from, to int) []Control {
	for p := from; p <= to; p++ {
		controls = append(controls, Control{Kind: PageControl, Page: p})
	}
	return controls
}

// AcceptJump validates a page typed into a jump control.
// Out-of-range input is rejected without error.
func AcceptJump(page, totalPages int) (int, bool) {
	if page < 1 || page > totalPages {
		return 0, false
	}
	return page, true
}

// Pager bundles everything a view needs to draw its pagination bar
type Pager struct {
	Current     int       `json:"current"`
	Total       int       `json:"total"`
	Controls    []Control `json:"controls"`
	HasPrevious bool      `json:"hasPrevious"`
	HasNext     bool      `json:"hasNext"`
	Hidden      bool      `json:"hidden"`
}

// NewPager builds the pagination bar for a listing position
func NewPager(currentPage, totalPages int) Pager {
	return Pager{
		Current:     currentPage,
		Total:       totalPages,
		Controls:    Paginate(currentPage, totalPages),
		HasPrevious: currentPage > 1,
		HasNext:     currentPage < totalPages,
		Hidden:      totalPages < 2,
	}
}

// Previous returns the page before the current one
func (p Pager) Previous() int {
	return p.Current - 1
}

// Next returns the page after the current one
func (p Pager) Next() int {
	return p.Current + 1
}
