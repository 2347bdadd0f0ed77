// Package mouse maps terminal mouse events onto named screen regions.
package mouse

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	doubleClickWindow = 400 * time.Millisecond
	scrollStep        = 3
)

// Rect is a screen rectangle. The right and bottom edges are exclusive.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell at x, y lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Region is a named, hit-testable area carrying caller data.
type Region struct {
	ID   string
	Rect Rect
	Data any
}

// HitMap holds the regions of the last rendered frame.
type HitMap struct {
	regions []Region
}

// NewHitMap returns an empty HitMap.
func NewHitMap() *HitMap {
	return &HitMap{}
}

// Add registers a region. Later regions are on top.
func (h *HitMap) Add(id string, r Rect, data any) {
	h.regions = append(h.regions, Region{ID: id, Rect: r, Data: data})
}

// AddRect is Add with the rectangle given as coordinates.
func (h *HitMap) AddRect(id string, x, y, w, h2 int, data any) {
	h.Add(id, Rect{X: x, Y: y, W: w, H: h2}, data)
}

// Test returns the topmost region containing x, y, or nil.
func (h *HitMap) Test(x, y int) *Region {
	for i := len(h.regions) - 1; i >= 0; i-- {
		if h.regions[i].Rect.Contains(x, y) {
			r := h.regions[i]
			return &r
		}
	}
	return nil
}

// Clear removes every region.
func (h *HitMap) Clear() {
	h.regions = h.regions[:0]
}

// Regions returns a copy of the registered regions.
func (h *HitMap) Regions() []Region {
	out := make([]Region, len(h.regions))
	copy(out, h.regions)
	return out
}

// ActionType classifies a handled mouse event.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionClick
	ActionDoubleClick
	ActionScrollUp
	ActionScrollDown
	ActionScrollLeft
	ActionScrollRight
	ActionDrag
	ActionDragEnd
	ActionHover
)

// Action is the result of HandleMouse.
type Action struct {
	Type   ActionType
	Region *Region
	X, Y   int
	Delta  int
	DragDX int
	DragDY int
}

// ClickResult is the result of HandleClick.
type ClickResult struct {
	Region        *Region
	IsDoubleClick bool
}

// Handler tracks clicks and drags against a HitMap.
type Handler struct {
	HitMap *HitMap

	lastClick  time.Time
	lastRegion string
	dragging   bool
	dragRegion string
	dragStartX int
	dragStartY int
	dragStartV int
	now        func() time.Time
}

// NewHandler returns a Handler with an empty HitMap.
func NewHandler() *Handler {
	return &Handler{HitMap: NewHitMap(), now: time.Now}
}

// HandleClick hit-tests a click and detects double clicks on one region.
func (h *Handler) HandleClick(x, y int) ClickResult {
	region := h.HitMap.Test(x, y)
	if region == nil {
		h.lastRegion = ""
		return ClickResult{}
	}
	now := h.now()
	double := region.ID == h.lastRegion && now.Sub(h.lastClick) < doubleClickWindow
	if double {
		h.lastRegion = ""
	} else {
		h.lastRegion = region.ID
		h.lastClick = now
	}
	return ClickResult{Region: region, IsDoubleClick: double}
}

// StartDrag begins a drag from x, y on region. value is caller state
// captured at the start, such as a column width or a row index.
func (h *Handler) StartDrag(x, y int, region string, value int) {
	h.dragging = true
	h.dragRegion = region
	h.dragStartX, h.dragStartY = x, y
	h.dragStartV = value
}

// IsDragging reports whether a drag is in progress.
func (h *Handler) IsDragging() bool { return h.dragging }

// DragRegion returns the region the drag started on.
func (h *Handler) DragRegion() string { return h.dragRegion }

// DragStartValue returns the value passed to StartDrag.
func (h *Handler) DragStartValue() int { return h.dragStartV }

// DragDelta returns the offset of x, y from the drag start.
func (h *Handler) DragDelta(x, y int) (int, int) {
	return x - h.dragStartX, y - h.dragStartY
}

// EndDrag finishes the current drag.
func (h *Handler) EndDrag() {
	h.dragging = false
	h.dragRegion = ""
}

// Clear drops all regions, typically before re-rendering.
func (h *Handler) Clear() {
	h.HitMap.Clear()
}

// HandleMouse classifies a bubbletea mouse message.
func (h *Handler) HandleMouse(msg tea.MouseMsg) Action {
	a := Action{X: msg.X, Y: msg.Y}
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.Type, a.Delta = ActionScrollUp, -scrollStep
			if msg.Shift {
				a.Type = ActionScrollLeft
			}
		case tea.MouseButtonWheelDown:
			a.Type, a.Delta = ActionScrollDown, scrollStep
			if msg.Shift {
				a.Type = ActionScrollRight
			}
		case tea.MouseButtonWheelLeft:
			a.Type, a.Delta = ActionScrollRight, scrollStep
		case tea.MouseButtonWheelRight:
			a.Type, a.Delta = ActionScrollLeft, -scrollStep
		case tea.MouseButtonLeft:
			res := h.HandleClick(msg.X, msg.Y)
			if res.Region == nil {
				return a
			}
			a.Region = res.Region
			a.Type = ActionClick
			if res.IsDoubleClick {
				a.Type = ActionDoubleClick
			}
		}
		if a.Type != ActionClick && a.Type != ActionDoubleClick {
			a.Region = h.HitMap.Test(msg.X, msg.Y)
		}
	case tea.MouseActionMotion:
		if h.dragging {
			a.Type = ActionDrag
			a.DragDX, a.DragDY = h.DragDelta(msg.X, msg.Y)
			a.Region = h.HitMap.Test(msg.X, msg.Y)
			return a
		}
		a.Type = ActionHover
		a.Region = h.HitMap.Test(msg.X, msg.Y)
	case tea.MouseActionRelease:
		if h.dragging {
			a.Type = ActionDragEnd
			a.Region = h.HitMap.Test(msg.X, msg.Y)
			h.EndDrag()
		}
	}
	return a
}
