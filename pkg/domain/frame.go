package domain

// FrameContext is the shared, host-owned context read by every node instance.
// The host mutates it between ticks; the runtime never writes to it.
type FrameContext struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Time      float64 `json:"time"`
	DeltaTime float64 `json:"dt"`
	Frame     uint64  `json:"frame"`
}

// NewFrameContext creates a context for the given resolution.
func NewFrameContext(width, height int) *FrameContext {
	return &FrameContext{Width: width, Height: height}
}

// Advance moves the clock to now (seconds) and bumps the frame counter.
func (f *FrameContext) Advance(now float64) {
	if f.Frame > 0 {
		f.DeltaTime = now - f.Time
	}
	f.Time = now
	f.Frame++
}

// Values exposes the context as a plain map (used by scripting adapters).
func (f *FrameContext) Values() map[string]any {
	if f == nil {
		return map[string]any{}
	}
	return map[string]any{
		"width":  f.Width,
		"height": f.Height,
		"time":   f.Time,
		"dt":     f.DeltaTime,
		"frame":  f.Frame,
	}
}
