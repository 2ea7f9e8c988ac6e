package mapview

import (
	"math"
	"sync"
)

// Viewport is the map camera.
type Viewport struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
	Pitch     float64 `json:"pitch"`
	Bearing   float64 `json:"bearing"`
}

// InitialViewport is centered on Bogotá.
var InitialViewport = Viewport{
	Latitude:  4.6097,
	Longitude: -74.0817,
	Zoom:      12,
	Pitch:     0,
	Bearing:   0,
}

const (
	MaxZoom  = 24
	MaxPitch = 85
	maxLat   = 85.051129
)

// Sanitize clamps the camera into ranges the map library accepts.
func (v Viewport) Sanitize() Viewport {
	v.Latitude = clamp(finite(v.Latitude), -maxLat, maxLat)
	v.Longitude = wrap(finite(v.Longitude))
	v.Zoom = clamp(finite(v.Zoom), 0, MaxZoom)
	v.Pitch = clamp(finite(v.Pitch), 0, MaxPitch)
	v.Bearing = wrap(finite(v.Bearing))
	return v
}

// Camera owns the viewport after construction. The initial value comes
// from outside; from then on only Move (user interaction) changes it.
// Observers registered with OnChange are told about every move but cannot
// push a viewport back in.
type Camera struct {
	mu        sync.RWMutex
	viewport  Viewport
	observers []func(Viewport)
}

func NewCamera(initial Viewport) *Camera {
	return &Camera{viewport: initial.Sanitize()}
}

func (c *Camera) Current() Viewport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewport
}

// Move records a viewport reported by the map after the user panned,
// zoomed, tilted or rotated. It returns the stored (sanitized) value.
func (c *Camera) Move(v Viewport) Viewport {
	v = v.Sanitize()
	c.mu.Lock()
	c.viewport = v
	obs := append([]func(Viewport){}, c.observers...)
	c.mu.Unlock()

	for _, fn := range obs {
		fn(v)
	}
	return v
}

// OnChange registers an observer of user moves. Observers are informational
// and run synchronously after the move is stored.
func (c *Camera) OnChange(fn func(Viewport)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}

// wrap maps degrees into [-180, 180).
func wrap(deg float64) float64 {
	if deg >= -180 && deg < 180 {
		return deg
	}
	deg = math.Mod(deg+180, 360)
	if deg < 0 {
		deg += 360
	}
	return deg - 180
}
