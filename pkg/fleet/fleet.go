// Package fleet tracks the drones known to the dashboard. Exactly one
// member is active at a time: it owns the real command and video channels.
// The others are placeholders shown in the UI; selecting them switches the
// view but their commands are mocked, not transmitted.
package fleet

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownMember is returned for an id not in the registry.
var ErrUnknownMember = errors.New("fleet: unknown member")

// FlightMode is the per-member operating mode shown in the dashboard.
type FlightMode string

const (
	// ModeFPV is manual first-person-view piloting.
	ModeFPV FlightMode = "FPV"
	// ModeAutonomous is the visual-approach controller.
	ModeAutonomous FlightMode = "Autonomous"
)

// Member is one drone in the fleet.
type Member struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	IP          string     `json:"ip"`
	CommandPort int        `json:"command_port"`
	VideoPort   int        `json:"video_port"`
	Mode        FlightMode `json:"mode"`
	Placeholder bool       `json:"placeholder"`
}

// Registry is the fleet roster plus the active selection.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	members map[string]*Member
	active  string
}

// NewRegistry creates an empty fleet registry.
func NewRegistry() *Registry {
	return &Registry{members: make(map[string]*Member)}
}

// Add registers a member and returns its generated id. The first member
// added becomes the active one.
func (r *Registry) Add(m Member) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.ID = uuid.NewString()
	r.members[m.ID] = &m
	r.order = append(r.order, m.ID)
	if r.active == "" {
		r.active = m.ID
	}
	return m.ID
}

// List returns the members in registration order.
func (r *Registry) List() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.members[id])
	}
	return out
}

// Active returns the active member, or the zero Member for an empty
// registry.
func (r *Registry) Active() Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.members[r.active]; ok {
		return *m
	}
	return Member{}
}

// IsActive reports whether the given id is the active member.
func (r *Registry) IsActive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return id == r.active
}

// Select switches the active member.
func (r *Registry) Select(id string) (Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[id]
	if !ok {
		return Member{}, ErrUnknownMember
	}
	r.active = id
	return *m, nil
}

// ToggleMode flips a member between FPV and autonomous. At most one member
// flies FPV at a time; switching one in demotes the others.
func (r *Registry) ToggleMode(id string) (FlightMode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[id]
	if !ok {
		return "", ErrUnknownMember
	}

	if m.Mode == ModeFPV {
		m.Mode = ModeAutonomous
	} else {
		m.Mode = ModeFPV
		for otherID, other := range r.members {
			if otherID != id {
				other.Mode = ModeAutonomous
			}
		}
	}
	return m.Mode, nil
}
