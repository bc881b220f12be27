package fleet

import "testing"

func seedRegistry() (*Registry, []string) {
	r := NewRegistry()
	ids := []string{
		r.Add(Member{Name: "tello-alpha", IP: "192.168.10.1", CommandPort: 8889, VideoPort: 11111, Mode: ModeAutonomous}),
		r.Add(Member{Name: "tello-bravo", IP: "192.168.10.2", CommandPort: 8889, VideoPort: 11111, Mode: ModeAutonomous, Placeholder: true}),
		r.Add(Member{Name: "tello-charlie", IP: "192.168.10.3", CommandPort: 8889, VideoPort: 11111, Mode: ModeFPV, Placeholder: true}),
	}
	return r, ids
}

func TestRegistry_FirstMemberIsActive(t *testing.T) {
	r, ids := seedRegistry()

	if got := r.Active().ID; got != ids[0] {
		t.Errorf("active: got %s, want %s", got, ids[0])
	}
	if !r.IsActive(ids[0]) {
		t.Error("IsActive(first) = false")
	}
	if r.IsActive(ids[1]) {
		t.Error("IsActive(second) = true before selection")
	}
}

func TestRegistry_ListPreservesOrder(t *testing.T) {
	r, ids := seedRegistry()

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("List: got %d members, want 3", len(list))
	}
	for i, m := range list {
		if m.ID != ids[i] {
			t.Errorf("List[%d]: got %s, want %s", i, m.ID, ids[i])
		}
	}
	if list[0].Placeholder || !list[1].Placeholder {
		t.Error("placeholder flags not preserved")
	}
}

func TestRegistry_Select(t *testing.T) {
	r, ids := seedRegistry()

	m, err := r.Select(ids[2])
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if m.Name != "tello-charlie" {
		t.Errorf("selected name: got %s", m.Name)
	}
	if !r.IsActive(ids[2]) || r.IsActive(ids[0]) {
		t.Error("active member did not switch")
	}

	if _, err := r.Select("no-such-id"); err != ErrUnknownMember {
		t.Errorf("Select unknown: got %v, want ErrUnknownMember", err)
	}
}

func TestRegistry_ToggleModeDemotesOthers(t *testing.T) {
	r, ids := seedRegistry()

	// Promote the first member to FPV; charlie (already FPV) must demote.
	mode, err := r.ToggleMode(ids[0])
	if err != nil {
		t.Fatalf("ToggleMode: %v", err)
	}
	if mode != ModeFPV {
		t.Errorf("toggled mode: got %s, want %s", mode, ModeFPV)
	}

	fpv := 0
	for _, m := range r.List() {
		if m.Mode == ModeFPV {
			fpv++
			if m.ID != ids[0] {
				t.Errorf("unexpected FPV member %s", m.Name)
			}
		}
	}
	if fpv != 1 {
		t.Errorf("FPV members: got %d, want 1", fpv)
	}

	// Toggling again drops back to autonomous.
	mode, err = r.ToggleMode(ids[0])
	if err != nil {
		t.Fatalf("ToggleMode: %v", err)
	}
	if mode != ModeAutonomous {
		t.Errorf("second toggle: got %s, want %s", mode, ModeAutonomous)
	}

	if _, err := r.ToggleMode("no-such-id"); err != ErrUnknownMember {
		t.Errorf("ToggleMode unknown: got %v, want ErrUnknownMember", err)
	}
}
