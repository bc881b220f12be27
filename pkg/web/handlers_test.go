package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teslashibe/go-tello/pkg/fleet"
)

type fakeCommander struct {
	calls   []string
	reply   string
	failErr error
}

func (f *fakeCommander) Manual(text string) (string, error) {
	f.calls = append(f.calls, text)
	if f.failErr != nil {
		return "", f.failErr
	}
	return f.reply, nil
}

func testFleet() *fleet.Registry {
	r := fleet.NewRegistry()
	r.Add(fleet.Member{Name: "alpha", IP: "192.168.10.1", Mode: fleet.ModeAutonomous})
	r.Add(fleet.Member{Name: "bravo", IP: "192.168.10.2", Mode: fleet.ModeAutonomous, Placeholder: true})
	return r
}

func TestHandleCommand_ForwardsToCommander(t *testing.T) {
	cmdr := &fakeCommander{reply: "ok"}
	s := NewServer("0", cmdr, testFleet(), 0)

	req := httptest.NewRequest("POST", "/api/command", strings.NewReader(`{"command":"cw 15"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if len(cmdr.calls) != 1 || cmdr.calls[0] != "cw 15" {
		t.Errorf("commander calls: got %v", cmdr.calls)
	}

	var body map[string]string
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["reply"] != "ok" {
		t.Errorf("reply: got %q", body["reply"])
	}
}

func TestHandleCommand_RejectsEmpty(t *testing.T) {
	cmdr := &fakeCommander{reply: "ok"}
	s := NewServer("0", cmdr, nil, 0)

	for _, payload := range []string{`{"command":""}`, `{"command":"   "}`, `{}`} {
		req := httptest.NewRequest("POST", "/api/command", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != 400 {
			t.Errorf("payload %s: status got %d, want 400", payload, resp.StatusCode)
		}
	}
	if len(cmdr.calls) != 0 {
		t.Errorf("commander should not be called, got %v", cmdr.calls)
	}
}

func TestHandleCommand_TransportErrorIs502(t *testing.T) {
	cmdr := &fakeCommander{failErr: errors.New("reply timeout")}
	s := NewServer("0", cmdr, nil, 0)

	req := httptest.NewRequest("POST", "/api/command", strings.NewReader(`{"command":"battery?"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 502 {
		t.Errorf("status: got %d, want 502", resp.StatusCode)
	}
}

func TestHandleCommand_PlaceholderMemberIsMocked(t *testing.T) {
	cmdr := &fakeCommander{reply: "ok"}
	reg := testFleet()
	s := NewServer("0", cmdr, reg, 0)

	// Switch the active member to the placeholder.
	var placeholderID string
	for _, m := range reg.List() {
		if m.Placeholder {
			placeholderID = m.ID
		}
	}
	if _, err := reg.Select(placeholderID); err != nil {
		t.Fatalf("select: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/command", strings.NewReader(`{"command":"takeoff"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d", resp.StatusCode)
	}
	if len(cmdr.calls) != 0 {
		t.Errorf("placeholder command reached the wire: %v", cmdr.calls)
	}
}

func TestHandleStatus_ReflectsUpdates(t *testing.T) {
	s := NewServer("0", nil, nil, 0)
	s.UpdateState(func(st *DroneState) {
		st.Connected = true
		st.Battery = 87
		st.TrackState = "centering"
	})

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var state DroneState
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !state.Connected || state.Battery != 87 || state.TrackState != "centering" {
		t.Errorf("state: got %+v", state)
	}
}

func TestHandleFleet_SelectAndList(t *testing.T) {
	reg := testFleet()
	s := NewServer("0", nil, reg, 0)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/fleet", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var members []map[string]any
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &members); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members: got %d, want 2", len(members))
	}
	if members[0]["active"] != true || members[1]["active"] != false {
		t.Errorf("active flags: %v %v", members[0]["active"], members[1]["active"])
	}

	id := members[1]["id"].(string)
	resp, err = s.app.Test(httptest.NewRequest("POST", "/api/fleet/"+id+"/select", nil))
	if err != nil {
		t.Fatalf("select request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("select status: got %d", resp.StatusCode)
	}
	if !reg.IsActive(id) {
		t.Error("selection did not switch the active member")
	}

	resp, err = s.app.Test(httptest.NewRequest("POST", "/api/fleet/no-such-id/select", nil))
	if err != nil {
		t.Fatalf("bad select request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("unknown id status: got %d, want 404", resp.StatusCode)
	}
}

func TestHandleTrack_Toggle(t *testing.T) {
	s := NewServer("0", nil, nil, 0)

	engaged := false
	s.OnTrack = func() (bool, error) {
		engaged = !engaged
		return engaged, nil
	}

	resp, err := s.app.Test(httptest.NewRequest("POST", "/api/track", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var body map[string]bool
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body["tracking"] {
		t.Error("first toggle should engage tracking")
	}
}

func TestHandleTakeoff_NotConfigured(t *testing.T) {
	s := NewServer("0", nil, nil, 0)
	resp, err := s.app.Test(httptest.NewRequest("POST", "/api/takeoff", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("status: got %d, want 503", resp.StatusCode)
	}
}
