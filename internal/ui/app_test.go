package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/courier/internal/backend"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/state"
	"github.com/five82/courier/internal/updates"
)

type fakeActions struct {
	toggles     atomic.Int32
	refreshes   atomic.Int32
	restaurants atomic.Int32
	err         error
}

func (f *fakeActions) RefreshRiderStatus(context.Context) error {
	f.refreshes.Add(1)
	return f.err
}

func (f *fakeActions) ToggleRiderStatus(context.Context) error {
	f.toggles.Add(1)
	return f.err
}

func (f *fakeActions) RefreshRestaurants(context.Context) error {
	f.restaurants.Add(1)
	return f.err
}

func newTestModel(t *testing.T, app string, actions Actions, store *state.Store) Model {
	t.Helper()
	m := New(Options{
		App:       app,
		Actions:   actions,
		Store:     store,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRiderViewShowsCountAndChannel(t *testing.T) {
	store := &state.Store{}
	store.SetBaseURL("http://10.0.2.2:8000")
	store.SetChannelState(updates.StateStreaming)
	store.SetRiderOnline(true)
	store.ApplyUpdate(updates.Update{Type: updates.TypeOrderCount, Count: 12, Transport: updates.TransportSocket})

	m := newTestModel(t, "rider", &fakeActions{}, store)
	updated, _ := m.Update(snapshotMsg(store.Snapshot()))
	view := updated.(Model).View()

	for _, want := range []string{"http://10.0.2.2:8000", "streaming", "12", "ONLINE", "pending orders"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestCustomerViewListsRestaurants(t *testing.T) {
	store := &state.Store{}
	store.SetRestaurants([]backend.Restaurant{{ID: 1, Name: "Noodle Bar", IsOpen: true}})

	m := newTestModel(t, "customer", &fakeActions{}, store)
	updated, _ := m.Update(snapshotMsg(store.Snapshot()))
	view := updated.(Model).View()

	if !strings.Contains(view, "Noodle Bar") || !strings.Contains(view, "Restaurants (1)") {
		t.Fatalf("view missing restaurant listing:\n%s", view)
	}
}

func TestToggleRunsActionOnce(t *testing.T) {
	actions := &fakeActions{}
	m := newTestModel(t, "rider", actions, &state.Store{})

	updated, cmd := m.Update(keyMsg("o"))
	m = updated.(Model)
	if cmd == nil || m.busy == "" {
		t.Fatalf("toggle did not start an action")
	}

	// A second press while busy is ignored.
	updated, second := m.Update(keyMsg("o"))
	m = updated.(Model)
	if second != nil {
		t.Fatalf("second toggle should be ignored while busy")
	}

	msg := cmd()
	if actions.toggles.Load() != 1 {
		t.Fatalf("toggles = %d, want 1", actions.toggles.Load())
	}
	updated, _ = m.Update(msg)
	m = updated.(Model)
	if m.busy != "" || m.statusErr {
		t.Fatalf("after action busy=%q statusErr=%v", m.busy, m.statusErr)
	}
}

func TestToggleDisabledForCustomer(t *testing.T) {
	actions := &fakeActions{}
	m := newTestModel(t, "customer", actions, &state.Store{})

	_, cmd := m.Update(keyMsg("o"))
	if cmd != nil {
		t.Fatalf("customer app should not toggle rider status")
	}
}

func TestRefreshDependsOnApp(t *testing.T) {
	rider := &fakeActions{}
	m := newTestModel(t, "rider", rider, &state.Store{})
	_, cmd := m.Update(keyMsg("r"))
	cmd()
	if rider.refreshes.Load() != 1 || rider.restaurants.Load() != 0 {
		t.Fatalf("rider refresh called status=%d restaurants=%d", rider.refreshes.Load(), rider.restaurants.Load())
	}

	customer := &fakeActions{}
	m = newTestModel(t, "customer", customer, &state.Store{})
	_, cmd = m.Update(keyMsg("r"))
	cmd()
	if customer.restaurants.Load() != 1 || customer.refreshes.Load() != 0 {
		t.Fatalf("customer refresh called status=%d restaurants=%d", customer.refreshes.Load(), customer.restaurants.Load())
	}
}

func TestActionFailureShownInStatus(t *testing.T) {
	actions := &fakeActions{err: errors.New("No working URL found")}
	m := newTestModel(t, "rider", actions, &state.Store{})

	updated, cmd := m.Update(keyMsg("o"))
	m = updated.(Model)
	updated, _ = m.Update(cmd())
	m = updated.(Model)

	if !m.statusErr || !strings.Contains(m.View(), "No working URL found") {
		t.Fatalf("failure not shown: status=%q", m.status)
	}
}

func TestCycleThemeSavesPrefsKeepingSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := prefs.Save(path, prefs.Prefs{Theme: "Dracula", UserID: 9, DeviceID: "dev"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m := New(Options{App: "rider", PrefsPath: path, ThemeName: "Dracula"})
	updated, _ := m.Update(keyMsg("T"))
	if got := updated.(Model).theme.Name; got != "Nightfox" {
		t.Fatalf("theme = %q, want Nightfox", got)
	}

	p, err := prefs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Theme != "Nightfox" || p.UserID != 9 || p.DeviceID != "dev" {
		t.Fatalf("prefs = %+v, want Nightfox with session kept", p)
	}
}

func TestLogLinesRendered(t *testing.T) {
	m := newTestModel(t, "rider", nil, nil)
	updated, _ := m.Update(logLinesMsg{
		`{"level":"warn","ts":1714557600,"logger":"courier.updates","msg":"order updates socket dropped"}`,
		"plain line",
	})
	view := updated.(Model).View()
	if !strings.Contains(view, "order updates socket dropped") || !strings.Contains(view, "plain line") {
		t.Fatalf("log pane missing lines:\n%s", view)
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, "rider", nil, nil)
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatalf("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q returned %T, want tea.QuitMsg", cmd())
	}
}
