package cmd

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
)

func testAssets() []domain.AssetRecord {
	return []domain.AssetRecord{
		{ContentID: "Qm123", Name: "Test File", Description: "A test file", FileType: "text/plain", FileSize: 1024},
		{ContentID: "Qm456", Name: "Test Image", FileType: "image/png", FileSize: 2048},
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestExploreModel_Init(t *testing.T) {
	loads := 0
	m := newExploreModel(domain.PublicKey{}, func() tea.Msg {
		loads++
		return assetsLoadedMsg{}
	})

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init should return the load command")
	}
	cmd()
	if loads != 1 {
		t.Errorf("Expected 1 load, got %d", loads)
	}
}

func TestExploreModel_Loaded(t *testing.T) {
	m := newExploreModel(domain.PublicKey{}, nil)

	updated, _ := m.Update(assetsLoadedMsg{assets: testAssets()})
	em := updated.(exploreModel)

	a, ok := em.selected()
	if !ok {
		t.Fatal("Expected a selected record")
	}
	if a.ContentID != "Qm123" {
		t.Errorf("Expected first record selected, got %s", a.ContentID)
	}

	view := em.View()
	for _, want := range []string{"Test File", "Qm456", "2 assets"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in view", want)
		}
	}
}

func TestExploreModel_Empty(t *testing.T) {
	m := newExploreModel(domain.PublicKey{}, nil)

	updated, _ := m.Update(assetsLoadedMsg{})
	em := updated.(exploreModel)

	if _, ok := em.selected(); ok {
		t.Error("Expected no selection in empty registry")
	}
	if !strings.Contains(em.View(), "No assets registered") {
		t.Error("Expected empty-registry message")
	}
}

func TestExploreModel_CursorClampsOnShrink(t *testing.T) {
	m := newExploreModel(domain.PublicKey{}, nil)

	updated, _ := m.Update(assetsLoadedMsg{assets: testAssets()})
	updated, _ = updated.Update(key("j"))
	if updated.(exploreModel).table.Cursor() != 1 {
		t.Fatalf("Expected cursor on second row")
	}

	updated, _ = updated.Update(assetsLoadedMsg{assets: testAssets()[:1]})
	a, ok := updated.(exploreModel).selected()
	if !ok || a.ContentID != "Qm123" {
		t.Errorf("Expected cursor clamped to remaining record, got %+v", a)
	}
}

func TestExploreModel_LoadError(t *testing.T) {
	m := newExploreModel(domain.PublicKey{}, nil)

	updated, _ := m.Update(loadErrMsg{errors.New("disk on fire")})
	if !strings.Contains(updated.View(), "disk on fire") {
		t.Error("Expected load error in view")
	}
}

func TestExploreModel_ReloadTriggers(t *testing.T) {
	loads := 0
	load := func() tea.Msg {
		loads++
		return nil
	}
	m := newExploreModel(domain.PublicKey{}, load)

	for _, msg := range []tea.Msg{key("r"), storeChangedMsg{}} {
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("Expected reload command for %T", msg)
		}
		cmd()
	}
	if loads != 2 {
		t.Errorf("Expected 2 loads, got %d", loads)
	}
}

func TestExploreModel_Quit(t *testing.T) {
	m := newExploreModel(domain.PublicKey{}, nil)

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}
