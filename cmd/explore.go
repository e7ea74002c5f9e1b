package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/vx-cli/internal/adapters/repository"
	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/services"
	"github.com/kamal-hamza/vx-cli/internal/log"
	"github.com/kamal-hamza/vx-cli/pkg/config"
	"github.com/kamal-hamza/vx-cli/pkg/ui"
)

var exploreOwner string

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Interactive registry browser",
	Long: `Browse a registry interactively. The view refreshes when the account
store changes, e.g. after 'vx register' in another terminal.

Keys:
- k / ↑ : Move Up
- j / ↓ : Move Down
- c     : Copy CID
- r     : Reload
- q     : Quit`,
	Args: cobra.NoArgs,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().StringVar(&exploreOwner, "owner", "", "Browse another owner's registry (base58 public key)")
}

func runExplore(cmd *cobra.Command, args []string) error {
	owner, err := resolveOwner(exploreOwner)
	if err != nil {
		return err
	}

	load := func() tea.Msg {
		ctx := getContext()
		resp, err := registryService.ListAssets(ctx, services.ListRequest{Owner: owner})
		if err != nil {
			return loadErrMsg{err}
		}
		return assetsLoadedMsg{assets: resp.Assets}
	}

	p := tea.NewProgram(newExploreModel(owner, load), tea.WithAltScreen())

	// Reload when the store changes on disk
	ctx, cancel := context.WithCancel(getContext())
	defer cancel()
	go func() {
		opts := repository.WatchOptions{
			Dir:      appVault.RegistriesPath,
			Match:    repository.RegistryFileMatch,
			Debounce: time.Duration(appConfig.WatchDebounceMS) * time.Millisecond,
			OnChange: func([]string) {
				if cachedRepo != nil {
					cachedRepo.Flush()
				}
				p.Send(storeChangedMsg{})
			},
		}
		if appConfig.Storage == config.StorageSQLite {
			opts.Dir = appVault.RootPath
			opts.Match = repository.SQLiteFileMatch(appVault.DBPath())
		}
		if err := repository.Watch(ctx, opts); err != nil {
			log.ErrorErr(log.CatWatcher, "live refresh disabled", err)
		}
	}()

	_, err = p.Run()
	return err
}

// --- TUI Model ---

type (
	assetsLoadedMsg struct{ assets []domain.AssetRecord }
	loadErrMsg      struct{ err error }
	storeChangedMsg struct{}
)

type exploreModel struct {
	owner  domain.PublicKey
	load   tea.Cmd
	table  table.Model
	assets []domain.AssetRecord
	status string
	err    error
}

var exploreColumns = []table.Column{
	{Title: "Name", Width: 28},
	{Title: "Type", Width: 18},
	{Title: "Size", Width: 9},
	{Title: "Date", Width: 10},
	{Title: "CID", Width: 48},
}

func newExploreModel(owner domain.PublicKey, load tea.Cmd) exploreModel {
	t := table.New(
		table.WithColumns(exploreColumns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorMuted).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(ui.ColorDefault).
		Background(ui.ColorPrimary).
		Bold(false)
	t.SetStyles(styles)

	return exploreModel{
		owner:  owner,
		load:   load,
		table:  t,
		status: "Loading...",
	}
}

func (m exploreModel) Init() tea.Cmd {
	return m.load
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.status = "Reloading..."
			return m, m.load
		case "c":
			if a, ok := m.selected(); ok {
				if err := clipboard.WriteAll(a.ContentID); err != nil {
					m.status = "Clipboard access failed"
				} else {
					m.status = "Copied " + a.ContentID
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		// Header, footer and detail pane take about 10 lines
		if h := msg.Height - 10; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case assetsLoadedMsg:
		m.assets = msg.assets
		m.err = nil
		m.table.SetRows(assetRows(msg.assets))
		if m.table.Cursor() >= len(msg.assets) {
			m.table.SetCursor(max(len(msg.assets)-1, 0))
		}
		m.status = fmt.Sprintf("%d assets", len(msg.assets))
		return m, nil

	case loadErrMsg:
		m.err = msg.err
		m.status = "Load failed"
		return m, nil

	case storeChangedMsg:
		m.status = "Store changed, reloading..."
		return m, m.load
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m exploreModel) selected() (domain.AssetRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.assets) {
		return domain.AssetRecord{}, false
	}
	return m.assets[i], true
}

func (m exploreModel) View() string {
	var s strings.Builder

	s.WriteString(ui.StyleTitle.Render("Registry of "+m.owner.Short()) + "\n\n")

	if m.err != nil {
		s.WriteString(ui.FormatError(m.err.Error()) + "\n")
	} else if len(m.assets) == 0 {
		s.WriteString(ui.FormatMuted("No assets registered") + "\n")
	} else {
		s.WriteString(m.table.View() + "\n\n")
		if a, ok := m.selected(); ok {
			s.WriteString(ui.StyleBold.Render(a.Name))
			if a.Description != "" {
				s.WriteString("  " + ui.StyleMuted.Render(a.Description))
			}
			s.WriteString("\n")
		}
	}

	s.WriteString("\n" + ui.StyleMuted.Render(m.status+"  •  j/k move  c copy cid  r reload  q quit"))
	return s.String()
}

func assetRows(assets []domain.AssetRecord) []table.Row {
	rows := make([]table.Row, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, table.Row{
			ui.Truncate(a.Name, exploreColumns[0].Width),
			ui.Truncate(a.FileType, exploreColumns[1].Width),
			a.GetSizeString(),
			a.RegisteredAt().Format("2006-01-02"),
			a.ContentID,
		})
	}
	return rows
}
