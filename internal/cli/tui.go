package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/session"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// EditorModel - Interactive workflow editing
// =============================================================================

// nodeRow is one line of the editor's node table.
type nodeRow struct {
	ID       string
	Workflow string
	Opcode   string
	Kind     string // start, chain, branch, orphan or reporter
	Detail   string
	Rect     layout.Rect
	placed   bool

	// Set for reporters.
	Host string
	Path []string
}

// editorMode is what the keyboard currently drives.
type editorMode int

const (
	modeBrowse editorMode = iota
	modePickOpcode
	modeConnect
)

// EditorModel is the bubbletea model of the edit command. Every edit goes
// through the session's mutation engine, so undo and redo cover all of them.
type EditorModel struct {
	Session *session.Session
	Path    string

	rows    []nodeRow
	cursor  int
	offset  int
	height  int
	mode    editorMode
	opcodes []string
	pick    int
	source  string // connect: the node the wire starts from
	status  string
	failed  bool
	saved   string // source text last written to Path
}

// NewEditorModel creates an editor over a loaded session.
func NewEditorModel(s *session.Session, path string) EditorModel {
	m := EditorModel{
		Session: s,
		Path:    path,
		height:  15,
		opcodes: s.Engine().Catalog().Opcodes(),
		saved:   s.Source(),
	}
	m.refresh()
	return m
}

// Dirty reports whether the session has edits that were not saved.
func (m EditorModel) Dirty() bool {
	return m.Session.Source() != m.saved
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modePickOpcode:
			return m.updatePick(msg)
		case modeConnect:
			return m.updateConnect(msg)
		}
		return m.updateBrowse(msg)
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
	}
	return m, nil
}

func (m EditorModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "a":
		m.mode, m.pick = modePickOpcode, 0
		m.setStatus("add node to %s", m.Session.ActiveWorkflow())
	case "x", "delete":
		m.deleteCurrent()
	case "d":
		if row, ok := m.current(); ok && row.Kind != "reporter" {
			id, err := m.Session.Engine().DuplicateNode(row.ID)
			m.report(err, "duplicated %s as %s", row.ID, id)
		}
	case "c":
		if row, ok := m.current(); ok && row.Kind != "reporter" {
			m.mode, m.source = modeConnect, row.ID
			m.setStatus("connect %s %s ... pick the target, enter to connect", row.ID, iconArrow)
		}
	case "o":
		if row, ok := m.current(); ok && row.Kind != "reporter" {
			err := m.Session.Engine().DisconnectNode(row.ID)
			m.report(err, "detached %s into an orphan chain", row.ID)
		}
	case "u":
		m.historyStep(m.Session.Undo, "undo")
	case "U", "ctrl+r":
		m.historyStep(m.Session.Redo, "redo")
	case "tab":
		m.nextWorkflow()
	case "s":
		m.save()
	}
	m.refresh()
	return m, nil
}

func (m EditorModel) updatePick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		m.mode = modeBrowse
		m.setStatus("")
	case "up", "k":
		if m.pick > 0 {
			m.pick--
		}
	case "down", "j":
		if m.pick < len(m.opcodes)-1 {
			m.pick++
		}
	case "enter":
		m.mode = modeBrowse
		if len(m.opcodes) == 0 {
			break
		}
		opcode := m.opcodes[m.pick]
		id, err := m.Session.Engine().AddNode(opcode, m.Session.ActiveWorkflow())
		m.report(err, "added %s (%s)", id, opcode)
		m.refresh()
		m.focus(id)
	}
	return m, nil
}

func (m EditorModel) updateConnect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		m.mode = modeBrowse
		m.setStatus("connect cancelled")
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter":
		m.mode = modeBrowse
		if row, ok := m.current(); ok {
			err := m.Session.Engine().ConnectNodes(m.source, row.ID)
			m.report(err, "connected %s %s %s", m.source, iconArrow, row.ID)
			m.refresh()
		}
	}
	return m, nil
}

func (m *EditorModel) deleteCurrent() {
	row, ok := m.current()
	if !ok {
		return
	}
	var selected bool
	if row.Kind == "reporter" {
		selected = m.Session.SelectReporter(row.Host, row.Path)
	} else {
		selected = m.Session.SelectNode(row.ID)
	}
	if !selected {
		m.setError("%s is gone", row.ID)
		return
	}
	_, err := m.Session.DeleteSelection()
	m.report(err, "deleted %s", row.ID)
}

func (m *EditorModel) historyStep(step func() bool, name string) {
	if !step() {
		m.setStatus("nothing to %s", name)
		return
	}
	cur, total := m.Session.History().Position()
	m.setStatus("%s (%d/%d)", name, cur, total)
}

func (m *EditorModel) nextWorkflow() {
	t := m.Session.Current()
	if t == nil {
		return
	}
	names := t.WorkflowNames()
	active := m.Session.ActiveWorkflow()
	for i, name := range names {
		if name == active {
			next := names[(i+1)%len(names)]
			m.report(m.Session.SetActiveWorkflow(next), "active workflow: %s", next)
			return
		}
	}
}

func (m *EditorModel) save() {
	if m.Path == "" || m.Path == "-" {
		m.setError("no file to save to")
		return
	}
	m.Session.Flush()
	text := m.Session.Source()
	if err := os.WriteFile(m.Path, []byte(text), 0o644); err != nil {
		m.setError("save: %v", err)
		return
	}
	m.saved = text
	m.setStatus("saved %s", m.Path)
}

// refresh rebuilds the rows from the session's current tree and layout.
func (m *EditorModel) refresh() {
	m.rows = editorRows(m.Session.Current(), m.Session.Layout())
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	m.move(0)
}

func (m *EditorModel) focus(id string) {
	for i, r := range m.rows {
		if r.ID == id {
			m.cursor = i
			m.move(0)
			return
		}
	}
}

func (m *EditorModel) move(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), max(len(m.rows)-1, 0))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m EditorModel) current() (nodeRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nodeRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m *EditorModel) report(err error, format string, args ...any) {
	if err != nil {
		m.setError("%v", err)
		return
	}
	m.setStatus(format, args...)
}

func (m *EditorModel) setStatus(format string, args ...any) {
	m.status, m.failed = fmt.Sprintf(format, args...), false
}

func (m *EditorModel) setError(format string, args ...any) {
	m.status, m.failed = fmt.Sprintf(format, args...), true
}

// editorRows lists the nodes of t in walk order.
func editorRows(t *tree.Tree, l *layout.Layout) []nodeRow {
	if t == nil {
		return nil
	}
	boxes := map[string]layout.Rect{}
	if l != nil {
		for _, b := range l.Boxes {
			boxes[b.NodeID] = b.Rect
		}
	}
	var rows []nodeRow
	t.Walk(func(loc tree.Location) bool {
		row := nodeRow{ID: loc.Node.ID, Workflow: loc.Workflow.Name, Opcode: loc.Node.Opcode}
		switch {
		case loc.IsReporter():
			row.Kind = "reporter"
			row.Host, row.Path = loc.Host.ID, loc.Path
			row.Detail = loc.Host.ID + "." + strings.Join(loc.Path, ".")
		case loc.IsOrphan():
			row.Kind = "orphan"
		case loc.Owner != nil:
			row.Kind = "branch"
			row.Detail = loc.Owner.ID + "." + loc.Branch
		case loc.Prev == nil:
			row.Kind = "start"
		default:
			row.Kind = "chain"
			row.Detail = "after " + loc.Prev.ID
		}
		row.Rect, row.placed = boxes[row.ID]
		rows = append(rows, row)
		return true
	})
	return rows
}

func (m EditorModel) View() string {
	var b strings.Builder

	title := "Edit " + m.Path
	if m.Dirty() {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render("workflow " + m.Session.ActiveWorkflow()))
	b.WriteString("\n")

	if m.mode == modePickOpcode {
		b.WriteString(listDimStyle.Render("↑/↓ choose opcode  ⏎ add  esc back"))
		b.WriteString("\n\n")
		for i, op := range m.opcodes {
			if i == m.pick {
				b.WriteString(listSelectedStyle.Render("▸ " + op))
			} else {
				b.WriteString(listNormalStyle.Render("  " + op))
			}
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString(listDimStyle.Render("↑/↓ move  a add  x delete  d duplicate  c connect  o detach  u undo  U redo  tab workflow  s save  q quit"))
	b.WriteString("\n\n")

	if err := m.Session.ParseError(); err != nil {
		b.WriteString(StyleWarning.Render("parse error: " + err.Error()))
		b.WriteString("\n\n")
	}

	end := min(m.offset+m.height, len(m.rows))
	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		pos := "—"
		if r.placed {
			pos = fmt.Sprintf("%.0f,%.0f", r.Rect.X, r.Rect.Y)
		}
		rows = append(rows, []string{cursor, r.ID, r.Opcode, r.Workflow, r.Kind, dash(r.Detail), pos})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Opcode", "Workflow", "Kind", "Where", "Canvas").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.offset + row
			if idx >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			r := m.rows[idx]
			switch {
			case idx == m.cursor && m.mode == modeConnect:
				return lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
			case idx == m.cursor:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case r.ID == m.source && m.mode == modeConnect:
				return StyleHighlight
			case r.Kind == "orphan" || r.Kind == "reporter":
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.cursor+1, len(m.rows)), len(m.rows))))
	if m.status != "" {
		b.WriteString("  ")
		if m.failed {
			b.WriteString(styleIconError.Render(iconError + " " + m.status))
		} else {
			b.WriteString(StyleDim.Render(iconInfo + " " + m.status))
		}
	}
	b.WriteString("\n")
	return b.String()
}
