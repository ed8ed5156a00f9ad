package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wippyai/canonabi/types"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse fixture functions interactively",
		Long: `Open a filterable list of every fixture import and export. Enter shows
the function's layouts and core signature and, for lists exports, the result
of calling it with a canned argument. Without a terminal the listing is
printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := newCatalog(ctx, a.cfg, a.log.Named("resource"))
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			if !isTerminal(cmd.OutOrStdout()) || !isTerminal(cmd.InOrStdin()) {
				p := newPrinter(cmd.OutOrStdout())
				p.title("Fixture functions")
				for _, e := range c.funcs("", "") {
					fmt.Fprintf(p.w, "%-14s %-6s %s\n", e.world, e.direction(), e.fn.Signature(c.graph))
				}
				return nil
			}

			prog := tea.NewProgram(newBrowseModel(ctx, c), tea.WithAltScreen())
			_, err = prog.Run()
			return err
		},
	}
}

type browseState int

const (
	stateSelectFunc browseState = iota
	stateShowDetail
)

// funcItem adapts a funcEntry to the bubbles list.
type funcItem struct {
	entry funcEntry
	sig   string
}

func (i funcItem) Title() string       { return i.entry.fn.Name }
func (i funcItem) Description() string { return i.entry.world + " " + i.entry.direction() + "  " + i.sig }
func (i funcItem) FilterValue() string { return i.entry.world + " " + i.entry.fn.Name }

type callResultMsg struct {
	err    error
	result string
}

type browseModel struct {
	ctx     context.Context
	err     error
	cat     *catalog
	detail  string
	result  string
	list    list.Model
	state   browseState
	pending bool
}

func newBrowseModel(ctx context.Context, c *catalog) *browseModel {
	entries := c.funcs("", "")
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = funcItem{entry: e, sig: c.coreSignature(e)}
	}

	l := list.New(items, list.NewDefaultDelegate(), 80, 24)
	l.Title = "canonabi fixtures"
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)

	return &browseModel{ctx: ctx, cat: c, list: l, state: stateSelectFunc}
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-1)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state == stateShowDetail {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "esc", "enter", "backspace":
				m.state = stateSelectFunc
				m.detail, m.result, m.err = "", "", nil
			}
			return m, nil
		}
		if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "enter":
				item, ok := m.list.SelectedItem().(funcItem)
				if !ok {
					return m, nil
				}
				m.state = stateShowDetail
				m.detail = m.describe(item.entry)
				if item.entry.export && item.entry.world == m.cat.lists.World.Name {
					m.pending = true
					return m, m.callFunction(item.entry.fn.Name)
				}
				return m, nil
			}
		}

	case callResultMsg:
		m.pending = false
		m.result = msg.result
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *browseModel) callFunction(name string) tea.Cmd {
	return func() tea.Msg {
		args, _ := sampleFor(name)
		out, err := m.cat.callSample(m.ctx, name)
		if err != nil {
			return callResultMsg{err: err}
		}
		return callResultMsg{result: "(" + formatArgs(args) + ") -> " + formatArgs(out)}
	}
}

// describe renders the WIT signature, core signature and per-type layouts
// of e.
func (m *browseModel) describe(e funcEntry) string {
	c := m.cat
	var b strings.Builder
	b.WriteString(e.world + " " + e.direction() + "\n\n")
	b.WriteString(funcStyle.Render(e.fn.Signature(c.graph)) + "\n")
	b.WriteString(typeStyle.Render(c.coreSignature(e)) + "\n")
	b.WriteString("indirect: " + c.indirect(e) + "\n\n")

	line := func(role string, id types.TypeID) {
		info := c.layout.Calculate(id)
		fmt.Fprintf(&b, "  %-8s %-32s size=%-4s align=%-2s flat=%s\n",
			role, typeStyle.Render(c.graph.Describe(id)),
			strconv.FormatUint(uint64(info.Size), 10),
			strconv.FormatUint(uint64(info.Align), 10),
			c.flatNames(id))
	}
	for _, p := range e.fn.Params {
		line(p.Name, p.Type)
	}
	for i, r := range e.fn.Results {
		line("result"+strconv.Itoa(i), r)
	}
	return b.String()
}

func (m *browseModel) View() string {
	if m.state == stateSelectFunc {
		return m.list.View()
	}

	var b strings.Builder
	item, _ := m.list.SelectedItem().(funcItem)
	b.WriteString(selectedStyle.Render(" "+item.entry.fn.Name+" ") + "\n\n")
	b.WriteString(m.detail)
	switch {
	case m.pending:
		b.WriteString("\ncalling...\n")
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	case m.result != "":
		b.WriteString("\n" + resultStyle.Render(m.result) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("enter/esc back • q quit"))
	return b.String()
}
