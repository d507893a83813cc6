package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apresai/creatorpilot/internal/progress"
)

// menuItem is one row of the update wizard.
type menuItem struct {
	label   string
	value   string
	hint    string
	options []menuOption
	editing bool
	cursor  int // cursor within options when editing
}

type menuOption struct {
	label string
	value string
}

type menuState int

const (
	stateMenu menuState = iota
	stateEditing
)

// menu item indices
const (
	idxFeedPosts = iota
	idxPPVDrops
	idxStoryPosts
	idxRestDays
	idxRevenue
	idxSubscribers
	idxCustoms
	idxProtectedEnergy
	idxReinforcedValue
	idxStayedCalm
	idxFeltIntentional
	idxSave
)

var metricItems = []struct {
	idx    int
	metric progress.Metric
}{
	{idxFeedPosts, progress.FeedPosts},
	{idxPPVDrops, progress.PPVDrops},
	{idxStoryPosts, progress.StoryPosts},
	{idxRestDays, progress.RestDays},
}

var checkOptions = []menuOption{
	{label: "Skip", value: ""},
	{label: "Yes", value: "yes"},
	{label: "No", value: "no"},
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	menuLabelStyle = lipgloss.NewStyle().
			Width(20).
			Align(lipgloss.Right).
			MarginRight(2)

	menuValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	menuValueDimStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#555555")).
				Italic(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	optionStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	selectedOptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575")).
				Bold(true).
				PaddingLeft(2)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 3)

	buttonDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Padding(0, 3)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			PaddingLeft(2)
)

// wizardModel is the Bubble Tea model for `progress update`.
type wizardModel struct {
	items     []menuItem
	cursor    int
	state     menuState
	err       error
	entry     wizardEntry
	confirmed bool
	cancelled bool
}

// wizardEntry is what the wizard collected. Numbers are added to the
// current week; selfCheck is nil when the checklist was skipped.
type wizardEntry struct {
	content     map[progress.Metric]float64
	revenue     float64
	subscribers int
	customs     int
	selfCheck   *[4]bool
}

func (e wizardEntry) apply(t *progress.Tracker) {
	for _, m := range progress.Metrics {
		if v := e.content[m]; v != 0 {
			t.UpdateContent(m, v)
		}
	}
	if e.revenue != 0 {
		t.UpdateRevenue(e.revenue)
	}
	if e.subscribers != 0 {
		t.UpdateSubscribers(e.subscribers)
	}
	if e.customs != 0 {
		t.UpdateCustoms(e.customs)
	}
	if c := e.selfCheck; c != nil {
		t.CompleteSelfCheck(c[0], c[1], c[2], c[3])
	}
}

func answer(b *bool) string {
	switch {
	case b == nil:
		return ""
	case *b:
		return "yes"
	default:
		return "no"
	}
}

func newWizardModel(t *progress.Tracker) wizardModel {
	metrics := t.Metrics()
	goals := t.Goals()
	check := t.SelfCheck()

	items := make([]menuItem, idxSave+1)
	for _, mi := range metricItems {
		items[mi.idx] = menuItem{
			label: mi.metric.Label(),
			hint:  fmt.Sprintf("now %g of %g", metrics.Count(mi.metric), goals.Goal(mi.metric)),
		}
	}
	items[idxRevenue] = menuItem{label: "Revenue ($)", hint: fmt.Sprintf("now $%.2f", metrics.Revenue)}
	items[idxSubscribers] = menuItem{label: "New Subscribers", hint: fmt.Sprintf("now %d", metrics.NewSubscribers)}
	items[idxCustoms] = menuItem{label: "Customs Completed", hint: fmt.Sprintf("now %d", metrics.CustomsCompleted)}

	checks := []struct {
		idx   int
		label string
		value *bool
	}{
		{idxProtectedEnergy, "Protected Energy", check.ProtectedEnergy},
		{idxReinforcedValue, "Reinforced Value", check.ReinforcedValue},
		{idxStayedCalm, "Stayed Calm", check.StayedCalm},
		{idxFeltIntentional, "Felt Intentional", check.FeltIntentional},
	}
	for _, c := range checks {
		items[c.idx] = menuItem{label: c.label, value: answer(c.value), options: checkOptions}
	}
	items[idxSave] = menuItem{label: ">>> Save <<<"}

	for i := range items {
		for j, opt := range items[i].options {
			if opt.value == items[i].value {
				items[i].cursor = j
				break
			}
		}
	}

	return wizardModel{items: items, state: stateMenu}
}

func (m wizardModel) isTextInput(idx int) bool {
	return idx < idxProtectedEnergy
}

// collect validates the form and builds the entry.
func (m wizardModel) collect() (wizardEntry, error) {
	e := wizardEntry{content: map[progress.Metric]float64{}}

	parseFloat := func(idx int) (float64, error) {
		v := strings.TrimSpace(m.items[idx].value)
		if v == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(strings.TrimPrefix(v, "$"), 64)
		if err == nil {
			err = progress.CheckAmount(f)
		}
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", m.items[idx].label, v)
		}
		return f, nil
	}
	parseInt := func(idx int) (int, error) {
		v := strings.TrimSpace(m.items[idx].value)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a whole number", m.items[idx].label, v)
		}
		return n, nil
	}

	var err error
	for _, mi := range metricItems {
		if e.content[mi.metric], err = parseFloat(mi.idx); err != nil {
			return wizardEntry{}, err
		}
	}
	if e.revenue, err = parseFloat(idxRevenue); err != nil {
		return wizardEntry{}, err
	}
	if e.subscribers, err = parseInt(idxSubscribers); err != nil {
		return wizardEntry{}, err
	}
	if e.customs, err = parseInt(idxCustoms); err != nil {
		return wizardEntry{}, err
	}

	var answered int
	var flags [4]bool
	for i := 0; i < 4; i++ {
		switch m.items[idxProtectedEnergy+i].value {
		case "yes":
			flags[i] = true
			answered++
		case "no":
			answered++
		}
	}
	switch answered {
	case 0:
	case 4:
		e.selfCheck = &flags
	default:
		return wizardEntry{}, errors.New("answer all four self-check questions or skip them all")
	}
	return e, nil
}

func (m wizardModel) Init() tea.Cmd {
	return nil
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case stateMenu:
			return m.updateMenu(msg)
		case stateEditing:
			return m.updateEditing(msg)
		}
	}
	return m, nil
}

func (m wizardModel) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.cancelled = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j", "tab":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case "enter", " ":
		if m.cursor == idxSave {
			entry, err := m.collect()
			if err != nil {
				m.err = err
				return m, nil
			}
			m.entry = entry
			m.confirmed = true
			return m, tea.Quit
		}
		m.state = stateEditing
		m.items[m.cursor].editing = true
		m.err = nil
	}
	return m, nil
}

func (m wizardModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item := &m.items[m.cursor]

	if m.isTextInput(m.cursor) {
		switch msg.String() {
		case "enter", "tab":
			item.editing = false
			m.state = stateMenu
			m.cursor++
		case "esc":
			item.editing = false
			m.state = stateMenu
		case "backspace":
			if len(item.value) > 0 {
				item.value = item.value[:len(item.value)-1]
			}
		case "ctrl+u":
			item.value = ""
		default:
			if msg.Type == tea.KeyRunes {
				item.value += string(msg.Runes)
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "enter", " ":
		if item.cursor >= 0 && item.cursor < len(item.options) {
			item.value = item.options[item.cursor].value
		}
		item.editing = false
		m.state = stateMenu
		m.cursor++

	case "esc":
		item.editing = false
		m.state = stateMenu

	case "up", "k":
		if item.cursor > 0 {
			item.cursor--
		}

	case "down", "j":
		if item.cursor < len(item.options)-1 {
			item.cursor++
		}
	}
	return m, nil
}

func (m wizardModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Weekly Update"))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Amounts are added to this week's totals.") + "\n\n")

	for i, item := range m.items {
		isActive := m.cursor == i

		if i == idxSave {
			b.WriteString("\n")
			if isActive {
				b.WriteString("  " + buttonStyle.Render(" Save "))
			} else {
				b.WriteString("  " + buttonDimStyle.Render(" Save "))
			}
			b.WriteString("\n")
			continue
		}
		if i == idxProtectedEnergy {
			b.WriteString("\n" + sectionStyle.Render("Self-check") + "\n")
		}

		cursor := "  "
		if isActive {
			cursor = cursorStyle.Render("> ")
		}

		var value string
		switch {
		case item.editing && m.isTextInput(i):
			value = menuValueStyle.Render(item.value + "_")
		case item.value == "" && m.isTextInput(i):
			value = menuValueDimStyle.Render("+0 (" + item.hint + ")")
		case item.value == "":
			value = menuValueDimStyle.Render("(not answered)")
		default:
			display := item.value
			for _, opt := range item.options {
				if opt.value == item.value {
					display = opt.label
					break
				}
			}
			if m.isTextInput(i) {
				display = "+" + display
			}
			value = menuValueStyle.Render(display)
		}

		b.WriteString(cursor + menuLabelStyle.Render(item.label) + " " + value + "\n")

		if item.editing && len(item.options) > 0 {
			for j, opt := range item.options {
				if j == item.cursor {
					b.WriteString(selectedOptionStyle.Render("> "+opt.label) + "\n")
				} else {
					b.WriteString(optionStyle.Render("  "+opt.label) + "\n")
				}
			}
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.err.Error()) + "\n")
	}

	switch m.state {
	case stateMenu:
		b.WriteString(helpStyle.Render("  j/k or arrows to navigate | enter to edit | q to quit"))
	case stateEditing:
		if m.isTextInput(m.cursor) {
			b.WriteString(helpStyle.Render("  type amount | enter to confirm | esc to cancel | ctrl+u to clear"))
		} else {
			b.WriteString(helpStyle.Render("  j/k or arrows to pick | enter to select | esc to cancel"))
		}
	}
	b.WriteString("\n")

	return b.String()
}

func runUpdateWizard(t *progress.Tracker) (wizardEntry, error) {
	p := tea.NewProgram(newWizardModel(t), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return wizardEntry{}, fmt.Errorf("TUI error: %w", err)
	}

	final := result.(wizardModel)
	if final.cancelled || !final.confirmed {
		return wizardEntry{}, errors.New("update cancelled")
	}
	return final.entry, nil
}
