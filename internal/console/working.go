package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// working displays a spinner with the latest progress notice and the time
// spent on the current message.
type working struct {
	spinner spinner.Model
	label   string
	since   time.Time
}

func newWorking() working {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return working{spinner: sp, label: "Working..."}
}

// start resets the label and clock for a new message.
func (w working) start(now time.Time) working {
	w.label = "Working..."
	w.since = now
	return w
}

// relabel shows notice instead of the default label.
func (w working) relabel(notice string) working {
	if notice = strings.TrimSpace(notice); notice != "" {
		w.label = notice
	}
	return w
}

func (w working) Tick() tea.Cmd {
	return w.spinner.Tick
}

func (w working) Update(teaMsg tea.Msg) (working, tea.Cmd) {
	if tickMsg, ok := teaMsg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(tickMsg)

		return w, cmd
	}

	return w, nil
}

// View renders the spinner line. Elapsed time is computed at render time.
func (w working) View(now time.Time) string {
	var sb strings.Builder

	sb.WriteString(w.spinner.View())
	sb.WriteString(" ")
	sb.WriteString(Notice.Render(w.label))
	if !w.since.IsZero() {
		sb.WriteString(" ")
		sb.WriteString(Help.Render(fmt.Sprintf("(%s)", now.Sub(w.since).Truncate(time.Second))))
	}

	return sb.String()
}
