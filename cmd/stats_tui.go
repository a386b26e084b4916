// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shbatm/finitude/internal/store"
	"github.com/shbatm/finitude/pkg/infinity"
)

// Log entry shown in the event pane
type statsLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// TUI model
type statsModel struct {
	connInfo      string
	stats         *infinity.Statistics
	devices       *store.Store
	eventLog      []statsLogEntry
	maxLogEntries int
	synchronized  bool
	streamDone    bool
	streamErr     error
	width         int
	height        int
	quitting      bool
}

// Messages
type statsTickMsg time.Time
type frameMsg struct {
	frame     *infinity.Frame
	msg       *infinity.Message
	decodeErr error
}
type desyncMsg struct{}
type crcErrorMsg struct{}
type streamDoneMsg struct{ err error }

func initialStatsModel(connInfo string) statsModel {
	return statsModel{
		connInfo:      connInfo,
		stats:         infinity.NewStatistics(),
		devices:       store.New(),
		eventLog:      make([]statsLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m statsModel) Init() tea.Cmd {
	return tea.Batch(statsTickCmd(), tea.EnterAltScreen)
}

func statsTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return statsTickMsg(t)
	})
}

func (m statsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case statsTickMsg:
		m.stats.CalculateRates()
		return m, statsTickCmd()

	case desyncMsg:
		m.synchronized = false
		m.stats.Desyncs++
		m.addLogEntry("desynchronized, scanning for next frame", true)

	case crcErrorMsg:
		m.stats.ChecksumErrors++

	case streamDoneMsg:
		m.streamDone = true
		m.streamErr = msg.err
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("stream lost: %v", msg.err), true)
		} else {
			m.addLogEntry("end of stream", false)
		}

	case frameMsg:
		m.synchronized = true
		m.stats.Update(msg.msg, msg.decodeErr)
		if msg.decodeErr != nil {
			m.addLogEntry(fmt.Sprintf("dropped frame: %v", msg.decodeErr), true)
			break
		}
		if msg.msg != nil {
			m.devices.Apply(msg.msg)
			if msg.msg.Table != "" && len(msg.msg.Attributes) > 0 {
				m.addLogEntry(fmt.Sprintf("%s from %s", msg.msg.Table,
					infinity.AddressString(msg.msg.Source)), false)
			}
		}
	}

	return m, nil
}

func (m *statsModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, statsLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m statsModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	var b strings.Builder

	b.WriteString(titleStyle.Render("Finitude - Bus Statistics"))
	b.WriteByte('\n')
	syncState := "SCANNING"
	if m.synchronized {
		syncState = "SYNCHRONIZED"
	}
	if m.streamDone {
		syncState = "STREAM ENDED"
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s | %s | press q to quit", m.connInfo, syncState)))
	b.WriteString("\n\n")

	s := m.stats
	b.WriteString(labelStyle.Render("Frames: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d total, %d valid, %.1f/s", s.TotalFrames, s.ValidFrames, s.FrameRate)))
	b.WriteByte('\n')
	b.WriteString(labelStyle.Render("Errors: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d crc, %d desync, %d malformed, %.2f/s",
		s.ChecksumErrors, s.Desyncs, s.MalformedFrames, s.ErrorRate)))
	b.WriteByte('\n')
	b.WriteString(labelStyle.Render("Unknown: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d function codes, %d registers", s.UnknownFuncs, s.UnknownRegs)))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Devices"))
	b.WriteByte('\n')
	snapshot := m.devices.Snapshot()
	if len(snapshot) == 0 {
		b.WriteString(headerStyle.Render("  none seen yet"))
		b.WriteByte('\n')
	}
	for _, rec := range snapshot {
		age := time.Since(rec.LastSeen).Round(time.Second)
		b.WriteString(fmt.Sprintf("  %s %-10s last seen %s ago, %d attributes\n",
			infinity.AddressString(rec.Address),
			infinity.DeviceClassName(rec.Address),
			age, len(rec.Attributes)))
	}
	b.WriteByte('\n')

	b.WriteString(labelStyle.Render("Events"))
	b.WriteByte('\n')
	visible := m.height - lipgloss.Height(b.String()) - 2
	if visible < 3 {
		visible = 3
	}
	log := m.eventLog
	if len(log) > visible {
		log = log[len(log)-visible:]
	}
	for _, e := range log {
		line := fmt.Sprintf("  [%s] %s", e.timestamp.Format("15:04:05"), e.message)
		if e.isError {
			line = errorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String()
}

// runStatsTUI runs the stats terminal UI, feeding it from a reader
// goroutine
func runStatsTUI(conn io.ReadCloser, connInfo string) error {
	p := tea.NewProgram(initialStatsModel(connInfo))

	go func() {
		sync := infinity.NewSynchronizer(conn)
		sync.OnDesync = func() { p.Send(desyncMsg{}) }
		sync.OnChecksumError = func() { p.Send(crcErrorMsg{}) }
		dec := infinity.NewDecoder()
		for {
			frame, err := sync.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					p.Send(streamDoneMsg{})
				} else {
					p.Send(streamDoneMsg{err: err})
				}
				return
			}
			msg, decodeErr := dec.Decode(frame)
			p.Send(frameMsg{frame: frame, msg: msg, decodeErr: decodeErr})
		}
	}()

	_, err := p.Run()
	return err
}
