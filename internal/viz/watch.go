package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/sim"
)

type TickMsg time.Time

// WatchModel steps through the samples of a run.
type WatchModel struct {
	res       *sim.Result
	crossings []analysis.Crossing
	idx       int
	crossing  int
	playing   bool
	interval  time.Duration
	width     int
}

// NewWatchModel starts playing from the first sample. Crossings are visited
// in time order regardless of target.
func NewWatchModel(res *sim.Result, cs []analysis.Crossing, interval time.Duration) WatchModel {
	sorted := append([]analysis.Crossing(nil), cs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return WatchModel{
		res:       res,
		crossings: sorted,
		crossing:  -1,
		playing:   len(res.Samples) > 1,
		interval:  interval,
		width:     80,
	}
}

func (m WatchModel) Index() int    { return m.idx }
func (m WatchModel) Playing() bool { return m.playing }

func (m WatchModel) Current() sim.Sample {
	return m.res.Samples[m.idx]
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m WatchModel) Init() tea.Cmd {
	if m.playing {
		return m.tick()
	}
	return nil
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	last := len(m.res.Samples) - 1

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.playing = !m.playing
			if m.playing {
				if m.idx >= last {
					m.idx = 0
				}
				return m, m.tick()
			}
		case "right", "l":
			m.playing = false
			m.idx = min(m.idx+1, last)
		case "left", "h":
			m.playing = false
			m.idx = max(m.idx-1, 0)
		case "home", "g":
			m.playing = false
			m.idx = 0
			m.crossing = -1
		case "n":
			if m.crossing+1 < len(m.crossings) {
				m.playing = false
				m.crossing++
				m.idx = m.sampleAt(m.crossings[m.crossing].Time)
			}
		case "p":
			if m.crossing > 0 {
				m.playing = false
				m.crossing--
				m.idx = m.sampleAt(m.crossings[m.crossing].Time)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case TickMsg:
		if !m.playing {
			return m, nil
		}
		if m.idx >= last {
			m.playing = false
			return m, nil
		}
		m.idx++
		return m, m.tick()
	}

	return m, nil
}

// sampleAt is the first sample at or after t.
func (m WatchModel) sampleAt(t float64) int {
	i := sort.SearchFloat64s(m.res.Times, t)
	return min(i, len(m.res.Samples)-1)
}

func (m WatchModel) View() string {
	var b strings.Builder
	s := m.Current()
	n := len(m.res.Samples)

	status := StatusRunning.Render("▶ playing")
	if !m.playing {
		status = StatusPaused.Render("❚❚ paused")
	}
	b.WriteString(TitleStyle.Render("linkage reactions") + "  " + status + "\n\n")

	progress := 0.0
	if n > 1 {
		progress = float64(m.idx) / float64(n-1)
	}
	fmt.Fprintf(&b, "%s %s  %d/%d\n\n", ProgressBar(progress, 30), MetricValue.Render(fmt.Sprintf("t = %.2f s", s.T)), m.idx+1, n)

	fmt.Fprintf(&b, "%s%s\n", MetricLabel.Render("ω1"), MetricValue.Render(fmt.Sprintf("%.3f rad/s", s.Omega1)))
	fmt.Fprintf(&b, "%s%s\n\n", MetricLabel.Render("ω2"), MetricValue.Render(fmt.Sprintf("%.3f rad/s", s.Omega2)))

	spark := min(max(m.width-40, 10), n)
	for _, c := range mechanism.Components {
		fmt.Fprintf(&b, "%s%s  %s\n",
			MetricLabel.Render(c.Label()),
			SignedValue(s.Get(c), "%12.4f N"),
			Sparkline(m.res.Series(c)[:m.idx+1], spark),
		)
	}

	if m.crossing >= 0 {
		c := m.crossings[m.crossing]
		fmt.Fprintf(&b, "\n%s %s = 0 at t = %.8f s (%d/%d)\n",
			CrossingMark.Render("◆"), c.Target, c.Time, m.crossing+1, len(m.crossings))
	} else if len(m.crossings) > 0 {
		fmt.Fprintf(&b, "\n%s\n", Subtle.Render(fmt.Sprintf("%d crossings, press n to jump", len(m.crossings))))
	}

	b.WriteString("\n" + KeyHint.Render("space play/pause · ←/→ step · n/p crossings · g start · q quit"))
	return Panel.Render(b.String())
}
