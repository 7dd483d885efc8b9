package panels

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/MoltOS/backend/internal/services/status"
)

// Series summarises one metric over the retained history
type Series struct {
	Current float64 `json:"current"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	P95     float64 `json:"p95"`
}

// MonitorView is what the Monitor app renders
type MonitorView struct {
	Status   status.Status `json:"status"`
	Samples  int           `json:"samples"`
	CPU      Series        `json:"cpu"`
	Memory   Series        `json:"memory"`
	Upload   Series        `json:"upload"`
	Download Series        `json:"download"`
}

// StatusSource is the simulator surface the monitor reads
type StatusSource interface {
	Current() status.Status
	History() []status.Status
}

// Monitor derives statistics from the shared status history
type Monitor struct {
	source StatusSource
}

// NewMonitor creates a monitor over source
func NewMonitor(source StatusSource) *Monitor {
	return &Monitor{source: source}
}

// View computes the current summary
func (m *Monitor) View() MonitorView {
	cur := m.source.Current()
	hist := m.source.History()

	cpu := make([]float64, len(hist))
	mem := make([]float64, len(hist))
	up := make([]float64, len(hist))
	down := make([]float64, len(hist))
	for i, s := range hist {
		cpu[i] = float64(s.CPU)
		mem[i] = float64(s.Memory)
		up[i] = s.Network.Upload
		down[i] = s.Network.Download
	}

	return MonitorView{
		Status:   cur,
		Samples:  len(hist),
		CPU:      summarize(cpu, float64(cur.CPU)),
		Memory:   summarize(mem, float64(cur.Memory)),
		Upload:   summarize(up, cur.Network.Upload),
		Download: summarize(down, cur.Network.Download),
	}
}

func summarize(xs []float64, current float64) Series {
	s := Series{Current: current}
	if len(xs) == 0 {
		return s
	}

	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return s
}
