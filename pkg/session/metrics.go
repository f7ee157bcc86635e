package session

import (
	"gonum.org/v1/gonum/stat"

	"fibertracts/internal/models"
	"fibertracts/pkg/tensor"
)

// Metrics summarises the active tract set after a run.
type Metrics struct {
	// TotalFibers is the number of fibers in the model.
	TotalFibers int

	// ActiveFibers is the number of fibers in the active geometry.
	ActiveFibers int

	// SelectedFibers is the number of selected fibers.
	SelectedFibers int

	// MeanFA and StdDevFA describe fractional anisotropy over the active
	// points carrying a tensor.
	MeanFA   float64
	StdDevFA float64

	// MeanLength and StdDevLength describe the arc length of active fibers.
	MeanLength   float64
	StdDevLength float64
}

// fiberStats holds the values measured on one chunk of fibers.
type fiberStats struct {
	chunk   int
	fa      []float64
	lengths []float64
}

func (s *Session) calculateMetrics() Metrics {
	g, _ := s.model.ActiveGeometry()
	m := Metrics{
		TotalFibers:    s.model.NumberOfFibers(),
		ActiveFibers:   g.NumberOfFibers(),
		SelectedFibers: len(s.model.Selected()),
	}

	fa, lengths := measureFibers(g, s.params.NumCores)
	if len(fa) > 0 {
		m.MeanFA, m.StdDevFA = stat.MeanStdDev(fa, nil)
	}
	if len(lengths) > 0 {
		m.MeanLength, m.StdDevLength = stat.MeanStdDev(lengths, nil)
	}
	return m
}

// measureFibers computes per-point FA and per-fiber length, splitting the
// fibers into one chunk per worker. Results are concatenated in fiber order.
func measureFibers(g *models.Geometry, workers int) (fa, lengths []float64) {
	n := g.NumberOfFibers()
	if n == 0 {
		return nil, nil
	}
	workers = max(1, min(workers, n))
	size := (n + workers - 1) / workers
	hasTensors := g.HasTensors()

	resultChan := make(chan fiberStats)
	chunks := 0
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		go func(chunk, start, end int) {
			res := fiberStats{chunk: chunk}
			for i := start; i < end; i++ {
				res.lengths = append(res.lengths, g.FiberLength(i))
				if !hasTensors {
					continue
				}
				for _, pid := range g.Lines[i] {
					res.fa = append(res.fa, tensor.FractionalAnisotropy.Compute(g.Tensors[pid]))
				}
			}
			resultChan <- res
		}(chunks, start, end)
		chunks++
	}

	// Collect results
	results := make([]fiberStats, chunks)
	for i := 0; i < chunks; i++ {
		res := <-resultChan
		results[res.chunk] = res
	}
	for _, res := range results {
		fa = append(fa, res.fa...)
		lengths = append(lengths, res.lengths...)
	}
	return fa, lengths
}
