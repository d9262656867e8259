package cli

import (
	"context"
	"io"
	"math/rand"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/armsim/armsim/kinematics"
	"github.com/armsim/armsim/logging"
	"github.com/armsim/armsim/motionplan/ik"
)

// traceSearch runs a search to its end and returns the final result along with the distance
// reported by every step.
func traceSearch(
	ctx context.Context,
	fk ik.Kinematics,
	target r3.Vector,
	seed []float64,
	opts ik.Options,
	logger logging.Logger,
) (ik.StepResult, []float64, error) {
	solver, err := ik.NewSolver(fk, opts, logger)
	if err != nil {
		return ik.StepResult{}, nil, err
	}
	if err := solver.Start(target, seed, 0); err != nil {
		return ik.StepResult{}, nil, err
	}
	var distances []float64
	for {
		if err := ctx.Err(); err != nil {
			solver.Cancel()
			return ik.StepResult{Angles: solver.Angles(), Status: ik.Cancelled}, distances, err
		}
		res, err := solver.Step()
		if err != nil {
			return res, distances, err
		}
		distances = append(distances, res.Distance)
		if res.Status.Terminal() {
			return res, distances, nil
		}
	}
}

// sweepResult collects the outcome of one search per generated target.
type sweepResult struct {
	statuses  map[ik.Status]int
	steps     []float64
	distances []float64
}

// sweep generates count targets by evaluating random joint angles within +/-spread degrees and
// solves each from the rest pose, running up to parallel searches at once.
func sweep(
	ctx context.Context,
	engine *kinematics.Engine,
	opts ik.Options,
	count int,
	spread float64,
	parallel int,
	rng *rand.Rand,
	logger logging.Logger,
) (*sweepResult, error) {
	if count < 1 {
		return nil, errors.New("count must be at least 1")
	}
	if parallel < 1 {
		parallel = 1
	}
	limits := engine.DoF()
	rest := make([]float64, len(limits))

	// targets are drawn up front so the outcome does not depend on scheduling
	targets := make([]r3.Vector, count)
	for n := range targets {
		angles := make([]float64, len(limits))
		for i, l := range limits {
			angles[i] = l.Clamp((2*rng.Float64() - 1) * spread)
		}
		target, err := engine.ToolPosition(angles)
		if err != nil {
			return nil, err
		}
		targets[n] = target
	}

	finals := make([]ik.StepResult, count)
	steps := make([]int, count)
	searches, searchCtx := errgroup.WithContext(ctx)
	searches.SetLimit(parallel)
	for n, target := range targets {
		n, target := n, target
		searches.Go(func() error {
			res, distances, err := traceSearch(searchCtx, engine, target, rest, opts, logger)
			if err != nil {
				return err
			}
			logger.Debugw("sweep target solved", "target", target, "status", res.Status.String(), "steps", len(distances))
			finals[n] = res
			steps[n] = len(distances)
			return nil
		})
	}
	if err := searches.Wait(); err != nil {
		return nil, err
	}

	result := &sweepResult{statuses: map[ik.Status]int{}}
	for n, res := range finals {
		result.statuses[res.Status]++
		result.steps = append(result.steps, float64(steps[n]))
		result.distances = append(result.distances, res.Distance)
	}
	return result, nil
}

// writeReport prints the outcome counts, summary statistics and a histogram of steps per search.
func (r *sweepResult) writeReport(w io.Writer, bins int) error {
	outcomes := table.NewWriter()
	outcomes.SetTitle("Outcomes")
	outcomes.AppendHeader(table.Row{"Status", "Count"})
	for _, s := range []ik.Status{ik.Reached, ik.Stalled, ik.Exhausted, ik.Cancelled} {
		outcomes.AppendRow(table.Row{s.String(), r.statuses[s]})
	}
	if _, err := io.WriteString(w, outcomes.Render()+"\n"); err != nil {
		return err
	}

	summary := table.NewWriter()
	summary.SetTitle("Summary")
	summary.AppendHeader(table.Row{"", "Mean", "Median", "Std Dev", "Max"})
	for _, row := range []struct {
		name string
		data []float64
	}{
		{"steps", r.steps},
		{"distance", r.distances},
	} {
		mean, err := stats.Mean(row.data)
		if err != nil {
			return err
		}
		median, err := stats.Median(row.data)
		if err != nil {
			return err
		}
		sd, err := stats.StandardDeviation(row.data)
		if err != nil {
			return err
		}
		maxVal, err := stats.Max(row.data)
		if err != nil {
			return err
		}
		summary.AppendRow(table.Row{
			row.name,
			formatStat(mean), formatStat(median), formatStat(sd), formatStat(maxVal),
		})
	}
	if _, err := io.WriteString(w, summary.Render()+"\n\nsteps per search\n"); err != nil {
		return err
	}

	if bins < 1 {
		bins = 1
	}
	hist := histogram.Hist(bins, r.steps)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}

// writeConvergencePlot renders distance against step with the reach threshold as a PNG.
func writeConvergencePlot(w io.Writer, title string, distances []float64, threshold float64) error {
	if len(distances) == 0 {
		return errors.New("no steps to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "step"
	p.Y.Label.Text = "distance (mm)"

	pts := make(plotter.XYs, len(distances))
	for i, d := range distances {
		pts[i].X = float64(i + 1)
		pts[i].Y = d
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)

	limit := plotter.NewFunction(func(float64) float64 { return threshold })
	limit.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(limit)
	p.Legend.Add("distance", line)
	p.Legend.Add("threshold", limit)

	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
