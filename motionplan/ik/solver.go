// Package ik contains tools to numerically solve for joint angles that bring a chain's tool to a
// target point.
package ik

import (
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/armsim/armsim/logging"
	"github.com/armsim/armsim/referenceframe"
)

// ErrInvalidState is returned by Step when no search is running and by Start when one already is.
var ErrInvalidState = errors.New("invalid solver state")

// Kinematics is what the solver needs from a forward kinematics engine.
type Kinematics interface {
	DoF() []referenceframe.Limit
	ToolPosition(angles []float64) (r3.Vector, error)
}

// Status describes the outcome of a step.
type Status int

const (
	// Running means the search continues; call Step again.
	Running Status = iota
	// Reached means the tool is within the distance threshold of the target.
	Reached
	// Stalled means an update left every joint angle unchanged.
	Stalled
	// Exhausted means the iteration budget ran out. This is a normal outcome, not an error.
	Exhausted
	// Cancelled means Cancel was called.
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Reached:
		return "reached"
	case Stalled:
		return "stalled"
	case Exhausted:
		return "exhausted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the search is over.
func (s Status) Terminal() bool {
	return s != Running
}

// StepResult is the outcome of one Step.
type StepResult struct {
	// Angles is a copy of the angle vector after the step.
	Angles []float64
	Status Status
	// Distance is the last measured distance between the tool and the target.
	Distance float64
}

// Solver searches for joint angles by gradient descent on the distance between the tool and a
// target, estimating each partial derivative by a forward finite difference. The search advances
// one bounded iteration per call to Step so that a driver can run it at a fixed cadence.
type Solver struct {
	fk     Kinematics
	limits []referenceframe.Limit
	opts   Options
	logger logging.Logger

	mu         sync.Mutex
	running    bool
	target     r3.Vector
	metric     StateMetric
	angles     []float64
	remaining  int
	iterations int
}

// NewSolver creates a solver over the given kinematics. Invalid options, including a zero sampling
// distance, are rejected here. If options.MaxIterations is less than 1 it is set to the default of
// 5000.
func NewSolver(fk Kinematics, options Options, logger logging.Logger) (*Solver, error) {
	if fk == nil {
		return nil, errors.New("solver needs kinematics")
	}
	if logger == nil {
		logger = logging.NewBlankLogger("ik")
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if options.MaxIterations < 1 {
		options.MaxIterations = defaultMaxIterations
	}
	limits := fk.DoF()
	if len(limits) == 0 {
		return nil, referenceframe.ErrEmptyChain
	}
	return &Solver{fk: fk, limits: limits, opts: options, logger: logger}, nil
}

// Options returns the options the solver was built with.
func (s *Solver) Options() Options {
	return s.opts
}

// Start begins a search for target from angles, clamped into the joint limits. A maxIterations less
// than 1 uses the solver's configured budget.
func (s *Solver) Start(target r3.Vector, angles []float64, maxIterations int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.Wrap(ErrInvalidState, "a search is already running")
	}
	seed, err := referenceframe.ClampAngles(angles, s.limits)
	if err != nil {
		return err
	}
	if maxIterations < 1 {
		maxIterations = s.opts.MaxIterations
	}
	s.running = true
	s.target = target
	s.metric = NewPositionOnlyMetric(target)
	s.angles = seed
	s.remaining = maxIterations
	s.iterations = 0
	s.logger.Debugw("starting search", "target", target, "seed", seed, "max_iterations", maxIterations)
	return nil
}

// Step runs one iteration. It returns ErrInvalidState if no search is running. Reached, Stalled and
// Exhausted end the search.
func (s *Solver) Step() (StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return StepResult{}, ErrInvalidState
	}

	dist, err := s.distance(s.angles)
	if err != nil {
		s.running = false
		return StepResult{}, err
	}
	if dist < s.opts.DistanceThreshold {
		return s.finish(Reached, dist), nil
	}

	oldAngles := append([]float64(nil), s.angles...)
	for i := range s.angles {
		// dist is the distance at the current angles, the starting point of the difference
		deriv, err := s.partialGradient(i, dist)
		if err != nil {
			s.running = false
			return StepResult{}, err
		}
		s.angles[i] -= s.opts.LearningRate * deriv
		s.angles[i] = s.limits[i].Clamp(s.angles[i])

		dist, err = s.distance(s.angles)
		if err != nil {
			s.running = false
			return StepResult{}, err
		}
		if dist < s.opts.DistanceThreshold {
			return s.finish(Reached, dist), nil
		}
		if floats.Equal(oldAngles, s.angles) {
			return s.finish(Stalled, dist), nil
		}
	}

	s.iterations++
	s.remaining--
	if s.remaining <= 0 {
		return s.finish(Exhausted, dist), nil
	}
	return StepResult{Angles: append([]float64(nil), s.angles...), Status: Running, Distance: dist}, nil
}

// Cancel ends a running search. The angles of the last completed update stand. It is a no-op when
// idle.
func (s *Solver) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		s.remaining = 0
		s.logger.Debugw("search cancelled", "target", s.target, "iterations", s.iterations)
	}
}

// Running reports whether a search is in progress.
func (s *Solver) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Remaining returns the iterations left in the budget of the current search.
func (s *Solver) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Angles returns a copy of the solver's current angle vector.
func (s *Solver) Angles() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.angles...)
}

func (s *Solver) finish(status Status, dist float64) StepResult {
	s.running = false
	s.logger.Debugw("search finished",
		"target", s.target, "status", status.String(), "iterations", s.iterations, "distance", dist)
	return StepResult{Angles: append([]float64(nil), s.angles...), Status: status, Distance: dist}
}

// partialGradient estimates the derivative of the distance with respect to angle i as
// (f(x+h) - f(x)) / h, where fx is f(x). The angle is restored before returning.
func (s *Solver) partialGradient(i int, fx float64) (float64, error) {
	angle := s.angles[i]
	s.angles[i] += s.opts.SamplingDistance
	fxh, err := s.distance(s.angles)
	s.angles[i] = angle
	if err != nil {
		return 0, err
	}
	return (fxh - fx) / s.opts.SamplingDistance, nil
}

func (s *Solver) distance(angles []float64) (float64, error) {
	pos, err := s.fk.ToolPosition(angles)
	if err != nil {
		return 0, err
	}
	return s.metric(&State{Position: pos}), nil
}
