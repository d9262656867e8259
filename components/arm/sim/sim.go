// Package sim implements the arm API over an in-memory kinematic chain. Joint angles are changed
// either by manual edits or by the gradient descent solver, never both at once. The solver is
// advanced one step per Tick, either by the caller or by a background driver on a configurable
// clock, which allows completely deterministic tests.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"github.com/armsim/armsim/components/arm"
	"github.com/armsim/armsim/kinematics"
	"github.com/armsim/armsim/logging"
	"github.com/armsim/armsim/motionplan/ik"
	"github.com/armsim/armsim/referenceframe"
	"github.com/armsim/armsim/utils"
)

var (
	// ErrSolverRunning is returned when the angles are changed while a search owns them.
	ErrSolverRunning = errors.New("cannot change joints while a search is running")
	// ErrManualEditing is returned when a search or reconfiguration is requested during a manual edit.
	ErrManualEditing = errors.New("cannot start while joints are being edited manually")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("arm is closed")
)

// DefaultStepInterval is the cadence of the background driver.
const DefaultStepInterval = 5 * time.Millisecond

// Ownership tells who may change the joint angles.
type Ownership int

const (
	// Idle means nobody holds the angles; manual edits and searches may start.
	Idle Ownership = iota
	// ManualEditing means a manual edit session holds the angles.
	ManualEditing
	// SolverRunning means a search holds the angles.
	SolverRunning
)

func (o Ownership) String() string {
	switch o {
	case Idle:
		return "idle"
	case ManualEditing:
		return "manual_editing"
	case SolverRunning:
		return "solver_running"
	default:
		return "unknown"
	}
}

// Config controls the background driver.
type Config struct {
	// StepInterval is how often the background driver steps the solver. Zero disables the driver,
	// in which case the owner must call Tick, or MoveToPoint steps synchronously.
	StepInterval time.Duration
	// Clock drives the background driver. Nil means the wall clock.
	Clock clock.Clock
}

// Arm is a simulated arm that owns a chain, a forward kinematics engine and a solver.
type Arm struct {
	chain   *referenceframe.Chain
	options ik.Options
	logger  logging.Logger

	// lifetime management
	closed atomic.Bool
	ctx    context.Context
	cancel func()
	driver utils.StoppableWorkers

	// operational properties
	mu         sync.Mutex
	ownership  Ownership
	engine     *kinematics.Engine
	solver     *ik.Solver
	lastResult ik.StepResult
}

var _ arm.Arm = (*Arm)(nil)

// NewArm returns an idle arm over chain.
func NewArm(chain *referenceframe.Chain, options ik.Options, cfg Config, logger logging.Logger) (*Arm, error) {
	if chain == nil {
		return nil, referenceframe.ErrEmptyChain
	}
	if logger == nil {
		logger = logging.NewBlankLogger("sim")
	}
	ctx, cancel := context.WithCancel(context.Background())
	sa := &Arm{
		chain:      chain,
		options:    options,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		lastResult: ik.StepResult{Status: ik.Cancelled},
	}
	if err := sa.rebuild(); err != nil {
		cancel()
		return nil, err
	}

	if cfg.StepInterval > 0 {
		sa.driver = utils.NewStoppableWorkerWithTicker(cfg.StepInterval, cfg.Clock, func(_ context.Context) {
			if _, err := sa.tickIfRunning(); err != nil {
				sa.logger.Warnw("step failed", "error", err)
			}
		})
	}
	return sa, nil
}

// rebuild replaces the engine and solver after the chain geometry changed. Requires sa.mu or
// exclusive access.
func (sa *Arm) rebuild() error {
	engine, err := kinematics.NewEngine(sa.chain.Geometry())
	if err != nil {
		return err
	}
	solver, err := ik.NewSolver(engine, sa.options, sa.logger.Sublogger("ik"))
	if err != nil {
		return err
	}
	sa.engine = engine
	sa.solver = solver
	return nil
}

// Geometry returns a snapshot of the chain's geometry and angles. Changes to the snapshot do not
// reach the arm; joints are only changed through the arm so that ownership is respected.
func (sa *Arm) Geometry() *referenceframe.Geometry {
	return sa.chain.Geometry()
}

// String prints the joint table of the chain.
func (sa *Arm) String() string {
	return sa.chain.String()
}

// Ownership returns who currently holds the joint angles.
func (sa *Arm) Ownership() Ownership {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	return sa.ownership
}

// LastStatus returns the outcome of the most recent search step, ik.Cancelled before the first search.
func (sa *Arm) LastStatus() ik.Status {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	return sa.lastResult.Status
}

// LastResult returns the most recent search step.
func (sa *Arm) LastResult() ik.StepResult {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	res := sa.lastResult
	res.Angles = append([]float64(nil), res.Angles...)
	return res
}

func (sa *Arm) setOwnership(o Ownership) {
	if sa.ownership != o {
		sa.logger.Debugw("ownership changed", "from", sa.ownership.String(), "to", o.String())
		sa.ownership = o
	}
}

// BeginManualEdit hands the angles to a manual edit session. It fails while a search is running.
func (sa *Arm) BeginManualEdit() error {
	if sa.closed.Load() {
		return ErrClosed
	}
	sa.mu.Lock()
	defer sa.mu.Unlock()
	if sa.ownership == SolverRunning {
		return ErrSolverRunning
	}
	sa.setOwnership(ManualEditing)
	return nil
}

// EndManualEdit ends a manual edit session. It is a no-op otherwise.
func (sa *Arm) EndManualEdit() {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	if sa.ownership == ManualEditing {
		sa.setOwnership(Idle)
	}
}

// SetJointAngle sets joint i, clamped into its limit. It is rejected while a search is running.
func (sa *Arm) SetJointAngle(i int, angle float64) error {
	if sa.closed.Load() {
		return ErrClosed
	}
	sa.mu.Lock()
	defer sa.mu.Unlock()
	if sa.ownership == SolverRunning {
		return ErrSolverRunning
	}
	return sa.chain.SetAngle(i, angle)
}

// MoveToJointPositions sets every joint angle at once. It is rejected while a search is running.
func (sa *Arm) MoveToJointPositions(ctx context.Context, positions []float64) error {
	if sa.closed.Load() {
		return ErrClosed
	}
	sa.mu.Lock()
	defer sa.mu.Unlock()
	if sa.ownership == SolverRunning {
		return ErrSolverRunning
	}
	return sa.chain.SetAngles(positions)
}

// Configure replaces the static geometry of joint i. It is only allowed while idle.
func (sa *Arm) Configure(i int, axis, pivot r3.Vector, minAngle, maxAngle float64) error {
	if sa.closed.Load() {
		return ErrClosed
	}
	sa.mu.Lock()
	defer sa.mu.Unlock()
	switch sa.ownership {
	case SolverRunning:
		return ErrSolverRunning
	case ManualEditing:
		return ErrManualEditing
	case Idle:
	}
	if err := sa.chain.Configure(i, axis, pivot, minAngle, maxAngle); err != nil {
		return err
	}
	return sa.rebuild()
}

// StartMoveToPoint starts a search for target from the current angles and returns immediately. It
// is only allowed while idle.
func (sa *Arm) StartMoveToPoint(target r3.Vector) error {
	if sa.closed.Load() {
		return ErrClosed
	}
	sa.mu.Lock()
	defer sa.mu.Unlock()
	switch sa.ownership {
	case SolverRunning:
		return ErrSolverRunning
	case ManualEditing:
		return ErrManualEditing
	case Idle:
	}
	if err := sa.solver.Start(target, sa.chain.Angles(), 0); err != nil {
		return err
	}
	sa.lastResult = ik.StepResult{Angles: sa.chain.Angles(), Status: ik.Running}
	sa.setOwnership(SolverRunning)
	return nil
}

// Tick advances a running search by one step and applies the resulting angles to the chain as a
// whole. It returns ik.ErrInvalidState if no search is running.
func (sa *Arm) Tick() (ik.StepResult, error) {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	if sa.ownership != SolverRunning {
		return ik.StepResult{}, ik.ErrInvalidState
	}
	return sa.step()
}

func (sa *Arm) tickIfRunning() (ik.StepResult, error) {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	if sa.ownership != SolverRunning {
		return ik.StepResult{}, nil
	}
	return sa.step()
}

// step requires sa.mu and SolverRunning ownership.
func (sa *Arm) step() (ik.StepResult, error) {
	res, err := sa.solver.Step()
	if err != nil {
		sa.solver.Cancel()
		sa.setOwnership(Idle)
		return res, err
	}
	if err := sa.chain.SetAngles(res.Angles); err != nil {
		sa.solver.Cancel()
		sa.setOwnership(Idle)
		return res, err
	}
	sa.lastResult = res
	if res.Status.Terminal() {
		sa.logger.Infow("search ended", "status", res.Status.String(), "distance", res.Distance)
		sa.setOwnership(Idle)
	}
	return res, nil
}

// MoveToPoint starts a search and blocks until it ends. Without a background driver the search is
// stepped on the calling goroutine. If ctx is done first the search is stopped and the context
// error returned.
func (sa *Arm) MoveToPoint(ctx context.Context, target r3.Vector) (ik.Status, error) {
	if err := sa.StartMoveToPoint(target); err != nil {
		return ik.Cancelled, err
	}
	sa.logger.CDebugw(ctx, "moving to point", "target", target, "seed", sa.chain.Angles(), "driven", sa.driver != nil)

	for {
		select {
		case <-ctx.Done():
			// Command cancelation.
			sa.stopSearch()
			return ik.Cancelled, ctx.Err()
		case <-sa.ctx.Done():
			// `Close` was called.
			return ik.Cancelled, ErrClosed
		default:
		}

		if sa.driver == nil {
			res, err := sa.Tick()
			if err != nil {
				if errors.Is(err, ik.ErrInvalidState) {
					// stopped from another goroutine
					return sa.LastStatus(), nil
				}
				return res.Status, err
			}
			if res.Status.Terminal() {
				return res.Status, nil
			}
			continue
		}

		// Poll for completion.
		sa.mu.Lock()
		ownership, status := sa.ownership, sa.lastResult.Status
		sa.mu.Unlock()
		if ownership != SolverRunning {
			return status, nil
		}
		goutils.SelectContextOrWait(ctx, time.Millisecond)
	}
}

// JointPositions returns a copy of the current joint angles.
func (sa *Arm) JointPositions(ctx context.Context) ([]float64, error) {
	return sa.chain.Angles(), nil
}

// JointPoses evaluates forward kinematics at the current angles.
func (sa *Arm) JointPoses(ctx context.Context) (*kinematics.ChainPose, error) {
	sa.mu.Lock()
	engine := sa.engine
	sa.mu.Unlock()
	return engine.Compute(sa.chain.Angles())
}

// EndPosition returns the current tool position.
func (sa *Arm) EndPosition(ctx context.Context) (r3.Vector, error) {
	sa.mu.Lock()
	engine := sa.engine
	sa.mu.Unlock()
	return engine.ToolPosition(sa.chain.Angles())
}

// IsMoving reports whether a search is running.
func (sa *Arm) IsMoving(ctx context.Context) (bool, error) {
	return sa.Ownership() == SolverRunning, nil
}

// Stop cancels a running search. The angles of the last applied step stand.
func (sa *Arm) Stop(ctx context.Context) error {
	sa.stopSearch()
	return nil
}

func (sa *Arm) stopSearch() {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	// Only record the cancellation if we are moving. Otherwise the information that distinguishes
	// whether the search ended on its own or was stopped is lost.
	if sa.ownership != SolverRunning {
		return
	}
	sa.solver.Cancel()
	sa.lastResult.Status = ik.Cancelled
	sa.setOwnership(Idle)
}

// Close stops any search and the background driver.
func (sa *Arm) Close(ctx context.Context) error {
	sa.closed.Store(true)
	sa.cancel()
	if sa.driver != nil {
		sa.driver.Stop()
	}
	sa.stopSearch()
	return nil
}
