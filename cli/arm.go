package cli

import (
	"math/rand"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/armsim/armsim/kinematics"
	"github.com/armsim/armsim/logging"
	"github.com/armsim/armsim/referenceframe"
	"github.com/armsim/armsim/spatialmath"
)

// VariantsAction lists the built-in robot variants with their rest tool positions.
func VariantsAction(c *cli.Context) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Variant", "Joints", "Tool", "Attachments", "Rest Tool Position"})
	for _, name := range referenceframe.VariantNames() {
		chain, err := referenceframe.Variant(name)
		if err != nil {
			return err
		}
		engine, err := kinematics.NewEngine(chain.Geometry())
		if err != nil {
			return err
		}
		rest, err := engine.ToolPosition(chain.Angles())
		if err != nil {
			return err
		}
		geometry := chain.Geometry()
		t.AppendRow(table.Row{name, chain.Len(), geometry.Tool.Type(), len(geometry.Attachments), formatVector(rest)})
	}
	printf(c, "%s", t.Render())
	return nil
}

// FKAction prints the joint table, the world position of every joint pivot and the tool position.
func FKAction(c *cli.Context) (err error) {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, logger.Sync())
	}()
	sa, err := cfg.BuildArm(logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, sa.Close(c.Context))
	}()

	angles, err := parseFloats(c.String(armFlagAngles))
	if err != nil {
		return err
	}
	if angles != nil {
		if err := sa.MoveToJointPositions(c.Context, angles); err != nil {
			return err
		}
		for i, l := range sa.Geometry().DoF() {
			if !l.Contains(angles[i]) {
				logger.Warnw("angle clamped into joint limit", "joint", i, "angle", angles[i], "limit", l.String())
			}
		}
	}
	poses, err := sa.JointPoses(c.Context)
	if err != nil {
		return err
	}

	geometry := sa.Geometry()
	pivots := table.NewWriter()
	pivots.AppendHeader(table.Row{"#", "Name", "World Pivot"})
	for i, j := range geometry.Joints {
		pivots.AppendRow(table.Row{i, j.Name, formatVector(spatialmath.TransformPoint(poses.Joints[i], j.Pivot))})
	}
	printf(c, "%s", sa.String())
	printf(c, "%s", pivots.Render())
	printf(c, "tool: %s", formatVector(poses.Tool))
	return nil
}

// IKAction searches for joint angles that bring the tool to the target and prints the outcome.
func IKAction(c *cli.Context) (err error) {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, logger.Sync())
	}()
	target, err := parseVector(c.String(armFlagTarget))
	if err != nil {
		return err
	}
	sa, err := cfg.BuildArm(logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, sa.Close(c.Context))
	}()

	seed, err := parseFloats(c.String(armFlagSeed))
	if err != nil {
		return err
	}
	if seed != nil {
		if err := sa.MoveToJointPositions(c.Context, seed); err != nil {
			return err
		}
	}
	start, err := sa.JointPositions(c.Context)
	if err != nil {
		return err
	}
	ctx := c.Context
	if c.Bool(generalFlagDebug) {
		ctx = logging.EnableDebugMode(ctx, "")
	}
	status, err := sa.MoveToPoint(ctx, target)
	if err != nil {
		return err
	}
	res := sa.LastResult()
	tool, err := sa.EndPosition(c.Context)
	if err != nil {
		return err
	}
	printf(c, "status: %s", status)
	printf(c, "distance: %s", strconv.FormatFloat(res.Distance, 'f', 3, 64))
	printf(c, "tool: %s", formatVector(tool))
	printf(c, "angles: %s", formatAngles(res.Angles))
	printf(c, "joint travel: %s", strconv.FormatFloat(referenceframe.AnglesL2Distance(start, res.Angles), 'f', 2, 64))
	return nil
}

// SweepAction solves a batch of random reachable targets and prints a summary.
func SweepAction(c *cli.Context) (err error) {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, logger.Sync())
	}()
	chain, err := referenceframe.LoadChain(cfg.Arm)
	if err != nil {
		return err
	}
	engine, err := kinematics.NewEngine(chain.Geometry())
	if err != nil {
		return err
	}
	opts, err := cfg.SolverOptions()
	if err != nil {
		return err
	}
	//nolint:gosec
	rng := rand.New(rand.NewSource(c.Int64(sweepFlagRandomSeed)))
	result, err := sweep(
		c.Context, engine, opts,
		c.Int(sweepFlagCount), c.Float64(sweepFlagSpread), c.Int(sweepFlagParallel),
		rng, logger.Sublogger("ik"),
	)
	if err != nil {
		return err
	}
	return result.writeReport(c.App.Writer, c.Int(sweepFlagBins))
}

// PlotAction writes a PNG of the distance to the target after every step of one search.
func PlotAction(c *cli.Context) (err error) {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, logger.Sync())
	}()
	target, err := parseVector(c.String(armFlagTarget))
	if err != nil {
		return err
	}
	chain, err := referenceframe.LoadChain(cfg.Arm)
	if err != nil {
		return err
	}
	seed, err := parseFloats(c.String(armFlagSeed))
	if err != nil {
		return err
	}
	if seed == nil {
		seed = chain.Angles()
	}
	engine, err := kinematics.NewEngine(chain.Geometry())
	if err != nil {
		return err
	}
	opts, err := cfg.SolverOptions()
	if err != nil {
		return err
	}
	res, distances, err := traceSearch(c.Context, engine, target, seed, opts, logger.Sublogger("ik"))
	if err != nil {
		return err
	}

	//nolint:gosec
	f, err := os.Create(c.String(plotFlagOut))
	if err != nil {
		return errors.Wrap(err, "could not create plot file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	title := chain.Name() + " to " + formatVector(target)
	if err := writeConvergencePlot(f, title, distances, opts.DistanceThreshold); err != nil {
		return err
	}
	printf(c, "status: %s after %d steps, distance %.3f", res.Status, len(distances), res.Distance)
	printf(c, "wrote %s", c.String(plotFlagOut))
	return nil
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
