package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"
	"go.viam.com/test"

	"github.com/armsim/armsim/config"
	"github.com/armsim/armsim/kinematics"
	"github.com/armsim/armsim/logging"
	"github.com/armsim/armsim/motionplan/ik"
	"github.com/armsim/armsim/referenceframe"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runAppWithLog(t, args...)
	return out, err
}

func runAppWithLog(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"armsim"}, args...))
	return out.String(), errOut.String(), err
}

// loadedConfig runs the ik command with args and returns the config it would have used.
func loadedConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)
	var cfg *config.Config
	for _, cmd := range app.Commands {
		if cmd.Name == "ik" {
			cmd.Action = func(c *cli.Context) error {
				var err error
				cfg, _, err = loadConfig(c)
				return err
			}
		}
	}
	err := app.Run(append([]string{"armsim"}, args...))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldNotBeNil)
	return cfg
}

func reachableTarget(t *testing.T) string {
	t.Helper()
	chain, err := referenceframe.Variant("irb6700")
	test.That(t, err, test.ShouldBeNil)
	engine, err := kinematics.NewEngine(chain.Geometry())
	test.That(t, err, test.ShouldBeNil)
	target, err := engine.ToolPosition([]float64{20, -15, 10, 0, 15, 0})
	test.That(t, err, test.ShouldBeNil)
	return fmt.Sprintf("%f,%f,%f", target.X, target.Y, target.Z)
}

func TestVariantsCommand(t *testing.T) {
	out, err := runApp(t, "variants")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "irb6700")
	test.That(t, out, test.ShouldContainSubstring, "irb4600")
	test.That(t, out, test.ShouldContainSubstring, referenceframe.BoundsCornerTool)
}

func TestSchemaCommand(t *testing.T) {
	out, err := runApp(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "pivot")
	test.That(t, out, test.ShouldContainSubstring, referenceframe.PointTool)

	out, err = runApp(t, "schema", "solver")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "sampling_distance")

	_, err = runApp(t, "schema", "robot")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFKCommand(t *testing.T) {
	out, err := runApp(t, "fk")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "tool: (2008.000, -100.000, 2025.000)")

	out, err = runApp(t, "fk", "--angles", "10,0,0,0,0,0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "10.00")
	test.That(t, out, test.ShouldNotContainSubstring, "tool: (2008.000, -100.000, 2025.000)")

	out, logs, err := runAppWithLog(t, "fk", "--angles", "0,500,0,0,0,0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "60.00")
	test.That(t, logs, test.ShouldContainSubstring, "angle clamped into joint limit")

	_, err = runApp(t, "fk", "--angles", "0,0,0")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runApp(t, "fk", "--variant", "irb120")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIKCommand(t *testing.T) {
	out, err := runApp(t, "ik", "--target", reachableTarget(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "status: reached")
	test.That(t, out, test.ShouldContainSubstring, "joint travel: ")
	test.That(t, out, test.ShouldNotContainSubstring, "joint travel: 0.00")

	out, err = runApp(t, "ik", "--target", "100000,0,0", "--max-iterations", "1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "status: exhausted")

	out, err = runApp(t, "--debug", "ik", "--target", "100000,0,0", "--max-iterations", "2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "status: exhausted")

	_, err = runApp(t, "ik", "--target", "1,2")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runApp(t, "ik")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIKCommandWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armsim.json")
	cfg := `{"arm": "irb4600", "solver": {"max_iterations": 1}, "log_level": "error"}`
	test.That(t, os.WriteFile(path, []byte(cfg), 0o600), test.ShouldBeNil)

	out, err := runApp(t, "--config", path, "ik", "--target", "100000,0,0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "status: exhausted")
}

func TestStepIntervalOverride(t *testing.T) {
	target := []string{"--target", "1,2,3"}
	cfg := loadedConfig(t, append([]string{"ik"}, target...)...)
	test.That(t, cfg.StepInterval, test.ShouldEqual, time.Duration(0))

	path := filepath.Join(t.TempDir(), "armsim.json")
	test.That(t, os.WriteFile(path, []byte(`{"step_interval": "7ms"}`), 0o600), test.ShouldBeNil)
	cfg = loadedConfig(t, append([]string{"--config", path, "ik"}, target...)...)
	test.That(t, cfg.StepInterval, test.ShouldEqual, 7*time.Millisecond)

	cfg = loadedConfig(t, append([]string{"--config", path, "ik", "--step-interval", "2ms"}, target...)...)
	test.That(t, cfg.StepInterval, test.ShouldEqual, 2*time.Millisecond)
}

func TestSweepCommand(t *testing.T) {
	out, err := runApp(t, "sweep", "--count", "3", "--max-iterations", "20", "--bins", "2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Outcomes")
	test.That(t, out, test.ShouldContainSubstring, "steps per search")

	_, err = runApp(t, "sweep", "--count", "0")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPlotCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergence.png")
	out, err := runApp(t, "plot", "--target", reachableTarget(t), "--out", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "status: reached")

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bytes.HasPrefix(data, []byte("\x89PNG")), test.ShouldBeTrue)
}

func TestTraceSearch(t *testing.T) {
	chain, err := referenceframe.Variant("irb6700")
	test.That(t, err, test.ShouldBeNil)
	engine, err := kinematics.NewEngine(chain.Geometry())
	test.That(t, err, test.ShouldBeNil)
	target, err := engine.ToolPosition([]float64{20, -15, 10, 0, 15, 0})
	test.That(t, err, test.ShouldBeNil)

	logger := logging.NewTestLogger(t)
	res, distances, err := traceSearch(context.Background(), engine, target, chain.Angles(), ik.DefaultOptions(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Status, test.ShouldEqual, ik.Reached)
	test.That(t, len(distances), test.ShouldBeGreaterThan, 1)
	test.That(t, distances[len(distances)-1], test.ShouldBeLessThan, 20)
	test.That(t, distances[len(distances)-1], test.ShouldEqual, res.Distance)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, distances, err = traceSearch(ctx, engine, target, chain.Angles(), ik.DefaultOptions(), logger)
	test.That(t, err, test.ShouldEqual, context.Canceled)
	test.That(t, res.Status, test.ShouldEqual, ik.Cancelled)
	test.That(t, distances, test.ShouldBeEmpty)
}
