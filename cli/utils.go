package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/armsim/armsim/config"
	"github.com/armsim/armsim/logging"
)

// parseFloats parses a comma separated list of numbers. An empty string is an empty list.
func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := lo.Map(strings.Split(s, ","), func(f string, _ int) string {
		return strings.TrimSpace(f)
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid number %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseVector(s string) (r3.Vector, error) {
	vals, err := parseFloats(s)
	if err != nil {
		return r3.Vector{}, err
	}
	if len(vals) != 3 {
		return r3.Vector{}, errors.Errorf("point %q must have the form x,y,z", s)
	}
	return r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func formatAngles(angles []float64) string {
	return strings.Join(lo.Map(angles, func(a float64, _ int) string {
		return strconv.FormatFloat(a, 'f', 2, 64)
	}), ", ")
}

func printf(c *cli.Context, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(c.App.Writer, format+"\n", a...)
}

// loadConfig reads the --config file, or the defaults without one, applies the command's overrides
// and returns a logger writing to the app's error writer.
func loadConfig(c *cli.Context) (*config.Config, logging.Logger, error) {
	logger := logging.NewBlankLogger("armsim")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(logging.INFO)
	if c.Bool(generalFlagDebug) {
		logger.SetLevel(logging.DEBUG)
	}

	var cfg *config.Config
	var err error
	if path := c.String(generalFlagConfig); path != "" {
		cfg, err = config.Read(path, logger)
	} else {
		cfg, err = config.FromReader("", strings.NewReader("{}"), logger)
	}
	if err != nil {
		return nil, nil, err
	}
	if !c.Bool(generalFlagDebug) {
		level, err := cfg.Level()
		if err != nil {
			return nil, nil, err
		}
		logger.SetLevel(level)
	}

	if c.IsSet(armFlagVariant) {
		cfg.Arm = c.String(armFlagVariant)
	}
	if c.IsSet(armFlagMaxIterations) {
		if cfg.Solver == nil {
			cfg.Solver = map[string]interface{}{}
		}
		cfg.Solver["max_iterations"] = c.Int(armFlagMaxIterations)
	}
	switch {
	case c.IsSet(armFlagStepInterval):
		cfg.StepInterval = c.Duration(armFlagStepInterval)
	case c.String(generalFlagConfig) == "":
		// without a config file searches step on the calling goroutine
		cfg.StepInterval = 0
	}
	return cfg, logger, nil
}
