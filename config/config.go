// Package config defines the structures to configure the arm simulator and the ability to read
// them from a JSON file. Environment variables in the file are expanded before decoding.
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/armsim/armsim/components/arm/sim"
	"github.com/armsim/armsim/logging"
	"github.com/armsim/armsim/motionplan/ik"
	"github.com/armsim/armsim/referenceframe"
)

// Config describes how to build a simulated arm.
type Config struct {
	ConfigFilePath string `json:"-"`

	// Arm is a built-in variant name or a path to a JSON or YAML kinematics file.
	Arm string `json:"arm"`
	// Solver holds solver attributes, decoded into ik.Options by SolverOptions.
	Solver map[string]interface{} `json:"solver"`
	// StepInterval is the background driver cadence, written as a Go duration string. Zero disables
	// the driver.
	StepInterval time.Duration `json:"step_interval"`
	LogLevel     string        `json:"log_level"`
}

// Read reads a config from the given file.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies where, if applicable, the file the
// reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}

	cfg := &Config{
		ConfigFilePath: originalPath,
		Arm:            referenceframe.DefaultVariant,
		StepInterval:   sim.DefaultStepInterval,
		LogLevel:       "info",
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      cfg,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "failed to process Config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debugw("read config", "path", originalPath, "arm", cfg.Arm, "step_interval", cfg.StepInterval)
	return cfg, nil
}

// Validate returns every problem with the config.
func (c *Config) Validate() error {
	var err error
	if c.Arm == "" {
		err = multierr.Append(err, errors.New("arm must name a variant or a kinematics file"))
	}
	if _, solverErr := c.SolverOptions(); solverErr != nil {
		err = multierr.Append(err, errors.Wrap(solverErr, "solver"))
	}
	if c.StepInterval < 0 {
		err = multierr.Append(err, errors.Errorf("step_interval %v cannot be negative", c.StepInterval))
	}
	if _, levelErr := c.Level(); levelErr != nil {
		err = multierr.Append(err, levelErr)
	}
	return err
}

// SolverOptions decodes the solver attributes over the default options.
func (c *Config) SolverOptions() (ik.Options, error) {
	opts := ik.DefaultOptions()
	if len(c.Solver) == 0 {
		return opts, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &opts,
		ErrorUnused: true,
	})
	if err != nil {
		return ik.Options{}, err
	}
	if err := decoder.Decode(c.Solver); err != nil {
		return ik.Options{}, errors.Wrap(ik.ErrBadOption, err.Error())
	}
	return opts, opts.Validate()
}

// Level returns the configured log level.
func (c *Config) Level() (logging.Level, error) {
	return logging.LevelFromString(c.LogLevel)
}

// SimConfig returns the background driver settings.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{StepInterval: c.StepInterval}
}

// BuildArm loads the configured chain and returns a simulated arm over it.
func (c *Config) BuildArm(logger logging.Logger) (*sim.Arm, error) {
	chain, err := referenceframe.LoadChain(c.Arm)
	if err != nil {
		return nil, err
	}
	opts, err := c.SolverOptions()
	if err != nil {
		return nil, err
	}
	return sim.NewArm(chain, opts, c.SimConfig(), logger)
}
