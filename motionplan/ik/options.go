package ik

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	defaultLearningRate      = 0.01
	defaultSamplingDistance  = 0.15
	defaultDistanceThreshold = 20.
	defaultMaxIterations     = 5000
)

var (
	// ErrZeroSamplingDistance is returned when the finite difference step is zero, which would make
	// every gradient a division by zero.
	ErrZeroSamplingDistance = errors.New("sampling distance must be non-zero")
	// ErrBadOption is returned for any other unusable solver option.
	ErrBadOption = errors.New("invalid solver option")
)

// Options tune the gradient descent. Angles are in degrees and distances in millimeters.
type Options struct {
	// LearningRate scales each partial derivative into an angle update.
	LearningRate float64 `json:"learning_rate"`
	// SamplingDistance is the forward finite difference step, in degrees.
	SamplingDistance float64 `json:"sampling_distance"`
	// DistanceThreshold is how close the tool must come to the target to count as reached.
	DistanceThreshold float64 `json:"distance_threshold"`
	// MaxIterations is the budget used when Start is given none.
	MaxIterations int `json:"max_iterations"`
}

// DefaultOptions returns the options the solver uses unless told otherwise.
func DefaultOptions() Options {
	return Options{
		LearningRate:      defaultLearningRate,
		SamplingDistance:  defaultSamplingDistance,
		DistanceThreshold: defaultDistanceThreshold,
		MaxIterations:     defaultMaxIterations,
	}
}

// Validate returns every problem with the options.
func (o Options) Validate() error {
	var err error
	if o.SamplingDistance == 0 {
		err = multierr.Append(err, ErrZeroSamplingDistance)
	} else if !isFinite(o.SamplingDistance) {
		err = multierr.Append(err, errors.Wrapf(ErrBadOption, "sampling_distance %v", o.SamplingDistance))
	}
	if !isFinite(o.LearningRate) || o.LearningRate < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrBadOption, "learning_rate %v must be finite and non-negative", o.LearningRate))
	}
	if math.IsNaN(o.DistanceThreshold) || o.DistanceThreshold < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrBadOption, "distance_threshold %v must be non-negative", o.DistanceThreshold))
	}
	return err
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
