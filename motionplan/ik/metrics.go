package ik

import (
	"github.com/golang/geo/r3"
)

// State is what a metric scores: the tool position a configuration produces.
type State struct {
	Position r3.Vector
}

// StateMetric are functions which, given a State, produces some score. Lower is better.
// This is used for gradient descent to converge upon a goal position, for example.
type StateMetric func(*State) float64

// NewPositionOnlyMetric returns a metric which returns the euclidean distance between the tool
// position and the goal.
func NewPositionOnlyMetric(goal r3.Vector) StateMetric {
	return func(state *State) float64 {
		return state.Position.Distance(goal)
	}
}
