// Package cli contains the armsim command line actions.
package cli

import (
	"io"
	"runtime"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagConfig = "config"
	generalFlagDebug  = "debug"

	armFlagVariant       = "variant"
	armFlagAngles        = "angles"
	armFlagTarget        = "target"
	armFlagSeed          = "seed"
	armFlagMaxIterations = "max-iterations"
	armFlagStepInterval  = "step-interval"

	sweepFlagCount      = "count"
	sweepFlagSpread     = "spread"
	sweepFlagRandomSeed = "random-seed"
	sweepFlagBins       = "bins"
	sweepFlagParallel   = "parallel"

	plotFlagOut = "out"
)

var variantFlag = &cli.StringFlag{
	Name:    armFlagVariant,
	Aliases: []string{"a"},
	Usage:   "robot variant name or kinematics `FILE`, overriding the config",
}

var maxIterationsFlag = &cli.IntFlag{
	Name:  armFlagMaxIterations,
	Usage: "iteration budget of the search, overriding the config",
}

var seedFlag = &cli.StringFlag{
	Name:  armFlagSeed,
	Usage: "comma separated starting joint angles in degrees, defaults to the rest pose",
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "armsim",
		Usage:           "solve forward and inverse kinematics for simulated robot arms",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "variants",
				Usage:  "list the built-in robot variants",
				Action: VariantsAction,
			},
			{
				Name:      "schema",
				Usage:     "print the JSON schema of a kinematics file or of the solver attributes",
				ArgsUsage: "[kinematics|solver]",
				Action:    SchemaAction,
			},
			{
				Name:  "fk",
				Usage: "print the joint table and tool position for a set of joint angles",
				Flags: []cli.Flag{
					variantFlag,
					&cli.StringFlag{
						Name:  armFlagAngles,
						Usage: "comma separated joint angles in degrees, clamped into the joint limits",
					},
				},
				Action: FKAction,
			},
			{
				Name:  "ik",
				Usage: "search for joint angles that bring the tool to a target point",
				Flags: []cli.Flag{
					variantFlag,
					&cli.StringFlag{
						Name:     armFlagTarget,
						Aliases:  []string{"t"},
						Usage:    "target point as x,y,z",
						Required: true,
					},
					seedFlag,
					maxIterationsFlag,
					&cli.DurationFlag{
						Name:  armFlagStepInterval,
						Usage: "run the search on a background driver at this interval instead of stepping as fast as possible",
					},
				},
				Action: IKAction,
			},
			{
				Name:  "sweep",
				Usage: "solve random reachable targets from the rest pose and summarize the outcomes",
				Flags: []cli.Flag{
					variantFlag,
					maxIterationsFlag,
					&cli.IntFlag{
						Name:  sweepFlagCount,
						Usage: "number of targets",
						Value: 20,
					},
					&cli.Float64Flag{
						Name:  sweepFlagSpread,
						Usage: "largest absolute joint angle in degrees used to generate a target",
						Value: 30,
					},
					&cli.Int64Flag{
						Name:  sweepFlagRandomSeed,
						Usage: "seed of the target generator",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  sweepFlagBins,
						Usage: "histogram bins",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  sweepFlagParallel,
						Usage: "number of searches to run at once",
						Value: runtime.NumCPU(),
					},
				},
				Action: SweepAction,
			},
			{
				Name:  "plot",
				Usage: "plot the distance to the target after every step of a search",
				Flags: []cli.Flag{
					variantFlag,
					&cli.StringFlag{
						Name:     armFlagTarget,
						Aliases:  []string{"t"},
						Usage:    "target point as x,y,z",
						Required: true,
					},
					seedFlag,
					maxIterationsFlag,
					&cli.StringFlag{
						Name:     plotFlagOut,
						Aliases:  []string{"o"},
						Usage:    "PNG `FILE` to write",
						Required: true,
					},
				},
				Action: PlotAction,
			},
		},
	}
}
