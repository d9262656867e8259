package cli

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/armsim/armsim/motionplan/ik"
	"github.com/armsim/armsim/referenceframe"
)

const (
	schemaKinematics = "kinematics"
	schemaSolver     = "solver"
)

// schemas maps each printable schema to its reflected definition. Solver attributes are all
// optional since unset ones keep their defaults.
var schemas = map[string]func() *jsonschema.Schema{
	schemaKinematics: func() *jsonschema.Schema {
		return jsonschema.Reflect(&referenceframe.ChainConfig{})
	},
	schemaSolver: func() *jsonschema.Schema {
		r := &jsonschema.Reflector{RequiredFromJSONSchemaTags: true}
		return r.Reflect(&ik.Options{})
	},
}

// SchemaAction prints the JSON schema of a kinematics file or of the solver attributes of a config.
func SchemaAction(c *cli.Context) error {
	kind := c.Args().First()
	if kind == "" {
		kind = schemaKinematics
	}
	reflect, ok := schemas[kind]
	if !ok {
		return errors.Errorf("unknown schema %q, expected %q or %q", kind, schemaKinematics, schemaSolver)
	}
	out, err := json.MarshalIndent(reflect(), "", "  ")
	if err != nil {
		return err
	}
	printf(c, "%s", out)
	return nil
}
