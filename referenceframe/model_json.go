package referenceframe

import (
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/armsim/armsim/spatialmath"
)

//go:embed kinematics/*.json
var variantFiles embed.FS

// DefaultVariant is the robot model used when none is named.
const DefaultVariant = "irb6700"

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// ChainConfig represents all supported fields in a kinematics file.
type ChainConfig struct {
	Name        string        `json:"name" yaml:"name"`
	Joints      []JointConfig `json:"joints" yaml:"joints"`
	Tool        ToolConfig    `json:"tool" yaml:"tool"`
	Attachments []Attachment  `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// JointConfig describes one joint. Axis and Pivot are in the reference frame; Min and Max in degrees.
type JointConfig struct {
	ID    string    `json:"id" yaml:"id"`
	Axis  r3.Vector `json:"axis" yaml:"axis"`
	Pivot r3.Vector `json:"pivot" yaml:"pivot"`
	Min   float64   `json:"min" yaml:"min"`
	Max   float64   `json:"max" yaml:"max"`
}

// ToolConfig selects the tool reference. Type "bounds_corner" uses Min and Max as the terminal link's
// box; type "point" uses Point.
type ToolConfig struct {
	Type  string     `json:"type" yaml:"type" jsonschema:"enum=bounds_corner,enum=point"`
	Min   *r3.Vector `json:"min,omitempty" yaml:"min,omitempty"`
	Max   *r3.Vector `json:"max,omitempty" yaml:"max,omitempty"`
	Point *r3.Vector `json:"point,omitempty" yaml:"point,omitempty"`
}

// ParseConfig converts the tool config into a ToolReference.
func (cfg ToolConfig) ParseConfig() (ToolReference, error) {
	switch cfg.Type {
	case BoundsCornerTool, "":
		if cfg.Min == nil || cfg.Max == nil {
			return nil, errors.New("bounds_corner tool needs min and max")
		}
		box, err := spatialmath.NewBoundingBox(*cfg.Min, *cfg.Max)
		if err != nil {
			return nil, err
		}
		return BoundsCornerReference{Box: box}, nil
	case PointTool:
		if cfg.Point == nil {
			return nil, errors.New("point tool needs a point")
		}
		return PointReference{Point: *cfg.Point}, nil
	default:
		return nil, NewUnsupportedToolError(cfg.Type)
	}
}

// ParseConfig converts the ChainConfig struct into a Chain with the name chainName. The name from the
// config is used if chainName is empty. Every invalid joint is reported.
func (cfg *ChainConfig) ParseConfig(chainName string) (*Chain, error) {
	if chainName == "" {
		chainName = cfg.Name
	}
	tool, err := cfg.Tool.ParseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "invalid tool")
	}
	joints := make([]Joint, 0, len(cfg.Joints))
	for _, jc := range cfg.Joints {
		joints = append(joints, Joint{
			Name:  jc.ID,
			Axis:  jc.Axis,
			Pivot: jc.Pivot,
			Limit: Limit{Min: jc.Min, Max: jc.Max},
		})
	}
	return NewChain(chainName, joints, tool, cfg.Attachments)
}

// UnmarshalChainJSON will parse the given JSON data into a chain. chainName sets the name of the
// chain, the name from the JSON is used if it is empty.
func UnmarshalChainJSON(jsonData []byte, chainName string) (*Chain, error) {
	// empty data probably means that the arm has no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}
	cfg := &ChainConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return cfg.ParseConfig(chainName)
}

// UnmarshalChainYAML is UnmarshalChainJSON for YAML documents.
func UnmarshalChainYAML(yamlData []byte, chainName string) (*Chain, error) {
	if len(yamlData) == 0 {
		return nil, ErrNoModelInformation
	}
	cfg := &ChainConfig{}
	if err := yaml.Unmarshal(yamlData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal yaml file")
	}
	return cfg.ParseConfig(chainName)
}

// ParseChainFile will read a given file and parse the contained chain, choosing the format from the
// file extension.
func ParseChainFile(filename, chainName string) (*Chain, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read kinematics file")
	}
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		return UnmarshalChainJSON(data, chainName)
	case ".yaml", ".yml":
		return UnmarshalChainYAML(data, chainName)
	default:
		return nil, errors.Errorf("unsupported kinematics file extension %q", ext)
	}
}

// Variant returns a new chain for one of the built-in robot models.
func Variant(name string) (*Chain, error) {
	data, err := variantFiles.ReadFile("kinematics/" + name + ".json")
	if err != nil {
		return nil, errors.Errorf("unknown robot variant %q, known variants are %v", name, VariantNames())
	}
	return UnmarshalChainJSON(data, "")
}

// VariantNames lists the built-in robot models.
func VariantNames() []string {
	entries, err := variantFiles.ReadDir("kinematics")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// LoadChain resolves a variant name or a kinematics file path into a chain.
func LoadChain(nameOrPath string) (*Chain, error) {
	if nameOrPath == "" {
		nameOrPath = DefaultVariant
	}
	if ext := filepath.Ext(nameOrPath); ext == "" {
		return Variant(nameOrPath)
	}
	return ParseChainFile(nameOrPath, "")
}

// validateVariants reports every built-in variant that fails to parse.
func validateVariants() error {
	var err error
	for _, name := range VariantNames() {
		if _, vErr := Variant(name); vErr != nil {
			err = multierr.Append(err, errors.Wrap(vErr, name))
		}
	}
	return err
}
