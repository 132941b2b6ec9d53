// Package config provides configuration loading and access for the hive simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Vision strategy names accepted by vision.strategy.
const (
	VisionMono   = "mono"
	VisionStereo = "stereo"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Hive       HiveConfig       `yaml:"hive"`
	Home       HomeConfig       `yaml:"home"`
	Playground PlaygroundConfig `yaml:"playground"`
	Body       BodyConfig       `yaml:"body"`
	Actuation  ActuationConfig  `yaml:"actuation"`
	Vision     VisionConfig     `yaml:"vision"`
	Neural     NeuralConfig     `yaml:"neural"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Storage    StorageConfig    `yaml:"storage"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// HiveConfig holds population and day-length parameters.
type HiveConfig struct {
	Population                 int     `yaml:"population"`                    // Forced even
	MovesBeforeFirstGeneration int     `yaml:"moves_before_first_generation"` // Budget of generation 1
	GenerationGrowth           int     `yaml:"generation_growth"`             // Added to the budget after each generation
	DayLength                  int     `yaml:"day_length"`                    // Upper bound of the budget
	ReturnHomeMoves            int     `yaml:"return_home_moves"`             // Moves left when bees are sent home
	HomeTimeMinDay             int     `yaml:"home_time_min_day"`             // Budget needed before bees are ever sent home
	DawnTicks                  int     `yaml:"dawn_ticks"`                    // Ticks at the start of a day when nobody moves
	LeaveHomeBudget            int     `yaml:"leave_home_budget"`             // Ticks to leave home before Stalled (+10 per slot)
	NectarCapacity             int     `yaml:"nectar_capacity"`
	NectarPause                int     `yaml:"nectar_pause"` // Ticks a bee pauses after harvesting
	StallWindowBase            int     `yaml:"stall_window_base"`
	StallWindowPerSlot         int     `yaml:"stall_window_per_slot"`
	StallDistance              float64 `yaml:"stall_distance"` // Window displacement below this = stalled
	LazyDistance               float64 `yaml:"lazy_distance"`  // Distance from start considered "never left"
}

// HomeConfig describes the home zone geometry. The entrance line runs from
// (0, EntranceLineY0) with slope EntranceLineSlope.
type HomeConfig struct {
	ExitX             float64 `yaml:"exit_x"`              // Crossing this x = left home
	ColumnX           float64 `yaml:"column_x"`            // Exit column width used for navigation
	EntranceX         float64 `yaml:"entrance_x"`          // Bees left of this and below the line are inside
	EntranceLineY0    float64 `yaml:"entrance_line_y0"`
	EntranceLineSlope float64 `yaml:"entrance_line_slope"`
	WallX             float64 `yaml:"wall_x"`        // Hive wall column; the roof ends here
	ExitBottomY       float64 `yaml:"exit_bottom_y"` // The vertical hive wall starts here
	OuterTargetX      float64 `yaml:"outer_target_x"`
	OuterTargetY      float64 `yaml:"outer_target_y"`
	EntranceTargetX   float64 `yaml:"entrance_target_x"`
	EntranceTargetY   float64 `yaml:"entrance_target_y"`
	BedThreshold      float64 `yaml:"bed_threshold"`
	FacingAngle       float64 `yaml:"facing_angle"` // Home-facing heading in degrees
	SlotOriginX       float64 `yaml:"slot_origin_x"`
	SlotOriginY       float64 `yaml:"slot_origin_y"`
	SlotSpacingX      float64 `yaml:"slot_spacing_x"`
	SlotSpacingY      float64 `yaml:"slot_spacing_y"`
	SlotStagger       float64 `yaml:"slot_stagger"`
	NavigateTurn      float64 `yaml:"navigate_turn"` // Max degrees per tick while navigating
	OrientTurn        float64 `yaml:"orient_turn"`   // Max degrees per tick while orienting
	ClearThreshold    float64 `yaml:"clear_threshold"`
	MaxReturnSpeed    float64 `yaml:"max_return_speed"`
}

// PlaygroundConfig holds parameters of the default grid environment.
type PlaygroundConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	WallThickness float64 `yaml:"wall_thickness"`
	Trees         int     `yaml:"trees"`
	TreeRadius    int     `yaml:"tree_radius"`
	TreeMinX      int     `yaml:"tree_min_x"`
	Flowers       int     `yaml:"flowers"`
	FlowerRadius  int     `yaml:"flower_radius"`
	FlowerMinX    int     `yaml:"flower_min_x"`
	FlowerSpacing float64 `yaml:"flower_spacing"`
	HarvestRadius float64 `yaml:"harvest_radius"`
}

// BodyConfig holds bee body dimensions.
type BodyConfig struct {
	Size float64 `yaml:"size"`
}

// ActuationConfig holds how network outputs become wing flap rates.
type ActuationConfig struct {
	Amplification []float64 `yaml:"amplification"` // Per wing; zero entries drop an output neuron
	MinRate       float64   `yaml:"min_rate"`
	MaxRate       float64   `yaml:"max_rate"`
	SteeringGain  float64   `yaml:"steering_gain"` // Degrees per unit of (right - left)
	MinSpeed      float64   `yaml:"min_speed"`     // |speed| below this...
	FloorSpeed    float64   `yaml:"floor_speed"`   // ...is replaced with this
	LateralDrift  bool      `yaml:"lateral_drift"`
	DriftFactor   float64   `yaml:"drift_factor"` // 0 picks the vision strategy default
}

// VisionConfig holds vision sensor parameters.
type VisionConfig struct {
	Strategy      string  `yaml:"strategy"` // mono or stereo
	FOVStart      float64 `yaml:"fov_start"`
	FOVStop       float64 `yaml:"fov_stop"`
	SamplePoints  int     `yaml:"sample_points"`
	Depth         float64 `yaml:"depth"`
	Step          float64 `yaml:"step"`
	EyeForward    float64 `yaml:"eye_forward"`
	EyeSeparation float64 `yaml:"eye_separation"`
}

// NeuralConfig holds neural network parameters.
type NeuralConfig struct {
	HiddenLayers []int `yaml:"hidden_layers"` // Sizes of hidden layers, e.g. [10]
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	Percent   float64 `yaml:"percent"`
	Magnitude float64 `yaml:"magnitude"`
}

// ScoringConfig holds fitness weights.
type ScoringConfig struct {
	NectarWeight  float64 `yaml:"nectar_weight"`
	LeftHomeBonus float64 `yaml:"left_home_bonus"`
	SleepBonus    float64 `yaml:"sleep_bonus"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	LogEvery int `yaml:"log_every"` // Log a summary every N generations
}

// StorageConfig selects the generation history backend.
type StorageConfig struct {
	Kind string `yaml:"kind"` // memory or sqlite
	Path string `yaml:"path"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	VisionInputs int     // Inputs required by the vision strategy
	OutputCount  int     // Non-zero amplification channels
	Layers       []int   // VisionInputs, hidden..., OutputCount
	VisionAngle  float64 // Degrees between adjacent rays
	BodyRadius   float64 // Body.Size / 4
	SearchRadius float64 // Vision.Depth + BodyRadius
	DriftFactor  float64 // Actuation.DriftFactor or the strategy default
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults. Panics if they fail to parse.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	if c.Hive.Population < 2 {
		return fmt.Errorf("hive.population must be at least 2, got %d", c.Hive.Population)
	}
	if c.Vision.SamplePoints < 1 {
		return fmt.Errorf("vision.sample_points must be at least 1, got %d", c.Vision.SamplePoints)
	}
	if c.Vision.Depth < 1 {
		return fmt.Errorf("vision.depth must be at least 1, got %v", c.Vision.Depth)
	}
	if c.Vision.Step <= 0 {
		return fmt.Errorf("vision.step must be positive, got %v", c.Vision.Step)
	}
	switch c.Vision.Strategy {
	case VisionMono, VisionStereo:
	default:
		return fmt.Errorf("unknown vision.strategy %q", c.Vision.Strategy)
	}
	if len(c.Actuation.Amplification) != 2 {
		return fmt.Errorf("actuation.amplification needs one entry per wing, got %d", len(c.Actuation.Amplification))
	}
	if c.Mutation.Percent <= 0 || c.Mutation.Percent > 100 {
		return fmt.Errorf("mutation.percent must be in (0, 100], got %v", c.Mutation.Percent)
	}
	if c.Mutation.Magnitude <= 0 {
		return fmt.Errorf("mutation.magnitude must be positive, got %v", c.Mutation.Magnitude)
	}
	for _, n := range c.Neural.HiddenLayers {
		if n < 1 {
			return fmt.Errorf("neural.hidden_layers entries must be positive, got %d", n)
		}
	}
	return nil
}

// ComputeDerived calculates values derived from loaded config. It must be
// called again after editing fields in code.
func (c *Config) ComputeDerived() {
	// we cannot replace 50% of an odd population
	if c.Hive.Population%2 != 0 {
		c.Hive.Population++
	}

	// a start angle past the stop angle drags the stop angle with it
	if c.Vision.FOVStart > c.Vision.FOVStop {
		c.Vision.FOVStop = c.Vision.FOVStart
	}

	switch c.Vision.Strategy {
	case VisionStereo:
		c.Derived.VisionInputs = 2 * (2 * c.Vision.SamplePoints)
	default:
		c.Derived.VisionInputs = c.Vision.SamplePoints
	}

	c.Derived.OutputCount = 0
	for _, amp := range c.Actuation.Amplification {
		if amp != 0 {
			c.Derived.OutputCount++
		}
	}

	layers := make([]int, 0, len(c.Neural.HiddenLayers)+2)
	layers = append(layers, c.Derived.VisionInputs)
	layers = append(layers, c.Neural.HiddenLayers...)
	layers = append(layers, c.Derived.OutputCount)
	c.Derived.Layers = layers

	if c.Vision.SamplePoints == 1 {
		c.Derived.VisionAngle = 0
	} else {
		c.Derived.VisionAngle = (c.Vision.FOVStop - c.Vision.FOVStart) / float64(c.Vision.SamplePoints-1)
	}

	c.Derived.DriftFactor = c.Actuation.DriftFactor
	if c.Derived.DriftFactor == 0 {
		if c.Vision.Strategy == VisionStereo {
			c.Derived.DriftFactor = 2
		} else {
			c.Derived.DriftFactor = 5
		}
	}

	c.Derived.BodyRadius = float64(int(c.Body.Size / 4))
	c.Derived.SearchRadius = c.Vision.Depth + c.Derived.BodyRadius
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
