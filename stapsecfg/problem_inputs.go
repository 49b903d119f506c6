// Package stapsecfg decodes and validates the problem-inputs document of
// spec.md §6 and builds the domain objects (model.Catalog, motion-planner
// memoizers) the rest of the module operates on. JSON decoding itself uses
// the standard library's encoding/json rather than a corpus dependency:
// spec.md §1 places "JSON serialization plumbing" outside the core's scope,
// so there is no in-scope component for a third-party codec to serve —
// validation (the part that *is* in scope) still goes through
// hashicorp/go-multierror, matching hashicorp-nomad's config-validation
// style of collecting every error before reporting instead of failing on
// the first one found.
package stapsecfg

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/copystructure"

	"github.com/grstapse-go/stapse/geom"
	"github.com/grstapse-go/stapse/graphcore"
	"github.com/grstapse-go/stapse/model"
	"github.com/grstapse-go/stapse/motionplan"
)

// ConfigurationDoc is the JSON rendering of a geom.Configuration: exactly
// one of its variant fields is populated, discriminated by Variant.
type ConfigurationDoc struct {
	Variant string  `json:"variant"` // "euclidean_vertex", "se2", "se3"
	ID      string  `json:"id,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Z       float64 `json:"z,omitempty"`
	Yaw     float64 `json:"yaw,omitempty"`
	QW      float64 `json:"qw,omitempty"`
	QX      float64 `json:"qx,omitempty"`
	QY      float64 `json:"qy,omitempty"`
	QZ      float64 `json:"qz,omitempty"`
}

// ToConfiguration converts the wire form to a geom.Configuration.
func (c ConfigurationDoc) ToConfiguration() (geom.Configuration, error) {
	switch c.Variant {
	case "euclidean_vertex":
		return geom.EuclideanVertex{ID: c.ID, X: c.X, Y: c.Y}, nil
	case "se2":
		return geom.SE2State{X: c.X, Y: c.Y, Yaw: c.Yaw}, nil
	case "se3":
		return geom.SE3State{X: c.X, Y: c.Y, Z: c.Z, QW: c.QW, QX: c.QX, QY: c.QY, QZ: c.QZ}, nil
	default:
		return nil, fmt.Errorf("stapsecfg: unknown configuration variant %q", c.Variant)
	}
}

// EdgeDoc is one undirected edge of an EuclideanGraphMotionPlanner's
// environment.
type EdgeDoc struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// MotionPlannerDoc is the wire form of one of spec.md §6's motion-planner
// specs. Only config_type "CompleteEuclideanGraphMotionPlanner" is built by
// this package: the OMPL-backed and sampled-graph variants are named in
// spec.md §1/§6 as external collaborators whose contracts this design
// specifies but does not implement.
type MotionPlannerDoc struct {
	ConfigType string             `json:"config_type"`
	SpeciesID  string             `json:"species_id"`
	Speed      float64            `json:"speed"`
	Vertices   []ConfigurationDoc `json:"vertices"`
	Edges      []EdgeDoc          `json:"edges"`
}

// SpeciesDoc is the wire form of one species spec.
type SpeciesDoc struct {
	ID     string    `json:"id"`
	Traits []float64 `json:"traits"`
}

// RobotDoc is the wire form of `robots[]`.
type RobotDoc struct {
	Name                string           `json:"name"`
	InitialConfiguration ConfigurationDoc `json:"initial_configuration"`
	Species             string           `json:"species"`
}

// TaskAssociationDoc is the wire form of one `task_associations` entry.
type TaskAssociationDoc struct {
	DesiredTraits          []float64        `json:"desired_traits"`
	LinearQualityCoefficients []float64     `json:"linear_quality_coefficients"`
	InitialConfiguration   ConfigurationDoc `json:"initial_configuration"`
	TerminalConfiguration  ConfigurationDoc `json:"terminal_configuration"`
	StaticDuration         float64          `json:"static_duration"`
}

// PrecedencePairDoc is one entry of an (optional) explicit precedence list.
type PrecedencePairDoc struct {
	Pred string `json:"pred"`
	Succ string `json:"succ"`
}

// ITAGSParametersDoc is the wire form of `itags_parameters` (spec.md §6).
type ITAGSParametersDoc struct {
	Timeout               float64 `json:"timeout"`
	HasTimeout            bool    `json:"has_timeout"`
	Alpha                 float64 `json:"alpha"`
	UseReverse            bool    `json:"use_reverse"`
	SaveClosedNodes       bool    `json:"save_closed_nodes"`
	SavePrunedNodes       bool    `json:"save_pruned_nodes"`
	ReturnFeasibleOnTimeout bool  `json:"return_feasible_on_timeout"`
}

// SchedulerParametersDoc is the wire form of `scheduler_parameters`.
type SchedulerParametersDoc struct {
	Timeout              float64 `json:"timeout"`
	MipGap               float64 `json:"mip_gap"`
	Threads              int     `json:"threads"`
	NumScenarios         int     `json:"num_scenarios"`
	Beta                 int     `json:"beta"`
	Gamma                float64 `json:"gamma"`
	MilpSchedulerType    string  `json:"milp_scheduler_type"`
	UseSPRT              bool    `json:"use_sprt"`
	Delta                float64 `json:"delta"`
	DeltaPercentage      float64 `json:"delta_percentage"`
	IndifferenceTolerance float64 `json:"indifference_tolerance"`
}

// ProblemInputs is the decoded, not-yet-validated top-level document.
type ProblemInputs struct {
	MotionPlanners     []MotionPlannerDoc            `json:"motion_planners"`
	Species            []SpeciesDoc                  `json:"species"`
	Robots             []RobotDoc                     `json:"robots"`
	TaskAssociations   map[string]TaskAssociationDoc  `json:"task_associations"`
	Precedence         []PrecedencePairDoc            `json:"precedence,omitempty"`
	ITAGSParameters    ITAGSParametersDoc              `json:"itags_parameters"`
	SchedulerParameters SchedulerParametersDoc         `json:"scheduler_parameters"`
}

// Load reads and decodes a problem-inputs document from path.
func Load(path string) (ProblemInputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProblemInputs{}, fmt.Errorf("stapsecfg: read problem inputs: %w", err)
	}
	var doc ProblemInputs
	if err := json.Unmarshal(data, &doc); err != nil {
		return ProblemInputs{}, fmt.Errorf("stapsecfg: decode problem inputs: %w", err)
	}
	return doc, nil
}

// Clone deep-copies doc, so a caller handing independent document copies to
// parallel scenario solves (one monolithic/HA pool slot per goroutine, per
// spec.md §4.6's Q_f scenario pool) can mutate or rebuild each copy's
// motion-planner graphs without the slices and maps underlying
// doc.MotionPlanners/doc.TaskAssociations aliasing across slots.
func (doc ProblemInputs) Clone() (ProblemInputs, error) {
	cloned, err := copystructure.Copy(doc)
	if err != nil {
		return ProblemInputs{}, fmt.Errorf("stapsecfg: clone problem inputs: %w", err)
	}
	return cloned.(ProblemInputs), nil
}

// Validate aggregates every structural problem in doc instead of returning
// on the first one, so a malformed problem-inputs document reports all of
// its defects in one pass.
func (doc ProblemInputs) Validate() error {
	var errs *multierror.Error

	speciesIDs := make(map[string]bool, len(doc.Species))
	for _, sp := range doc.Species {
		if sp.ID == "" {
			errs = multierror.Append(errs, fmt.Errorf("species entry missing id"))
			continue
		}
		speciesIDs[sp.ID] = true
	}

	for _, r := range doc.Robots {
		if r.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("robot entry missing name"))
		}
		if !speciesIDs[r.Species] {
			errs = multierror.Append(errs, fmt.Errorf("robot %q references unknown species %q", r.Name, r.Species))
		}
	}

	for name, t := range doc.TaskAssociations {
		if len(t.LinearQualityCoefficients) != 0 && len(t.LinearQualityCoefficients) != len(t.DesiredTraits) {
			errs = multierror.Append(errs, fmt.Errorf("task %q: %d desired traits but %d linear coefficients", name, len(t.DesiredTraits), len(t.LinearQualityCoefficients)))
		}
	}

	for _, mp := range doc.MotionPlanners {
		if !speciesIDs[mp.SpeciesID] {
			errs = multierror.Append(errs, fmt.Errorf("motion planner references unknown species %q", mp.SpeciesID))
		}
	}

	return errs.ErrorOrNil()
}

// BuildCatalog converts doc's species/robots/task_associations into a
// model.Catalog, after Validate has already been checked by the caller.
func (doc ProblemInputs) BuildCatalog() (*model.Catalog, error) {
	species := make([]model.Species, len(doc.Species))
	for i, sp := range doc.Species {
		species[i] = model.Species{ID: sp.ID, Traits: sp.Traits}
	}

	robots := make([]model.Robot, len(doc.Robots))
	for i, r := range doc.Robots {
		cfg, err := r.InitialConfiguration.ToConfiguration()
		if err != nil {
			return nil, fmt.Errorf("stapsecfg: robot %q: %w", r.Name, err)
		}
		robots[i] = model.Robot{ID: r.Name, SpeciesID: r.Species, Start: cfg}
	}

	tasks := make([]model.Task, 0, len(doc.TaskAssociations))
	for name, t := range doc.TaskAssociations {
		initial, err := t.InitialConfiguration.ToConfiguration()
		if err != nil {
			return nil, fmt.Errorf("stapsecfg: task %q initial configuration: %w", name, err)
		}
		terminal, err := t.TerminalConfiguration.ToConfiguration()
		if err != nil {
			return nil, fmt.Errorf("stapsecfg: task %q terminal configuration: %w", name, err)
		}
		tasks = append(tasks, model.Task{
			ID:                name,
			DesiredTraits:     t.DesiredTraits,
			LinearCoefficient: t.LinearQualityCoefficients,
			Initial:           initial,
			Terminal:          terminal,
			StaticDuration:    t.StaticDuration,
		})
	}

	return model.NewCatalog(species, robots, tasks)
}

// BuildMemoizer constructs a motionplan.Memoizer by building one
// motionplan.GraphPlanner per "CompleteEuclideanGraphMotionPlanner" spec and
// registering it under its species ID.
func (doc ProblemInputs) BuildMemoizer() (*motionplan.Memoizer, error) {
	mem := motionplan.NewMemoizer()
	for _, mp := range doc.MotionPlanners {
		if mp.ConfigType != "CompleteEuclideanGraphMotionPlanner" {
			continue // other config_types are external collaborators, see spec.md §1
		}
		g := graphcore.New(graphcore.WithDirected(false))
		for _, v := range mp.Vertices {
			if v.Variant != "euclidean_vertex" {
				return nil, fmt.Errorf("stapsecfg: motion planner %q: non-euclidean vertex in a euclidean graph planner", mp.SpeciesID)
			}
			if err := g.AddVertex(v.ID); err != nil {
				return nil, fmt.Errorf("stapsecfg: motion planner %q: %w", mp.SpeciesID, err)
			}
		}
		for _, e := range mp.Edges {
			if _, err := g.AddEdge(e.From, e.To, e.Weight); err != nil {
				return nil, fmt.Errorf("stapsecfg: motion planner %q edge %s->%s: %w", mp.SpeciesID, e.From, e.To, err)
			}
		}
		mem.Register(mp.SpeciesID, motionplan.GraphPlanner{Graph: g, Speed: mp.Speed})
	}
	return mem, nil
}
