package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hacksync/internal/codec"
	"github.com/roach88/hacksync/internal/model"
	"github.com/roach88/hacksync/internal/state"
)

// InitialSeed starts a scenario from the bundled seed dataset.
const InitialSeed = "seed"

// Scenario is one replayable intent sequence with its checks.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Initial selects the starting dataset: "" for empty, "seed" for the
	// bundled seed run through the hydration pipeline.
	Initial string `yaml:"initial,omitempty"`

	// IDs are handed out, in order, to entities added without an id. Once
	// exhausted the harness falls back to gen-1, gen-2, ...
	IDs []string `yaml:"ids,omitempty"`

	// Setup steps run before the flow and are not traced.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow steps are traced and may carry expectations.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and dataset.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one intent in YAML form. Which fields matter depends on Op, as
// with state.Intent.
type Step struct {
	Op        string         `yaml:"op"`
	Kind      string         `yaml:"kind,omitempty"`
	ID        string         `yaml:"id,omitempty"`
	Value     any            `yaml:"value,omitempty"`
	Fields    map[string]any `yaml:"fields,omitempty"`
	Project   string         `yaml:"project,omitempty"`
	Challenge string         `yaml:"challenge,omitempty"`
	Phase     string         `yaml:"phase,omitempty"`

	// Expect is checked right after the step ran (flow only).
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause checks the immediate outcome of a step.
type ExpectClause struct {
	// Changed is the expected success flag.
	Changed *bool `yaml:"changed,omitempty"`

	// Announced, when set, is the expected Phase.Announced after the step.
	Announced *bool `yaml:"announced,omitempty"`

	// VotingOpen, when set, is the expected Phase.VotingOpen after the step.
	VotingOpen *bool `yaml:"voting_open,omitempty"`
}

// Assertion validates the trace or the final dataset.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Intent is the intent string (used by trace_contains, trace_count).
	Intent string `yaml:"intent,omitempty"`

	// Intents is the expected order (used by trace_order).
	Intents []string `yaml:"intents,omitempty"`

	// Count is the expected number (used by trace_count and count).
	Count int `yaml:"count,omitempty"`

	// Collection names a snapshot field in wire form: projects, attendees,
	// challenges, bounties, goodies, faq, phase or winners.
	Collection string `yaml:"collection,omitempty"`

	// Where selects exactly one row of a list collection (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect holds the expected field values (final_state), subset match.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertCount         = "count"
	AssertInvariants    = "invariants"
)

var collections = []string{"projects", "attendees", "challenges", "bounties", "goodies", "faq", "phase", "winners"}

var listCollections = collections[:6]

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Initial != "" && s.Initial != InitialSeed {
		return fmt.Errorf("initial must be empty or %q, got %q", InitialSeed, s.Initial)
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is only allowed in flow", i)
		}
		if _, err := step.Intent(); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	for i, step := range s.Flow {
		if _, err := step.Intent(); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Intent == "" {
			return fmt.Errorf("assertions[%d]: intent is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Intents) == 0 {
			return fmt.Errorf("assertions[%d]: intents list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Intent == "" {
			return fmt.Errorf("assertions[%d]: intent is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if !slices.Contains(collections, a.Collection) {
			return fmt.Errorf("assertions[%d]: unknown collection %q", index, a.Collection)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		if slices.Contains(listCollections, a.Collection) && len(a.Where) == 0 {
			return fmt.Errorf("assertions[%d]: where is required for final_state on %s", index, a.Collection)
		}
	case AssertCount:
		if !slices.Contains(listCollections, a.Collection) {
			return fmt.Errorf("assertions[%d]: count needs a list collection, got %q", index, a.Collection)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertInvariants:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// Intent converts the step into a state.Intent.
func (s Step) Intent() (state.Intent, error) {
	kind := state.Kind(s.Kind)
	needKind := func() error {
		if !slices.Contains(state.Kinds, kind) {
			return fmt.Errorf("%s: unknown kind %q", s.Op, s.Kind)
		}
		return nil
	}
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("%s: %s is required", s.Op, field)
		}
		return nil
	}

	switch state.Op(s.Op) {
	case state.OpAdd, state.OpReplace:
		if err := needKind(); err != nil {
			return state.Intent{}, err
		}
		if s.Value == nil {
			return state.Intent{}, fmt.Errorf("%s: value is required", s.Op)
		}
		data, err := json.Marshal(s.Value)
		if err != nil {
			return state.Intent{}, fmt.Errorf("%s: encode value: %w", s.Op, err)
		}
		if state.Op(s.Op) == state.OpAdd {
			return state.AddJSON(kind, data)
		}
		return state.ReplaceJSON(kind, data)

	case state.OpPatch:
		if err := needKind(); err != nil {
			return state.Intent{}, err
		}
		if err := need("id", s.ID); err != nil {
			return state.Intent{}, err
		}
		if len(s.Fields) == 0 {
			return state.Intent{}, fmt.Errorf("patch: fields are required")
		}
		return state.Patch(kind, s.ID, s.Fields), nil

	case state.OpRemove:
		if err := needKind(); err != nil {
			return state.Intent{}, err
		}
		if err := need("id", s.ID); err != nil {
			return state.Intent{}, err
		}
		return state.Remove(kind, s.ID), nil

	case state.OpReplaceAll:
		if s.Value == nil {
			return state.Intent{}, fmt.Errorf("replace_all: value is required")
		}
		data, err := json.Marshal(s.Value)
		if err != nil {
			return state.Intent{}, fmt.Errorf("replace_all: encode value: %w", err)
		}
		snap, err := codec.Decode(data)
		if err != nil {
			return state.Intent{}, fmt.Errorf("replace_all: %w", err)
		}
		return state.ReplaceAll(snap), nil

	case state.OpAssignChallengeWinner:
		if err := errorsOf(need("challenge", s.Challenge), need("project", s.Project)); err != nil {
			return state.Intent{}, err
		}
		return state.AssignChallengeWinner(model.ChallengeKind(s.Challenge), s.Project), nil

	case state.OpClearChallengeWinner:
		if err := need("challenge", s.Challenge); err != nil {
			return state.Intent{}, err
		}
		return state.ClearChallengeWinner(model.ChallengeKind(s.Challenge)), nil

	case state.OpAssignBountyWinner:
		if err := errorsOf(need("id", s.ID), need("project", s.Project)); err != nil {
			return state.Intent{}, err
		}
		return state.AssignBountyWinner(s.ID, s.Project), nil

	case state.OpClearBountyWinner:
		if err := need("id", s.ID); err != nil {
			return state.Intent{}, err
		}
		return state.ClearBountyWinner(s.ID), nil

	case state.OpPhase:
		if err := need("phase", s.Phase); err != nil {
			return state.Intent{}, err
		}
		return state.SetPhase(state.PhaseAction(s.Phase)), nil

	case state.OpClaimBounty, state.OpReleaseBounty:
		if err := errorsOf(need("id", s.ID), need("project", s.Project)); err != nil {
			return state.Intent{}, err
		}
		if state.Op(s.Op) == state.OpClaimBounty {
			return state.ClaimBounty(s.ID, s.Project), nil
		}
		return state.ReleaseBounty(s.ID, s.Project), nil

	case state.OpCompleteBounty:
		if err := need("id", s.ID); err != nil {
			return state.Intent{}, err
		}
		return state.CompleteBounty(s.ID), nil

	case "":
		return state.Intent{}, fmt.Errorf("op is required")
	}
	return state.Intent{}, fmt.Errorf("unknown op %q", s.Op)
}

func errorsOf(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
