package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: accounts created before
// the flow, the flow itself, and assertions on the store afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario; it doubles as the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Accounts are created before the flow runs. Creation is assumed to
	// succeed.
	Accounts []AccountSetup `yaml:"accounts,omitempty"`

	// Flow is the sequence of operations to execute.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final store state.
	Assertions []Assertion `yaml:"assertions"`
}

// AccountSetup declares one account to create during setup.
type AccountSetup struct {
	Name    string `yaml:"name"`
	Balance int64  `yaml:"balance"`
}

// FlowStep invokes one operation and validates its outcome.
type FlowStep struct {
	// Op is the operation name: transfer, create_account, counter_add,
	// or apply_interest.
	Op string `yaml:"op"`

	// Args holds the operation arguments. Accounts are referenced by
	// name.
	Args map[string]any `yaml:"args"`

	// Expect is the expected outcome: "ok" (or empty) for success,
	// otherwise an error code such as CONSTRAINT_VIOLATION.
	Expect string `yaml:"expect,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type is one of: balance, log_count, counter.
	Type string `yaml:"type"`

	// Account is the account name (balance).
	Account string `yaml:"account,omitempty"`

	// Name is the counter name (counter).
	Name string `yaml:"name,omitempty"`

	// Value is the expected balance or counter value.
	Value int64 `yaml:"value,omitempty"`

	// Count is the expected number of log entries (log_count).
	Count int64 `yaml:"count,omitempty"`
}

// Operation names accepted in FlowStep.Op.
const (
	OpTransfer      = "transfer"
	OpCreateAccount = "create_account"
	OpCounterAdd    = "counter_add"
	OpApplyInterest = "apply_interest"
)

// Assertion type constants.
const (
	AssertBalance  = "balance"
	AssertLogCount = "log_count"
	AssertCounter  = "counter"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly instead of silently skipping a
// section.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

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

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Accounts))
	for i, a := range s.Accounts {
		if a.Name == "" {
			return fmt.Errorf("accounts[%d]: name is required", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("accounts[%d]: duplicate account %q", i, a.Name)
		}
		seen[a.Name] = true
	}

	for i, step := range s.Flow {
		switch step.Op {
		case OpTransfer, OpCreateAccount, OpCounterAdd, OpApplyInterest:
		case "":
			return fmt.Errorf("flow[%d]: op is required", i)
		default:
			return fmt.Errorf("flow[%d]: unknown op %q", i, step.Op)
		}
		if step.Args == nil {
			return fmt.Errorf("flow[%d]: args is required (use empty map if no args)", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertBalance:
		if a.Account == "" {
			return fmt.Errorf("assertions[%d]: account is required for balance", index)
		}
	case AssertLogCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for log_count", index)
		}
	case AssertCounter:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for counter", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
