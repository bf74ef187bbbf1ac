// Package capability provides the capability registry and built-in capabilities.
package capability

import "context"

// Category is the coarse routing class of a capability.
type Category string

const (
	CategoryFile       Category = "file"
	CategoryNetwork    Category = "network"
	CategoryCode       Category = "code"
	CategorySystem     Category = "system"
	CategoryDeployment Category = "deployment"
	CategoryMessaging  Category = "messaging"
	CategoryText       Category = "text"
)

// Param describes one declared parameter of a capability.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // string, number, bool, object
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// Schema is the declared parameter schema of a capability.
type Schema struct {
	Params []Param `json:"params"`
}

// Capability is an independently pluggable unit of effectful behavior.
// The dispatcher treats Execute results as opaque pass-through values;
// capabilities are responsible for returning structured, serializable data.
type Capability interface {
	// ID returns the unique capability identifier.
	ID() string
	// Name returns a human-readable name.
	Name() string
	// Category returns the routing category.
	Category() Category
	// ParameterSchema returns the declared parameter schema.
	ParameterSchema() Schema
	// Execute runs the capability with the given parameters.
	Execute(ctx context.Context, params map[string]interface{}) (interface{}, error)
}

// SafetyChecker is implemented by capabilities that carry their own
// safety predicate. A false result must prevent Execute from being called.
type SafetyChecker interface {
	SafetyCheck(params map[string]interface{}) bool
}

// Descriptor is the registry-facing metadata of a registered capability.
type Descriptor struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Schema   Schema   `json:"schema"`
}

// Describe builds a Descriptor from a capability.
func Describe(c Capability) Descriptor {
	return Descriptor{
		ID:       c.ID(),
		Name:     c.Name(),
		Category: c.Category(),
		Schema:   c.ParameterSchema(),
	}
}
