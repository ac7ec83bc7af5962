package routing

import (
	"fmt"

	"production/internal/pkg/errs"

	"gopkg.in/yaml.v3"
)

// TemplateStep is the abstract form of a routing step inside a template:
// no order, no schedule, just structure and an estimated duration.
type TemplateStep struct {
	Name             string   `yaml:"name"`
	Workcenter       string   `yaml:"workcenter"`
	Sequence         int      `yaml:"sequence"`
	DependsOn        []string `yaml:"depends_on"`
	Join             string   `yaml:"join"`
	EstimatedMinutes int      `yaml:"estimated_minutes"`
}

// Template is a named, reusable abstract DAG of steps for a production
// method. Templates are configuration: a broken template is a startup
// failure, never a per-request one.
type Template struct {
	Key    string         `yaml:"key"`
	Method string         `yaml:"method"`
	Steps  []TemplateStep `yaml:"steps"`
}

// Validate checks the template's structure: a non-empty key and step list,
// unique step names, positive sequences, dependencies that reference
// existing steps, and an acyclic dependency graph.
func (t Template) Validate() error {
	if t.Key == "" {
		return errs.NewValueIsRequiredError("template key")
	}
	if len(t.Steps) == 0 {
		return errs.NewTemplateIsInvalidErrorWithCause(t.Key, fmt.Errorf("template has no steps"))
	}

	names := make(map[string]bool, len(t.Steps))
	for _, step := range t.Steps {
		if step.Name == "" {
			return errs.NewTemplateIsInvalidErrorWithCause(t.Key, fmt.Errorf("step with empty name"))
		}
		if names[step.Name] {
			return errs.NewTemplateIsInvalidErrorWithCause(t.Key,
				fmt.Errorf("duplicate step name %q", step.Name))
		}
		names[step.Name] = true

		if step.Sequence <= 0 {
			return errs.NewTemplateIsInvalidErrorWithCause(t.Key,
				fmt.Errorf("step %q has non-positive sequence %d", step.Name, step.Sequence))
		}
		if _, err := JoinTypeFromString(step.Join); err != nil {
			return errs.NewTemplateIsInvalidErrorWithCause(t.Key, err)
		}
	}

	for _, step := range t.Steps {
		for _, dep := range step.DependsOn {
			if dep == step.Name {
				return errs.NewTemplateIsInvalidErrorWithCause(t.Key,
					fmt.Errorf("step %q depends on itself", step.Name))
			}
			if !names[dep] {
				return errs.NewTemplateIsInvalidErrorWithCause(t.Key,
					fmt.Errorf("step %q depends on unknown step %q", step.Name, dep))
			}
		}
	}

	return t.validateAcyclic()
}

// validateAcyclic runs Kahn's algorithm over the dependency graph. Any
// remainder after the topological peel is a cycle.
func (t Template) validateAcyclic() error {
	indegree := make(map[string]int, len(t.Steps))
	dependents := make(map[string][]string, len(t.Steps))

	for _, step := range t.Steps {
		indegree[step.Name] += 0
		for _, dep := range step.DependsOn {
			indegree[step.Name]++
			dependents[dep] = append(dependents[dep], step.Name)
		}
	}

	queue := make([]string, 0, len(t.Steps))
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	visited := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited++

		for _, next := range dependents[name] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != len(t.Steps) {
		return errs.NewTemplateIsInvalidErrorWithCause(t.Key,
			fmt.Errorf("dependency graph contains a cycle"))
	}
	return nil
}

// TotalEstimatedMinutes sums the estimated duration across all steps.
func (t Template) TotalEstimatedMinutes() int {
	total := 0
	for _, step := range t.Steps {
		total += step.EstimatedMinutes
	}
	return total
}

// Catalog holds the validated set of routing templates, keyed by template
// key. A Catalog is immutable after construction.
type Catalog struct {
	templates map[string]Template
}

// NewCatalog builds a catalog from templates, validating each. A validation
// failure here is a configuration error and should abort startup.
func NewCatalog(templates ...Template) (*Catalog, error) {
	byKey := make(map[string]Template, len(templates))
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, exists := byKey[t.Key]; exists {
			return nil, errs.NewTemplateIsInvalidErrorWithCause(t.Key,
				fmt.Errorf("duplicate template key"))
		}
		byKey[t.Key] = t
	}

	return &Catalog{templates: byKey}, nil
}

// ParseCatalog builds a catalog from YAML. The document is a list of
// templates:
//
//	- key: silkscreen-standard
//	  method: SILKSCREEN
//	  steps:
//	    - {name: Cutting, workcenter: CUTTING, sequence: 10, estimated_minutes: 240}
//	    - {name: Printing, workcenter: PRINTING, sequence: 30,
//	       depends_on: [Cutting, ScreenPrep], join: AND, estimated_minutes: 300}
func ParseCatalog(data []byte) (*Catalog, error) {
	var templates []Template
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, errs.NewTemplateIsInvalidErrorWithCause("catalog", err)
	}
	return NewCatalog(templates...)
}

// Get returns the template for a key.
func (c *Catalog) Get(key string) (Template, error) {
	t, ok := c.templates[key]
	if !ok {
		return Template{}, errs.NewObjectNotFoundError("template", key)
	}
	return t, nil
}

// ForMethod returns the first template registered for a production method.
// Used when a caller knows the method but not a specific template key.
func (c *Catalog) ForMethod(method string) (Template, error) {
	for _, t := range c.templates {
		if t.Method == method {
			return t, nil
		}
	}
	return Template{}, errs.NewObjectNotFoundError("template for method", method)
}

// Keys returns every template key in the catalog.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.templates))
	for key := range c.templates {
		keys = append(keys, key)
	}
	return keys
}

// DefaultCatalog returns the compiled-in template set. Deployments can
// replace it with a YAML file via ParseCatalog; the defaults cover the
// common methods so a bare install still plans routings.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(
		Template{
			Key:    "silkscreen-standard",
			Method: "SILKSCREEN",
			Steps: []TemplateStep{
				{Name: "Cutting", Workcenter: "CUTTING", Sequence: 10, EstimatedMinutes: 240},
				{Name: "ScreenPrep", Workcenter: "PRINTING", Sequence: 20, EstimatedMinutes: 120},
				{Name: "Printing", Workcenter: "PRINTING", Sequence: 30,
					DependsOn: []string{"Cutting", "ScreenPrep"}, Join: "AND", EstimatedMinutes: 300},
				{Name: "Sewing", Workcenter: "SEWING", Sequence: 40,
					DependsOn: []string{"Printing"}, EstimatedMinutes: 480},
				{Name: "Inspection", Workcenter: "QC", Sequence: 50,
					DependsOn: []string{"Sewing"}, EstimatedMinutes: 90},
			},
		},
		Template{
			Key:    "embroidery-standard",
			Method: "EMBROIDERY",
			Steps: []TemplateStep{
				{Name: "Cutting", Workcenter: "CUTTING", Sequence: 10, EstimatedMinutes: 240},
				{Name: "Embroidery", Workcenter: "EMBROIDERY", Sequence: 20,
					DependsOn: []string{"Cutting"}, EstimatedMinutes: 360},
				{Name: "Sewing", Workcenter: "SEWING", Sequence: 30,
					DependsOn: []string{"Embroidery"}, EstimatedMinutes: 480},
				{Name: "Inspection", Workcenter: "QC", Sequence: 40,
					DependsOn: []string{"Sewing"}, EstimatedMinutes: 90},
			},
		},
		Template{
			Key:    "cut-and-sew-basic",
			Method: "CUT_AND_SEW",
			Steps: []TemplateStep{
				{Name: "Cutting", Workcenter: "CUTTING", Sequence: 10, EstimatedMinutes: 240},
				{Name: "Sewing", Workcenter: "SEWING", Sequence: 20,
					DependsOn: []string{"Cutting"}, EstimatedMinutes: 480},
				{Name: "Inspection", Workcenter: "QC", Sequence: 30,
					DependsOn: []string{"Sewing"}, EstimatedMinutes: 90},
			},
		},
	)
	if err != nil {
		// The compiled-in catalog is covered by tests; reaching this panic
		// means the binary itself is misbuilt.
		panic(err)
	}
	return catalog
}
