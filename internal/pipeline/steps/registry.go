// Package steps provides step definitions and dependency validation for the
// resume → scrape → apply pipeline.
package steps

import (
	"fmt"
)

// Step names
const (
	ParseResume    = "parse_resume"
	SelectTitle    = "select_title"
	ScrapePostings = "scrape_postings"
	AutoApply      = "auto_apply"
)

// Step categories
const (
	CategoryResume  = "resume"
	CategoryListing = "listing"
	CategoryApply   = "apply"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	Optional     []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	ParseResume: {
		Name:         ParseResume,
		Category:     CategoryResume,
		Dependencies: []string{},
		Optional:     []string{},
	},
	SelectTitle: {
		Name:         SelectTitle,
		Category:     CategoryResume,
		Dependencies: []string{ParseResume},
		Optional:     []string{},
	},
	ScrapePostings: {
		Name:         ScrapePostings,
		Category:     CategoryListing,
		Dependencies: []string{},
		Optional:     []string{SelectTitle},
	},
	AutoApply: {
		Name:         AutoApply,
		Category:     CategoryApply,
		Dependencies: []string{ScrapePostings},
		Optional:     []string{},
	},
}

// Order is the sequence a full run executes the steps in.
var Order = []string{ParseResume, SelectTitle, ScrapePostings, AutoApply}

// Position returns the 1-based position of a step in Order, or 0.
func Position(step string) int {
	for i, s := range Order {
		if s == step {
			return i + 1
		}
	}
	return 0
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("missing dependencies: %v", e.MissingDependencies)
}

// ValidateDependencies checks if all required dependencies for a step are completed
func ValidateDependencies(completed map[string]bool, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}

	return nil
}

// GetAvailableSteps returns steps that can be executed (dependencies met), in run order
func GetAvailableSteps(completed map[string]bool) []string {
	var available []string
	for _, stepName := range Order {
		if completed[stepName] {
			continue
		}
		if err := ValidateDependencies(completed, stepName); err != nil {
			continue
		}
		available = append(available, stepName)
	}
	return available
}
