// Package prompt assembles the request payload for one collaborator session:
// the persona for the task's category plus the rendered workspace context.
package prompt

import "github.com/ankittk/devloop/internal/feature"

// Persona is the instruction profile for one task category. The category set
// is small and fixed, so this is a closed lookup rather than anything
// polymorphic.
type Persona struct {
	Category feature.Category
	IDPrefix string // task ID namespace for this category (F001, BF001, ...)
	System   string // system instruction sent with every session
}

var personas = map[feature.Category]Persona{
	feature.CategoryStandard: {
		Category: feature.CategoryStandard,
		IDPrefix: "F",
		System: "You are a senior software engineer implementing one feature at a time. " +
			"Work only on the feature given to you. Satisfy every acceptance criterion, " +
			"commit your work, and set the feature's done flag to true in feature_list.json " +
			"only when all criteria are met.",
	},
	feature.CategoryRefactor: {
		Category: feature.CategoryRefactor,
		IDPrefix: "RF",
		System: "You are a senior engineer performing a focused refactor. Preserve observable " +
			"behavior exactly; all existing tests must still pass. Commit your work and set the " +
			"feature's done flag to true in feature_list.json only when the refactor is complete.",
	},
	feature.CategoryBugfix: {
		Category: feature.CategoryBugfix,
		IDPrefix: "BF",
		System: "You are a senior engineer fixing one reported bug. Reproduce it first, fix the " +
			"root cause, and add a regression test. Commit your work and set the feature's done " +
			"flag to true in feature_list.json only when the bug no longer reproduces.",
	},
	feature.CategoryImprovement: {
		Category: feature.CategoryImprovement,
		IDPrefix: "IMP",
		System: "You are a senior engineer making one targeted improvement to existing " +
			"functionality. Keep the change minimal. Commit your work and set the feature's done " +
			"flag to true in feature_list.json only when every acceptance criterion is met.",
	},
	feature.CategoryDocs: {
		Category: feature.CategoryDocs,
		IDPrefix: "DOC",
		System: "You are a technical writer updating project documentation. Keep docs accurate " +
			"against the current code. Commit your work and set the feature's done flag to true " +
			"in feature_list.json only when every acceptance criterion is met.",
	},
}

// For returns the persona for a category. Unknown or absent categories
// resolve to the standard-feature persona.
func For(c feature.Category) Persona {
	if p, ok := personas[c.OrDefault()]; ok {
		return p
	}
	return personas[feature.CategoryStandard]
}
