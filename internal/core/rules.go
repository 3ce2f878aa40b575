package core

import "rpascore/pkg/domain"

// NewDefaultRulesEngine builds the rule set every conforming store enforces:
// identifier format, lifecycle transition tables, operation constraints,
// completion immutability, and advisory area conflict detection.
func NewDefaultRulesEngine(cfg Config) *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewRecordIdentifierRule())
	engine.Register(NewLifecycleTransitionRule())
	engine.Register(NewOperationConstraintsRule(cfg))
	engine.Register(NewCompletionImmutableRule())
	engine.Register(NewAreaConflictRule(cfg))
	return engine
}
