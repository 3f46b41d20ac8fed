package choices

import "time"

// RuleContext carries the inputs of an availability or filter rule.
type RuleContext struct {
	// Record is the raw dataset record under evaluation. Its top-level keys
	// are bound as variables and the whole record is bound as "record".
	Record   map[string]any
	Source   string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	if ctx.Record == nil {
		ctx.Record = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) sourceLabel() string {
	if ctx.Source != "" {
		return ctx.Source
	}
	return "unknown"
}

// bindings returns the variables shared by every engine.
func (ctx RuleContext) bindings() map[string]any {
	env := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
	for key, value := range ctx.Record {
		env[key] = value
	}
	env["record"] = ctx.Record
	return env
}

// Evaluator executes expressions against a rule context. Evaluators built
// by this package also report their language through Engine() string.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
}
