package choices

import (
	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// NewExprEvaluator builds the default engine on expr-lang/expr. Record
// fields are top-level variables, so `metadata?.isActive != false` reads a
// politician's flag. Registered functions are callable by name.
func NewExprEvaluator(opts ...EngineOption) Evaluator {
	cfg := applyEngineOptions(opts)
	fns := cfg.functions

	compileOpts := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range fns.Names() {
		name := name
		compileOpts = append(compileOpts, exprlang.Function(name, func(args ...any) (any, error) {
			return fns.Call(name, args...)
		}))
	}

	return &engine[*vm.Program]{
		name: EngineExpr,
		cfg:  cfg,
		compile: func(expr string) (*vm.Program, error) {
			return exprlang.Compile(expr, compileOpts...)
		},
		run: func(program *vm.Program, env map[string]any) (any, error) {
			if fns != nil {
				env["call"] = fns.Call
			}
			return exprlang.Run(program, env)
		},
	}
}
