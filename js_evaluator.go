//go:build js_eval

package choices

import "github.com/dop251/goja"

// NewJSEvaluator builds an engine on goja. Each evaluation gets a fresh
// runtime; compiled programs are shared.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	cfg := applyEngineOptions(opts)
	fns := cfg.functions
	return &engine[*goja.Program]{
		name: EngineJS,
		cfg:  cfg,
		compile: func(expr string) (*goja.Program, error) {
			return goja.Compile("", "(function(){ return ("+expr+"); })()", false)
		},
		run: func(program *goja.Program, env map[string]any) (any, error) {
			rt := goja.New()
			for key, value := range env {
				if err := rt.Set(key, value); err != nil {
					return nil, err
				}
			}
			if fns != nil {
				if err := rt.Set("call", fns.Call); err != nil {
					return nil, err
				}
				for _, name := range fns.Names() {
					name := name
					if err := rt.Set(name, func(args ...any) (any, error) {
						return fns.Call(name, args...)
					}); err != nil {
						return nil, err
					}
				}
			}
			value, err := rt.RunProgram(program)
			if err != nil {
				return nil, err
			}
			return value.Export(), nil
		},
	}
}

func jsEvaluatorAvailable() bool {
	return true
}
