package choices

import (
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// NewCELEvaluator builds an engine on cel-go. CEL needs declared variables,
// so rules read the record through `record` (plus now, args and metadata).
// Registered functions are reachable as call("name", [args...]).
func NewCELEvaluator(opts ...EngineOption) Evaluator {
	cfg := applyEngineOptions(opts)
	return &engine[celgo.Program]{
		name: EngineCEL,
		cfg:  cfg,
		compile: func(expr string) (celgo.Program, error) {
			env, err := celEnv(cfg.functions)
			if err != nil {
				return nil, err
			}
			ast, issues := env.Compile(expr)
			if issues != nil && issues.Err() != nil {
				return nil, issues.Err()
			}
			return env.Program(ast)
		},
		run: func(program celgo.Program, env map[string]any) (any, error) {
			out, _, err := program.Eval(env)
			if err != nil {
				return nil, err
			}
			return out.Value(), nil
		},
	}
}

func celEnv(fns *FunctionRegistry) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Variable("record", celgo.DynType),
	}
	if fns != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(func(name, args ref.Val) ref.Val {
					return celCall(fns, name, args)
				}),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func celCall(fns *FunctionRegistry, nameVal, argsVal ref.Val) ref.Val {
	name, ok := nameVal.Value().(string)
	if !ok {
		return types.NewErr("choices: call name must be a string")
	}
	var args []any
	if list, ok := argsVal.(traits.Lister); ok {
		for it := list.Iterator(); it.HasNext() == types.True; {
			args = append(args, it.Next().Value())
		}
	}
	result, err := fns.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}
