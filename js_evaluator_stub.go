//go:build !js_eval

package choices

// NewJSEvaluator returns nil unless the binary is built with the js_eval tag.
func NewJSEvaluator(...EngineOption) Evaluator {
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
