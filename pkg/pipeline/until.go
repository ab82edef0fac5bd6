package pipeline

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/matzehuels/forcelayout/pkg/errors"
	"github.com/matzehuels/forcelayout/pkg/layout"
)

// CompileUntil compiles a stop condition such as "avg < 0.5 || steps >= 200".
// The expression sees three variables: steps (int), avg (float, the average
// displacement of the last step) and nodes (int). An empty expression
// yields a nil func.
func CompileUntil(src string) (func(layout.Progress) bool, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	program, err := expr.Compile(src, expr.Env(untilEnv(layout.Progress{})), expr.AsBool())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "compile until expression %q", src)
	}
	return func(p layout.Progress) bool {
		return runUntil(program, p)
	}, nil
}

func runUntil(program *vm.Program, p layout.Progress) bool {
	out, err := expr.Run(program, untilEnv(p))
	if err != nil {
		return false
	}
	stop, _ := out.(bool)
	return stop
}

func untilEnv(p layout.Progress) map[string]any {
	return map[string]any{
		"steps": p.Steps,
		"avg":   p.Avg,
		"nodes": p.Nodes,
	}
}
