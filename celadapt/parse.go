package celadapt

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// ParseToAST parses source into a cel.Ast ready for Lower. It deliberately
// parses rather than checks (cel.Env.Compile): this kernel resolves every
// identifier against the schema registry itself at translation time, so no
// cel.Variable declarations are threaded through here — a declare-and-check
// pass would reject schema-less expressions that should still translate.
// The standard macro set (has, all, exists, exists_one, map, filter) is
// still expanded during parsing, since cel.NewEnv enables it by default.
func ParseToAST(source string) (*cel.Ast, error) {
	env, err := cel.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("celadapt: create CEL environment: %w", err)
	}

	ast, issues := env.Parse(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, issues.Err())
	}

	return ast, nil
}
