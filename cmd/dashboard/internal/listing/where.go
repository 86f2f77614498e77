package listing

import (
	"fmt"

	"github.com/hashicorp/go-bexpr"
	lru "github.com/hashicorp/golang-lru/v2"
)

// evaluatorCacheSize bounds the compiled expressions kept in memory.
// Expressions come from request query strings.
const evaluatorCacheSize = 256

var evaluatorCache = newEvaluatorCache(evaluatorCacheSize)

func newEvaluatorCache(size int) *lru.Cache[string, *bexpr.Evaluator] {
	cache, err := lru.New[string, *bexpr.Evaluator](size)
	if err != nil {
		panic(fmt.Sprintf("create evaluator cache: %v", err))
	}
	return cache
}

// ExpressionError reports an invalid Where expression.
type ExpressionError struct {
	Expression string
	Err        error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("invalid filter expression %q: %v", e.Expression, e.Err)
}

func (e *ExpressionError) Unwrap() error {
	return e.Err
}

type expression struct {
	evaluator *bexpr.Evaluator
}

func compile(expr string) (*expression, error) {
	if cached, ok := evaluatorCache.Get(expr); ok {
		return &expression{evaluator: cached}, nil
	}

	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, &ExpressionError{Expression: expr, Err: err}
	}
	evaluatorCache.Add(expr, evaluator)
	return &expression{evaluator: evaluator}, nil
}

// matches treats evaluation errors (e.g. a missing attribute) as no match.
func (e *expression) matches(attrs map[string]any) bool {
	ok, err := e.evaluator.Evaluate(attrs)
	return err == nil && ok
}
