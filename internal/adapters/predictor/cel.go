package predictor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/okian/medcost/internal/domain/estimator"
)

// celCostLimit stops runaway expressions.
const celCostLimit = 1_000_000

// CELModel evaluates a CEL expression over the six features. The expression
// sees age, bmi and children as double, sex and smoker as bool (true for male
// and smoker) and region as string, and must produce a number.
type CELModel struct {
	expression string
	program    cel.Program
}

// NewCELModel compiles and type-checks expression.
func NewCELModel(expression string) (*CELModel, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("%w: cel expression is empty", ErrInvalidModel)
	}

	env, err := cel.NewEnv(
		cel.Variable("age", cel.DoubleType),
		cel.Variable("sex", cel.BoolType),
		cel.Variable("bmi", cel.DoubleType),
		cel.Variable("children", cel.DoubleType),
		cel.Variable("smoker", cel.BoolType),
		cel.Variable("region", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: compile error: %w", ErrInvalidModel, issues.Err())
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.DoubleType) && !out.IsExactType(cel.IntType) {
		return nil, fmt.Errorf("%w: expression yields %s, want double", ErrInvalidModel, out)
	}

	prog, err := env.Program(ast, cel.CostLimit(celCostLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: program creation error: %w", ErrInvalidModel, err)
	}
	return &CELModel{expression: expression, program: prog}, nil
}

// Expression returns the source expression.
func (m *CELModel) Expression() string { return m.expression }

// Predict implements estimator.Predictor.
func (m *CELModel) Predict(ctx context.Context, f estimator.Features) (float64, error) {
	out, _, err := m.program.ContextEval(ctx, map[string]any{
		"age":      f.Age,
		"sex":      f.Sex,
		"bmi":      f.BMI,
		"children": f.Children,
		"smoker":   f.Smoker,
		"region":   f.Region,
	})
	if err != nil {
		return 0, fmt.Errorf("cel evaluation: %w", err)
	}
	switch v := out.Value().(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("cel evaluation produced %T", v)
	}
}
