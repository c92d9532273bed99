// Package alerts evaluates variance alert rules against completed count
// sessions. Rules are CEL expressions over per-product variance figures,
// compiled once and evaluated per report.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"stocktake/internal/core/apperror"
	"stocktake/internal/core/id"
	"stocktake/internal/domain/counting"
	"stocktake/pkg/logger"
)

// Severity classifies a fired alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rule is a variance alert rule. Expression is a CEL boolean expression over:
//
//	productId       string
//	expectedQty     double
//	actualQty       double
//	variance        double (actual - expected)
//	varianceValue   double (variance x unit cost)
//	variancePercent double (session-level)
//
// Example: `variance < 0.0 && varianceValue < -50.0`.
type Rule struct {
	ID         id.ID    `json:"id"`
	Name       string   `json:"name"`
	Expression string   `json:"expression"`
	Severity   Severity `json:"severity"`

	program cel.Program
}

// Alert is a fired rule occurrence for one product in one session.
type Alert struct {
	RuleID    id.ID    `json:"ruleId"`
	RuleName  string   `json:"ruleName"`
	Severity  Severity `json:"severity"`
	SessionID id.ID    `json:"sessionId"`
	ProductID id.ID    `json:"productId"`
	Message   string   `json:"message"`

	FiredAt time.Time `json:"firedAt"`
}

// Evaluator holds compiled rules and implements counting.VarianceObserver.
type Evaluator struct {
	env   *cel.Env
	rules []*Rule

	// sink receives fired alerts; optional
	sink func(ctx context.Context, alerts []Alert)
}

// NewEvaluator creates an evaluator with the alert variable declarations.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("productId", cel.StringType),
		cel.Variable("expectedQty", cel.DoubleType),
		cel.Variable("actualQty", cel.DoubleType),
		cel.Variable("variance", cel.DoubleType),
		cel.Variable("varianceValue", cel.DoubleType),
		cel.Variable("variancePercent", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// SetSink registers a receiver for fired alerts.
func (e *Evaluator) SetSink(sink func(ctx context.Context, alerts []Alert)) {
	e.sink = sink
}

// AddRule compiles and registers a rule. Compilation errors are returned as
// validation errors so a bad expression never reaches evaluation.
func (e *Evaluator) AddRule(name, expression string, severity Severity) (*Rule, error) {
	if name == "" {
		return nil, apperror.NewValidation("rule name is required")
	}
	if expression == "" {
		return nil, apperror.NewValidation("rule expression is required")
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, apperror.NewValidation("invalid rule expression").
			WithDetail("expression", expression).
			WithDetail("error", issues.Err().Error())
	}
	if ast.OutputType().String() != cel.BoolType.String() {
		return nil, apperror.NewValidation("rule expression must evaluate to bool").
			WithDetail("expression", expression).
			WithDetail("outputType", ast.OutputType().String())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, apperror.NewValidation("rule expression cannot be planned").
			WithDetail("error", err.Error())
	}

	rule := &Rule{
		ID:         id.New(),
		Name:       name,
		Expression: expression,
		Severity:   severity,
		program:    program,
	}
	e.rules = append(e.rules, rule)
	return rule, nil
}

// Rules returns the registered rules.
func (e *Evaluator) Rules() []*Rule {
	return e.rules
}

// Evaluate runs every rule against every item of the report and returns the
// fired alerts.
func (e *Evaluator) Evaluate(ctx context.Context, report *counting.VarianceReport) []Alert {
	var fired []Alert
	now := time.Now().UTC()
	sessionPercent, _ := report.VariancePercent.Float64()

	for _, item := range report.Items {
		varianceValue, _ := item.VarianceValue.Float64()
		vars := map[string]any{
			"productId":       item.ProductID.String(),
			"expectedQty":     item.ExpectedQty.Float64(),
			"actualQty":       item.ActualQty.Float64(),
			"variance":        item.Variance.Float64(),
			"varianceValue":   varianceValue,
			"variancePercent": sessionPercent,
		}

		for _, rule := range e.rules {
			out, _, err := rule.program.Eval(vars)
			if err != nil {
				logger.Warn(ctx, "alert rule evaluation failed",
					"rule", rule.Name, "error", err)
				continue
			}
			matched, ok := out.Value().(bool)
			if !ok || !matched {
				continue
			}
			fired = append(fired, Alert{
				RuleID:    rule.ID,
				RuleName:  rule.Name,
				Severity:  rule.Severity,
				SessionID: report.SessionID,
				ProductID: item.ProductID,
				Message: fmt.Sprintf("%s: product %s variance %s (value %s)",
					rule.Name, item.ProductID, item.Variance, item.VarianceValue),
				FiredAt: now,
			})
		}
	}
	return fired
}

// VarianceComputed implements counting.VarianceObserver.
func (e *Evaluator) VarianceComputed(ctx context.Context, session *counting.CountSession, report *counting.VarianceReport) error {
	fired := e.Evaluate(ctx, report)
	for _, alert := range fired {
		logger.Warn(ctx, "variance alert fired",
			"rule", alert.RuleName, "severity", string(alert.Severity),
			"session_id", alert.SessionID, "product_id", alert.ProductID)
	}
	if e.sink != nil && len(fired) > 0 {
		e.sink(ctx, fired)
	}
	return nil
}
