package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// KindUniqueColumn checks that non-NULL values in a column are distinct.
const KindUniqueColumn = "unique-column"

type uniqueColumnArgs struct {
	Column    string  `mapstructure:"column"`
	Threshold float64 `mapstructure:"threshold"`
}

// uniqueColumn scores the duplicate fraction (non-NULL values that repeat
// an earlier value) with the same rule as null-column.
type uniqueColumn struct {
	spec core.CheckSpec
	db   adapter.Querier
	args uniqueColumnArgs
}

func newUniqueColumn(spec core.CheckSpec, db adapter.Querier) (Validator, error) {
	var args uniqueColumnArgs
	if err := decodeParams(spec, &args); err != nil {
		return nil, err
	}
	if args.Column == "" {
		return nil, &ParamError{CheckType: KindUniqueColumn, Param: "column", Message: "is required"}
	}
	if err := checkThreshold(KindUniqueColumn, args.Threshold); err != nil {
		return nil, err
	}
	return &uniqueColumn{spec: spec, db: db, args: args}, nil
}

func (v *uniqueColumn) Name() string { return v.spec.DisplayName() }

func (v *uniqueColumn) Validate(ctx context.Context, _ *Context) (*core.Outcome, error) {
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}
	start := time.Now()

	col := v.db.QuoteQualified(v.args.Column)
	query := fmt.Sprintf("SELECT COUNT(%s), COUNT(DISTINCT %s) FROM %s",
		col, col, v.db.QuoteQualified(v.spec.EntityName))

	var values, distinct int64
	if err := v.db.QueryRow(ctx, query).Scan(&values, &distinct); err != nil {
		return nil, queryFailed(ctx, "count distinct values", err)
	}

	dups := values - distinct
	f := fraction(dups, values)

	return &core.Outcome{
		Status:   ratioStatus(f, v.args.Threshold),
		Goal:     v.args.Threshold,
		Value:    f,
		Duration: time.Since(start),
		Message: fmt.Sprintf("%d of %d values (%.2f%%) in %s are duplicates; allowed below %.2f%%",
			dups, values, f*100, v.args.Column, v.args.Threshold*100),
		Details: fmt.Sprintf("Values=%d Distinct=%d", values, distinct),
	}, nil
}
