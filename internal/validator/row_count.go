package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// KindRowCount checks that a table holds a number of rows within bounds.
const KindRowCount = "row-count"

type rowCountArgs struct {
	Min int64  `mapstructure:"min"`
	Max *int64 `mapstructure:"max"`
}

// rowCount scores 1 above min, 0 exactly at min, -1 below min or above max.
type rowCount struct {
	spec core.CheckSpec
	db   adapter.Querier
	args rowCountArgs
}

func newRowCount(spec core.CheckSpec, db adapter.Querier) (Validator, error) {
	args := rowCountArgs{Min: 1}
	if err := decodeParams(spec, &args); err != nil {
		return nil, err
	}
	if args.Min < 0 {
		return nil, &ParamError{CheckType: KindRowCount, Param: "min", Message: "must not be negative"}
	}
	if args.Max != nil && *args.Max < args.Min {
		return nil, &ParamError{CheckType: KindRowCount, Param: "max", Message: "must not be less than min"}
	}
	return &rowCount{spec: spec, db: db, args: args}, nil
}

func (v *rowCount) Name() string { return v.spec.DisplayName() }

func (v *rowCount) Validate(ctx context.Context, _ *Context) (*core.Outcome, error) {
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}
	start := time.Now()

	var count int64
	query := "SELECT COUNT(*) FROM " + v.db.QuoteQualified(v.spec.EntityName)
	if err := v.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return nil, queryFailed(ctx, "count rows", err)
	}

	status := core.StatusPass
	switch {
	case count < v.args.Min:
		status = core.StatusFail
	case v.args.Max != nil && count > *v.args.Max:
		status = core.StatusFail
	case count == v.args.Min:
		status = 0
	}

	bounds := fmt.Sprintf("at least %d", v.args.Min)
	if v.args.Max != nil {
		bounds = fmt.Sprintf("between %d and %d", v.args.Min, *v.args.Max)
	}

	return &core.Outcome{
		Status:   status,
		Goal:     float64(v.args.Min),
		Value:    float64(count),
		Duration: time.Since(start),
		Message:  fmt.Sprintf("%s has %d rows; expected %s", v.spec.EntityName, count, bounds),
	}, nil
}
