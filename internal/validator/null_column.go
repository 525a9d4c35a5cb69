package validator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// KindNullColumn counts NULLs in a column.
const KindNullColumn = "null-column"

type nullColumnArgs struct {
	Column    string  `mapstructure:"column"`
	Threshold float64 `mapstructure:"threshold"`
}

// nullColumn passes while the fraction of NULL values stays below the
// threshold. With the default threshold of 0, any NULL fails the check.
type nullColumn struct {
	spec core.CheckSpec
	db   adapter.Querier
	args nullColumnArgs
}

func newNullColumn(spec core.CheckSpec, db adapter.Querier) (Validator, error) {
	var args nullColumnArgs
	if err := decodeParams(spec, &args); err != nil {
		return nil, err
	}
	if args.Column == "" {
		return nil, &ParamError{CheckType: KindNullColumn, Param: "column", Message: "is required"}
	}
	if err := checkThreshold(KindNullColumn, args.Threshold); err != nil {
		return nil, err
	}
	return &nullColumn{spec: spec, db: db, args: args}, nil
}

func (v *nullColumn) Name() string { return v.spec.DisplayName() }

func (v *nullColumn) Validate(ctx context.Context, vc *Context) (*core.Outcome, error) {
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}
	start := time.Now()

	query := fmt.Sprintf("SELECT COUNT(*), COUNT(*) - COUNT(%s) FROM %s",
		v.db.QuoteQualified(v.args.Column), v.db.QuoteQualified(v.spec.EntityName))

	var total, nulls int64
	if err := v.db.QueryRow(ctx, query).Scan(&total, &nulls); err != nil {
		return nil, queryFailed(ctx, "count null values", err)
	}

	f := fraction(nulls, total)
	if vc != nil && vc.Logger != nil {
		vc.Logger.Debug("null-column counted",
			slog.String("entity", v.spec.EntityName),
			slog.Int64("total", total),
			slog.Int64("nulls", nulls))
	}

	return &core.Outcome{
		Status:   ratioStatus(f, v.args.Threshold),
		Goal:     v.args.Threshold,
		Value:    f,
		Duration: time.Since(start),
		Message: fmt.Sprintf("%d of %d rows (%.2f%%) have NULL %s; allowed below %.2f%%",
			nulls, total, f*100, v.args.Column, v.args.Threshold*100),
		Details: fmt.Sprintf("TotalRecords=%d NullRecords=%d", total, nulls),
	}, nil
}
