package core

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSpec_WithEntity(t *testing.T) {
	base := CheckSpec{
		ConnectionRef: "dw",
		Owner:         "data-team",
		FeatureName:   "customers",
		Pattern:       regexp.MustCompile(`(?i)dw\..*`),
		CheckType:     "null-column",
		Parameters:    map[string]string{"column": "Email"},
	}

	a := base.WithEntity("dw.A")
	b := base.WithEntity("dw.B")

	assert.Equal(t, "dw.A", a.EntityName)
	assert.Nil(t, a.Pattern)
	assert.False(t, a.IsPattern())
	assert.Equal(t, base.ConnectionRef, a.ConnectionRef)
	assert.Equal(t, base.Owner, a.Owner)
	assert.Equal(t, base.FeatureName, a.FeatureName)

	// parameters are not shared between siblings
	a.Parameters["column"] = "Changed"
	assert.Equal(t, "Email", b.Parameters["column"])
	assert.Equal(t, "Email", base.Parameters["column"])

	// the source spec is untouched
	require.NotNil(t, base.Pattern)
	assert.Empty(t, base.EntityName)
}

func TestCheckSpec_Clone(t *testing.T) {
	base := CheckSpec{ConnectionRef: "dw", EntityName: "dw.A", CheckType: "null-column", Parameters: map[string]string{"column": "Email"}}

	c := base.Clone()
	assert.Equal(t, base, c)

	c.Parameters["column"] = "Changed"
	assert.Equal(t, "Email", base.Parameters["column"])
}

func TestCheckSpec_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		spec CheckSpec
		want string
	}{
		{
			name: "with column",
			spec: CheckSpec{EntityName: "dw.Customer", CheckType: "null-column", Parameters: map[string]string{"column": "Email"}},
			want: "null-column dw.Customer.Email",
		},
		{
			name: "without column",
			spec: CheckSpec{EntityName: "main.orders", CheckType: "row-count"},
			want: "row-count main.orders",
		},
		{
			name: "unexpanded pattern",
			spec: CheckSpec{Pattern: regexp.MustCompile(`dw\..*`), CheckType: "row-count"},
			want: `row-count dw\..*`,
		},
		{
			name: "pattern shown as written",
			spec: CheckSpec{Pattern: regexp.MustCompile(`(?i)dw\..*`), Match: `dw\..*`, CheckType: "row-count"},
			want: `row-count dw\..*`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.DisplayName())
		})
	}
}

func TestCheckSpec_Param(t *testing.T) {
	spec := CheckSpec{Parameters: map[string]string{"min": "10", "empty": ""}}

	assert.Equal(t, "10", spec.Param("min", "1"))
	assert.Equal(t, "1", spec.Param("empty", "1"))
	assert.Equal(t, "x", spec.Param("missing", "x"))
	assert.Equal(t, "x", CheckSpec{}.Param("missing", "x"))
}

func TestOutcome_Passed(t *testing.T) {
	assert.True(t, (&Outcome{Status: StatusPass}).Passed())
	assert.True(t, (&Outcome{Status: 0}).Passed())
	assert.False(t, (&Outcome{Status: -0.0001}).Passed())
	assert.False(t, (&Outcome{Status: StatusFail}).Passed())
}

func TestClampStatus(t *testing.T) {
	assert.Equal(t, StatusPass, ClampStatus(3))
	assert.Equal(t, StatusFail, ClampStatus(-7))
	assert.Equal(t, 0.25, ClampStatus(0.25))
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in     string
		want   Severity
		wantOK bool
	}{
		{"error", SeverityError, true},
		{"WARNING", SeverityWarning, true},
		{"warn", SeverityWarning, true},
		{" info ", SeverityInfo, true},
		{"hint", SeverityHint, true},
		{"fatal", SeverityError, false},
		{"", SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSeverity(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}

	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "unknown", Severity(42).String())
}
