package check

import (
	"context"
	"testing"

	"github.com/robbyt/go-polyexpr/platform/ast"
	"github.com/robbyt/go-polyexpr/platform/diag"
	"github.com/robbyt/go-polyexpr/platform/registry"
	"github.com/robbyt/go-polyexpr/platform/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sp(start, end int) ast.Span { return ast.Span{Start: start, End: end} }

func nop(context.Context, []any) (any, error) { return "", nil }

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.FromDefinitions(
		registry.Definition{
			Name:   "upper",
			Params: []registry.Param{{Name: "s", Type: types.StringType}},
			Result: types.StringType,
			Call:   nop,
		},
		registry.Definition{
			Name: "add",
			Params: []registry.Param{
				{Name: "a", Type: types.IntType},
				{Name: "b", Type: types.IntType},
			},
			Result: types.DeferredOf(types.IntType),
			Call:   nop,
		},
		registry.Definition{
			Name: "fetch",
			Params: []registry.Param{
				{Name: "who", Type: types.NamedType("auth.Principal"), Injected: true},
				{Name: "key", Type: types.StringType},
				{Name: "limit", Type: types.IntType, HasDefault: true, Default: 10},
			},
			Result: types.DeferredOf(types.StringType),
			Call:   nop,
		},
		registry.Definition{
			Name:   "ratio",
			Params: []registry.Param{{Name: "f", Type: types.FloatType}},
			Result: types.StringType,
			Call:   nop,
		},
	)
	require.NoError(t, err)
	return reg
}

func TestCheckTypes(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t)

	tests := []struct {
		name string
		node ast.Node
		want types.Type
	}{
		{"string literal", ast.NewString(sp(0, 1), "a"), types.StringType},
		{"number literal", ast.NewNumber(sp(0, 1), 1), types.IntType},
		{
			"interpolation",
			ast.MustInterpolation(sp(0, 9), ast.MustCall(sp(1, 8), "add", ast.NewNumber(sp(5, 6), 1), ast.NewNumber(sp(7, 8), 2))),
			types.StringType,
		},
		{
			"async call",
			ast.MustCall(sp(0, 9), "add", ast.NewNumber(sp(4, 5), 1), ast.NewNumber(sp(7, 8), 2)),
			types.DeferredOf(types.IntType),
		},
		{
			"injected parameters are hidden and defaults optional",
			ast.MustCall(sp(0, 12), "fetch", ast.NewString(sp(6, 11), "k")),
			types.DeferredOf(types.StringType),
		},
		{
			"deferred arguments are unwrapped",
			ast.MustCall(sp(0, 30), "upper", ast.MustCall(sp(6, 29), "fetch", ast.NewString(sp(12, 15), "k"))),
			types.StringType,
		},
		{
			"int widens to float",
			ast.MustCall(sp(0, 8), "ratio", ast.NewNumber(sp(6, 7), 3)),
			types.StringType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diags := Check(reg, tt.node)
			assert.Empty(t, diags)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckUnknownFunction(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t)

	got, diags := Check(reg, ast.MustCall(sp(0, 3), "h"))
	require.Len(t, diags, 1)
	assert.Equal(t, types.Untyped, got)

	d := diags[0]
	assert.Equal(t, diag.UnknownFunction, d.Code)
	assert.Equal(t, diag.Error, d.Severity)
	assert.Equal(t, sp(0, 3), d.Span)
	assert.Equal(t, `unknown function "h"; valid functions are: add, fetch, ratio, upper`, d.Message())
}

func TestCheckUntypedDoesNotCascade(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t)

	node := ast.MustCall(sp(0, 12), "upper", ast.MustCall(sp(6, 11), "nope", ast.NewNumber(sp(10, 11), 1)))
	got, diags := Check(reg, node)
	assert.Equal(t, types.StringType, got)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.UnknownFunction, diags[0].Code)
}

func TestCheckArity(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t)

	t.Run("one diagnostic per missing parameter", func(t *testing.T) {
		_, diags := Check(reg, ast.MustCall(sp(0, 5), "add"))
		require.Len(t, diags, 2)
		for i, d := range diags {
			assert.Equal(t, diag.MissingArgument, d.Code)
			assert.Equal(t, sp(0, 5), d.Span)
			assert.Equal(t, i, d.Args[0])
		}
		assert.Equal(t, `missing argument 1 (b) of "add"`, diags[1].Message())
	})

	t.Run("parameters with defaults are not missing", func(t *testing.T) {
		_, diags := Check(reg, ast.MustCall(sp(0, 7), "fetch"))
		require.Len(t, diags, 1)
		assert.Equal(t, "key", diags[0].Args[1])
	})

	t.Run("single diagnostic spans the excess", func(t *testing.T) {
		node := ast.MustCall(sp(0, 20), "upper",
			ast.NewString(sp(6, 9), "a"),
			ast.NewString(sp(11, 14), "b"),
			ast.NewNumber(sp(16, 17), 3),
			ast.NewNumber(sp(18, 19), 4),
		)
		_, diags := Check(reg, node)
		require.Len(t, diags, 1)
		d := diags[0]
		assert.Equal(t, diag.TooManyArguments, d.Code)
		assert.Equal(t, sp(11, 19), d.Span)
		assert.Equal(t, `too many arguments to "upper": expected at most 1, got 4`, d.Message())
	})

	t.Run("excess arguments are still checked", func(t *testing.T) {
		node := ast.MustCall(sp(0, 15), "upper",
			ast.NewString(sp(6, 9), "a"),
			ast.MustCall(sp(11, 14), "h"),
		)
		_, diags := Check(reg, node)
		require.Len(t, diags, 2)
		assert.Equal(t, diag.UnknownFunction, diags[0].Code)
		assert.Equal(t, diag.TooManyArguments, diags[1].Code)
		assert.Equal(t, sp(11, 14), diags[1].Span)
	})
}

func TestCheckAssignability(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t)

	node := ast.MustInterpolation(sp(0, 40),
		ast.MustCall(sp(1, 10), "upper", ast.NewNumber(sp(7, 8), 1)),
		ast.MustCall(sp(11, 39), "add",
			ast.NewString(sp(15, 18), "x"),
			ast.MustCall(sp(20, 38), "add", ast.NewNumber(sp(24, 25), 1), ast.NewNumber(sp(27, 28), 2)),
		),
	)
	_, diags := Check(reg, node)
	require.Len(t, diags, 2)

	assert.Equal(t, diag.UnassignableArgument, diags[0].Code)
	assert.Equal(t, sp(7, 8), diags[0].Span)
	assert.Equal(t, `argument 0 of "upper": cannot use int as string`, diags[0].Message())

	assert.Equal(t, diag.UnassignableArgument, diags[1].Code)
	assert.Equal(t, sp(15, 18), diags[1].Span)
	assert.Equal(t, `argument 0 of "add": cannot use string as int`, diags[1].Message())
}

func TestCheckNil(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t)

	assert.PanicsWithValue(t, ast.ErrNilNode, func() {
		New(reg).Check(nil, &diag.List{})
	})
	assert.PanicsWithValue(t, ast.ErrNilNode, func() {
		New(reg).Check(ast.NewString(sp(0, 1), "a"), nil)
	})
}
