package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:     name,
		Category: CategoryDataset,
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return args, nil
		},
		Schema: ToolSchema{
			Required: []string{"query"},
			Properties: map[string]Property{
				"query": {Type: "string"},
				"limit": {Type: "integer"},
				"lat":   {Type: "number"},
				"years": {Type: "array"},
			},
		},
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NotNil(t, reg)
	assert.Zero(t, reg.Count())
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("b_tool")))
	require.NoError(t, reg.Register(echoTool("a_tool")))

	got := reg.Get("a_tool")
	require.NotNil(t, got)
	assert.Equal(t, "a_tool", got.Name)
	assert.True(t, reg.Has("b_tool"))
	assert.False(t, reg.Has("missing"))
	assert.Nil(t, reg.Get("missing"))
	assert.Equal(t, []string{"a_tool", "b_tool"}, reg.Names())

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a_tool", all[0].Name)
	assert.Len(t, reg.GetByCategory(CategoryDataset), 2)
	assert.Empty(t, reg.GetByCategory(CategoryResearch))
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("dupe")))

	err := reg.Register(echoTool("dupe"))
	assert.ErrorIs(t, err, ErrToolAlreadyRegistered)
	assert.Panics(t, func() { reg.MustRegister(echoTool("dupe")) })
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		tool    *Tool
		wantErr error
	}{
		{
			name:    "empty name",
			tool:    &Tool{Execute: func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }},
			wantErr: ErrToolNameEmpty,
		},
		{
			name:    "nil execute",
			tool:    &Tool{Name: "no_exec"},
			wantErr: ErrToolExecuteNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, reg.Register(tt.tool), tt.wantErr)
		})
	}
}

func TestExecute(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(echoTool("echo"))

	res, err := reg.Execute(context.Background(), "echo", map[string]any{
		"query": "flood",
		"limit": float64(10),
		"lat":   14.5,
		"years": []any{float64(2024)},
	})
	require.NoError(t, err)
	assert.True(t, res.IsSuccess())
	assert.Equal(t, "echo", res.ToolName)
	assert.Equal(t, "flood", res.Result.(map[string]any)["query"])
}

func TestExecuteErrors(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(echoTool("echo"))
	boom := errors.New("boom")
	reg.MustRegister(&Tool{
		Name:    "fails",
		Execute: func(ctx context.Context, args map[string]any) (any, error) { return nil, boom },
	})

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr error
	}{
		{name: "unknown tool", tool: "nope", args: nil, wantErr: ErrToolNotFound},
		{name: "missing required", tool: "echo", args: map[string]any{}, wantErr: ErrMissingRequiredArg},
		{name: "nil required", tool: "echo", args: map[string]any{"query": nil}, wantErr: ErrMissingRequiredArg},
		{name: "string expected", tool: "echo", args: map[string]any{"query": 3.0}, wantErr: ErrInvalidArgType},
		{name: "integer expected", tool: "echo", args: map[string]any{"query": "x", "limit": 2.5}, wantErr: ErrInvalidArgType},
		{name: "number expected", tool: "echo", args: map[string]any{"query": "x", "lat": "north"}, wantErr: ErrInvalidArgType},
		{name: "array expected", tool: "echo", args: map[string]any{"query": "x", "years": 2024.0}, wantErr: ErrInvalidArgType},
		{name: "execute error", tool: "fails", args: nil, wantErr: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := reg.Execute(context.Background(), tt.tool, tt.args)
			require.ErrorIs(t, err, tt.wantErr)
			if res != nil {
				assert.False(t, res.IsSuccess())
			}
		})
	}
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"name":   "  GED  ",
		"n":      float64(7),
		"frac":   7.5,
		"bad":    "seven",
		"years":  []any{float64(2023), float64(2024)},
		"single": float64(2025),
		"mixed":  []any{float64(2023), "x"},
	}

	assert.Equal(t, "GED", StringArg(args, "name"))
	assert.Equal(t, "", StringArg(args, "missing"))

	f, ok, err := FloatArg(args, "frac")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7.5, f)

	_, ok, err = FloatArg(args, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = FloatArg(args, "bad")
	assert.ErrorIs(t, err, ErrInvalidArgType)

	n, err := IntArg(args, "n", 1)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = IntArg(args, "missing", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	_, err = IntArg(args, "frac", 1)
	assert.ErrorIs(t, err, ErrInvalidArgType)

	years, err := IntListArg(args, "years")
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2024}, years)

	years, err = IntListArg(args, "single")
	require.NoError(t, err)
	assert.Equal(t, []int{2025}, years)

	_, err = IntListArg(args, "mixed")
	assert.ErrorIs(t, err, ErrInvalidArgType)

	years, err = IntListArg(args, "missing")
	require.NoError(t, err)
	assert.Nil(t, years)
}
