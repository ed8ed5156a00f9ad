package main

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/canonabi/internal/fixtures"
	"github.com/wippyai/canonabi/memory"
	"github.com/wippyai/canonabi/resource"
)

// maxShown is how many list elements a formatted value shows.
const maxShown = 8

// sample is a canned invocation of a lists export.
type sample struct {
	name string
	args []any
}

func listSamples() []sample {
	min8, max8 := fixtures.MinMaxArgs(8)
	min16, max16 := fixtures.MinMaxArgs(16)
	min32, max32 := fixtures.MinMaxArgs(32)
	min64, max64 := fixtures.MinMaxArgs(64)
	minF, maxF := fixtures.MinMaxArgs(0)

	return []sample{
		{"empty_list_param", []any{[]byte{}}},
		{"empty_string_param", []any{""}},
		{"empty_list_result", nil},
		{"empty_string_result", nil},
		{"list_param", []any{[]byte{1, 2, 3, 4}}},
		{"list_param2", []any{"foo"}},
		{"list_param3", []any{[]string{"foo", "bar", "baz"}}},
		{"list_param4", []any{[][]string{{"foo", "bar"}, {"baz"}}}},
		{"list_param5", []any{[]any{
			[]any{uint8(1), uint32(2), uint8(3)},
			[]any{uint8(4), uint32(5), uint8(6)},
		}}},
		{"list_param_large", []any{fixtures.LargeList()}},
		{"list_result", nil},
		{"list_result2", nil},
		{"list_result3", nil},
		{"list_roundtrip", []any{[]byte("\x00\x01\xfe\xff")}},
		{"string_roundtrip", []any{"héllo, wörld ☃"}},
		{"list_minmax8", []any{min8, max8}},
		{"list_minmax16", []any{min16, max16}},
		{"list_minmax32", []any{min32, max32}},
		{"list_minmax64", []any{min64, max64}},
		{"list_minmax_float", []any{minF, maxF}},
	}
}

// sampleFor returns the canned arguments of the lists export name.
func sampleFor(name string) ([]any, bool) {
	for _, s := range listSamples() {
		if s.name == name {
			return s.args, true
		}
	}
	return nil, false
}

// callSample invokes the lists export name from the host with its canned
// arguments.
func (c *catalog) callSample(ctx context.Context, name string) ([]any, error) {
	args, ok := sampleFor(name)
	if !ok {
		return nil, fmt.Errorf("no sample invocation for %q", name)
	}
	exp := c.lists.Export(name)
	if exp == nil {
		return nil, fmt.Errorf("no export %q", name)
	}
	return c.adapter.Call(ctx, c.host, exp, args)
}

func newDemoCmd(a *app) *cobra.Command {
	var route string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the lists and resource-floats fixture calls",
		Long: `Call every export of the lists world with a canned argument, then drive
the float resource through the runner. The float calls go straight to the
leaf (--route direct), through the intermediate re-exporter
(--route intermediate), or both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var routes []string
			switch route {
			case "both":
				routes = []string{"direct", "intermediate"}
			case "direct", "intermediate":
				routes = []string{route}
			default:
				return fmt.Errorf("unknown route %q, want direct, intermediate or both", route)
			}

			ctx := cmd.Context()
			c, err := newCatalog(ctx, a.cfg, a.log.Named("resource"))
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			p := newPrinter(cmd.OutOrStdout())
			failed := c.demoLists(ctx, p)
			for _, r := range routes {
				if err := c.demoFloats(ctx, p, r); err != nil {
					a.log.Warn("floats demo failed", zap.String("route", r), zap.Error(err))
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d demo calls failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&route, "route", "r", "both", "float call route: direct, intermediate or both")
	return cmd
}

// demoLists calls every lists sample and returns the number of failures.
func (c *catalog) demoLists(ctx context.Context, p *printer) int {
	p.title("lists")
	failed := 0
	var rows [][]string
	for _, s := range listSamples() {
		out, err := c.callSample(ctx, s.name)
		status := p.render(resultStyle, "ok")
		if err != nil {
			status = p.render(errorStyle, err.Error())
			failed++
		}
		rows = append(rows, []string{s.name, formatArgs(s.args), formatArgs(out), status})
	}
	p.table(funcStyle, []string{"FUNCTION", "ARGS", "RESULTS", "STATUS"}, rows)

	if b, ok := c.lists.Instance.Allocator.(*memory.Bump); ok {
		st := b.Stats()
		fmt.Fprintf(p.w, "allocs=%d frees=%d live=%d peak=%d reclaimed=%d\n\n",
			st.Allocs, st.Frees, st.Live, st.Peak, st.Reclaimed)
	}
	return failed
}

// demoFloats runs the float lifecycle over route: construct two floats, add
// them, read every value, attempt a leaking borrow, then drop all handles.
func (c *catalog) demoFloats(ctx context.Context, p *printer, route string) error {
	p.title("resource-floats via " + route)
	invoke := c.chain.Call
	if route == "direct" {
		invoke = c.chain.Direct
	}

	step := func(name string, args ...any) ([]any, error) {
		out, err := invoke(ctx, name, args...)
		line := p.render(funcStyle, name) + "(" + formatArgs(args) + ")"
		if err != nil {
			fmt.Fprintln(p.w, line+" "+p.render(errorStyle, err.Error()))
			return nil, err
		}
		fmt.Fprintln(p.w, line+" -> "+p.render(resultStyle, formatArgs(out)))
		return out, nil
	}
	handle := func(out []any) resource.Handle {
		return out[0].(resource.Handle)
	}

	out, err := step(fixtures.FloatNew, 1.5)
	if err != nil {
		return err
	}
	a := handle(out)
	if out, err = step(fixtures.FloatNew, 2.25); err != nil {
		return err
	}
	b := handle(out)
	if out, err = step(fixtures.FloatAdd, a, b); err != nil {
		return err
	}
	sum := handle(out)
	for _, h := range []resource.Handle{a, b, sum} {
		if _, err := step(fixtures.FloatGet, h); err != nil {
			return err
		}
	}

	// a callee keeping a borrow past its call fails that call only
	if _, err := step(fixtures.FloatLeak, a); err == nil {
		return fmt.Errorf("%s succeeded, want a leaked borrow", fixtures.FloatLeak)
	}

	for _, h := range []resource.Handle{a, b, sum} {
		if err := c.chain.Runner.Store.Drop(h); err != nil {
			return err
		}
	}
	fmt.Fprintf(p.w, "dropped 3 handles, frame depth %d\n\n", c.chain.Adapter.Frames().Depth())
	return nil
}

func formatArgs(vs []any) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}

// formatValue renders v, cutting long lists after maxShown elements.
func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case []byte:
		return formatSlice(reflect.ValueOf(v))
	case nil:
		return "<nil>"
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		return formatSlice(rv)
	}
	return fmt.Sprint(v)
}

func formatSlice(rv reflect.Value) string {
	n := rv.Len()
	var parts []string
	for i := 0; i < n && i < maxShown; i++ {
		parts = append(parts, formatValue(rv.Index(i).Interface()))
	}
	if n > maxShown {
		parts = append(parts, fmt.Sprintf("... %d more", n-maxShown))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
