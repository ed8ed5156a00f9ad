package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/canonabi/linker"
)

func newImportsCmd(a *app) *cobra.Command {
	var request string
	cmd := &cobra.Command{
		Use:   "imports",
		Short: "Print the import table of the resource-floats chain",
		Long: `Print every binding in the import table, grouped by importing world and
interface namespace, then resolve each declared import of those worlds.
--request asks for a different interface version, which resolves to the
newest compatible version that is bound.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if request != "" {
				if _, ok := linker.ParseVersion(request); !ok {
					return fmt.Errorf("invalid version %q", request)
				}
			}

			ctx := cmd.Context()
			c, err := newCatalog(ctx, a.cfg, a.log.Named("resource"))
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			imports := c.chain.Imports
			var rows [][]string
			for _, world := range imports.Worlds() {
				walkNamespace(imports.World(world), func(ns *linker.Namespace) {
					version := "-"
					if v := ns.Version(); v != nil {
						version = v.String()
					}
					for _, name := range ns.Names() {
						rows = append(rows, []string{name, world, ns.FullPath(), version, ns.Target(name).Instance().Name})
					}
				})
			}

			p := newPrinter(cmd.OutOrStdout())
			p.title("Bindings")
			p.table(funcStyle, []string{"FUNCTION", "WORLD", "INTERFACE", "VERSION", "TARGET"}, rows)

			rows = rows[:0]
			for _, e := range c.funcs("", "") {
				if e.export {
					continue
				}
				root := imports.World(e.world)
				name := withVersion(e.fn.Name, request)
				match := "missing"
				switch {
				case root.ResolveExact(name) != nil:
					match = "exact"
				case root.Resolve(name) != nil:
					match = "compatible"
				}
				rows = append(rows, []string{name, e.world, match})
			}
			p.title("Resolution")
			p.table(funcStyle, []string{"IMPORT", "WORLD", "MATCH"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&request, "request", "", "resolve imports at this interface version")
	return cmd
}

// walkNamespace calls fn for ns and every namespace below it, children in
// key order.
func walkNamespace(ns *linker.Namespace, fn func(*linker.Namespace)) {
	fn(ns)
	kids := ns.Children()
	keys := make([]string, 0, len(kids))
	for k := range kids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		walkNamespace(kids[k], fn)
	}
}

// withVersion replaces the interface version of an import name such as
// "pkg:name/iface@0.1.0#func". An empty version leaves name unchanged.
func withVersion(name, version string) string {
	hash := strings.LastIndex(name, "#")
	if version == "" || hash < 0 {
		return name
	}
	iface := name[:hash]
	if at := strings.LastIndex(iface, "@"); at >= 0 {
		iface = iface[:at]
	}
	return iface + "@" + version + name[hash:]
}
