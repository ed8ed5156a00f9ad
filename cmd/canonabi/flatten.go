package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newFlattenCmd(a *app) *cobra.Command {
	var world string
	cmd := &cobra.Command{
		Use:   "flatten [filter]",
		Short: "Print the core signatures of the fixture functions",
		Long: `Print the WIT signature of every fixture import and export next to the
core function type it flattens to under the configured limits. Parameter or
result lists over the limits are passed through linear memory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}

			ctx := cmd.Context()
			c, err := newCatalog(ctx, a.cfg, a.log.Named("resource"))
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			var rows [][]string
			for _, e := range c.funcs(world, filter) {
				rows = append(rows, []string{
					e.fn.Name,
					e.world,
					e.direction(),
					strconv.Itoa(len(c.layout.FlatList(e.fn.ParamTypes()))),
					c.indirect(e),
					c.coreSignature(e),
				})
			}

			p := newPrinter(cmd.OutOrStdout())
			p.title("Core signatures (max params " + strconv.Itoa(a.cfg.MaxFlatParams) +
				", max results " + strconv.Itoa(a.cfg.MaxFlatResults) + ")")
			p.table(funcStyle, []string{"FUNCTION", "WORLD", "DIR", "FLAT PARAMS", "INDIRECT", "CORE"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&world, "world", "w", "", "only show functions of this world")
	return cmd
}
