package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackieclzheng/AiBuildIp/pkg/rotation"
)

func NewStateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset rotation cursors",
	}
	cmd.AddCommand(newStateShowCommand(), newStateSetCommand())
	return cmd
}

func newStateShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <digest>",
		Short: "Print the stored cursor of a digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			d, err := rt.digest(args[0])
			if err != nil {
				return err
			}
			path := rt.cfg.StatePath(*d)
			store := rotation.NewStore(path, rotation.State(d.StartIndex), rt.Logger())
			_, _ = fmt.Fprintf(rt.Writer(), "%s\t%d\t%s\n", d.Name, int(store.Load()), path)
			return nil
		},
	}
}

func newStateSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <digest> <cursor>",
		Short: "Overwrite the stored cursor of a digest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return fmt.Errorf("cursor must be a non-negative integer, got %q", args[1])
			}
			d, err := rt.digest(args[0])
			if err != nil {
				return err
			}
			path := rt.cfg.StatePath(*d)
			if err := rotation.NewStore(path, 0, rt.Logger()).Save(rotation.State(n)); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Cursor of %q set to %d.\n", d.Name, n)
			return nil
		},
	}
}
