package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/world"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		worldType string
		name      string
		scenes    []string
	)
	cmd := &cobra.Command{
		Use:   "create <file>",
		Short: "Create a new world file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wc := a.cfg.World
			wc.Editing = true
			w, err := a.newWorld(wc)
			if err != nil {
				return err
			}
			defer a.closeWorld(w)
			if err := w.Create(cmd.Context(), world.WorldType(worldType)); err != nil {
				return err
			}
			if name != "" {
				if err := w.Configuration().SetName(name); err != nil {
					return err
				}
			}
			for _, s := range scenes {
				if _, err := w.CreateScene(world.SceneDescriptor{Name: s}); err != nil {
					return err
				}
			}
			if err := w.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s world %s (%s)\n",
				worldType, w.SourcePath(), w.Configuration().WorldID())
			return nil
		},
	}
	cmd.Flags().StringVar(&worldType, "type", string(world.WorldTypeMaster), "world type (master or merge)")
	cmd.Flags().StringVar(&name, "name", "", "world name")
	cmd.Flags().StringSliceVar(&scenes, "scene", nil, "scene to add (repeatable)")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print the world header and type catalogues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.openWorld(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			defer a.closeWorld(w)

			out := cmd.OutOrStdout()
			cfg := w.Configuration()
			fmt.Fprintf(out, "path:        %s\n", w.SourcePath())
			fmt.Fprintf(out, "version:     %s\n", cfg.Version())
			fmt.Fprintf(out, "type:        %s\n", cfg.WorldType())
			fmt.Fprintf(out, "id:          %s\n", cfg.WorldID())
			fmt.Fprintf(out, "name:        %s\n", cfg.Name())
			if cfg.Description() != "" {
				fmt.Fprintf(out, "description: %s\n", cfg.Description())
			}
			fmt.Fprintf(out, "scenes:      %d\n", cfg.SceneCount())

			for _, base := range []string{"Objects", "ObjectSubElements", "Scenes::Elements"} {
				n, err := countRows(w, base)
				if err != nil {
					return err
				}
				if n >= 0 {
					fmt.Fprintf(out, "%-12s %d\n", base+":", n)
				}
			}
			for _, table := range []string{"ObjectTypes", "ObjectSubElementTypes", "SceneElementTypes"} {
				if err := printTypes(out, w, table); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newScenesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scenes <file>",
		Short: "List the scenes of a world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.openWorld(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			defer a.closeWorld(w)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tFLAGS\tDESCRIPTION")
			cfg := w.Configuration()
			for i := 0; i < cfg.SceneCount(); i++ {
				d := cfg.Scene(i)
				fmt.Fprintf(tw, "%d\t%s\t%#x\t%s\n", d.ID, d.Name, d.Flags, d.Description)
			}
			return tw.Flush()
		},
	}
}

func newUpgradeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <file>",
		Short: "Migrate a world file to the current schema in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.World.AllowUpgrade = true
			w, err := a.openWorld(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			defer a.closeWorld(w)
			if err := w.Save(w.SourcePath()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is at version %s\n", w.SourcePath(), w.Configuration().Version())
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Report path-like columns that are not declared as path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.openWorld(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			defer a.closeWorld(w)

			tables, err := w.DB().Tables()
			if err != nil {
				return err
			}
			found := 0
			for _, table := range tables {
				cols, err := w.CheckPathColumns(table)
				if err != nil {
					return err
				}
				for _, c := range cols {
					fmt.Fprintf(cmd.OutOrStdout(), "%s.%s\n", table, c)
					found++
				}
			}
			if found > 0 {
				return fmt.Errorf("%d column(s) will not be relocated on save", found)
			}
			return nil
		},
	}
}

// countRows returns -1 when the table is absent from this world type.
func countRows(w *world.World, table string) (int64, error) {
	ok, err := w.TableExists(table)
	if err != nil || !ok {
		return -1, err
	}
	q, err := w.DB().NewQuery("SELECT COUNT(*) AS Total FROM " + persist.QuoteIdentifier(table))
	if err != nil {
		return 0, err
	}
	defer q.Close()
	if !q.Step(false) {
		return 0, errors.New(q.LastError())
	}
	var n int64
	err = q.Column("Total", &n)
	return n, err
}

func printTypes(out io.Writer, w *world.World, table string) error {
	q, err := w.DB().NewQuery(`SELECT Identifier, LocalName, DatabaseTable FROM ` + persist.QuoteIdentifier(table) + ` ORDER BY LocalName`)
	if err != nil {
		return err
	}
	defer q.Close()
	fmt.Fprintf(out, "%s:\n", table)
	return q.Each(func(q *persist.Query) error {
		var id, name, dbTable string
		if err := errors.Join(
			q.Column("Identifier", &id),
			q.Column("LocalName", &name),
			q.Column("DatabaseTable", &dbTable),
		); err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s  %-20s %s\n", id, name, dbTable)
		return nil
	})
}
