package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/layer-3/turfbook/core"
)

var (
	turfFilter core.TurfFilter

	turfForm       core.TurfInput
	turfDayPrice   string
	turfNightPrice string
	turfInactive   bool
)

var turfsCmd = &cobra.Command{
	Use:   "turfs",
	Short: "Browse and manage turfs",
}

var turfsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List turfs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			turfs, err := a.turfs.List(cmd.Context(), turfFilter)
			if err != nil {
				return err
			}
			renderTurfs(cmd.OutOrStdout(), turfs)
			return nil
		})
	},
}

var turfsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one turf",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			t, err := a.turfs.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			renderTurfs(cmd.OutOrStdout(), []core.Turf{t})
			if t.Description != "" {
				fmt.Fprintln(cmd.OutOrStdout(), t.Description)
			}
			return nil
		})
	},
}

var turfsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a turf (turf owners only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := turfInput()
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			t, err := a.turfs.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created turf %d\n", t.ID)
			return nil
		})
	},
}

var turfsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace the details of a turf you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		in, err := turfInput()
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			t, err := a.turfs.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated turf %d\n", t.ID)
			return nil
		})
	},
}

var turfsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a turf you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			if err := a.turfs.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted turf %d\n", id)
			return nil
		})
	},
}

func turfInput() (core.TurfInput, error) {
	in := turfForm
	var err error
	if in.DayPricePerHour, err = decimal.NewFromString(turfDayPrice); err != nil {
		return core.TurfInput{}, fmt.Errorf("invalid day price %q", turfDayPrice)
	}
	if in.NightPricePerHour, err = decimal.NewFromString(turfNightPrice); err != nil {
		return core.TurfInput{}, fmt.Errorf("invalid night price %q", turfNightPrice)
	}
	active := !turfInactive
	in.IsActive = &active
	return in, nil
}

func renderTurfs(w io.Writer, turfs []core.Turf) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Location", "Day/h", "Night/h", "Night from", "Active"})
	for _, t := range turfs {
		table.Append([]string{
			strconv.FormatInt(t.ID, 10),
			t.Name,
			t.Location,
			t.DayPricePerHour.StringFixed(2),
			t.NightPricePerHour.StringFixed(2),
			t.NightStartTime,
			strconv.FormatBool(t.IsActive),
		})
	}
	table.Render()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(turfsCmd)
	turfsCmd.AddCommand(turfsListCmd, turfsShowCmd, turfsCreateCmd, turfsUpdateCmd, turfsDeleteCmd)

	turfsListCmd.Flags().BoolVar(&turfFilter.Owner, "mine", false, "Only turfs you own, inactive ones included")
	turfsListCmd.Flags().StringVarP(&turfFilter.Search, "search", "s", "", "Filter by name or location")

	for _, c := range []*cobra.Command{turfsCreateCmd, turfsUpdateCmd} {
		c.Flags().StringVar(&turfForm.Name, "name", "", "Turf name")
		c.Flags().StringVar(&turfForm.Location, "location", "", "Turf location")
		c.Flags().StringVar(&turfForm.Description, "description", "", "Description")
		c.Flags().StringVar(&turfDayPrice, "day-price", "0", "Price per hour during the day")
		c.Flags().StringVar(&turfNightPrice, "night-price", "0", "Price per hour at night")
		c.Flags().StringVar(&turfForm.DayStartTime, "day-start", "06:00", "Start of the day rate (HH:MM)")
		c.Flags().StringVar(&turfForm.NightStartTime, "night-start", "18:00", "Start of the night rate (HH:MM)")
		c.Flags().BoolVar(&turfInactive, "inactive", false, "Hide the turf from players")
	}
}
