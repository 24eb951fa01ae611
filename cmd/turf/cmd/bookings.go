package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/layer-3/turfbook/core"
)

var bookingForm core.BookingRequest

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Manage your bookings",
}

var bookingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your bookings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			bookings, err := a.bookings.List(cmd.Context())
			if err != nil {
				return err
			}
			renderBookings(cmd.OutOrStdout(), bookings)
			return nil
		})
	},
}

var bookingsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Book a turf",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			b, err := a.bookings.Create(cmd.Context(), bookingForm)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Booked %s on %s %s-%s for %s\n",
				b.Turf.Name, b.Date, b.StartTime, b.EndTime, b.TotalPrice.StringFixed(2))
			return nil
		})
	},
}

var bookingsCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
			if err := a.bookings.Cancel(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled booking %d\n", id)
			return nil
		})
	},
}

func renderBookings(w io.Writer, bookings []core.Booking) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Turf", "Location", "Date", "Time", "Total"})
	for _, b := range bookings {
		table.Append([]string{
			strconv.FormatInt(b.ID, 10),
			b.Turf.Name,
			b.Turf.Location,
			b.Date,
			b.StartTime + "-" + b.EndTime,
			b.TotalPrice.StringFixed(2),
		})
	}
	table.Render()
}

func init() {
	rootCmd.AddCommand(bookingsCmd)
	bookingsCmd.AddCommand(bookingsListCmd, bookingsCreateCmd, bookingsCancelCmd)

	bookingsCreateCmd.Flags().Int64Var(&bookingForm.Turf, "turf", 0, "Turf id")
	bookingsCreateCmd.Flags().StringVar(&bookingForm.Date, "date", "", "Date (YYYY-MM-DD)")
	bookingsCreateCmd.Flags().StringVar(&bookingForm.StartTime, "start", "", "Start time (HH:MM)")
	bookingsCreateCmd.Flags().StringVar(&bookingForm.EndTime, "end", "", "End time (HH:MM)")
}
