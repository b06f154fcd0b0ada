package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/repository"
)

const orderDate = "Jan 2, 2006"

func newOrdersCmd(s *shopper) *cobra.Command {
	orders := &cobra.Command{Use: "orders", Short: "Track orders and update their status"}

	var (
		status  string
		all     bool
		page    int
		perPage int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List your orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, userID, err := s.orderBook(cmd.Context())
			if err != nil {
				return err
			}
			filter := repository.OrderFilter{Page: page, PerPage: perPage}
			if !all {
				filter.UserID = &userID
			}
			if status != "" {
				filter.Status = &status
			}
			found, total, err := svc.ListOrders(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printOrders(s, found, total, all)
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "", "only orders in this status")
	list.Flags().BoolVar(&all, "all", false, "every shopper's orders (admin)")
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&perPage, "per-page", 20, "orders per page")

	var anyOwner bool
	show := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Print an order with its fulfilment progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, userID, err := s.orderBook(cmd.Context())
			if err != nil {
				return err
			}
			var order *domain.Order
			if anyOwner {
				order, err = svc.GetAnyOrder(cmd.Context(), args[0])
			} else {
				order, err = svc.GetOrder(cmd.Context(), userID, args[0])
			}
			if err != nil {
				return err
			}
			printOrder(s, order)
			return nil
		},
	}
	show.Flags().BoolVar(&anyOwner, "any", false, "look up another shopper's order (admin)")

	var statusReason string
	setStatus := &cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Move an order to a new status (admin)",
		Long:  "Move an order to a new status. Valid statuses: " + strings.Join(domain.ValidStatuses(), ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := s.orderBook(cmd.Context())
			if err != nil {
				return err
			}
			order, err := svc.UpdateOrderStatus(cmd.Context(), args[0], strings.ToLower(args[1]), statusReason)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "%s is now %s\n", order.ID, order.Status)
			return nil
		},
	}
	setStatus.Flags().StringVar(&statusReason, "reason", "", "cancellation reason")

	var cancelReason string
	cancelCmd := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel one of your orders that has not shipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, userID, err := s.orderBook(cmd.Context())
			if err != nil {
				return err
			}
			order, err := svc.CancelOrder(cmd.Context(), userID, args[0], cancelReason)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "%s is now %s\n", order.ID, order.Status)
			return nil
		},
	}
	cancelCmd.Flags().StringVar(&cancelReason, "reason", "", "why the order is cancelled")

	orders.AddCommand(list, show, setStatus, cancelCmd)
	return orders
}

func printOrders(s *shopper, orders []domain.Order, total int, withOwner bool) {
	if len(orders) == 0 {
		fmt.Fprintln(s.out, "no orders")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	header := "ORDER\tPLACED\tSTATUS\tITEMS\tTOTAL"
	if withOwner {
		header += "\tSHOPPER"
	}
	fmt.Fprintln(tw, header)
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s",
			o.ID, o.CreatedAt.Format(orderDate), o.Status, o.ItemCount(), money(o.TotalAmount()))
		if withOwner {
			fmt.Fprintf(tw, "\t%s", o.UserID)
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
	fmt.Fprintf(s.out, "showing %d of %d\n", len(orders), total)
}

func printOrder(s *shopper, o *domain.Order) {
	fmt.Fprintf(s.out, "order %s  %s  payment %s\n", o.ID, strings.ToUpper(o.Status), o.PaymentStatus)
	for _, step := range o.Steps() {
		mark := "[ ]"
		if step.Completed {
			mark = "[x]"
		}
		line := mark + " " + step.Title
		if !step.At.IsZero() {
			line += "  " + step.At.Format(orderDate)
		}
		fmt.Fprintln(s.out, line)
	}
	if o.Status == domain.OrderStatusCancelled {
		reason := o.CancelReason
		if reason == "" {
			reason = "no reason given"
		}
		fmt.Fprintf(s.out, "cancelled: %s\n", reason)
	}

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tSIZE\tQTY\tPRICE\tSUBTOTAL")
	for _, it := range o.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", it.Name, it.Size, it.Quantity, money(it.Price), money(it.LineTotal()))
	}
	_ = tw.Flush()

	if a := o.ShippingAddress; a != nil {
		fmt.Fprintf(s.out, "ship to: %s, %s, %s, %s\n", a.Street, a.City, a.ZipCode, a.Country)
	}
	fmt.Fprintf(s.out, "subtotal: %s  shipping: %s  total: %s\n",
		money(o.Subtotal()), money(o.ShippingAmount), money(o.TotalAmount()))
}
