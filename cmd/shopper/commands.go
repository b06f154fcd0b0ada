package main

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/domain"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/session"
)

// newRootCmd builds a fresh command tree bound to s.
func newRootCmd(s *shopper) *cobra.Command {
	root := &cobra.Command{
		Use:           "shopper",
		Short:         "Browse the catalog, manage a cart and wishlist, and track orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(s.out)
	root.SetErr(s.errOut)
	root.AddCommand(newCartCmd(s), newWishlistCmd(s), newCatalogCmd(s), newOrdersCmd(s), newShellCmd(s))
	return root
}

func newCartCmd(s *shopper) *cobra.Command {
	cart := &cobra.Command{Use: "cart", Short: "Show and change the cart"}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := s.session(cmd.Context())
			if err != nil {
				return err
			}
			printCart(s, sess.Cart.Snapshot())
			return nil
		},
	}

	var addSize string
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			product, err := s.catalog.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("look up product: %w", err)
			}
			sess, err := s.session(ctx)
			if err != nil {
				return err
			}
			if err := sess.Cart.AddToCart(ctx, product, addSize); err != nil {
				return err
			}
			printCart(s, sess.Cart.Snapshot())
			return nil
		},
	}
	add.Flags().StringVar(&addSize, "size", "", "size variant")

	var removeSize string
	remove := &cobra.Command{
		Use:   "remove <line-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := s.session(ctx)
			if err != nil {
				return err
			}
			if err := sess.Cart.RemoveFromCart(ctx, args[0], removeSize); err != nil {
				return err
			}
			printCart(s, sess.Cart.Snapshot())
			return nil
		},
	}
	remove.Flags().StringVar(&removeSize, "size", "", "size variant of the line")

	var setSize string
	set := &cobra.Command{
		Use:   "set <line-id> <quantity>",
		Short: "Set a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity %q is not a number", args[1])
			}
			ctx := cmd.Context()
			sess, err := s.session(ctx)
			if err != nil {
				return err
			}
			if err := sess.Cart.UpdateQuantity(ctx, args[0], qty, setSize); err != nil {
				return err
			}
			printCart(s, sess.Cart.Snapshot())
			return nil
		},
	}
	set.Flags().StringVar(&setSize, "size", "", "size variant of the line")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, err := s.session(ctx)
			if err != nil {
				return err
			}
			if err := sess.Cart.ClearCart(ctx); err != nil {
				return err
			}
			printCart(s, sess.Cart.Snapshot())
			return nil
		},
	}

	cart.AddCommand(show, add, remove, set, clearCmd)
	return cart
}

func newWishlistCmd(s *shopper) *cobra.Command {
	wishlist := &cobra.Command{Use: "wishlist", Short: "Show and change the wishlist"}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the wishlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := s.session(cmd.Context())
			if err != nil {
				return err
			}
			printProducts(s, sess.Wishlist.Items())
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <product-id>",
		Short: "Add a product to the wishlist, or remove it if present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			product, err := s.catalog.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("look up product: %w", err)
			}
			sess, err := s.session(ctx)
			if err != nil {
				return err
			}
			if err := sess.Wishlist.Toggle(ctx, product); err != nil {
				return err
			}
			state := "removed from"
			if sess.Wishlist.IsInWishlist(product.ID) {
				state = "added to"
			}
			fmt.Fprintf(s.out, "%s %s wishlist\n", product.Name, state)
			return nil
		},
	}

	has := &cobra.Command{
		Use:   "has <product-id>",
		Short: "Report whether a product is in the wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.session(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(s.out, sess.Wishlist.IsInWishlist(args[0]))
			return nil
		},
	}

	wishlist.AddCommand(show, toggle, has)
	return wishlist
}

func newCatalogCmd(s *shopper) *cobra.Command {
	catalogCmd := &cobra.Command{Use: "catalog", Short: "Browse products"}
	catalogCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := s.catalog.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}
			printProducts(s, products)
			return nil
		},
	})
	return catalogCmd
}

// newShellCmd reads commands from stdin, one per line, against the same
// session. It is how the in-memory backend is used across several commands.
func newShellCmd(s *shopper) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands read from stdin in one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				args := strings.Fields(scanner.Text())
				if len(args) == 0 || strings.HasPrefix(args[0], "#") {
					continue
				}
				if args[0] == "exit" || args[0] == "quit" {
					return nil
				}
				if args[0] == "shell" {
					fmt.Fprintln(s.errOut, "error: already in a shell")
					continue
				}

				// Flags are bound per tree, so each line gets a fresh one.
				line := newRootCmd(s)
				line.SetArgs(args)
				if err := line.ExecuteContext(cmd.Context()); err != nil {
					if errors.Is(err, cmd.Context().Err()) {
						return err
					}
					fmt.Fprintln(s.errOut, "error:", err)
				}
			}
			return scanner.Err()
		},
	}
}

func money(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func printCart(s *shopper, v session.CartView) {
	if len(v.Lines) == 0 {
		fmt.Fprintln(s.out, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tPRODUCT\tSIZE\tQTY\tUNIT\tSUBTOTAL")
	for _, l := range v.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			l.ID, l.Product.Name, l.Size, l.Quantity, money(l.UnitPrice), money(l.Subtotal()))
	}
	_ = tw.Flush()
	fmt.Fprintf(s.out, "items: %d  total: %s\n", v.ItemCount, money(v.Total))
}

func printProducts(s *shopper, products []domain.Product) {
	if len(products) == 0 {
		fmt.Fprintln(s.out, "no products")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSIZES")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Category, money(p.Price), strings.Join(p.Sizes, ","))
	}
	_ = tw.Flush()
}
