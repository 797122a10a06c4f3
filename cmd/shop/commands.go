package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/joao-fontenele/storefront/internal/adminauth"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/client"
	"github.com/joao-fontenele/storefront/internal/domain"
)

var errUsage = errors.New("usage")

type app struct {
	out    io.Writer
	cart   *cart.Store
	api    *client.Client
	logger *slog.Logger
}

type command struct {
	name    string
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

var commands = []command{
	{"products", "list the catalog", (*app).products},
	{"product", "show one product", (*app).product},
	{"add", "add a product to the cart", (*app).add},
	{"remove", "remove a product from the cart", (*app).remove},
	{"set", "change the quantity of a cart line", (*app).set},
	{"clear", "empty the cart", (*app).clear},
	{"cart", "show the cart", (*app).showCart},
	{"checkout", "place an order for the cart", (*app).checkout},
	{"confirmation", "show the last order confirmation once", (*app).confirmation},
	{"track", "look up an order by id and phone", (*app).track},
	{"admin", "orders, order, status, analytics, token", (*app).admin},
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: command required", errUsage)
	}
	for _, c := range commands {
		if c.name == args[0] {
			a.logger.Debug("running command", "command", c.name)
			return c.run(a, ctx, args[1:])
		}
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *pflag.FlagSet, args []string, positional int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errUsage, fs.Name(), err)
	}
	if fs.NArg() != positional {
		return nil, fmt.Errorf("%w: %s expects %d argument(s), got %d", errUsage, fs.Name(), positional, fs.NArg())
	}
	return fs.Args(), nil
}

func price(v int64) string {
	return "PKR " + strconv.FormatInt(v, 10)
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := newFlags("products")
	category := fs.StringP("category", "c", "", "filter by category")
	search := fs.StringP("search", "s", "", "search title and description")
	page := fs.IntP("page", "p", 1, "page number")
	limit := fs.IntP("limit", "l", 0, "page size")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	products, pagination, err := a.api.ListProducts(ctx, domain.ProductFilter{
		Category: domain.Category(*category),
		Search:   *search,
		Page:     *page,
		Limit:    *limit,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE\tSTOCK\tRATING")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.1f (%d)\n", p.ID, p.Title, p.Category, price(p.Price), p.Stock, p.Rating, p.Reviews)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d of %d, %d products\n", pagination.Page, pagination.Pages, pagination.Total)
	return nil
}

func (a *app) product(ctx context.Context, args []string) error {
	rest, err := parse(newFlags("product"), args, 1)
	if err != nil {
		return err
	}

	p, err := a.api.GetProduct(ctx, rest[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s\n%s\n\n", p.Title, p.Description)
	fmt.Fprintf(a.out, "price:    %s\n", price(p.Price))
	fmt.Fprintf(a.out, "category: %s\n", p.Category)
	fmt.Fprintf(a.out, "stock:    %d\n", p.Stock)
	fmt.Fprintf(a.out, "rating:   %.1f (%d reviews)\n", p.Rating, p.Reviews)
	fmt.Fprintf(a.out, "image:    %s\n", p.PrimaryImage())
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := newFlags("add")
	qty := fs.IntP("quantity", "q", 1, "units to add")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	if *qty < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", errUsage)
	}

	p, err := a.api.GetProduct(ctx, rest[0])
	if err != nil {
		return err
	}
	if p.Stock <= 0 {
		return fmt.Errorf("%s is out of stock", p.Title)
	}

	a.cart.AddProduct(p, *qty)
	fmt.Fprintf(a.out, "added %d x %s, cart has %d item(s)\n", *qty, p.Title, a.cart.TotalItems())
	return nil
}

func (a *app) remove(_ context.Context, args []string) error {
	rest, err := parse(newFlags("remove"), args, 1)
	if err != nil {
		return err
	}
	a.cart.RemoveItem(rest[0])
	fmt.Fprintf(a.out, "cart has %d item(s)\n", a.cart.TotalItems())
	return nil
}

func (a *app) set(_ context.Context, args []string) error {
	rest, err := parse(newFlags("set"), args, 2)
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(rest[1])
	if err != nil {
		return fmt.Errorf("%w: quantity %q is not a number", errUsage, rest[1])
	}
	a.cart.SetQuantity(rest[0], qty)
	fmt.Fprintf(a.out, "cart has %d item(s)\n", a.cart.TotalItems())
	return nil
}

func (a *app) clear(_ context.Context, args []string) error {
	if _, err := parse(newFlags("clear"), args, 0); err != nil {
		return err
	}
	a.cart.Clear()
	fmt.Fprintln(a.out, "cart cleared")
	return nil
}

func (a *app) showCart(_ context.Context, args []string) error {
	if _, err := parse(newFlags("cart"), args, 0); err != nil {
		return err
	}
	if a.cart.Len() == 0 {
		fmt.Fprintln(a.out, "your cart is empty")
		return nil
	}
	return a.printItems(a.cart.Items(), a.cart.TotalPrice())
}

func (a *app) printItems(items []domain.LineItem, total int64) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tTITLE\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", item.ProductID, item.Title, item.Quantity, price(item.Price), price(item.Subtotal()))
	}
	fmt.Fprintf(tw, "\t\t\tTOTAL\t%s\n", price(total))
	return tw.Flush()
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := newFlags("checkout")
	var customer cart.Customer
	fs.StringVar(&customer.Name, "name", "", "full name")
	fs.StringVar(&customer.Email, "email", "", "email for the confirmation (optional)")
	fs.StringVar(&customer.Phone, "phone", "", "phone number, needed to track the order")
	fs.StringVar(&customer.Address, "address", "", "delivery address")
	fs.StringVar(&customer.City, "city", "", "city")
	fs.StringVar(&customer.Notes, "notes", "", "delivery notes")
	method := fs.String("payment", string(domain.PaymentMethodCOD), "payment method: COD or Stripe")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	order, err := a.cart.Checkout(ctx, a.api, customer, domain.PaymentMethod(*method))
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			return fmt.Errorf("order rejected:\n%s", formatFields(apiErr.Fields))
		}
		return err
	}

	fmt.Fprintf(a.out, "order placed: %s\n", order.OrderID)
	fmt.Fprintln(a.out, "keep the order id and your phone number to track it")
	return nil
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %s\n", k, fields[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *app) confirmation(_ context.Context, args []string) error {
	if _, err := parse(newFlags("confirmation"), args, 0); err != nil {
		return err
	}

	c, ok := a.cart.TakeConfirmation()
	if !ok {
		fmt.Fprintln(a.out, "no recent order")
		return nil
	}

	fmt.Fprintf(a.out, "order %s\n", c.OrderID)
	fmt.Fprintf(a.out, "deliver to %s, %s, %s (%s)\n\n", c.CustomerName, c.CustomerAddress, c.CustomerCity, c.CustomerPhone)
	return a.printItems(c.CartItems, c.TotalPrice)
}

func (a *app) track(ctx context.Context, args []string) error {
	fs := newFlags("track")
	phone := fs.String("phone", "", "phone number used at checkout")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}

	order, err := a.api.Track(ctx, rest[0], *phone)
	if err != nil {
		return err
	}
	return a.printOrder(order)
}

func (a *app) printOrder(o *domain.Order) error {
	fmt.Fprintf(a.out, "order %s placed %s\n", o.OrderID, o.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(a.out, "status:  %s\n", o.Status)
	fmt.Fprintf(a.out, "payment: %s (%s)\n", o.PaymentStatus, o.PaymentMethod)
	if next := o.Status.Next(); len(next) > 0 {
		fmt.Fprintf(a.out, "next:    %v\n", next)
	}
	fmt.Fprintln(a.out)
	return a.printItems(o.Items, o.TotalPrice)
}

func (a *app) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: admin needs one of orders, order, status, analytics, token", errUsage)
	}

	switch args[0] {
	case "orders":
		return a.adminOrders(ctx, args[1:])
	case "order":
		return a.adminOrder(ctx, args[1:])
	case "status":
		return a.adminStatus(ctx, args[1:])
	case "analytics":
		return a.adminAnalytics(ctx, args[1:])
	case "token":
		return a.adminToken(args[1:])
	default:
		return fmt.Errorf("%w: unknown admin command %q", errUsage, args[0])
	}
}

func (a *app) adminOrders(ctx context.Context, args []string) error {
	if _, err := parse(newFlags("orders"), args, 0); err != nil {
		return err
	}

	orders, stats, err := a.api.ListOrders(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tCUSTOMER\tPHONE\tTOTAL\tSTATUS\tPAYMENT\tPLACED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", o.OrderID, o.CustomerName, o.CustomerPhone,
			price(o.TotalPrice), o.Status, o.PaymentStatus, o.CreatedAt.Local().Format(time.DateTime))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\n%d orders, revenue %s, %d pending, %d delivered\n",
		stats.TotalOrders, price(stats.TotalRevenue), stats.PendingOrders, stats.CompletedOrders)
	return nil
}

func (a *app) adminOrder(ctx context.Context, args []string) error {
	rest, err := parse(newFlags("order"), args, 1)
	if err != nil {
		return err
	}

	order, err := a.api.GetOrder(ctx, rest[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "customer: %s <%s> %s\n", order.CustomerName, order.CustomerEmail, order.CustomerPhone)
	fmt.Fprintf(a.out, "address:  %s, %s\n", order.CustomerAddress, order.CustomerCity)
	if order.Notes != "" {
		fmt.Fprintf(a.out, "notes:    %s\n", order.Notes)
	}
	return a.printOrder(order)
}

func (a *app) adminStatus(ctx context.Context, args []string) error {
	rest, err := parse(newFlags("status"), args, 2)
	if err != nil {
		return err
	}

	order, err := a.api.UpdateStatus(ctx, rest[0], domain.OrderStatus(rest[1]))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s, payment %s\n", order.OrderID, order.Status, order.PaymentStatus)
	return nil
}

func (a *app) adminAnalytics(ctx context.Context, args []string) error {
	if _, err := parse(newFlags("analytics"), args, 0); err != nil {
		return err
	}

	report, err := a.api.Analytics(ctx)
	if err != nil {
		return err
	}

	o := report.Overview
	fmt.Fprintf(a.out, "orders:          %d (%d pending, %d delivered)\n", o.TotalOrders, o.PendingOrders, o.CompletedOrders)
	fmt.Fprintf(a.out, "revenue:         %s\n", price(o.TotalRevenue))
	fmt.Fprintf(a.out, "avg order value: PKR %.2f\n", o.AvgOrderValue)
	fmt.Fprintf(a.out, "conversion rate: %s%%\n", report.ConversionRate)
	fmt.Fprintf(a.out, "products:        %d\n", o.ProductCount)

	if len(report.TopProducts) > 0 {
		fmt.Fprintln(a.out, "\ntop products:")
		for _, p := range report.TopProducts {
			fmt.Fprintf(a.out, "  %s  %d sold  %s\n", p.ProductID, p.Count, price(p.Revenue))
		}
	}

	if len(report.RevenueByDate) > 0 {
		days := make([]string, 0, len(report.RevenueByDate))
		for d := range report.RevenueByDate {
			days = append(days, d)
		}
		sort.Strings(days)

		fmt.Fprintln(a.out, "\nrevenue by day:")
		for _, d := range days {
			fmt.Fprintf(a.out, "  %s  %s\n", d, price(report.RevenueByDate[d]))
		}
	}
	return nil
}

func (a *app) adminToken(args []string) error {
	fs := newFlags("token")
	secret := fs.String("secret", os.Getenv("ADMIN_JWT_SECRET"), "signing secret (ADMIN_JWT_SECRET)")
	email := fs.String("email", "", "admin email")
	role := fs.String("role", string(adminauth.RoleAdmin), "admin or superadmin")
	ttl := fs.Duration("ttl", adminauth.DefaultTTL, "token lifetime")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}
	if *secret == "" || *email == "" {
		return fmt.Errorf("%w: token needs --secret and --email", errUsage)
	}

	token, err := adminauth.New(*secret).Issue(*email, adminauth.Role(*role), *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, token)
	return nil
}
