package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"pricescanner/frontend/invoice"
	"pricescanner/infrastructure/cartstore"
	"pricescanner/infrastructure/config"
	"pricescanner/infrastructure/logger"
	"pricescanner/infrastructure/redis"
	"pricescanner/infrastructure/sqlite"
)

// cliOrigin marks writes made from the command line so open tabs reload them.
const cliOrigin = "cartctl"

func main() {
	_ = godotenv.Load()
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	deviceFlag := &cli.StringFlag{
		Name:     "device",
		Aliases:  []string{"d"},
		Usage:    "device id from the X-Cart-Device cookie",
		Required: true,
	}

	return &cli.App{
		Name:  "cartctl",
		Usage: "inspect and repair device carts in durable storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "storage",
				Value:   config.StorageSQLite,
				Usage:   "storage driver: sqlite or redis",
				EnvVars: []string{config.EnvPrefix + "_STORAGE_DRIVER"},
			},
			&cli.StringFlag{
				Name:    "sqlite-path",
				Value:   "pricescanner.db",
				EnvVars: []string{config.EnvPrefix + "_SQLITE_PATH"},
			},
			&cli.StringFlag{
				Name:    "migrations",
				Usage:   "migrations directory; the embedded set is used when empty",
				EnvVars: []string{config.EnvPrefix + "_MIGRATIONS_DIR"},
			},
			&cli.StringFlag{
				Name:    "redis-url",
				EnvVars: []string{config.EnvPrefix + "_REDIS_URL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list stored device carts",
				Action: listAction,
			},
			{
				Name:   "show",
				Usage:  "print the lines of a device cart",
				Flags:  []cli.Flag{deviceFlag},
				Action: showAction,
			},
			{
				Name:  "export",
				Usage: "write a device cart as CSV",
				Flags: []cli.Flag{
					deviceFlag,
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file; stdout when empty"},
				},
				Action: exportAction,
			},
			{
				Name:   "clear",
				Usage:  "empty a device cart",
				Flags:  []cli.Flag{deviceFlag},
				Action: clearAction,
			},
			{
				Name:  "history",
				Usage: "print recent writes to a device cart (sqlite only)",
				Flags: []cli.Flag{
					deviceFlag,
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: historyAction,
			},
		},
	}
}

type backend struct {
	storage cartstore.Storage
	sqlite  *sqlite.CartStorage
	redis   *redis.CartStorage
	close   func()
}

func openBackend(c *cli.Context) (*backend, error) {
	ctx := c.Context
	switch driver := strings.ToLower(strings.TrimSpace(c.String("storage"))); driver {
	case config.StorageSQLite:
		db, err := sqlite.OpenDB(c.String("sqlite-path"))
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		if dir := strings.TrimSpace(c.String("migrations")); dir != "" {
			err = sqlite.ApplyMigrations(ctx, db, dir)
		} else {
			err = sqlite.ApplyEmbeddedMigrations(ctx, db)
		}
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		storage := sqlite.NewCartStorage(db)
		return &backend{storage: storage, sqlite: storage, close: func() { _ = db.Close() }}, nil
	case config.StorageRedis:
		storage, err := redis.New(ctx, c.String("redis-url"), logger.Nop().Zerolog())
		if err != nil {
			return nil, err
		}
		return &backend{storage: storage, redis: storage, close: func() { _ = storage.Close() }}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func withCart(c *cli.Context, fn func(ctx context.Context, b *backend, store *cartstore.Store) error) error {
	b, err := openBackend(c)
	if err != nil {
		return err
	}
	defer b.close()
	store := cartstore.Open(c.Context, b.storage,
		cartstore.WithKey(cartstore.DeviceKey(c.String("device"))),
		cartstore.WithOrigin(cliOrigin),
	)
	return fn(c.Context, b, store)
}

func listAction(c *cli.Context) error {
	b, err := openBackend(c)
	if err != nil {
		return err
	}
	defer b.close()

	out := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	prefix := cartstore.DefaultKey + "/"
	switch {
	case b.sqlite != nil:
		records, err := b.sqlite.Keys(c.Context, prefix)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "DEVICE\tREVISION\tLAST WRITER\tUPDATED")
		for _, r := range records {
			fmt.Fprintf(out, "%s\t%d\t%s\t%s\n", strings.TrimPrefix(r.Key, prefix), r.Revision, r.Origin, r.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
	default:
		keys, err := b.redis.Keys(c.Context, prefix)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "DEVICE")
		for _, k := range keys {
			fmt.Fprintln(out, strings.TrimPrefix(k, prefix))
		}
	}
	return out.Flush()
}

func showAction(c *cli.Context) error {
	return withCart(c, func(_ context.Context, _ *backend, store *cartstore.Store) error {
		return printCart(c.App.Writer, store.Snapshot())
	})
}

func printCart(w io.Writer, snap cartstore.Snapshot) error {
	if len(snap.Lines) == 0 {
		_, err := fmt.Fprintln(w, "cart is empty")
		return err
	}
	out := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(out, "BARCODE\tPRODUCT\tPRICE\tQTY\tLINE TOTAL")
	for _, l := range snap.Lines {
		fmt.Fprintf(out, "%s\t%s\t%.2f %s\t%d\t%s\n", l.Barcode, l.ProductName, l.UnitPrice, l.Currency, l.Quantity, l.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(out, "\t\t\t%d\t%s\n", snap.Count, snap.Total.StringFixed(2))
	return out.Flush()
}

func exportAction(c *cli.Context) error {
	return withCart(c, func(_ context.Context, _ *backend, store *cartstore.Store) error {
		path := strings.TrimSpace(c.String("out"))
		if path == "" {
			return invoice.WriteCSV(c.App.Writer, store.Cart())
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := invoice.WriteCSV(f, store.Cart()); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	})
}

func clearAction(c *cli.Context) error {
	return withCart(c, func(ctx context.Context, _ *backend, store *cartstore.Store) error {
		removed := store.Count()
		store.ClearCart(ctx)
		if !store.Persisted() {
			return fmt.Errorf("clear %s: storage write failed", store.Key())
		}
		_, err := fmt.Fprintf(c.App.Writer, "cleared %s (%d items)\n", store.Key(), removed)
		return err
	})
}

func historyAction(c *cli.Context) error {
	return withCart(c, func(ctx context.Context, b *backend, store *cartstore.Store) error {
		if b.sqlite == nil {
			return fmt.Errorf("history needs the %s storage driver", config.StorageSQLite)
		}
		rows, err := b.sqlite.History(ctx, store.Key(), c.Int("limit"))
		if err != nil {
			return err
		}
		out := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(out, "REVISION\tACTION\tWRITER\tAT")
		for _, r := range rows {
			fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", r.Revision, r.Action, r.Origin, r.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return out.Flush()
	})
}
