package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/rental-listings/internal/config"
	"github.com/iliyamo/rental-listings/internal/database"
	"github.com/iliyamo/rental-listings/internal/docstore"
	"github.com/iliyamo/rental-listings/internal/repository"
	"github.com/iliyamo/rental-listings/internal/utils"
	"github.com/iliyamo/rental-listings/internal/view"
)

const RentalCtlVersion = "0.1.0"

const usage = `Rental listings control.

Works directly against the document store configured for the server
(.env, CONFIG_FILE and environment variables).

Usage:
    rentalctl listings list
    rentalctl neighborhoods list
    rentalctl neighborhoods add <name>
    rentalctl bookings list
    rentalctl bookings clear <id>
    rentalctl token issue <uid> [--ttl=<ttl>]

Options:
    -h --help        Show this screen.
    --version        Show version.
    --ttl=<ttl>      Token lifetime [default: 720h].`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], RentalCtlVersion)
	if err != nil {
		fail(err)
	}
	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}

	if token_, _ := opts.Bool("token"); token_ {
		issueToken(cfg, opts)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// mysql writes reach running servers through redis notifications
	var rdb *redis.Client
	if cfg.StoreDriver == config.DriverMySQL {
		if rdb, err = config.NewRedisClient(ctx, cfg.Redis); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v: servers will see changes on their next poll\n", err)
		} else {
			defer rdb.Close()
		}
	}
	store, closeStore, err := database.OpenStore(ctx, cfg, rdb)
	if err != nil {
		fail(err)
	}
	defer closeStore()

	if listings_, _ := opts.Bool("listings"); listings_ {
		listListings(ctx, store, cfg.AppID)
	} else if neighborhoods_, _ := opts.Bool("neighborhoods"); neighborhoods_ {
		if add_, _ := opts.Bool("add"); add_ {
			name, _ := opts.String("<name>")
			addNeighborhood(ctx, store, cfg.AppID, name)
		} else {
			listNeighborhoods(ctx, store, cfg.AppID)
		}
	} else if bookings_, _ := opts.Bool("bookings"); bookings_ {
		if clear_, _ := opts.Bool("clear"); clear_ {
			id, _ := opts.String("<id>")
			clearBooking(ctx, store, cfg.AppID, id)
		} else {
			listBookings(ctx, store, cfg.AppID)
		}
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "rentalctl: %v\n", err)
	os.Exit(1)
}

func listListings(ctx context.Context, store docstore.Store, appID string) {
	items, err := repository.NewListingRepo(store, appID).List(ctx)
	if err != nil {
		fail(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tNEIGHBORHOOD\tTYPE\tPRICE\tAVAILABILITY\tIMAGES")
	for _, l := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d\n", l.ID, l.Name, l.Neighborhood, l.RoomType, l.PricePerNight, l.Availability, len(l.Images))
	}
	w.Flush()
	s := view.ComputeStats(items, nil)
	fmt.Printf("\n%d listings, %d available, fleet value %s\n", s.Total, s.Available, view.FormatValue(s.TotalValue))
}

func listNeighborhoods(ctx context.Context, store docstore.Store, appID string) {
	names, err := repository.NewNeighborhoodRepo(store, appID).Names(ctx)
	if err != nil {
		fail(err)
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

func addNeighborhood(ctx context.Context, store docstore.Store, appID, name string) {
	id, err := repository.NewNeighborhoodRepo(store, appID).Add(ctx, name)
	if err != nil {
		fail(err)
	}
	fmt.Println(id)
}

func listBookings(ctx context.Context, store docstore.Store, appID string) {
	items, err := repository.NewBookingRepo(store, appID).List(ctx)
	if err != nil {
		fail(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tCLIENT\tPHONE\tLISTING\tSTATUS")
	for _, b := range items {
		created := time.UnixMilli(b.CreatedAt).Format("2006-01-02 15:04")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", b.ID, created, b.ClientName, b.ClientPhone, b.ListingName, b.Status)
	}
	w.Flush()
}

func clearBooking(ctx context.Context, store docstore.Store, appID, id string) {
	if err := repository.NewBookingRepo(store, appID).Delete(ctx, id); err != nil {
		fail(err)
	}
}

func issueToken(cfg config.Config, opts docopt.Opts) {
	uid, _ := opts.String("<uid>")
	ttlStr, _ := opts.String("--ttl")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		fail(fmt.Errorf("invalid --ttl %q: %w", ttlStr, err))
	}
	tok, err := utils.NewSessionToken(cfg.IdentitySecret, uid, ttl)
	if err != nil {
		fail(err)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
