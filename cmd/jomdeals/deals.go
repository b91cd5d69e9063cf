package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jomfood/jomdeals/internal/cli"
	"github.com/jomfood/jomdeals/internal/collection"
	"github.com/jomfood/jomdeals/internal/filters"
	"github.com/jomfood/jomdeals/internal/model"
)

// dealsKeyPrefix is the cache-key family for deal listings.
const dealsKeyPrefix = "deals:"

type dealsFlags struct {
	sortBy      string
	dealType    string
	category    string
	company     string
	search      string
	tags        []string
	minPrice    int
	maxPrice    int
	minDiscount int
	maxDiscount int
	lat         float64
	lng         float64
	radiusKm    float64
	hot         bool
	pages       int
	watch       bool
}

func dealsCmd() *cobra.Command {
	var flags dealsFlags

	cmd := &cobra.Command{
		Use:   "deals",
		Short: "Browse active deals",
		Long: `Browse active deals with the full set of listing filters.

Multiple pages are prefetched in order; within a run the page cache
deduplicates fetches and keeps a stable item order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeals(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.sortBy, "sort", "", "sort order (newest, recommended, nearest, price_asc, price_desc, discount_desc, expiry_asc)")
	cmd.Flags().StringVar(&flags.dealType, "type", "", "deal type (percentage, fixed_amount, combo)")
	cmd.Flags().StringVar(&flags.category, "category", "", "category id")
	cmd.Flags().StringVar(&flags.company, "company", "", "restaurant name")
	cmd.Flags().StringVar(&flags.search, "search", "", "free-text search")
	cmd.Flags().StringSliceVar(&flags.tags, "tags", nil, "tags (comma separated)")
	cmd.Flags().IntVar(&flags.minPrice, "min-price", 0, "minimum price (0-500)")
	cmd.Flags().IntVar(&flags.maxPrice, "max-price", 0, "maximum price (0-500, 0 = no cap)")
	cmd.Flags().IntVar(&flags.minDiscount, "min-discount", 0, "minimum discount percent")
	cmd.Flags().IntVar(&flags.maxDiscount, "max-discount", 0, "maximum discount percent (0 = no cap)")
	cmd.Flags().Float64Var(&flags.lat, "lat", 0, "latitude for nearby search")
	cmd.Flags().Float64Var(&flags.lng, "lng", 0, "longitude for nearby search")
	cmd.Flags().Float64Var(&flags.radiusKm, "radius", 0, "search radius in km")
	cmd.Flags().BoolVar(&flags.hot, "hot", false, "hot deals only")
	cmd.Flags().IntVar(&flags.pages, "pages", 1, "number of pages to prefetch")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "keep refreshing the listing on the configured interval")

	return cmd
}

func runDeals(ctx context.Context, flags dealsFlags) error {
	b, err := newBackend()
	if err != nil {
		return err
	}

	// Drive the filter panel the way the app does: open, edit, apply.
	ctrl := filters.NewController()
	ctrl.OpenEditor()
	ctrl.UpdateDraft(func(fs *model.FilterSet) {
		fs.SortBy = model.SortOption(flags.sortBy)
		fs.DealType = model.DealType(flags.dealType)
		fs.CategoryID = flags.category
		fs.CompanyName = flags.company
		fs.TextSearch = flags.search
		fs.Tags = flags.tags
		fs.MinPrice = flags.minPrice
		fs.MaxPrice = flags.maxPrice
		fs.MinDiscount = flags.minDiscount
		fs.MaxDiscount = flags.maxDiscount
		fs.Latitude = flags.lat
		fs.Longitude = flags.lng
		fs.RadiusKm = flags.radiusKm
		fs.IsHotDeal = flags.hot
	})
	cf, err := ctrl.Apply()
	if err != nil {
		return err
	}

	coll := collection.New[model.Deal]()
	key := dealsKeyPrefix + cf.Key()
	coll.GetOrCreate(key, func(ctx context.Context, page int) (model.Page[model.Deal], error) {
		return b.client.FetchDeals(ctx, b.rc, cf, page)
	})

	if err := prefetchDeals(ctx, coll, key, flags.pages); err != nil {
		return err
	}
	renderDeals(coll.Flatten(key))

	if !flags.watch {
		return nil
	}

	// Watch mode: sweep the deals family on the refresh interval and
	// refetch page 1 after each sweep.
	sweeper := collection.NewSweeper(coll, b.settings.RefreshInterval, dealsKeyPrefix)
	go sweeper.Run(ctx)

	ticker := time.NewTicker(b.settings.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := coll.FetchNext(ctx, key); err != nil {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("refresh failed: %v", err)))
				continue
			}
			renderDeals(coll.Flatten(key))
		}
	}
}

func prefetchDeals(ctx context.Context, coll *collection.Collection[model.Deal], key string, pages int) error {
	if pages < 1 {
		pages = 1
	}

	var bar *progressbar.ProgressBar
	if pages > 1 {
		bar = progressbar.NewOptions(pages,
			progressbar.OptionSetDescription("Fetching deals"),
			progressbar.OptionClearOnFinish(),
		)
	}

	for i := 0; i < pages && coll.HasNext(key); i++ {
		if err := coll.FetchNext(ctx, key); err != nil {
			return err
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return nil
}

func renderDeals(deals []model.Deal) {
	fmt.Println(cli.FormatTitle("Active deals"))

	if len(deals) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No deals match the current filters."))
		return
	}

	now := time.Now()
	for _, deal := range deals {
		var sb strings.Builder
		if deal.IsHotDeal {
			sb.WriteString(cli.HotStyle.Render(cli.HotIcon + " "))
		}
		sb.WriteString(deal.Title)
		sb.WriteString("  ")
		sb.WriteString(cli.FormatPrice(deal.OriginalPrice, deal.DiscountedPrice))
		if deal.DiscountPercent > 0 {
			sb.WriteString(cli.SuccessStyle.Render(fmt.Sprintf("  -%d%%", deal.DiscountPercent)))
		}
		fmt.Println(sb.String())

		meta := deal.CompanyName
		if !deal.ExpiresAt.IsZero() {
			meta += fmt.Sprintf("  ends %s", deal.ExpiresAt.Format("2006-01-02 15:04"))
			if deal.Expired(now) {
				meta += "  (expired)"
			}
		}
		fmt.Println(cli.SubtleStyle.Render("  " + meta))
	}
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d deals", len(deals))))
}
