package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jomfood/jomdeals/internal/claims"
	"github.com/jomfood/jomdeals/internal/cli"
	"github.com/jomfood/jomdeals/internal/collection"
	"github.com/jomfood/jomdeals/internal/model"
	"github.com/jomfood/jomdeals/internal/storage"
)

func claimsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Track and manage claimed deals",
	}

	cmd.AddCommand(claimsListCmd())
	cmd.AddCommand(claimsNewCmd())
	cmd.AddCommand(claimsRescheduleCmd())
	cmd.AddCommand(claimsCancelCmd())

	return cmd
}

func claimsListCmd() *cobra.Command {
	var pages int
	var local bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your claim history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if local {
				return runClaimsListLocal(cmd.Context())
			}
			return runClaimsList(cmd.Context(), pages)
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to fetch")
	cmd.Flags().BoolVar(&local, "local", false, "show the locally cached copies without fetching")

	return cmd
}

func claimsNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <deal-id>",
		Short: "Claim a deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClaimsNew(cmd.Context(), args[0])
		},
	}
}

func claimsRescheduleCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "reschedule <claim-id>",
		Short: "Move an active claim to a new preferred datetime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preferred, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("invalid --at datetime (want RFC3339, e.g. 2026-09-01T19:30:00+08:00): %w", err)
			}
			return runClaimsReschedule(cmd.Context(), args[0], preferred)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "new preferred datetime (RFC3339)")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func claimsCancelCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "cancel <claim-id>",
		Short: "Cancel an active claim",
		Long: `Cancel an active claim. Cancellation is irreversible; the claim
moves to its terminal cancelled state and cannot be reactivated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("cancellation is irreversible; re-run with --yes to confirm")
			}
			return runClaimsCancel(cmd.Context(), args[0])
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the cancellation")

	return cmd
}

func runClaimsList(ctx context.Context, pages int) error {
	b, err := newBackend()
	if err != nil {
		return err
	}
	store, err := b.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	coll := collection.New[model.Claim]()
	key := claims.HistoryPrefix + b.rc.CustomerID
	coll.GetOrCreate(key, func(ctx context.Context, page int) (model.Page[model.Claim], error) {
		return b.client.FetchClaims(ctx, b.rc, page)
	})

	if pages < 1 {
		pages = 1
	}
	for i := 0; i < pages && coll.HasNext(key); i++ {
		if err := coll.FetchNext(ctx, key); err != nil {
			return err
		}
	}

	fetched := coll.Flatten(key)

	// Refresh the read-through copies so lifecycle guards see current state.
	for i := range fetched {
		if err := store.SaveClaim(ctx, &fetched[i]); err != nil {
			return err
		}
	}

	renderClaims(fetched)
	return nil
}

// runClaimsListLocal renders the read-through copies only; useful when the
// backend is unreachable and for checking what the lifecycle guards see.
func runClaimsListLocal(ctx context.Context) error {
	b, err := newBackend()
	if err != nil {
		return err
	}
	store, err := b.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	list, err := store.ListClaims(ctx)
	if err != nil {
		return err
	}

	renderClaims(list)
	return nil
}

func runClaimsNew(ctx context.Context, dealID string) error {
	svc, store, b, err := newClaimService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	claim, err := svc.ClaimDeal(ctx, b.rc, dealID)
	if err != nil {
		return err
	}

	title := claim.DealTitle
	if title == "" {
		title = claim.DealID
	}

	lines := []string{"claim " + claim.ID}
	if !claim.ExpiresAt.IsZero() {
		lines = append(lines, "redeem before "+claim.ExpiresAt.Format("2006-01-02 15:04"))
	}
	if claim.QRCodeURL != "" {
		lines = append(lines, "QR: "+claim.QRCodeURL)
	}
	fmt.Println(cli.FormatSuccess("Deal claimed"))
	fmt.Println(cli.RenderBox(cli.TicketIcon+" "+title, strings.Join(lines, "\n")))
	return nil
}

func runClaimsReschedule(ctx context.Context, claimID string, preferred time.Time) error {
	svc, store, b, err := newClaimService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	claim, err := svc.Reschedule(ctx, b.rc, claimID, preferred)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rescheduled claim %s to %s", claim.ID, preferred.Format("2006-01-02 15:04"))))
	return nil
}

func runClaimsCancel(ctx context.Context, claimID string) error {
	svc, store, b, err := newClaimService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	claim, err := svc.Cancel(ctx, b.rc, claimID)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Cancelled claim %s", claim.ID)))
	return nil
}

// newClaimService wires the lifecycle service with a fresh collection so
// every confirmed mutation expires the claim-history cache family.
func newClaimService(ctx context.Context) (*claims.Service, *storage.Store, *backend, error) {
	b, err := newBackend()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := b.openStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	svc := claims.NewService(b.client, store, collection.New[model.Claim]())
	return svc, store, b, nil
}

func renderClaims(list []model.Claim) {
	fmt.Println(cli.FormatTitle("Claim history"))

	if len(list) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No claims yet."))
		return
	}

	for _, claim := range list {
		title := claim.DealTitle
		if title == "" {
			title = claim.DealID
		}
		line := fmt.Sprintf("%s %s  %s", cli.TicketIcon, title, renderStatus(claim.Status))
		fmt.Println(line)

		meta := "claimed " + claim.ClaimedAt.Format("2006-01-02 15:04")
		if claim.PreferredDatetime != nil {
			meta += "  visit " + claim.PreferredDatetime.Format("2006-01-02 15:04")
		}
		if claim.Status == model.ClaimStatusActive && !claim.ExpiresAt.IsZero() {
			meta += "  expires " + claim.ExpiresAt.Format("2006-01-02 15:04")
		}
		fmt.Println(cli.SubtleStyle.Render("  " + meta))
	}
}

func renderStatus(status model.ClaimStatus) string {
	switch {
	case status == model.ClaimStatusActive:
		return cli.SuccessStyle.Render(string(status))
	case status == model.ClaimStatusRedeemed:
		return cli.SubtleStyle.Render(string(status))
	case status.IsTerminal():
		return cli.ErrorStyle.Render(string(status))
	default:
		return string(status)
	}
}
