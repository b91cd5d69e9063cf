package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jomfood/jomdeals/internal/cli"
	"github.com/jomfood/jomdeals/internal/collection"
	"github.com/jomfood/jomdeals/internal/model"
	"github.com/jomfood/jomdeals/internal/notify"
)

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "View and manage notifications",
	}

	cmd.AddCommand(notificationsListCmd())
	cmd.AddCommand(notificationsUnreadCmd())
	cmd.AddCommand(notificationsReadCmd())
	cmd.AddCommand(notificationsReadAllCmd())
	cmd.AddCommand(notificationsWatchCmd())

	return cmd
}

func notificationsListCmd() *cobra.Command {
	var status string
	var pages int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNotificationsList(cmd.Context(), status, pages)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by read status (read, unread)")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to fetch")

	return cmd
}

func notificationsUnreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Show the unread badge count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sync, err := newNotifySync()
			if err != nil {
				return err
			}
			if err := sync.Poll(cmd.Context()); err != nil {
				return err
			}
			renderBadge(sync.Ledger())
			return nil
		},
	}
}

func notificationsReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sync, err := newNotifySync()
			if err != nil {
				return err
			}
			if err := sync.MarkRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Marked as read"))
			renderBadge(sync.Ledger())
			return nil
		},
	}
}

func notificationsReadAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sync, err := newNotifySync()
			if err != nil {
				return err
			}
			if err := sync.MarkAllRead(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Marked all as read"))
			renderBadge(sync.Ledger())
			return nil
		},
	}
}

func notificationsWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the unread badge until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sync, err := newNotifySync()
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Watching notifications"))
			go func() {
				sync.Run(cmd.Context())
			}()

			<-cmd.Context().Done()
			renderBadge(sync.Ledger())
			return nil
		},
	}
}

func newNotifySync() (*notify.Sync, error) {
	b, err := newBackend()
	if err != nil {
		return nil, err
	}
	return notify.NewSync(b.client, b.rc, b.settings.PollInterval), nil
}

func runNotificationsList(ctx context.Context, status string, pages int) error {
	b, err := newBackend()
	if err != nil {
		return err
	}

	coll := collection.New[model.Notification]()
	key := "notifications:" + b.rc.CustomerID + ":" + status
	coll.GetOrCreate(key, func(ctx context.Context, page int) (model.Page[model.Notification], error) {
		return b.client.FetchNotifications(ctx, b.rc, page, status)
	})

	if pages < 1 {
		pages = 1
	}
	for i := 0; i < pages && coll.HasNext(key); i++ {
		if err := coll.FetchNext(ctx, key); err != nil {
			return err
		}
	}

	renderNotifications(coll.Flatten(key))
	return nil
}

func renderNotifications(list []model.Notification) {
	fmt.Println(cli.FormatTitle("Notifications"))

	if len(list) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No notifications."))
		return
	}

	for _, n := range list {
		marker := cli.SuccessStyle.Render("●")
		if n.IsRead {
			marker = cli.SubtleStyle.Render("○")
		}
		fmt.Printf("%s %s\n", marker, n.Title)
		if n.Body != "" {
			fmt.Println(cli.SubtleStyle.Render("  " + n.Body))
		}
		fmt.Println(cli.SubtleStyle.Render("  " + n.CreatedAt.Format("2006-01-02 15:04")))
	}
}

func renderBadge(ledger notify.Ledger) {
	if !ledger.HasUnread {
		fmt.Println(cli.SubtleStyle.Render(cli.BellIcon + " no unread notifications"))
		return
	}
	fmt.Println(cli.FormatWarning(fmt.Sprintf("%s %d unread", cli.BellIcon, ledger.UnreadCount)))
}
