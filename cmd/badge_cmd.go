// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/FrankHJCuypers/gaai-sub000/internal/sim"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/generic"
	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

var (
	badgeAddMax     bool
	badgeAddWait    time.Duration
	badgeAddPresent string
)

var badgeCmd = &cobra.Command{
	Use:   "badge",
	Short: "Manage the RFID badges stored in the charger",
}

var badgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored badges",
	RunE:  runBadgeList,
}

var badgeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new badge",
	Long: `Put the charger in badge registration mode and wait for a badge.

The charger asks for the badge twice; hold it against the reader when
prompted. With --max the badge starts charging at maximum power.`,
	RunE: runBadgeAdd,
}

var badgeDeleteCmd = &cobra.Command{
	Use:   "delete <uid>",
	Short: "Delete a badge by UID (hex, e.g. 04:A2:3C:11)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBadgeDelete,
}

func init() {
	rootCmd.AddCommand(badgeCmd)
	badgeCmd.AddCommand(badgeListCmd, badgeAddCmd, badgeDeleteCmd)

	badgeAddCmd.Flags().BoolVar(&badgeAddMax, "max", false, "Register the badge for maximum power charging")
	badgeAddCmd.Flags().DurationVar(&badgeAddWait, "wait", time.Minute, "How long to wait for the badge")
	badgeAddCmd.Flags().StringVar(&badgeAddPresent, "present", "", "Badge UID presented to the simulated charger")
}

func runBadgeList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	printHeader("GAAI - BADGES", c.info)
	return c.await(ctx, c.session.ListBadges, printBadgeList)
}

func runBadgeAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if badgeAddPresent != "" {
		charger, ok := c.link.(*sim.Charger)
		if !ok {
			return fmt.Errorf("--present requires --simulate")
		}
		badge, err := nexxtender.ParseBadgeID(badgeAddPresent)
		if err != nil {
			return err
		}
		charger.PresentBadge(badge)
	}

	mode := generic.BadgeModeDefault
	if badgeAddMax {
		mode = generic.BadgeModeMax
	}

	printHeader("GAAI - BADGES", c.info)
	return c.awaitFor(ctx, badgeAddWait,
		func(ctx context.Context) error { return c.session.AddBadge(ctx, mode) },
		func(ev generic.Event) (bool, error) {
			switch e := ev.(type) {
			case generic.BadgePromptEvent:
				if e.Step == 1 {
					printWarning("Present the badge to the charger")
				} else {
					printWarning("Present the badge again")
				}
			case generic.BadgeAddedEvent:
				printWarning("Badge added")
			case generic.BadgeExistsEvent:
				printWarning("Badge was already registered")
			default:
				return printBadgeList(ev)
			}
			return false, nil
		})
}

func runBadgeDelete(cmd *cobra.Command, args []string) error {
	badge, err := nexxtender.ParseBadgeID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	printHeader("GAAI - BADGES", c.info)
	return c.await(ctx,
		func(ctx context.Context) error { return c.session.DeleteBadge(ctx, badge) },
		func(ev generic.Event) (bool, error) {
			if e, ok := ev.(generic.BadgeDeleteSentEvent); ok {
				printWarning(fmt.Sprintf("Deleted %s", e.Badge))
				return false, nil
			}
			return printBadgeList(ev)
		})
}

// printBadgeList completes on a BadgeListEvent
func printBadgeList(ev generic.Event) (bool, error) {
	list, ok := ev.(generic.BadgeListEvent)
	if !ok {
		return false, nil
	}
	fmt.Println(labelStyle.Render(fmt.Sprintf("Badges (%d):", len(list.Badges))))
	if len(list.Badges) == 0 {
		fmt.Println(headerStyle.Render("  (none)"))
	}
	for i, b := range list.Badges {
		fmt.Printf("  %2d. %s\n", i+1, valueStyle.Render(b.String()))
	}
	return true, nil
}
