// Command admintool is an operator CLI against the economy core: inspect and
// adjust user state directly without going through a platform dispatcher.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/vantari-labs/CompanionBot_Go/internal/cache"
	"github.com/vantari-labs/CompanionBot_Go/internal/config"
	"github.com/vantari-labs/CompanionBot_Go/internal/database"
	"github.com/vantari-labs/CompanionBot_Go/internal/database/postgres"
	"github.com/vantari-labs/CompanionBot_Go/internal/inventory"
	"github.com/vantari-labs/CompanionBot_Go/internal/leaderboard"
	"github.com/vantari-labs/CompanionBot_Go/internal/points"
	"github.com/vantari-labs/CompanionBot_Go/internal/registry"
	"github.com/vantari-labs/CompanionBot_Go/internal/reminder"
	"github.com/vantari-labs/CompanionBot_Go/internal/roll"
	"github.com/vantari-labs/CompanionBot_Go/internal/streak"
)

type app struct {
	roll   *roll.Service
	inv    *inventory.Service
	points *points.Service
	flags  *reminder.Flags
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}

	ctx := context.Background()

	pool, err := database.NewPool(cfg.GetDBConnString(), 4, 5*time.Minute, 30*time.Minute)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer pool.Close()

	kv, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}

	catalog, err := registry.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Catalog load failed: %v", err)
	}

	states := postgres.NewUserStateRepository(pool)
	owned := postgres.NewOwnershipRepository(pool)
	wallets := postgres.NewWalletRepository(pool)
	boards := leaderboard.NewRedis(kv.Client())
	tracker := streak.NewTracker(kv, boards)

	a := &app{
		roll:   roll.NewService(kv, states, cfg.RollWindowSeconds),
		inv:    inventory.NewService(states, owned, catalog, registry.NewDirPackSource(cfg.PacksDir), tracker, boards),
		points: points.NewService(wallets, tracker, boards),
		flags:  reminder.NewFlags(kv),
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "roll-status":
		return a.rollStatus(ctx, args)
	case "grant-bonus":
		return a.grantBonus(ctx, args)
	case "onboard":
		return a.onboard(ctx, args)
	case "claim":
		return a.claim(ctx, args)
	case "restore-streak":
		return a.restoreStreak(ctx, args)
	case "balance":
		return a.balance(ctx, args)
	case "adjust-points":
		return a.adjustPoints(ctx, args)
	case "add-character":
		return a.addCharacter(ctx, args)
	case "remove-character":
		return a.removeCharacter(ctx, args)
	case "set-active":
		return a.setActive(ctx, args)
	case "buy-upgrade":
		return a.buyUpgrade(ctx, args)
	case "reminders":
		return a.reminders(ctx, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Println("Usage: admintool <command> [args...]")
	fmt.Println("Commands:")
	fmt.Println("  roll-status <user_id> <tier>           Show roll allowance and retry time")
	fmt.Println("  grant-bonus <user_id> <amount>         Grant bonus rolls")
	fmt.Println("  onboard <user_id>                      Grant the one-time onboarding bonus roll")
	fmt.Println("  claim <user_id>                        Run the daily claim for a user")
	fmt.Println("  restore-streak <user_id>               Buy back a broken claim streak")
	fmt.Println("  balance <user_id>                      Show balance and claim status")
	fmt.Println("  adjust-points <user_id> <delta>        Adjust a balance (audited)")
	fmt.Println("  add-character <user_id> <char> <tier>  Grant a character")
	fmt.Println("  remove-character <user_id> <char>      Remove a character")
	fmt.Println("  set-active <user_id> <char>            Set the active character ('' clears)")
	fmt.Println("  buy-upgrade <user_id>                  Purchase an inventory upgrade")
	fmt.Println("  reminders <user_id> <on|off>           Toggle streak reminders")
}

func parseUserID(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("user_id required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id %q: %w", args[0], err)
	}
	return id, nil
}

func (a *app) rollStatus(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("tier required")
	}

	allowance, err := a.roll.CanRoll(ctx, userID, args[1])
	if err != nil {
		return err
	}
	fmt.Printf("allowed=%v remaining=%d per_day=%d bonus=%d\n",
		allowance.Allowed, allowance.Remaining, allowance.PerDay, a.roll.GetBonusRolls(ctx, userID))
	if !allowance.Allowed {
		fmt.Printf("retry_after=%s\n", a.roll.RetryAfter(ctx, userID, args[1]))
	}
	return nil
}

func (a *app) grantBonus(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("amount required")
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}

	total, err := a.roll.GrantBonusRolls(ctx, userID, amount, roll.DefaultBonusTTL)
	if err != nil {
		return err
	}
	fmt.Printf("bonus_rolls=%d\n", total)
	return nil
}

func (a *app) onboard(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}

	granted, err := a.roll.GrantOnboardingBonus(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Printf("granted=%v\n", granted)
	return nil
}

func (a *app) claim(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}

	result, err := a.points.ClaimDaily(ctx, userID, 0)
	if err != nil {
		return err
	}
	fmt.Printf("awarded=%d balance=%d streak=%d repeat=%v\n",
		result.Awarded, result.Balance, result.Streak, result.ClaimedToday)
	if result.RestoreAvailable {
		fmt.Printf("restore offered: cost=%d restore_to=%d\n", result.RestoreCost, result.RestoreToStreak)
	}
	return nil
}

func (a *app) restoreStreak(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}

	balance, restored, err := a.points.RestoreStreak(ctx, userID, 0)
	if err != nil {
		return err
	}
	fmt.Printf("balance=%d streak=%d\n", balance, restored)
	return nil
}

func (a *app) balance(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}

	balance, err := a.points.GetBalance(ctx, userID)
	if err != nil {
		return err
	}
	status, err := a.points.GetClaimStatus(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Printf("balance=%d claimed_today=%v streak=%d next_claim_in=%ds\n",
		balance, status.ClaimedToday, status.Streak, status.NextClaimInSecs)
	return nil
}

func (a *app) adjustPoints(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("delta required")
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid delta %q: %w", args[1], err)
	}

	balance, err := a.points.AdjustPoints(ctx, userID, delta, points.ReasonAdjust, map[string]any{"source": "admintool"})
	if err != nil {
		return err
	}
	fmt.Printf("balance=%d\n", balance)
	return nil
}

func (a *app) addCharacter(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}
	if len(args) < 3 {
		return fmt.Errorf("character id and tier required")
	}

	if err := a.inv.AddCharacter(ctx, userID, args[1], args[2], 0); err != nil {
		return err
	}
	fmt.Println("added")
	return nil
}

func (a *app) removeCharacter(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("character id required")
	}

	oldStreak, err := a.inv.RemoveCharacter(ctx, userID, args[1])
	if err != nil {
		return err
	}
	fmt.Printf("removed, prior talk streak=%d\n", oldStreak)
	return nil
}

func (a *app) setActive(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}

	id := ""
	if len(args) > 1 {
		id = args[1]
	}
	if err := a.inv.SetActive(ctx, userID, id); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func (a *app) buyUpgrade(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}

	upgrades, err := a.inv.PurchaseUpgrade(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Printf("upgrades=%d\n", upgrades)
	return nil
}

func (a *app) reminders(ctx context.Context, args []string) error {
	userID, err := parseUserID(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("on|off required")
	}

	if err := a.flags.SetEnabled(ctx, userID, args[1] == "on"); err != nil {
		return err
	}
	fmt.Printf("reminders=%s\n", args[1])
	return nil
}
