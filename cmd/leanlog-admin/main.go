// ABOUTME: Admin CLI for leanlog-gateway operating directly on the SQLite store
// ABOUTME: Manages API keys, meal templates, and calorie profiles

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/leanlog/internal/apikeys"
	"github.com/2389/leanlog/internal/config"
	"github.com/2389/leanlog/internal/store"
)

const adminBanner = `leanlog-admin — manage keys, meals, and profiles`

func printUsage() {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	cyan.Println(adminBanner)
	fmt.Println()
	fmt.Println("Usage: leanlog-admin <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  keys create --user <id> --name <name>   Create a new API key")
	fmt.Println("  keys list --user <id>                   List API keys for a user")
	fmt.Println("  keys revoke --user <id> <key-id>        Revoke an API key")
	fmt.Println("  meals create --user <id> --name <name>  Create a meal template")
	fmt.Println("  meals list --user <id>                  List meal templates")
	fmt.Println("  meals archive --user <id> <meal-id>     Archive a meal template")
	fmt.Println("  profile show --user <id>                Show a user's calorie profile")
	fmt.Println("  profile set --user <id> [flags]         Set calorie targets")
	fmt.Println()
	gray.Println("The database path is read from the gateway config (LEANLOG_CONFIG,")
	gray.Println("else ~/.config/leanlog/gateway.yaml), or LEANLOG_DB_PATH if set.")
}

func main() {
	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	st, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	switch os.Args[1] {
	case "keys":
		err = runKeys(ctx, st, os.Args[2], os.Args[3:])
	case "meals":
		err = runMeals(ctx, st, os.Args[2], os.Args[3:])
	case "profile":
		err = runProfile(ctx, st, os.Args[2], os.Args[3:])
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStore resolves the database path the same way the gateway does so both
// binaries operate on the same file.
func openStore() (*store.SQLiteStore, error) {
	dbPath := os.Getenv("LEANLOG_DB_PATH")
	if dbPath == "" {
		cfg, err := config.Load(getConfigPath())
		if err != nil {
			return nil, fmt.Errorf("loading config (set LEANLOG_DB_PATH to skip): %w", err)
		}
		dbPath = cfg.Database.Path
	}

	return store.NewSQLiteStore(dbPath)
}

func getConfigPath() string {
	if envPath := os.Getenv("LEANLOG_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml"
		}
		configDir = homeDir + "/.config"
	}

	return configDir + "/leanlog/gateway.yaml"
}

func runKeys(ctx context.Context, st *store.SQLiteStore, sub string, args []string) error {
	switch sub {
	case "create":
		fs := flag.NewFlagSet("keys create", flag.ExitOnError)
		userID := fs.String("user", "", "user ID the key belongs to")
		name := fs.String("name", "", "human-readable key name")
		fs.Parse(args)
		if *userID == "" || *name == "" {
			return fmt.Errorf("keys create requires --user and --name")
		}

		rawKey := apikeys.GenerateRawKey()
		hashed, err := apikeys.HashKey(rawKey)
		if err != nil {
			return fmt.Errorf("hashing key: %w", err)
		}

		key := &store.APIKey{
			UserID:    *userID,
			Name:      *name,
			HashedKey: hashed,
		}
		if err := st.CreateAPIKey(ctx, key); err != nil {
			return err
		}

		green := color.New(color.FgGreen)
		green.Println("API key created.")
		fmt.Printf("  ID:   %s\n", key.ID)
		fmt.Printf("  Name: %s\n", key.Name)
		fmt.Println()
		yellow := color.New(color.FgYellow)
		yellow.Println("Store this key now — it cannot be recovered:")
		fmt.Printf("  %s\n", rawKey)
		return nil

	case "list":
		fs := flag.NewFlagSet("keys list", flag.ExitOnError)
		userID := fs.String("user", "", "user ID to list keys for")
		fs.Parse(args)
		if *userID == "" {
			return fmt.Errorf("keys list requires --user")
		}

		keys, err := st.ListAPIKeysForUser(ctx, *userID)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Println("No API keys found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCREATED\tLAST USED\tSTATUS")
		for _, k := range keys {
			lastUsed := "never"
			if k.LastUsedAt != nil {
				lastUsed = k.LastUsedAt.Format(time.RFC3339)
			}
			status := "active"
			if k.RevokedAt != nil {
				status = "revoked"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				k.ID, k.Name, k.CreatedAt.Format("2006-01-02"), lastUsed, status)
		}
		return w.Flush()

	case "revoke":
		fs := flag.NewFlagSet("keys revoke", flag.ExitOnError)
		userID := fs.String("user", "", "user ID that owns the key")
		fs.Parse(args)
		if *userID == "" || fs.NArg() != 1 {
			return fmt.Errorf("keys revoke requires --user and a key ID")
		}

		if err := st.RevokeAPIKey(ctx, *userID, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Println("API key revoked.")
		return nil

	default:
		return fmt.Errorf("unknown keys subcommand: %s", sub)
	}
}

func runMeals(ctx context.Context, st *store.SQLiteStore, sub string, args []string) error {
	switch sub {
	case "create":
		fs := flag.NewFlagSet("meals create", flag.ExitOnError)
		userID := fs.String("user", "", "user ID the meal belongs to")
		name := fs.String("name", "", "meal name")
		protein := fs.Float64("protein", -1, "target protein in grams")
		carbs := fs.Float64("carbs", -1, "target carbs in grams")
		fat := fs.Float64("fat", -1, "target fat in grams")
		calories := fs.Float64("calories", -1, "target calories")
		fs.Parse(args)
		if *userID == "" || *name == "" {
			return fmt.Errorf("meals create requires --user and --name")
		}

		meal := &store.Meal{
			UserID: *userID,
			Name:   *name,
		}
		if *protein >= 0 {
			meal.TargetProteinG = protein
		}
		if *carbs >= 0 {
			meal.TargetCarbsG = carbs
		}
		if *fat >= 0 {
			meal.TargetFatG = fat
		}
		if *calories >= 0 {
			meal.TargetCalories = calories
		}

		if err := st.CreateMeal(ctx, meal); err != nil {
			return err
		}
		fmt.Printf("Meal created: %s (%s)\n", meal.Name, meal.ID)
		return nil

	case "list":
		fs := flag.NewFlagSet("meals list", flag.ExitOnError)
		userID := fs.String("user", "", "user ID to list meals for")
		all := fs.Bool("all", false, "include archived meals")
		fs.Parse(args)
		if *userID == "" {
			return fmt.Errorf("meals list requires --user")
		}

		meals, err := st.ListMeals(ctx, *userID, *all)
		if err != nil {
			return err
		}
		if len(meals) == 0 {
			fmt.Println("No meals found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tORDER\tTARGETS\tSTATUS")
		for _, m := range meals {
			status := "active"
			if m.Archived {
				status = "archived"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				m.ID, m.Name, m.OrderIndex, formatTargets(m), status)
		}
		return w.Flush()

	case "archive":
		fs := flag.NewFlagSet("meals archive", flag.ExitOnError)
		userID := fs.String("user", "", "user ID that owns the meal")
		fs.Parse(args)
		if *userID == "" || fs.NArg() != 1 {
			return fmt.Errorf("meals archive requires --user and a meal ID")
		}

		if err := st.ArchiveMeal(ctx, *userID, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Println("Meal archived.")
		return nil

	default:
		return fmt.Errorf("unknown meals subcommand: %s", sub)
	}
}

func formatTargets(m *store.Meal) string {
	s := ""
	if m.TargetProteinG != nil {
		s += fmt.Sprintf("%gp ", *m.TargetProteinG)
	}
	if m.TargetCarbsG != nil {
		s += fmt.Sprintf("%gc ", *m.TargetCarbsG)
	}
	if m.TargetFatG != nil {
		s += fmt.Sprintf("%gf ", *m.TargetFatG)
	}
	if m.TargetCalories != nil {
		s += fmt.Sprintf("%gkcal", *m.TargetCalories)
	}
	if s == "" {
		return "-"
	}
	return s
}

func runProfile(ctx context.Context, st *store.SQLiteStore, sub string, args []string) error {
	switch sub {
	case "show":
		fs := flag.NewFlagSet("profile show", flag.ExitOnError)
		userID := fs.String("user", "", "user ID")
		fs.Parse(args)
		if *userID == "" {
			return fmt.Errorf("profile show requires --user")
		}

		profile, err := st.GetProfile(ctx, *userID)
		if err != nil {
			return err
		}

		fmt.Printf("User: %s\n", profile.UserID)
		if profile.TargetCalories != nil {
			fmt.Printf("  Target calories:    %g\n", *profile.TargetCalories)
		} else {
			fmt.Println("  Target calories:    (not set)")
		}
		if profile.SuggestedCalories != nil {
			fmt.Printf("  Suggested calories: %g\n", *profile.SuggestedCalories)
		} else {
			fmt.Println("  Suggested calories: (not set)")
		}
		return nil

	case "set":
		fs := flag.NewFlagSet("profile set", flag.ExitOnError)
		userID := fs.String("user", "", "user ID")
		target := fs.Float64("target", -1, "daily calorie target")
		suggested := fs.Float64("suggested", -1, "suggested daily calories")
		fs.Parse(args)
		if *userID == "" {
			return fmt.Errorf("profile set requires --user")
		}
		if *target < 0 && *suggested < 0 {
			return fmt.Errorf("profile set requires --target and/or --suggested")
		}

		// Preserve whichever value is not being changed.
		profile, err := st.GetProfile(ctx, *userID)
		if err != nil {
			return err
		}
		if *target >= 0 {
			profile.TargetCalories = target
		}
		if *suggested >= 0 {
			profile.SuggestedCalories = suggested
		}

		if err := st.UpsertProfile(ctx, profile); err != nil {
			return err
		}
		fmt.Println("Profile updated.")
		return nil

	default:
		return fmt.Errorf("unknown profile subcommand: %s", sub)
	}
}
