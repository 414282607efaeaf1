package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/annel0/interactions/internal/auth"
	"github.com/annel0/interactions/internal/eventbus"
	"github.com/annel0/interactions/internal/interaction/recipe"
	"github.com/annel0/interactions/internal/journal"
)

const timeFormat = "2006-01-02T15:04:05Z"

func main() {
	var (
		command    = flag.String("cmd", "tail", "Command: tail, stats, check, reload, token")
		journalDir = flag.String("journal", "data/journal", "Outcome journal directory")
		recipesDir = flag.String("recipes", "assets/recipes", "Recipes directory (check)")
		natsURL    = flag.String("nats", "nats://127.0.0.1:4222", "NATS URL (reload)")
		stream     = flag.String("stream", "INTERACTIONS", "JetStream stream (reload)")
		recipes    = flag.String("recipe", "", "Recipe IDs filter (comma-separated)")
		since      = flag.String("since", "1h", "Time duration since now (e.g., 1h, 30m) or RFC3339")
		limit      = flag.Int("limit", 100, "Maximum number of entries")
		operator   = flag.String("operator", "admin", "Operator name (token)")
		admin      = flag.Bool("admin", true, "Issue admin token (token)")
		ttl        = flag.Duration("ttl", 24*time.Hour, "Token lifetime (token)")
	)
	flag.Parse()

	var err error
	switch *command {
	case "tail":
		err = tailJournal(*journalDir, &TailOptions{
			Recipes: parseStringList(*recipes),
			Since:   *since,
			Limit:   *limit,
		})
	case "stats":
		err = showStats(*journalDir, *since)
	case "check":
		err = checkRecipes(*recipesDir)
	case "reload":
		err = requestReload(*natsURL, *stream)
	case "token":
		err = issueToken(os.Getenv("INTERACTIONS_JWT_SECRET"), *operator, *admin, *ttl)
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, check, reload, token")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

type TailOptions struct {
	Recipes []string
	Since   string
	Limit   int
}

// tailJournal выводит последние записи журнала
func tailJournal(dir string, opts *TailOptions) error {
	start, err := parseSinceTime(opts.Since, time.Now())
	if err != nil {
		return fmt.Errorf("invalid since time: %v", err)
	}

	j, err := journal.Open(dir, false, nil)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Since(start)
	if err != nil {
		return err
	}

	fmt.Printf("🎬 Journal since %s (limit: %d)\n", start.UTC().Format(timeFormat), opts.Limit)
	shown := 0
	for _, e := range filterEntries(entries, opts.Recipes) {
		printEntry(e)
		shown++
		if opts.Limit > 0 && shown >= opts.Limit {
			break
		}
	}
	fmt.Printf("\n📊 Total entries: %d\n", shown)
	return nil
}

// showStats выводит число срабатываний по рецептам
func showStats(dir, since string) error {
	start, err := parseSinceTime(since, time.Now())
	if err != nil {
		return fmt.Errorf("invalid since time: %v", err)
	}

	j, err := journal.Open(dir, false, nil)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Since(start)
	if err != nil {
		return err
	}

	fmt.Println("📊 Outcome statistics")
	for _, s := range countByRecipe(entries) {
		fmt.Printf("  %s: %d outcomes, %d block changes\n", s.Recipe, s.Outcomes, s.Changed)
	}
	fmt.Printf("Total outcomes: %d\n", len(entries))
	return nil
}

// issueToken печатает токен оператора для REST API; ключ берётся из INTERACTIONS_JWT_SECRET
func issueToken(secret, operator string, admin bool, ttl time.Duration) error {
	if secret == "" {
		return fmt.Errorf("INTERACTIONS_JWT_SECRET is not set")
	}
	issuer, err := auth.NewIssuer(secret, ttl)
	if err != nil {
		return err
	}
	token, err := issuer.Generate(operator, admin)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

// checkRecipes загружает каталог рецептов и печатает проблемы
func checkRecipes(dir string) error {
	res, err := recipe.LoadDir(dir)
	if err != nil {
		return err
	}
	for _, r := range res.Recipes {
		fmt.Printf("✅ %s (%s)\n", r.ID, r.Source)
	}
	for _, p := range res.Problems {
		fmt.Printf("⚠️  %v\n", p)
	}
	fmt.Printf("\n%d recipes, %d problems\n", len(res.Recipes), len(res.Problems))
	if len(res.Problems) > 0 {
		os.Exit(2)
	}
	return nil
}

// requestReload просит серверы перечитать рецепты
func requestReload(url, stream string) error {
	bus, err := eventbus.NewJetStreamBus(url, stream, 24*time.Hour, nil)
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := eventbus.RequestReload(ctx, bus, "interactions-cli"); err != nil {
		return err
	}
	fmt.Println("🔄 Reload requested")
	return nil
}

type recipeStats struct {
	Recipe   string
	Outcomes int
	Changed  int
}

func countByRecipe(entries []journal.Entry) []recipeStats {
	byID := make(map[string]*recipeStats)
	for _, e := range entries {
		s, ok := byID[e.Outcome.RecipeID]
		if !ok {
			s = &recipeStats{Recipe: e.Outcome.RecipeID}
			byID[e.Outcome.RecipeID] = s
		}
		s.Outcomes++
		if e.Outcome.BlockChanged {
			s.Changed++
		}
	}
	out := make([]recipeStats, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Recipe < out[j].Recipe })
	return out
}

func filterEntries(entries []journal.Entry, recipes []string) []journal.Entry {
	if len(recipes) == 0 {
		return entries
	}
	keep := make(map[string]bool, len(recipes))
	for _, r := range recipes {
		keep[r] = true
	}
	out := entries[:0:0]
	for _, e := range entries {
		if keep[e.Outcome.RecipeID] {
			out = append(out, e)
		}
	}
	return out
}

// printEntry выводит запись в читаемом формате
func printEntry(e journal.Entry) {
	o := e.Outcome
	fmt.Printf("[%s] %s actor=%d pos=(%d,%d,%d) %s\n",
		o.At.Format("15:04:05"), o.RecipeID, o.ActorID, o.Pos.X, o.Pos.Y, o.Pos.Z, e.EventID)
	if o.NewState != nil {
		fmt.Printf("  Block: %s\n", o.NewState)
	}
	if o.Drop != nil {
		fmt.Printf("  Drop: %s\n", o.Drop)
	}
	if o.Damage > 0 {
		fmt.Printf("  Damage: %d\n", o.Damage)
	}
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseSinceTime парсит относительное время типа "1h", "30m"
func parseSinceTime(since string, from time.Time) (time.Time, error) {
	if since == "" {
		return time.Time{}, nil
	}

	duration, err := time.ParseDuration(since)
	if err != nil {
		// Пробуем парсить как абсолютное время
		return time.Parse(timeFormat, since)
	}

	return from.Add(-duration), nil
}
