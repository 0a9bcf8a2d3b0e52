package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"colony-server/internal/colony"
	"colony-server/internal/shared/config"
	"colony-server/internal/session"
	"colony-server/internal/shared/logger"
	"colony-server/internal/sim"
)

var (
	catalogPath  string
	logLevel     string
	seed         int64
	duration     time.Duration
	step         time.Duration
	builds       []string
	exploreEvery time.Duration
	biome        string
	hazardPolicy string
	storageCap   int
	quiet        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "colonyctl",
		Short: "Colony economy tools",
		Long: `Inspect the module catalog and run headless colony simulations
on virtual time.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Path to a YAML module catalog (default: built-in)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Engine log level (debug, info, warn, error)")

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show modules and exploration biomes",
		RunE:  runCatalog,
	}

	defaults := colony.DefaultConfig()
	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a colony simulation",
		Example: `  colonyctl simulate --duration 5m --build "Farm@0,0" --build "Oxygen Generator@0,1@30s"
  colonyctl simulate --explore-every 2s --biome abyss --hazard-policy drain`,
		RunE: runSimulate,
	}
	simulateCmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	simulateCmd.Flags().DurationVar(&duration, "duration", 5*time.Minute, "Simulated time to run")
	simulateCmd.Flags().DurationVar(&step, "step", 250*time.Millisecond, "Simulation step")
	simulateCmd.Flags().StringArrayVarP(&builds, "build", "b", nil, `Build order "Module@row,col[@delay]" (repeatable)`)
	simulateCmd.Flags().DurationVar(&exploreEvery, "explore-every", 0, "Launch the drone at this interval (0 disables)")
	simulateCmd.Flags().StringVar(&biome, "biome", string(colony.Shallow), "Biome to explore")
	simulateCmd.Flags().StringVar(&hazardPolicy, "hazard-policy", string(colony.HazardBoth), "Hazard policy (none, destroy, drain, both)")
	simulateCmd.Flags().IntVar(&storageCap, "storage", defaults.StorageCapacity, "Initial storage capacity (0 disables the cap)")
	simulateCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the final state")

	rootCmd.AddCommand(catalogCmd, simulateCmd)

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func loadCatalog() (*colony.Catalog, error) {
	return session.LoadCatalog(catalogPath)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	titleColor := color.New(color.FgCyan, color.Bold)

	titleColor.Println("Modules")
	modules := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Module", "Metal", "Energy", "Food", "Effect"}),
	)
	for _, m := range catalog.Modules() {
		_ = modules.Append([]string{
			m.Name,
			strconv.Itoa(m.Cost.Metal),
			strconv.Itoa(m.Cost.Energy),
			strconv.Itoa(m.Cost.Food),
			effect(m),
		})
	}
	_ = modules.Render()

	fmt.Println()
	titleColor.Println("Biomes")
	biomes := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Biome", "Metal", "Energy", "Food", "Hazard", "Metal loss", "Food loss"}),
	)
	for _, b := range catalog.Biomes() {
		_ = biomes.Append([]string{
			string(b.Name),
			span(b.Metal),
			span(b.Energy),
			span(b.Food),
			fmt.Sprintf("%.0f%%", b.HazardChance*100),
			span(b.MetalLoss),
			span(b.FoodLoss),
		})
	}
	_ = biomes.Render()
	return nil
}

func effect(m colony.ModuleSpec) string {
	var parts []string
	if m.StorageBonus != 0 {
		parts = append(parts, fmt.Sprintf("storage +%d", m.StorageBonus))
	}
	if m.IsProducer() {
		parts = append(parts, fmt.Sprintf("+%d %s / tick", m.Yield, m.Produces))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func span(r colony.Range) string {
	if r.High <= r.Low {
		return strconv.Itoa(r.Low)
	}
	return fmt.Sprintf("%d-%d", r.Low, r.High-1)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	policy, err := colony.ParseHazardPolicy(hazardPolicy)
	if err != nil {
		return err
	}

	plan := sim.Plan{
		Seed:         seed,
		Duration:     duration,
		Step:         step,
		ExploreEvery: exploreEvery,
		Biome:        colony.ParseBiome(biome),
	}
	for _, b := range builds {
		order, err := sim.ParseBuildOrder(b)
		if err != nil {
			return err
		}
		plan.Builds = append(plan.Builds, order)
	}

	engineCfg := colony.DefaultConfig()
	engineCfg.HazardPolicy = policy
	engineCfg.StorageCapacity = storageCap

	log := logger.New(config.LoggingConfig{Level: logLevel}, os.Stderr)
	res, err := sim.Run(plan, engineCfg, catalog, log)
	if err != nil {
		return err
	}

	if !quiet {
		printEvents(res.Events)
		fmt.Println()
	}
	printSummary(res)
	return nil
}

func printEvents(events []colony.Event) {
	timeColor := color.New(color.FgHiBlack)
	for _, ev := range events {
		at := ev.At.Sub(sim.Epoch)
		timeColor.Printf("[%8s] ", at.Truncate(time.Millisecond))
		messageColor(ev.Message).Println(ev.Message)
	}
}

func messageColor(msg string) *color.Color {
	switch {
	case strings.Contains(msg, "Game Over"):
		return color.New(color.FgRed, color.Bold)
	case strings.HasPrefix(msg, "Hazard!"):
		return color.New(color.FgRed)
	case strings.HasSuffix(msg, "built!"):
		return color.New(color.FgGreen, color.Bold)
	case strings.Contains(msg, "wasted"), strings.HasPrefix(msg, "Not enough"), strings.Contains(msg, "cooling down"):
		return color.New(color.FgYellow)
	case strings.HasPrefix(msg, "Gained"):
		return color.New(color.FgCyan)
	default:
		return color.New(color.Reset)
	}
}

func printSummary(res *sim.Result) {
	snap := res.Snapshot

	title := color.New(color.FgCyan, color.Bold)
	title.Printf("Colony after %s\n", res.Elapsed)

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Resource", "Amount"}),
	)
	for _, kind := range colony.AllResourceKinds() {
		_ = table.Append([]string{string(kind), strconv.Itoa(snap.Resources[kind])})
	}
	capacity := "unlimited"
	if snap.Capacity > 0 {
		capacity = strconv.Itoa(snap.Capacity)
	}
	_ = table.Append([]string{"storage", fmt.Sprintf("%d / %s", snap.Used, capacity)})
	_ = table.Render()

	stats := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Modules", "Built", "Lost", "Expeditions", "Hazards", "Production", "Consumption"}),
	)
	_ = stats.Append([]string{
		strconv.Itoa(len(snap.Placements)),
		strconv.Itoa(snap.Stats.ModulesBuilt),
		strconv.Itoa(snap.Stats.ModulesLost),
		strconv.Itoa(res.Expeditions),
		strconv.Itoa(snap.Stats.Hazards),
		strconv.Itoa(snap.Stats.ProductionTicks),
		strconv.Itoa(snap.Stats.ConsumptionTicks),
	})
	_ = stats.Render()

	for _, o := range res.Skipped {
		color.Yellow("Not built: %s at %s", o.Module, o.Cell)
	}

	if snap.Failed {
		reasons := make([]string, len(snap.FailureReasons))
		for i, r := range snap.FailureReasons {
			reasons[i] = string(r)
		}
		color.Red("Colony failed: ran out of %s", strings.Join(reasons, " and "))
	} else {
		color.Green("Colony survived")
	}
}
