package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"choreia/internal/genome"
	"choreia/internal/storage"
	choreiaapi "choreia/pkg/choreia"
)

const defaultDBPath = "choreia.db"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:], false)
	case "resume":
		return runRun(ctx, args[1:], true)
	case "trainings":
		return runTrainings(ctx, args[1:])
	case "telemetry":
		return runTelemetry(ctx, args[1:])
	case "summary":
		return runSummary(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "usage":
		return runUsage(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: choreiactl <init|reset|run|resume|trainings|telemetry|summary|export|best|usage> [flags]", msg)
}

func addStoreFlags(fs *flag.FlagSet) (storeKind, dbPath *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath = fs.String("db-path", defaultDBPath, "sqlite database path")
	return storeKind, dbPath
}

func newClient(storeKind, dbPath string) (*choreiaapi.Client, error) {
	return choreiaapi.New(choreiaapi.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind, dbPath := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}
	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string, resume bool) error {
	name := "run"
	if resume {
		name = "resume"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config YAML path")
	scapeName := fs.String("scape", "surrogate-walker", "scape name")
	population := fs.Int("pop", 50, "population size")
	genomeLength := fs.Int("genome-length", 500, "choreography length in frames")
	mutationRate := fs.Float64("mutation-rate", 0.1, "per-gene mutation probability")
	crossoverRate := fs.Float64("crossover-rate", 0.7, "crossover probability per pair")
	eliteSize := fs.Int("elite", 5, "elite copies carried unchanged")
	tournamentSize := fs.Int("tournament", 3, "tournament size")
	poolFraction := fs.Float64("pool-fraction", 0.5, "top fraction of ranked population eligible as parents")
	adaptiveTime := fs.Bool("adaptive-time", true, "grow the episode budget as the population improves")
	baseTime := fs.Int("base-time", 0, "base episode budget in frames (0 uses genome length)")
	maxTime := fs.Int("max-time", 2000, "episode budget cap in frames")
	timePolicy := fs.String("time-policy", "", "episode-length policy: distance|fitness|fixed (empty uses distance when adaptive time is on)")
	generations := fs.Int("gens", 100, "generations per training")
	saveEvery := fs.Int("save-every", 5, "checkpoint cadence in generations")
	workers := fs.Int("workers", 4, "parallel evaluation workers")
	seed := fs.Int64("seed", 1, "rng seed")
	autoContinue := fs.Bool("auto-continue", false, "start a fresh training each time one finishes")
	maxTrainings := fs.Int("max-trainings", 0, "training cap for auto-continue (0 means unlimited)")
	resumeTraining := fs.Int("training", 0, "training number to resume (0 resumes the latest)")
	storeKind, dbPath := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req := choreiaapi.RunRequest{
		Scape:                  *scapeName,
		PopulationSize:         *population,
		GenomeLength:           *genomeLength,
		MutationRate:           *mutationRate,
		CrossoverRate:          *crossoverRate,
		EliteSize:              *eliteSize,
		TournamentSize:         *tournamentSize,
		TournamentPoolFraction: *poolFraction,
		AdaptiveTime:           *adaptiveTime,
		BaseTime:               *baseTime,
		MaxTime:                *maxTime,
		TimePolicy:             *timePolicy,
		Generations:            *generations,
		SaveEvery:              *saveEvery,
		Workers:                *workers,
		Seed:                   *seed,
		AutoContinue:           *autoContinue,
		MaxTrainings:           *maxTrainings,
	}
	if *configPath != "" {
		loaded, err := loadRunConfig(*configPath)
		if err != nil {
			return err
		}
		req = mergeRunConfig(loaded, req, setFlags)
	}
	req.Resume = resume
	if resume {
		req.ResumeTraining = *resumeTraining
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("training=%d run=%s generations=%d best_fitness=%.4f best_distance=%.4f\n",
		summary.TrainingNumber, summary.RunID, summary.GenerationsRun, summary.BestFitness, summary.BestDistance)
	return nil
}

func runTrainings(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trainings", flag.ContinueOnError)
	storeKind, dbPath := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	numbers, err := client.Trainings(ctx)
	if err != nil {
		return err
	}
	if len(numbers) == 0 {
		fmt.Println("no trainings")
		return nil
	}
	for _, n := range numbers {
		fmt.Println(n)
	}
	return nil
}

func runTelemetry(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("telemetry", flag.ContinueOnError)
	trainingNumber := fs.Int("training", 0, "training number")
	limit := fs.Int("limit", 0, "most recent generations to show (0 shows all)")
	storeKind, dbPath := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *trainingNumber <= 0 {
		return fmt.Errorf("telemetry requires -training")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	records, err := client.Telemetry(ctx, *trainingNumber)
	if err != nil {
		return err
	}
	if *limit > 0 && len(records) > *limit {
		records = records[len(records)-*limit:]
	}
	for _, rec := range records {
		fmt.Printf("gen=%d best=%.4f avg=%.4f dist=%.4f record=%.4f limit=%d dur=%.2fs\n",
			rec.Generation, rec.Fitness.Best, rec.Fitness.Mean, rec.Distance.Best,
			rec.BestFitnessEver, rec.TimeLimit, rec.DurationSeconds)
	}
	return nil
}

func runSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	trainingNumber := fs.Int("training", 0, "training number")
	storeKind, dbPath := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *trainingNumber <= 0 {
		return fmt.Errorf("summary requires -training")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Summary(ctx, *trainingNumber)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(summary)
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	trainingNumber := fs.Int("training", 0, "training number")
	outPath := fs.String("out", "", "CSV output path (empty writes to stdout)")
	storeKind, dbPath := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *trainingNumber <= 0 {
		return fmt.Errorf("export requires -training")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if *outPath == "" {
		return client.ExportCSV(ctx, *trainingNumber, os.Stdout)
	}
	f, err := os.Create(*outPath)
	if err != nil {
		return err
	}
	if err := client.ExportCSV(ctx, *trainingNumber, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("exported training=%d to %s\n", *trainingNumber, *outPath)
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	trainingNumber := fs.Int("training", 0, "training number")
	showGenome := fs.Bool("genome", false, "print the full choreography")
	storeKind, dbPath := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *trainingNumber <= 0 {
		return fmt.Errorf("best requires -training")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	best, err := client.BestIndividual(ctx, *trainingNumber)
	if err != nil {
		return err
	}
	fmt.Printf("fitness=%.4f distance=%.4f stability=%.4f energy=%.1f time_alive=%d frames=%d\n",
		best.Fitness, best.Distance, best.Stability, best.Energy, best.TimeAlive, len(best.Genome))
	if *showGenome {
		return json.NewEncoder(os.Stdout).Encode(best.Genome)
	}
	return nil
}

func runUsage(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("usage", flag.ContinueOnError)
	trainingNumber := fs.Int("training", 0, "training number (0 uses the latest checkpoint)")
	storeKind, dbPath := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	usage, err := client.Usage(ctx, choreiaapi.UsageRequest{
		TrainingNumber: *trainingNumber,
		Latest:         *trainingNumber == 0,
	})
	if err != nil {
		return err
	}

	fmt.Printf("training=%d generation=%d total_actions=%d\n",
		usage.TrainingNumber, usage.Generation, usage.Stats.TotalActions)
	for code := 0; code < genome.ActionCount; code++ {
		name, err := genome.ActionName(code)
		if err != nil {
			return err
		}
		fmt.Printf("%-18s %6d %6.2f%%\n", name, usage.Stats.Counts[code], usage.Stats.Percent(code))
	}
	for a := 0; a < genome.ActuatorCount; a++ {
		fmt.Printf("muscle%d total %6.2f%%\n", a, usage.Stats.ActuatorPercent(a))
	}
	return nil
}
