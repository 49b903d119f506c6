// Command stapse is the CLI entrypoint of spec.md §6: it reads a
// problem-inputs JSON document, runs the ITAGS search with a scheduler
// chosen by flags (or an overlay TOML config file), and writes the
// resulting solution JSON document. Flag/subcommand wiring follows the
// teacher's cobra conventions as demonstrated in the richer-stack pack
// repos, since the teacher itself (katalvlaran-lvlath) ships no CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/failure"
	"github.com/grstapse-go/stapse/goalcheck"
	"github.com/grstapse-go/stapse/heuristic"
	"github.com/grstapse-go/stapse/model"
	"github.com/grstapse-go/stapse/motionplan"
	"github.com/grstapse-go/stapse/precedence"
	"github.com/grstapse-go/stapse/pruning"
	"github.com/grstapse-go/stapse/schedule"
	"github.com/grstapse-go/stapse/search"
	"github.com/grstapse-go/stapse/solution"
	"github.com/grstapse-go/stapse/stapsecfg"
	"github.com/grstapse-go/stapse/stochastic"
	"github.com/grstapse-go/stapse/successor"
	"github.com/grstapse-go/stapse/traitmath"
)

// overlay is the shape of --config-file's TOML document: selector defaults
// that individual flags may still override, since the two are orthogonal
// per spec.md §6 ("either a single --config-file or an orthogonal set of
// selector flags").
type overlay struct {
	Scheduler          string   `toml:"scheduler"`
	Heuristic          string   `toml:"heuristic"`
	Alpha              float64  `toml:"alpha"`
	GoalCheck          string   `toml:"goal_check"`
	SuccessorGenerator string   `toml:"successor_generator"`
	Memoization        string   `toml:"memoization"`
	PrePruning         []string `toml:"prepruning"`
	PostPruning        []string `toml:"postpruning"`
	UseReverse         bool     `toml:"use_reverse"`
}

var (
	flagConfigFile   string
	flagScheduler    string
	flagHeuristic    string
	flagAlpha        float64
	flagGoalCheck    string
	flagSuccessorGen string
	flagMemoization  string
	flagPrePrune     []string
	flagPostPrune    []string
	flagUseReverse   bool
	flagTimeout      time.Duration
	flagDebug        bool
	flagMetricsAddr  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stapse PROBLEM_INPUT_PATH SOLUTION_OUTPUT_PATH",
	Short: "Simultaneous trait-based task allocation and scheduling",
	Long: `stapse runs ITAGS (incremental task-allocation graph search) over a
problem-inputs document, scheduling the winning allocation with a
deterministic or stochastic MILP back-end, and writes the solution as JSON.`,
	Args: cobra.ExactArgs(2),
	RunE: runStapse,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfigFile, "config-file", "", "TOML file of selector defaults (overridden by any flag also set)")
	rootCmd.Flags().StringVar(&flagScheduler, "scheduler", "deterministic", "deterministic | monolithic | heuristic-approximation")
	rootCmd.Flags().StringVar(&flagHeuristic, "heuristic", "tetaq", "tetaq | apr-only")
	rootCmd.Flags().Float64Var(&flagAlpha, "alpha", 0.5, "TETAQ trait/schedule weight, alpha in [0,1]")
	rootCmd.Flags().StringVar(&flagGoalCheck, "goal-check", "zero-pos", "zero-apr | zero-pos")
	rootCmd.Flags().StringVar(&flagSuccessorGen, "successor-generator", "", "forward | reverse (defaults to --use-reverse)")
	rootCmd.Flags().StringVar(&flagMemoization, "memoization", "full", "full | none")
	rootCmd.Flags().StringArrayVar(&flagPrePrune, "prepruning", nil, "trait-improvement (repeatable)")
	rootCmd.Flags().StringArrayVar(&flagPostPrune, "postpruning", nil, "previous-failure (repeatable)")
	rootCmd.Flags().BoolVar(&flagUseReverse, "use-reverse", false, "search from the all-ones allocation, clearing robots instead of assigning them")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "ITAGS wall-clock budget (0 = unbounded, falls back to the problem input's itags_parameters.timeout)")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "raise log level to debug")
	rootCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address for the run's duration")
}

func runStapse(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]

	level := hclog.Info
	if flagDebug {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{Name: "stapse", Level: level})

	cfg := overlay{
		Scheduler: flagScheduler, Heuristic: flagHeuristic, Alpha: flagAlpha,
		GoalCheck: flagGoalCheck, SuccessorGenerator: flagSuccessorGen,
		Memoization: flagMemoization, PrePruning: flagPrePrune,
		PostPruning: flagPostPrune, UseReverse: flagUseReverse,
	}
	if flagConfigFile != "" {
		if err := applyConfigFile(flagConfigFile, &cfg, cmd.Flags()); err != nil {
			return err
		}
	}

	if flagMetricsAddr != "" {
		stop := serveMetrics(flagMetricsAddr, logger.Named("metrics"))
		defer stop()
	}

	doc, err := stapsecfg.Load(inputPath)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("stapse: problem inputs failed validation: %w", err)
	}

	catalog, err := doc.BuildCatalog()
	if err != nil {
		return err
	}
	memoizer, err := doc.BuildMemoizer()
	if err != nil {
		return err
	}

	tasks := catalog.Tasks()
	robots := catalog.Robots()
	species := make(map[string]model.Species, len(doc.Species))
	for _, sp := range doc.Species {
		species[sp.ID] = model.Species{ID: sp.ID, Traits: sp.Traits}
	}

	taskIndex := make(map[string]int, len(tasks))
	for i, t := range tasks {
		taskIndex[t.ID] = i
	}
	var precedencePairs []precedence.Pair
	for _, p := range doc.Precedence {
		i, ok1 := taskIndex[p.Pred]
		j, ok2 := taskIndex[p.Succ]
		if !ok1 || !ok2 {
			return fmt.Errorf("stapse: precedence pair (%s,%s) references an unknown task", p.Pred, p.Succ)
		}
		precedencePairs = append(precedencePairs, precedence.Pair{I: i, J: j})
	}

	desired, err := traitmath.DesiredTraitsMatrix(tasks)
	if err != nil {
		return err
	}
	robotTraits, err := traitmath.RobotTraitsMatrix(robots, species)
	if err != nil {
		return err
	}
	linearCoeffs, err := traitmath.LinearCoefficientMatrix(tasks)
	if err != nil {
		return err
	}

	if cfg.Memoization == "none" {
		for _, sp := range doc.Species {
			memoizer.ClearCache(sp.ID)
		}
	}

	scheduler, err := buildScheduler(cfg.Scheduler, doc, tasks, robots, species, memoizer, precedencePairs)
	if err != nil {
		return err
	}
	if cfg.Heuristic == "apr-only" {
		scheduler = nil
		cfg.Alpha = 1
	}

	bounds, err := schedule.ComputeBounds(tasks, precedencePairs)
	if err != nil {
		return err
	}

	failurePruner := pruning.NewPreviousFailure()
	heurCfg := heuristic.Config{
		Desired:      desired,
		RobotTraits:  robotTraits,
		LinearCoeffs: linearCoeffs,
		Reduction:    traitmath.SumReduction{},
		Scheduler:    scheduler,
		Bounds:       bounds,
		Callbacks: heuristic.Callbacks{
			OnFailure: failurePruner.Record,
		},
	}

	goal, err := buildGoalCheck(cfg.GoalCheck, heurCfg)
	if err != nil {
		return err
	}
	prePrune, err := buildNamedPruner(cfg.PrePruning, heurCfg)
	if err != nil {
		return err
	}
	postPrune, err := buildNamedPruner(cfg.PostPruning, heurCfg)
	if err != nil {
		return err
	}
	if postPrune == nil {
		postPrune = failurePruner
	} else {
		postPrune = pruning.Or{postPrune, failurePruner}
	}

	useReverse := cfg.UseReverse
	gen := successor.Generator(successor.ForwardGenerator{})
	switch strings.ToLower(cfg.SuccessorGenerator) {
	case "reverse":
		gen = successor.ReverseGenerator{}
		useReverse = true
	case "forward":
		gen = successor.ForwardGenerator{}
		useReverse = false
	case "":
		if useReverse {
			gen = successor.ReverseGenerator{}
		}
	default:
		return fmt.Errorf("stapse: unknown successor-generator %q", cfg.SuccessorGenerator)
	}

	timeout := flagTimeout
	if timeout <= 0 && doc.ITAGSParameters.HasTimeout {
		timeout = time.Duration(doc.ITAGSParameters.Timeout * float64(time.Second))
	}

	var lastSchedule heuristic.Schedule
	heurCfg.Callbacks.OnSuccess = func(_ *allocnode.Node, s heuristic.Schedule) { lastSchedule = s }

	searchCfg := search.Config{
		NumTasks:                len(tasks),
		NumRobots:               len(robots),
		SuccessorGenerator:      gen,
		Heuristic:               heurCfg,
		Alpha:                   cfg.Alpha,
		GoalCheck:               goal,
		PrePrune:                prePrune,
		PostPrune:               postPrune,
		UseReverse:              useReverse,
		Timeout:                 timeout,
		ReturnFeasibleOnTimeout: doc.ITAGSParameters.ReturnFeasibleOnTimeout,
		Logger:                  logger.Named("itags"),
	}

	result := search.Run(searchCfg)
	if result.Reason != nil {
		if result.Reason.Kind() == failure.KindLogicError {
			// Per spec.md §7's policy, LogicError signals an invariant
			// violation, not a domain outcome: log it distinctly and abort
			// rather than let it propagate through the same path as an
			// ordinary infeasible/timeout result.
			logger.Error("search aborted on invariant violation", "reason", result.Reason.Error())
			os.Exit(2)
		}
		logger.Warn("search did not reach a goal", "reason", result.Reason.Error())
		return fmt.Errorf("stapse: %w", result.Reason)
	}

	sol, err := solution.Build(result, tasks, robots, precedencePairs, lastSchedule)
	if err != nil {
		return err
	}
	data, err := solution.Marshal(sol)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("stapse: write solution: %w", err)
	}
	logger.Info("solution written", "path", outputPath, "makespan", sol.Makespan)
	return nil
}

func applyConfigFile(path string, cfg *overlay, flags *pflag.FlagSet) error {
	var fromFile overlay
	if _, err := toml.DecodeFile(path, &fromFile); err != nil {
		return fmt.Errorf("stapse: decode config file: %w", err)
	}
	if !flags.Changed("scheduler") && fromFile.Scheduler != "" {
		cfg.Scheduler = fromFile.Scheduler
	}
	if !flags.Changed("heuristic") && fromFile.Heuristic != "" {
		cfg.Heuristic = fromFile.Heuristic
	}
	if !flags.Changed("alpha") && fromFile.Alpha != 0 {
		cfg.Alpha = fromFile.Alpha
	}
	if !flags.Changed("goal-check") && fromFile.GoalCheck != "" {
		cfg.GoalCheck = fromFile.GoalCheck
	}
	if !flags.Changed("successor-generator") && fromFile.SuccessorGenerator != "" {
		cfg.SuccessorGenerator = fromFile.SuccessorGenerator
	}
	if !flags.Changed("memoization") && fromFile.Memoization != "" {
		cfg.Memoization = fromFile.Memoization
	}
	if !flags.Changed("prepruning") && len(fromFile.PrePruning) > 0 {
		cfg.PrePruning = fromFile.PrePruning
	}
	if !flags.Changed("postpruning") && len(fromFile.PostPruning) > 0 {
		cfg.PostPruning = fromFile.PostPruning
	}
	if !flags.Changed("use-reverse") {
		cfg.UseReverse = cfg.UseReverse || fromFile.UseReverse
	}
	return nil
}

func buildGoalCheck(name string, cfg heuristic.Config) (goalcheck.GoalCheck, error) {
	switch strings.ToLower(name) {
	case "zero-apr":
		return goalcheck.ZeroAPR{Config: cfg}, nil
	case "zero-pos", "":
		return goalcheck.ZeroPOS{Config: cfg}, nil
	default:
		return nil, fmt.Errorf("stapse: unknown goal-check %q", name)
	}
}

// buildNamedPruner composes the requested named pruners into a single
// disjunctive pruner ("previous-failure" is wired separately, as it needs
// the shared *pruning.PreviousFailure instance the OnFailure callback
// writes into, so it is silently accepted here and skipped).
func buildNamedPruner(names []string, cfg heuristic.Config) (pruning.Pruner, error) {
	var out pruning.Or
	for _, name := range names {
		switch strings.ToLower(name) {
		case "trait-improvement":
			out = append(out, pruning.TraitImprovement{
				Desired: cfg.Desired, RobotTraits: cfg.RobotTraits, Reduction: cfg.Reduction,
			})
		case "previous-failure":
			continue
		default:
			return nil, fmt.Errorf("stapse: unknown pruner %q", name)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// buildScheduler constructs the heuristic.Scheduler named by cfg.Scheduler.
// The monolithic and heuristic-approximation variants require a pool of
// per-scenario motion-duration samplers; since the sampled/masked motion
// planner variants are named but not implemented (spec.md §1's "deliberately
// out of scope" external collaborators), every scenario in the pool is
// rebuilt from its own deep clone of doc (via copystructure, so no
// TaskAssociations/MotionPlanners slice or map aliases another scenario's)
// with BuildMemoizer called fresh per slot — a degenerate but well-defined
// stand-in, documented in DESIGN.md, that still exercises the full
// scenario-aggregation/SPRT machinery and keeps each scenario's memoizer
// cache/miss-counter state independent of its siblings'.
func buildScheduler(name string, doc stapsecfg.ProblemInputs, tasks []model.Task, robots []model.Robot, species map[string]model.Species, memoizer *motionplan.Memoizer, pairs []precedence.Pair) (heuristic.Scheduler, error) {
	switch strings.ToLower(name) {
	case "deterministic", "":
		return schedule.Deterministic{
			Tasks: tasks, Robots: robots, Species: species,
			Memoizer: memoizer, Precedence: pairs,
		}, nil

	case "monolithic":
		q := doc.SchedulerParameters.NumScenarios
		if q <= 0 {
			q = 1
		}
		scenarios, err := scenarioMemoizerPool(doc, q)
		if err != nil {
			return nil, err
		}
		return stochastic.Monolithic{
			Tasks: tasks, Robots: robots, Precedence: pairs,
			Scenarios: scenarios, Alpha: doc.SchedulerParameters.Gamma,
		}, nil

	case "heuristic-approximation", "ha":
		qf := doc.SchedulerParameters.NumScenarios
		if qf <= 0 {
			qf = 1
		}
		beta := doc.SchedulerParameters.Beta
		if beta <= 0 || beta > qf {
			beta = qf
		}
		pool, err := scenarioMemoizerPool(doc, qf)
		if err != nil {
			return nil, err
		}
		multiplicative := doc.SchedulerParameters.DeltaPercentage != 0
		delta := doc.SchedulerParameters.Delta
		if multiplicative {
			delta = 1 + doc.SchedulerParameters.DeltaPercentage
		} else if delta == 0 {
			delta = 1.0 // additive fallback: grow mu by a full time unit per inflation
		}
		gammaDelta := doc.SchedulerParameters.IndifferenceTolerance
		if gammaDelta == 0 {
			gammaDelta = 0.05
		}
		return stochastic.HA{
			Tasks: tasks, Robots: robots, Precedence: pairs,
			Pool: pool, Beta: beta,
			Gamma:      doc.SchedulerParameters.Gamma,
			GammaDelta: gammaDelta,
			SprtAlpha:  0.05,
			SprtBeta:   0.05,
			InflateFactor:         delta,
			InflateMultiplicative: multiplicative,
			MaxInflations:         5,
		}, nil

	default:
		return nil, fmt.Errorf("stapse: unknown scheduler %q", name)
	}
}

// scenarioMemoizerPool builds q independent *motionplan.Memoizer instances,
// one per deep clone of doc, instead of q aliases of a single shared
// pointer: each scenario slot gets its own motion-planner graphs and its
// own memoization cache/miss counters, so concurrently solving scenarios
// never bleed cache state into one another even though they currently
// share the same underlying motion_planners document.
func scenarioMemoizerPool(doc stapsecfg.ProblemInputs, q int) ([]*motionplan.Memoizer, error) {
	pool := make([]*motionplan.Memoizer, q)
	for i := range pool {
		cloned, err := doc.Clone()
		if err != nil {
			return nil, fmt.Errorf("stapse: clone problem inputs for scenario %d: %w", i, err)
		}
		mem, err := cloned.BuildMemoizer()
		if err != nil {
			return nil, fmt.Errorf("stapse: build scenario %d memoizer: %w", i, err)
		}
		pool[i] = mem
	}
	return pool, nil
}

// serveMetrics starts a Prometheus HTTP handler on addr for the duration of
// the run (spec.md's ambient-stack addition, not a spec.md Non-goal), and
// returns a function that shuts it down.
func serveMetrics(addr string, logger hclog.Logger) func() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return func() { _ = srv.Close() }
}
