package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datalife-sim/matchsim/market"
	"github.com/datalife-sim/matchsim/outcome"
	"github.com/datalife-sim/matchsim/population"
	"github.com/datalife-sim/matchsim/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one admissions matching simulation and print a summary.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := builderFromFlags(cmd)
		if err != nil {
			return err
		}

		sim := b.Build()
		defer sim.Terminate()

		res, err := sim.Run()
		if err != nil {
			return err
		}

		printSummary(res)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addSimulationFlags(runCmd)
}

func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Int("students", 71250, "number of synthetic students")
	cmd.Flags().Int("schools", 437, "number of synthetic schools")
	cmd.Flags().Int64("seed", 0,
		"random seed; omit for a time-derived seed")
	cmd.Flags().String("selection", "",
		"force every student's selection policy (uniform-random, popularity-weighted)")
	cmd.Flags().String("ranking", "",
		"force every student's ranking policy (unordered, likeability-sorted)")
	cmd.Flags().String("admission", "",
		"force every school's admission policy (open, edopt, screen)")
	cmd.Flags().Bool("max-schools", false,
		"every student ranks the maximum number of schools")
	cmd.Flags().String("roster", "",
		"JSON file of school records to use instead of sampling schools")
	cmd.Flags().Bool("record", false, "record the run to a SQLite database")
	cmd.Flags().String("output", "", "output file name for the recorder")

	cmd.Flags().String("lottery", "",
		"custom student: lottery identifier (32 hex characters)")
	cmd.Flags().Float64("gpa", -1, "custom student: GPA on a 0-100 scale")
	cmd.Flags().StringSlice("choices", nil,
		"custom student: ordered school DBNs")
}

func builderFromFlags(cmd *cobra.Command) (simulation.Builder, error) {
	b := simulation.MakeBuilder()

	students, _ := cmd.Flags().GetInt("students")
	schools, _ := cmd.Flags().GetInt("schools")
	b = b.WithStudentCount(students).WithSchoolCount(schools)

	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		b = b.WithSeed(seed)
	}

	if v, _ := cmd.Flags().GetString("selection"); v != "" {
		p, err := market.ParseSelectionPolicy(v)
		if err != nil {
			return b, err
		}
		b = b.WithSelectionPolicy(p)
	}

	if v, _ := cmd.Flags().GetString("ranking"); v != "" {
		p, err := market.ParseRankingPolicy(v)
		if err != nil {
			return b, err
		}
		b = b.WithRankingPolicy(p)
	}

	if v, _ := cmd.Flags().GetString("admission"); v != "" {
		p, err := market.ParseAdmissionPolicy(v)
		if err != nil {
			return b, err
		}
		b = b.WithAdmissionPolicy(p)
	}

	if v, _ := cmd.Flags().GetBool("max-schools"); v {
		b = b.WithMaxSchools()
	}

	if path, _ := cmd.Flags().GetString("roster"); path != "" {
		records, err := readRoster(path)
		if err != nil {
			return b, err
		}
		b = b.WithRoster(records)
	}

	if v, _ := cmd.Flags().GetBool("record"); v {
		b = b.WithRecording()

		if out, _ := cmd.Flags().GetString("output"); out != "" {
			b = b.WithOutputFileName(out)
		}
	}

	if lotteryID, _ := cmd.Flags().GetString("lottery"); lotteryID != "" {
		gpa, _ := cmd.Flags().GetFloat64("gpa")
		choices, _ := cmd.Flags().GetStringSlice("choices")

		b = b.WithCustomStudent(simulation.CustomStudent{
			Lottery:     lotteryID,
			GPA:         gpa,
			Preferences: choices,
		})
	}

	return b, nil
}

func readRoster(path string) ([]population.SchoolRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	var records []population.SchoolRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}

	return records, nil
}

func printSummary(res *simulation.Result) {
	matched := res.Outcome.MatchCount()

	fmt.Printf("Run %s (seed %d)\n", res.RunID, res.Seed)
	fmt.Printf("Matched %d of %d students across %d schools\n",
		matched, res.NumStudents, res.NumSchools)

	for rank, bin := range res.Outcome.Bins {
		if len(bin) == 0 {
			continue
		}

		if rank == outcome.UnmatchedBin {
			fmt.Printf("  unmatched: %d\n", len(bin))
			continue
		}

		fmt.Printf("  choice %2d: %d\n", rank+1, len(bin))
	}

	if res.CustomMatch != nil {
		if res.CustomMatch.SchoolID == nil {
			fmt.Println("Custom student: unmatched")
		} else {
			fmt.Printf("Custom student: matched to %s (choice %d)\n",
				*res.CustomMatch.SchoolID, *res.CustomMatch.Rank)
		}
	}
}
