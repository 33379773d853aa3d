package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/learnly/internal/ai"
	"github.com/p-n-ai/learnly/internal/builder"
	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/platform/config"
	"github.com/p-n-ai/learnly/internal/progress"
	"github.com/p-n-ai/learnly/internal/resource"
)

// curriculumBuilder is the part of builder.Builder the generate command uses.
type curriculumBuilder interface {
	Build(ctx context.Context, topic, level string) (*curriculum.Curriculum, error)
}

// deps lets tests swap the model-backed builder.
type deps struct {
	newBuilder func(ctx context.Context, weeks int) (curriculumBuilder, error)
}

func defaultDeps() deps {
	return deps{newBuilder: newBuilderFromEnv}
}

// newBuilderFromEnv wires a builder from the LEARN_ environment the way the
// server does, without cache or database.
func newBuilderFromEnv(ctx context.Context, weeks int) (curriculumBuilder, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	router, err := ai.NewRouterFromConfig(cfg.AI)
	if err != nil {
		return nil, err
	}
	clients := resource.Multi{}
	if cfg.YouTube.APIKey != "" {
		yt, err := resource.NewYouTubeClient(ctx, cfg.YouTube.APIKey)
		if err != nil {
			return nil, fmt.Errorf("creating YouTube client: %w", err)
		}
		clients = append(clients, yt)
	}
	clients = append(clients, resource.NewSuggestionClient(router))

	if weeks <= 0 {
		weeks = cfg.Curriculum.Weeks
	}
	return builder.New(builder.Config{
		Generator:     builder.NewAIGenerator(router, nil),
		Resources:     clients,
		Weeks:         weeks,
		ResourceLimit: cfg.YouTube.MaxResults,
	}), nil
}

func newRootCmd(d deps) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "learnctl",
		Short:         "Generate and check gamified curricula",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newGenerateCmd(d), newValidateCmd(), newRulesCmd())
	return root
}

func newGenerateCmd(d deps) *cobra.Command {
	var (
		topic string
		level string
		weeks int
		out   string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build a curriculum for a topic and print or save it",
		Example: `  learnctl generate --topic "Linear algebra" --level intermediate
  learnctl generate --topic Go --weeks 4 --out go.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := d.newBuilder(cmd.Context(), weeks)
			if err != nil {
				return err
			}
			c, err := b.Build(cmd.Context(), topic, level)
			if err != nil {
				return err
			}

			format := "json"
			if ext := strings.ToLower(filepath.Ext(out)); ext == ".yaml" || ext == ".yml" {
				format = "yaml"
			}
			data, err := encodeCurriculum(c, format)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %q to %s (%d weeks, %d XP)\n", c.Title, out, c.TotalWeeks, c.TotalXP)
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "topic to learn (required)")
	cmd.Flags().StringVar(&level, "level", "beginner", "beginner, intermediate or advanced")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "course length in weeks (default from LEARN_CURRICULUM_WEEKS)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, .json or .yaml (default stdout as JSON)")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

// encodeCurriculum renders c as indented JSON, or as YAML with the same
// camelCase keys so curriculum.LoadFile reads it back.
func encodeCurriculum(c *curriculum.Curriculum, format string) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding curriculum: %w", err)
	}
	if format != "yaml" {
		return append(data, '\n'), nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("converting to YAML: %w", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("converting to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a saved curriculum file (.json or .yaml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := curriculum.LoadFile(args[0])
			if err != nil {
				return err
			}
			printCurriculum(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func printCurriculum(w io.Writer, c *curriculum.Curriculum) {
	lessons, activities := 0, 0
	for _, wk := range c.Weeks {
		for _, m := range wk.Modules {
			lessons += len(m.Lessons)
			for _, l := range m.Lessons {
				activities += len(l.Activities)
			}
		}
	}
	fmt.Fprintf(w, "ok: %s\n", c.Title)
	fmt.Fprintf(w, "  level:      %s\n", c.Level)
	fmt.Fprintf(w, "  weeks:      %d\n", c.TotalWeeks)
	fmt.Fprintf(w, "  lessons:    %d\n", lessons)
	fmt.Fprintf(w, "  activities: %d\n", activities)
	fmt.Fprintf(w, "  total xp:   %d\n", c.TotalXP)
}

func newRulesCmd() *cobra.Command {
	rules := &cobra.Command{
		Use:   "rules",
		Short: "Inspect gamification rules",
	}
	rules.AddCommand(&cobra.Command{
		Use:   "check [FILE]",
		Short: "Validate a rules YAML file, or show the defaults when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			r, err := progress.LoadRules(path)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "level every %d xp; bonuses lesson %d, module %d, week %d, course %d\n",
				r.LevelXPThreshold, r.LessonBonus, r.ModuleBonus, r.WeekBonus, r.CourseBonus)
			for _, a := range r.Achievements {
				fmt.Fprintf(w, "  %-20s %s >= %d (+%d xp)\n", a.ID, a.Metric, a.Threshold, a.XPBonus)
			}
			fmt.Fprintf(w, "%d achievements, %d encouragement tiers\n", len(r.Achievements), len(r.Encouragement))
			return nil
		},
	})
	return rules
}
