package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"storyboard-pipeline/config"
	"storyboard-pipeline/llm"
	"storyboard-pipeline/pipeline"
	"storyboard-pipeline/runner"
	"storyboard-pipeline/store"
	"storyboard-pipeline/types"
	"storyboard-pipeline/validate"
)

var (
	flagConfig      string
	flagMinutes     int
	flagSeconds     int
	flagFormat      string
	flagType        string
	flagOrientation string
	flagLanguage    string
)

func main() {
	// Load .env (local dev only — CI uses real env vars)
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "storyboard",
		Short: "Turn a narrative script into a validated, platform-compliant scene sequence",
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "path to config file")

	runCmd := &cobra.Command{
		Use:   "run <script.txt> [more scripts...]",
		Short: "Run the full pipeline for one or more scripts",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPipeline,
	}
	runCmd.Flags().IntVar(&flagMinutes, "minutes", 1, "target duration, minutes part")
	runCmd.Flags().IntVar(&flagSeconds, "seconds", 0, "target duration, seconds part")
	runCmd.Flags().StringVar(&flagFormat, "format", "social", "video format: social | educational | longform")
	runCmd.Flags().StringVar(&flagType, "type", "general", "video type: ultra | avatar | general")
	runCmd.Flags().StringVar(&flagOrientation, "orientation", "16:9", "orientation: 16:9 | 9:16")
	runCmd.Flags().StringVar(&flagLanguage, "language", "", "narration language (default: from config / auto)")

	validateCmd := &cobra.Command{
		Use:   "validate <scenes.json>",
		Short: "Dry-run the validation engine against an externally-built scene list",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
	validateCmd.Flags().StringVar(&flagType, "type", "general", "video type policy to validate against")
	validateCmd.Flags().StringVar(&flagLanguage, "language", "es", "narration language")

	root.AddCommand(runCmd, validateCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	language := flagLanguage
	if language == "" {
		language = cfg.Language
	}

	fileStore, err := store.NewFileStore(cfg.Paths.Output)
	if err != nil {
		return err
	}
	client := llm.NewGroqClient(llm.Config{
		Endpoint:    cfg.LLM.Endpoint,
		Model:       cfg.LLM.Model,
		Timeout:     cfg.LLM.Timeout(),
		MaxAttempts: cfg.LLM.MaxAttempts,
	})
	orchestrator := pipeline.New(client, pipeline.WithStore(fileStore))

	inputs := make([]pipeline.RunInput, 0, len(args))
	for _, path := range args {
		scriptText, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read script %s: %w", path, err)
		}
		scriptID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "-" + uuid.NewString()[:8]
		inputs = append(inputs, pipeline.RunInput{
			ScriptID:        scriptID,
			ScriptText:      string(scriptText),
			DurationMinutes: flagMinutes,
			DurationSeconds: flagSeconds,
			VideoFormat:     types.VideoFormat(flagFormat),
			VideoType:       types.VideoType(flagType),
			Orientation:     types.Orientation(flagOrientation),
			Language:        language,
		})
	}

	results := runner.New(orchestrator, cfg.Runner.MaxConcurrent).RunAll(cmd.Context(), inputs)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			log.Printf("❌ %s: %v", res.ScriptID, res.Err)
			continue
		}
		log.Printf("📦 %s: %d scenes, quality %.2f → %s",
			res.ScriptID, len(res.Envelope.Scenes), res.Envelope.QualityScore,
			filepath.Join(cfg.Paths.Output, res.ScriptID, "envelope.json"))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read scenes: %w", err)
	}
	var scenes []types.Scene
	if err := json.Unmarshal(data, &scenes); err != nil {
		return fmt.Errorf("parse scenes: %w", err)
	}

	report := validate.NewEngine(flagLanguage).Validate(scenes, types.VideoType(flagType))
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if !report.Valid {
		return fmt.Errorf("%d critical errors", len(report.CriticalErrors))
	}
	return nil
}
