package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/concepto-studio/concepto/internal/printer"
	"github.com/concepto-studio/concepto/internal/remote"
	"github.com/concepto-studio/concepto/pkg/catalog"
	"github.com/spf13/cobra"
)

var (
	shotAudio     string
	shotVisual    string
	shotWordCount int
	shotRuntime   float64
)

var shotCmd = &cobra.Command{
	Use:   "shot <SHOT_ID>",
	Short: "Show or edit a shot through the external API",
	Long: `Print a shot as JSON, or update its script fields when any of
--audio, --visual, --word-count or --runtime is given.

Requires the remote backend.

Examples:
  concepto shot 7d1e0c2a-4b7f-4e52-9a51-0c1d2e3f4a5b
  concepto shot 7d1e0c2a-4b7f-4e52-9a51-0c1d2e3f4a5b --audio "We fly at dawn." --word-count 4`,
	Args: cobra.ExactArgs(1),
	RunE: runShot,
}

func init() {
	shotCmd.Flags().StringVar(&shotAudio, "audio", "", "New audio (dialogue) text")
	shotCmd.Flags().StringVar(&shotVisual, "visual", "", "New visual description")
	shotCmd.Flags().IntVar(&shotWordCount, "word-count", 0, "New word count")
	shotCmd.Flags().Float64Var(&shotRuntime, "runtime", 0, "New runtime in seconds")
	rootCmd.AddCommand(shotCmd)
}

func runShot(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	shotID := args[0]

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	client, ok := be.(*remote.Client)
	if !ok {
		return printer.Error(
			"shots need the external API",
			fmt.Sprintf("The %s backend stores shots inside episodes.", cfg.Store.Backend),
			[]string{"Use 'concepto get <SHOW> <EPISODE_ID>' to read them", "Switch store.backend to remote in " + configPath},
		)
	}

	update := shotUpdateFromFlags(cmd)
	var (
		shot   any
		action = "fetch"
	)
	if update.Empty() {
		shot, err = client.GetShot(ctx, shotID)
	} else {
		action = "update"
		shot, err = client.UpdateShot(ctx, shotID, update)
	}
	if err != nil {
		if catalog.IsNotFound(err) {
			return printer.Error(fmt.Sprintf("shot '%s' not found", shotID), err.Error(), nil)
		}
		return printer.ErrorWithContext(
			fmt.Sprintf("failed to %s shot", action),
			err.Error(),
			map[string]string{"Endpoint": client.Endpoint()},
			[]string{"Check remote.endpoint and your API key"},
		)
	}

	data, err := json.MarshalIndent(shot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format shot: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// shotUpdateFromFlags sets only the fields whose flags were given.
func shotUpdateFromFlags(cmd *cobra.Command) remote.ShotUpdate {
	var update remote.ShotUpdate
	flags := cmd.Flags()
	if flags.Changed("audio") {
		update.Audio = &shotAudio
	}
	if flags.Changed("visual") {
		update.Visual = &shotVisual
	}
	if flags.Changed("word-count") {
		update.WordCount = &shotWordCount
	}
	if flags.Changed("runtime") {
		update.Runtime = &shotRuntime
	}
	return update
}
