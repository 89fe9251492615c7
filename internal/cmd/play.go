package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/osdrec/internal/tui/player"
)

var playCmd = &cobra.Command{
	Use:   "play <file.osd>",
	Short: "Play an OSD log back in the terminal",
	Long: `Play renders each frame of an OSD log as a character grid at its recorded
timing. Space pauses, the arrow keys step frames, + and - change speed.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

var playSpeed float64

func init() {
	playCmd.Flags().Float64Var(&playSpeed, "speed", 0, "Playback speed multiplier (default from player.speed)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	speed := cfg.Player.Speed
	if cmd.Flags().Changed("speed") {
		if err := requirePositive("speed", playSpeed); err != nil {
			return err
		}
		speed = playSpeed
	}

	header, records, err := loadRecording(cmd, args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s has no frames to play\n", args[0])
		return nil
	}

	return player.Run(filepath.Base(args[0]), header, records, speed)
}
