package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vozbot/vozbot/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio output devices as JSON",
	Long:  paragraph(fmt.Sprintf("\n%s the output devices the bot can play on. Use an %s with --device or audio.device.", keyword("List"), keyword("id"))),
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		router, closeAudio := newAudioRouter()
		defer closeAudio()

		devices, err := router.Devices()
		if err != nil {
			log.Warn("Unable to list devices", "err", err)
			devices = []audio.Device{}
		}
		return printJSON(devices)
	},
}

func printJSON(v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
