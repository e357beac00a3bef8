// Package main provides the entry point for the vozbot CLI application.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vozbot/vozbot/internal/config"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	settings   config.Settings
	closeLog   = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "vozbot",
		Short: "Answer Twitch chat questions out loud",
		Long: paragraph(
			fmt.Sprintf("\nAnswer Twitch chat questions with an AI and %s on your stream.\n\nMessages starting with the trigger word (%s by default) are answered, remembered per viewer and spoken with an ElevenLabs voice, falling back to Google Translate TTS when the premium quota runs out.",
				keyword("speak them"), keyword("!IA")),
		),
		Example: paragraph("vozbot --channel mychannel\nvozbot devices\nvozbot voices --search spanish\necho UPDATE_VOLUME:50 | vozbot"),
		SilenceErrors:     false,
		SilenceUsage:      true,
		TraverseChildren:  true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: loadSettings,
		RunE:              runBot,
	}
)

func loadSettings(*cobra.Command, []string) error {
	v := viper.GetViper()
	if err := config.Prepare(v, configFile); err != nil {
		return err //nolint:wrapcheck
	}
	s, err := config.Load(v)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if debug {
		s.Log.Level = "debug"
	}
	settings = s

	closer, err := setupLog(s.Log.Level, s.Log.File)
	if err != nil {
		return err
	}
	closeLog = closer
	return nil
}

func main() {
	err := rootCmd.Execute()
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default vozbot.yml in the user config dir)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.Flags().StringP("channel", "c", "", "Twitch channel to join")
	rootCmd.Flags().String("trigger", "", "word that addresses the bot (default \"!IA\")")
	rootCmd.Flags().String("voice", "", "ElevenLabs voice id")
	rootCmd.Flags().IntP("device", "d", -1, "output device index from 'vozbot devices', -1 for the default")
	rootCmd.Flags().Int("volume", 100, "playback volume from 0 to 100")
	rootCmd.Flags().String("events", "", "write JSON status events to stdout, stderr or a file")

	// Config bindings
	_ = viper.BindPFlag("chat.channel", rootCmd.Flags().Lookup("channel"))
	_ = viper.BindPFlag("chat.trigger", rootCmd.Flags().Lookup("trigger"))
	_ = viper.BindPFlag("voice.voice_id", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("audio.device", rootCmd.Flags().Lookup("device"))
	_ = viper.BindPFlag("audio.volume", rootCmd.Flags().Lookup("volume"))
	_ = viper.BindPFlag("report.events", rootCmd.Flags().Lookup("events"))

	rootCmd.AddCommand(configCmd, manCmd, devicesCmd, voicesCmd)
}
