package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	PersistentPreRunE:     func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		page, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err //nolint:wrapcheck
		}

		page = page.WithSection("Environment", "TWITCH_TOKEN, GEMINI_API_KEY, ELEVENLABS_API_KEY and SENTRY_DSN "+
			"override the credentials in the config file. Any other setting can be set with a VOZBOT_ variable, "+
			"e.g. VOZBOT_AUDIO_VOLUME=50.")
		fmt.Println(page.Build(roff.NewDocument()))
		return nil
	},
}
