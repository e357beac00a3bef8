package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vozbot/vozbot/internal/elevenlabs"
)

var voiceSearch string

var voicesCmd = &cobra.Command{
	Use:     "voices",
	Short:   "List ElevenLabs voices as JSON",
	Long:    paragraph(fmt.Sprintf("\n%s the voices available to your ElevenLabs key, sorted by name. Use a %s with --voice or voice.voice_id.", keyword("List"), keyword("voice_id"))),
	Example: paragraph("vozbot voices\nvozbot voices --search rachel"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client := elevenlabs.NewClient(elevenlabs.Config{
			APIKey:  settings.Voice.APIKey,
			BaseURL: settings.Voice.BaseURL,
		})
		if !client.Configured() {
			return errors.New("set an ElevenLabs key with ELEVENLABS_API_KEY or voice.api_key")
		}
		catalog := elevenlabs.NewCatalog(client)

		return printJSON(catalog.Search(cmd.Context(), voiceSearch))
	},
}

func init() {
	voicesCmd.Flags().StringVarP(&voiceSearch, "search", "s", "", "fuzzy-match voice names")
}
