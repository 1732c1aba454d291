package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/franz/wayfarer/internal/speech"
	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/util"
	"github.com/spf13/cobra"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Capture a voice note transcript",
	Long: `Listen for a transcript and optionally save it as a voice note.

Each line typed on stdin is taken as one recognized sentence; end input
with Ctrl-D or stop with Ctrl-C. Use --save to keep the note.`,
	Args: cobra.NoArgs,
	RunE: runVoice,
}

func init() {
	rootCmd.AddCommand(voiceCmd)

	voiceCmd.Flags().String("locale", "en-US", "recognition locale")
	voiceCmd.Flags().Bool("save", false, "save the transcript as a voice note")
}

func runVoice(cmd *cobra.Command, args []string) error {
	locale, _ := cmd.Flags().GetString("locale")
	save, _ := cmd.Flags().GetBool("save")

	logger := openEventLogger()
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if util.IsTerminal(os.Stdin.Fd()) {
		util.InfoLog("Listening... (Ctrl-D to finish)")
	}

	recognizer := speech.NewLineRecognizer(cmd.InOrStdin())
	session, err := speech.Listen(ctx, recognizer, locale, func(ev speech.Event) {
		if ev.Kind == speech.EventFinal {
			util.DebugLog("Heard: %s", ev.Text)
		}
	})
	if session != nil {
		logger.LogSpeech(session.ID, session.Finals(), err)
	}
	if err != nil {
		return err
	}

	transcript := session.Transcription()
	if transcript != "" {
		fmt.Fprintln(cmd.OutOrStdout(), transcript)
	}

	if !save {
		return nil
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	note, err := session.Save(db)
	if errors.Is(err, speech.ErrEmptyTranscription) {
		util.WarnLog("Nothing heard, voice note not saved")
		return nil
	}
	var id int64
	if note != nil {
		id = note.ID
	}
	logger.LogSave(string(store.KindVoiceNote), id, err)
	if err != nil {
		return err
	}
	util.SuccessLog("Saved voice note %d", id)
	return nil
}
