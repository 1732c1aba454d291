package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/translate"
	"github.com/franz/wayfarer/internal/util"
	"github.com/spf13/cobra"
)

var translateCmd = &cobra.Command{
	Use:   "translate <text>",
	Short: "Translate text between languages",
	Long: `Translate text with the on-device engine or the web endpoint.

Known phrases are answered by the built-in phrasebook; everything else goes
to the web endpoint. Use --from auto to detect the source language (web
only). With --offline only the phrasebook is used and --from defaults to
English. A missing language model is reported unless --allow-download is
set. Pass "-" to read the text from stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().String("from", translate.AutoDetect, "source language code")
	translateCmd.Flags().String("to", "en", "target language code")
	translateCmd.Flags().Bool("offline", false, "use only the on-device phrasebook")
	translateCmd.Flags().Bool("save", false, "keep the translation in history")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	offline, _ := cmd.Flags().GetBool("offline")
	save, _ := cmd.Flags().GetBool("save")

	if offline && from == translate.AutoDetect {
		if cmd.Flags().Changed("from") {
			return fmt.Errorf("--offline cannot detect the source language, pass --from: %w", util.ErrInvalidConfig)
		}
		from = "en"
	}

	logger := openEventLogger()
	defer logger.Close()

	svc := newTranslator(logger, offline)
	result, err := svc.Translate(cmd.Context(), text, from, to, util.GetAllowDownload())
	if err != nil {
		return err
	}

	if result.ModelMissing() {
		util.WarnLog("%s (use --allow-download)", translate.ModelMissingText)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.TranslatedText)
	util.DebugLog("%s → %s via %s", result.SourceLang, result.TargetLang, result.Via)

	if !save {
		return nil
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.InsertTranslation(&store.TranslationRecord{
		SourceText: result.SourceText,
		TargetText: result.TranslatedText,
		SourceLang: result.SourceLang,
		TargetLang: result.TargetLang,
	})
	logger.LogSave(string(store.KindTranslation), id, err)
	if err != nil {
		return err
	}
	util.SuccessLog("Saved translation %d", id)
	return nil
}
