package main

import (
	"fmt"

	"github.com/franz/wayfarer/internal/ocr"
	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/util"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Recognize text in an image",
	Long: `Run OCR on an image file (path or file:// URI) and print the text.

Recognition uses the tesseract binary (see --tesseract). An image with no
recognizable text prints nothing. Use --save to keep the scan in history.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("lang", "", "tesseract language(s), e.g. eng+spa")
	scanCmd.Flags().Bool("save", false, "keep the scan in history")
}

func runScan(cmd *cobra.Command, args []string) error {
	imageRef := args[0]
	langs, _ := cmd.Flags().GetString("lang")
	save, _ := cmd.Flags().GetBool("save")

	if _, err := ocr.ResolveImageRef(imageRef); err != nil {
		return err
	}

	recognizer := ocr.NewTesseractRecognizer(GetConfigString("tesseract", "tesseract"), langs)
	if !recognizer.Available() {
		util.WarnLog("tesseract not found in PATH - OCR will return no text")
		util.WarnLog("Install tesseract: https://github.com/tesseract-ocr/tesseract")
	}

	logger := openEventLogger()
	defer logger.Close()

	text := recognizer.Recognize(cmd.Context(), imageRef)
	logger.LogOCR(imageRef, len([]rune(text)))

	if text == "" {
		util.WarnLog("No text recognized")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)

	if !save {
		return nil
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.InsertScan(&store.ScanRecord{Text: text, ImageRef: imageRef})
	logger.LogSave(string(store.KindScan), id, err)
	if err != nil {
		return err
	}
	util.SuccessLog("Saved scan %d", id)
	return nil
}
