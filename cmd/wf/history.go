package main

import (
	"fmt"
	"time"

	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/ui"
	"github.com/franz/wayfarer/internal/util"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [kind...]",
	Short: "List saved items, newest first",
	Long: `List saved scans, translations, voice notes, profiles and routes.

Pass one or more kinds (scan, translation, voice, profile, route) to
narrow the listing.`,
	RunE: runHistory,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <kind> <id>",
	Short: "Delete one saved item",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete everything in the local store",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(historyCmd, deleteCmd, clearCmd)

	clearCmd.Flags().Bool("yes", false, "confirm deleting all data")
}

func runHistory(cmd *cobra.Command, args []string) error {
	kinds := make([]store.Kind, 0, len(args))
	for _, a := range args {
		k, err := store.ParseKind(a)
		if err != nil {
			return err
		}
		kinds = append(kinds, k)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprint(cmd.OutOrStdout(), ui.RenderHistory(ui.CollectHistory(db, kinds...), time.Now()))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	kind, err := store.ParseKind(args[0])
	if err != nil {
		return err
	}

	if kind == store.KindProfile {
		return deleteRecord(kind, args[1], func(db *store.Store) error {
			return db.DeleteProfile(args[1])
		})
	}

	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	return deleteRecord(kind, args[1], func(db *store.Store) error {
		return db.DeleteByID(kind, id)
	})
}

func runClear(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirm("Delete all saved data?") {
		util.InfoLog("Nothing deleted (use --yes to confirm)")
		return nil
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	err = db.ClearAll()
	logger.LogClear(err)
	if err != nil {
		return err
	}
	util.SuccessLog("Cleared all saved data")
	return nil
}
