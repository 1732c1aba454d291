package main

import (
	"fmt"

	"github.com/franz/wayfarer/internal/profile"
	"github.com/franz/wayfarer/internal/util"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit the user profile",
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update the profile",
	Long: `Update profile fields. Only the flags you pass are changed; an empty
string clears an optional field.

The profile is always saved locally. When a profile endpoint is configured
(--profile-url) it is also pushed there; if that fails the profile stays
saved locally and will sync later.`,
	Args: cobra.NoArgs,
	RunE: runProfileSet,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd, profileShowCmd)

	profileCmd.PersistentFlags().String("id", "", "user id from the identity provider (required)")
	profileCmd.MarkPersistentFlagRequired("id")

	profileSetCmd.Flags().String("name", "", "display name")
	profileSetCmd.Flags().String("email", "", "email address")
	profileSetCmd.Flags().String("phone", "", "phone number")
	profileSetCmd.Flags().String("voice", "", "selected assistant voice")
	profileSetCmd.Flags().Bool("notifications", false, "enable notifications")
	profileSetCmd.Flags().Bool("voice-assistant", false, "enable the voice assistant")
	profileSetCmd.Flags().Bool("app-lock", false, "enable app lock")
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	flags := cmd.Flags()

	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	flag := func(name string) *bool {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetBool(name)
		return &v
	}

	update := profile.Update{
		Name:                  str("name"),
		Email:                 str("email"),
		PhoneNumber:           str("phone"),
		SelectedVoice:         str("voice"),
		NotificationsEnabled:  flag("notifications"),
		VoiceAssistantEnabled: flag("voice-assistant"),
		AppLockEnabled:        flag("app-lock"),
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	svc := newProfileService(db, logger)

	p, err := update.Apply(id, svc.Get(id))
	if err != nil {
		return err
	}

	outcome, err := svc.Save(cmd.Context(), p)
	if err != nil {
		return err
	}

	if outcome == profile.OutcomeSavedOnline {
		util.SuccessLog("%s", outcome.Message())
	} else {
		util.WarnLog("%s", outcome.Message())
	}
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	p := db.GetProfile(id)
	if p == nil {
		return fmt.Errorf("profile %q: %w", id, util.ErrNotFound)
	}

	opt := func(s *string) string {
		if s == nil {
			return "-"
		}
		return *s
	}
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:              %s\n", p.ID)
	fmt.Fprintf(out, "Name:            %s\n", p.Name)
	fmt.Fprintf(out, "Email:           %s\n", opt(p.Email))
	fmt.Fprintf(out, "Phone:           %s\n", opt(p.PhoneNumber))
	fmt.Fprintf(out, "Voice:           %s\n", opt(p.SelectedVoice))
	fmt.Fprintf(out, "Notifications:   %s\n", onOff(p.NotificationsEnabled))
	fmt.Fprintf(out, "Voice assistant: %s\n", onOff(p.VoiceAssistantEnabled))
	fmt.Fprintf(out, "App lock:        %s\n", onOff(p.AppLockEnabled))
	fmt.Fprintf(out, "Updated:         %s\n", p.UpdatedAt)
	return nil
}
