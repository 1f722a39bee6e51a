package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage user preferences",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print current preferences",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update preferences",
	RunE:  runSettingsSet,
}

var (
	setDarkTheme     string
	setShowHidden    string
	setConfirmDelete string
	setDefaultDir    string
)

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	settingsSetCmd.Flags().StringVar(&setDarkTheme, "dark-theme", "", "true or false")
	settingsSetCmd.Flags().StringVar(&setShowHidden, "show-hidden", "", "true or false")
	settingsSetCmd.Flags().StringVar(&setConfirmDelete, "confirm-delete", "", "true or false")
	settingsSetCmd.Flags().StringVar(&setDefaultDir, "default-dir", "", "Directory for new tabs")
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	settings, err := appClient.ReloadSettings()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(settings)
		return nil
	}

	fmt.Printf("Dark theme:      %v\n", settings.DarkTheme)
	fmt.Printf("Show hidden:     %v\n", settings.ShowHidden)
	fmt.Printf("Confirm delete:  %v\n", settings.ConfirmDelete)
	if settings.DefaultDirectory != "" {
		fmt.Printf("Default dir:     %s\n", settings.DefaultDirectory)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	settings, err := appClient.Settings.Load()
	if err != nil {
		return err
	}

	applyBool := func(flag string, target *bool) error {
		switch flag {
		case "":
		case "true":
			*target = true
		case "false":
			*target = false
		default:
			return fmt.Errorf("expected true or false, got %q", flag)
		}
		return nil
	}

	if err := applyBool(setDarkTheme, &settings.DarkTheme); err != nil {
		return err
	}
	if err := applyBool(setShowHidden, &settings.ShowHidden); err != nil {
		return err
	}
	if err := applyBool(setConfirmDelete, &settings.ConfirmDelete); err != nil {
		return err
	}
	if setDefaultDir != "" {
		settings.DefaultDirectory = setDefaultDir
	}

	if err := appClient.Settings.Save(settings); err != nil {
		return err
	}
	if _, err := appClient.ReloadSettings(); err != nil {
		return err
	}

	printSuccess("Settings saved")
	return nil
}
