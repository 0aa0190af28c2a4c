package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// encryptModes contains valid connection encryption modes for shell completion.
var encryptModes = []string{"true", "false", "disable", "strict"}

// completeEncryptModes provides shell completion for the --encrypt flag.
func completeEncryptModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var matches []string
	for _, mode := range encryptModes {
		if strings.HasPrefix(mode, toComplete) {
			matches = append(matches, mode)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

// completeStageNames provides shell completion for stage names.
func completeStageNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	stages := []string{
		mstools.StageTables,
		mstools.StageData,
		mstools.StageConstraints,
		mstools.StageIndexes,
		mstools.StageKeys,
		mstools.StageProgrammables,
		mstools.StageUsers,
	}

	var matches []string
	for _, name := range stages {
		if strings.HasPrefix(name, toComplete) {
			matches = append(matches, name)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Let the shell handle directory completion
	return nil, cobra.ShellCompDirectiveFilterDirs
}
