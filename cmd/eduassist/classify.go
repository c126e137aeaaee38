package main

import (
	"encoding/json"
	"strings"

	"github.com/eduassist/eduassist-go/internal/analyzer"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <message...>",
	Short: "对一条消息做意图分类并输出 JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result := analyzer.Classify(strings.Join(args, " "))
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
