package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "List the registered indicators with their windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, reg, err := newEngine()
		if err != nil {
			return err
		}
		enabled := make(map[string]bool)
		for _, n := range eng.Indicators() {
			enabled[n] = true
		}

		var rows [][]string
		for _, rw := range reg.Windows(eng.Config().Params) {
			on := ""
			if enabled[rw.Name] {
				on = "yes"
			}
			rows = append(rows, []string{rw.Name, strconv.Itoa(rw.Window), strconv.Itoa(rw.WarmUp), on, rw.Description})
		}
		fmt.Println(plainTable([]string{"Name", "Window", "Warm-up", "Enabled", "Rule"}, rows, !flagNoColor))
		fmt.Printf("max window: %d bars\n", eng.MaxWindow())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indicatorsCmd)
}
