package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <api_name>",
	Short: "Execute one Tushare api from the command line",
	Long: `Run one upstream call through the full gateway pipeline: catalog
validation, rate limiting, dispatch and truncation. Parameters are
passed as a JSON object.`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	callCmd.Flags().String("params", "{}", "api parameters as a JSON object")
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := loadGatewayConfig(cmd)
	if err != nil {
		return err
	}

	_, _, exec, err := buildGateway(cfg)
	if err != nil {
		return err
	}

	rawParams, _ := cmd.Flags().GetString("params")
	var params map[string]interface{}
	if err := json.Unmarshal([]byte(rawParams), &params); err != nil {
		return fmt.Errorf("--params must be a JSON object: %w", err)
	}

	result, err := exec.Execute(context.Background(), args[0], params)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
