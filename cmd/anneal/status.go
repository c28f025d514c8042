package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var serverURL string

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query the job server",
	Long: `Queries the server for job status. Without a job-id, lists all jobs;
with one, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listJobs(fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	return getJobStatus(fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, args[0]))
}

func fetchJSON(url string, v any) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func listJobs(url string) error {
	var jobs []map[string]any
	if err := fetchJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Printf("Job ID: %s\n", job["id"])
		fmt.Printf("  State: %s\n", job["state"])
		if cfg, ok := job["config"].(map[string]any); ok {
			fmt.Printf("  Problem: %v (size %v, seed %v)\n", cfg["problem"], cfg["size"], cfg["seed"])
		}
		if best, ok := job["bestEnergy"].(float64); ok && job["state"] != "pending" {
			fmt.Printf("  Energy: %.6f -> %.6f\n", job["initialEnergy"], best)
		}
		fmt.Println()
	}
	return nil
}

func getJobStatus(url string) error {
	var status map[string]any
	if err := fetchJSON(url, &status); err != nil {
		return err
	}

	fmt.Printf("Job ID: %s\n", status["id"])
	fmt.Printf("State: %s\n", status["state"])
	if cfg, ok := status["config"].(map[string]any); ok {
		fmt.Printf("Problem: %v (size %v, seed %v)\n", cfg["problem"], cfg["size"], cfg["seed"])
		fmt.Printf("Schedule: %v\n", cfg["schedule"])
	}
	fmt.Printf("Iteration: %v\n", status["iteration"])
	fmt.Printf("Energy: %v -> %v\n", status["initialEnergy"], status["bestEnergy"])
	fmt.Printf("Elapsed: %.1fs (%.0f iters/sec)\n", status["elapsed"], status["itersPerSec"])
	if reason, ok := status["reason"].(string); ok && reason != "" {
		fmt.Printf("Reason: %s\n", reason)
	}
	if errMsg, ok := status["error"].(string); ok && errMsg != "" {
		fmt.Printf("Error: %s\n", errMsg)
	}
	return nil
}
