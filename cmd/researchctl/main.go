// Package main implements the researchctl CLI for manual operations
// against the researchd HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the researchd HTTP server
	serverURL string
	// userID is sent as the X-User-ID header on every request
	userID string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "researchctl",
	Short: "CLI for researchd HTTP server operations",
	Long: `researchctl is a command-line interface for the researchd server.
It runs research sessions, manages persistent contexts, and inspects
usage and history.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8420", "researchd server URL")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "default", "user ID for all operations")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(memoryCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check researchd server health",
	RunE:  runHealth,
}

// HealthResponse matches internal/httpapi HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

func runHealth(cmd *cobra.Command, args []string) error {
	var resp HealthResponse
	if err := apiGet("/health", &resp); err != nil {
		return err
	}
	fmt.Printf("Server Status: %s\n", resp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)
	return nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// apiGet performs a GET against the server and decodes the JSON
// response into out.
func apiGet(path string, out any) error {
	return apiCall(http.MethodGet, path, nil, out)
}

// apiPost performs a POST with a JSON body.
func apiPost(path string, body, out any) error {
	return apiCall(http.MethodPost, path, body, out)
}

// apiDelete performs a DELETE.
func apiDelete(path string, out any) error {
	return apiCall(http.MethodDelete, path, nil, out)
}

func apiCall(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	url := serverURL + path
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)

	resp, err := httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
