package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimstream/internal/model"
	"github.com/ppiankov/claimstream/internal/reducer"
)

var (
	checkServer  string
	checkFile    string
	checkJSON    string
	checkTimeout time.Duration
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Submit text for fact-checking and watch the verification live",
	Long: `Check submits text to a running relay, follows the event stream and
renders verification progress as it arrives: sentences, extracted
claims, per-claim verdicts and the final report.

Example:
  claimstream check "The Eiffel Tower is 330 metres tall."
  claimstream check --file answer.txt
  claimstream check --file answer.txt --server http://relay.internal:8787 --json report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkServer, "server", "http://localhost:8787", "relay server base URL")
	checkCmd.Flags().StringVar(&checkFile, "file", "", "read the text to check from a file")
	checkCmd.Flags().StringVar(&checkJSON, "json", "", "write the final report as JSON to this path")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 5*time.Minute, "overall check timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	text, err := checkInput(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	client := &http.Client{} // stream reads are bounded by ctx, not a client timeout

	checkID, err := submit(ctx, client, text)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Check submitted: %s\n", checkID)
	}

	final, err := follow(ctx, client, checkID)
	if err != nil {
		return err
	}
	if final.Err != "" {
		return fmt.Errorf("check failed: %s", final.Err)
	}
	if final.Report == nil {
		return fmt.Errorf("stream ended without a report")
	}

	renderReport(final.Report)

	if checkJSON != "" {
		blob, err := json.MarshalIndent(final.Report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := os.WriteFile(checkJSON, blob, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Report written: %s\n", checkJSON)
		}
	}
	return nil
}

func checkInput(args []string) (string, error) {
	if checkFile != "" {
		data, err := os.ReadFile(checkFile)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	return "", fmt.Errorf("nothing to check: pass text as an argument or use --file")
}

// submit posts the text and returns the assigned check id.
func submit(ctx context.Context, client *http.Client, text string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, checkServer+"/api/checks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("submit rejected: %s", apiErr.Error)
		}
		return "", fmt.Errorf("submit status: %d", resp.StatusCode)
	}

	var ok struct {
		CheckID string `json:"check_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return ok.CheckID, nil
}

// follow consumes the event stream, printing progress, and returns the
// final reduced state.
func follow(ctx context.Context, client *http.Client, checkID string) (*reducer.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkServer+"/api/checks/"+checkID+"/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stream status: %d", resp.StatusCode)
	}

	lastStage := ""
	printedVerdicts := 0

	final, err := reducer.New().Run(resp.Body, func(s *reducer.State) {
		if msg := s.StageMessage(); msg != "" && msg != lastStage {
			fmt.Fprintf(os.Stderr, "⚙ %s\n", msg)
			lastStage = msg
		}
		for ; printedVerdicts < len(s.Verdicts); printedVerdicts++ {
			v := s.Verdicts[printedVerdicts]
			fmt.Fprintf(os.Stderr, "%s %s\n", verdictMark(v.Result), v.ClaimText)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return final, nil
}

func renderReport(report *model.FactCheckReport) {
	fmt.Println()
	fmt.Printf("Answer: %s\n", report.Answer)
	fmt.Printf("Claims verified: %d\n", report.ClaimsVerified)
	for _, v := range report.VerifiedClaims {
		fmt.Printf("  %s %s (%s)\n", verdictMark(v.Result), v.ClaimText, v.Result)
		for _, src := range v.Sources {
			fmt.Printf("      %s\n", src.URL)
		}
	}
	fmt.Printf("\n%s\n", report.Summary)
}

func verdictMark(result model.VerdictResult) string {
	switch result {
	case model.VerdictSupported:
		return "✓"
	case model.VerdictRefuted:
		return "✗"
	case model.VerdictConflictingEvidence:
		return "~"
	default:
		return "?"
	}
}
