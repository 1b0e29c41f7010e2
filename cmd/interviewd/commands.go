package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/interviewd/internal/api"
	"github.com/kalambet/interviewd/internal/config"
	"github.com/kalambet/interviewd/internal/interview"
	"github.com/kalambet/interviewd/internal/storage"
)

const sessionEnv = "INTERVIEWD_SESSION"

var errNoSession = errors.New("no session: pass --session or set " + sessionEnv)

// sessionID resolves the --session flag, falling back to $INTERVIEWD_SESSION.
func sessionID(cmd *cobra.Command) string {
	if id, _ := cmd.Flags().GetString("session"); id != "" {
		return id
	}
	return os.Getenv(sessionEnv)
}

func requireSession(cmd *cobra.Command) (string, error) {
	id := sessionID(cmd)
	if id == "" {
		return "", errNoSession
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- upload ---

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a resume and job description to start an interview",
	Long: `Upload a resume and job description to start an interview.

Examples:
  interviewd upload --resume ./resume.pdf --jd ./job.txt --role devops_engineer
  interviewd upload --resume-text "Go developer, 5 years" --jd-text "Senior backend engineer"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resumeFile, _ := cmd.Flags().GetString("resume")
		resumeText, _ := cmd.Flags().GetString("resume-text")
		jdFile, _ := cmd.Flags().GetString("jd")
		jdText, _ := cmd.Flags().GetString("jd-text")
		role, _ := cmd.Flags().GetString("role")

		if resumeFile == "" && resumeText == "" {
			return fmt.Errorf("one of --resume or --resume-text is required")
		}
		if jdFile != "" {
			data, err := os.ReadFile(jdFile)
			if err != nil {
				return fmt.Errorf("reading job description: %w", err)
			}
			jdText = string(data)
		}
		if strings.TrimSpace(jdText) == "" {
			return fmt.Errorf("one of --jd or --jd-text is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		fields := map[string]string{
			"session_id":  sessionID(cmd),
			"resume_text": resumeText,
			"jd":          jdText,
			"role":        role,
		}
		resp, err := client.postForm(cmd.Context(), "/upload-context", fields, "resume", resumeFile)
		if err != nil {
			return err
		}

		var result api.UploadContextResponse
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("%s Role: %s", result.Message, result.Role)
		fmt.Fprintf(cmd.OutOrStdout(), "export %s=%s\n", sessionEnv, result.SessionID)
		return nil
	},
}

func init() {
	uploadCmd.Flags().String("resume", "", "resume file (PDF or text)")
	uploadCmd.Flags().String("resume-text", "", "resume as inline text")
	uploadCmd.Flags().String("jd", "", "job description file")
	uploadCmd.Flags().String("jd-text", "", "job description as inline text")
	uploadCmd.Flags().String("role", "", "role id, see 'interviewd roles'")
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Answer the interviewer",
	Long: `Answer the interviewer. With a message argument a single turn is sent;
without one, answers are read line by line from stdin until the interview ends.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := requireSession(cmd)
		if err != nil {
			return err
		}
		showDebug, _ := cmd.Flags().GetBool("debug")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		send := func(msg string) (bool, error) {
			resp, err := client.post(cmd.Context(), "/chat", api.ChatRequest{SessionID: id, Message: msg})
			if err != nil {
				return false, err
			}
			var res interview.TurnResult
			if err := decodeJSON(resp, &res); err != nil {
				return false, err
			}
			printTurn(out, res, showDebug)
			return res.Complete, nil
		}

		if len(args) > 0 {
			_, err := send(strings.Join(args, " "))
			return err
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			done, err := send(line)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().Bool("debug", false, "show classification, score and analytics")
}

// --- feedback ---

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Generate a feedback report without ending the interview",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := requireSession(cmd)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/get-feedback", api.SessionRequest{SessionID: id})
		if err != nil {
			return err
		}
		var report interview.Report
		if err := decodeJSON(resp, &report); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), report.Text)
		return nil
	},
}

// --- reset ---

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the session, context included",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/reset", api.SessionRequest{SessionID: sessionID(cmd)})
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Session %s reset", result["session_id"])
		return nil
	},
}

// --- end ---

var endCmd = &cobra.Command{
	Use:   "end",
	Short: "Discard the live session on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := requireSession(cmd)
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/session/"+id)
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Session %s ended", id)
		return nil
	},
}

// --- roles ---

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List interview roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/get-roles")
		if err != nil {
			return err
		}
		var roles []interview.Role
		if err := decodeJSON(resp, &roles); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range roles {
			fmt.Fprintf(out, "%s  %s\n", colorize(colorCyan, r.ID), colorize(colorBold, r.Name))
			fmt.Fprintf(out, "  %s\n", r.Description)
		}
		return nil
	},
}

// --- sessions ---

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved interviews",
}

var sessionsSaveCmd = &cobra.Command{
	Use:   "save [archive-id]",
	Short: "Archive a snapshot of the current interview",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := requireSession(cmd)
		if err != nil {
			return err
		}
		req := api.SaveRequest{SessionID: id}
		if len(args) == 1 {
			req.ID = args[0]
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/save-session", req)
		if err != nil {
			return err
		}
		var saved storage.SavedSession
		if err := decodeJSON(resp, &saved); err != nil {
			return err
		}

		printSuccess("Saved as %s", saved.ID)
		return nil
	},
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved interviews, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), fmt.Sprintf("/list-sessions?limit=%d", limit))
		if err != nil {
			return err
		}
		var saved []storage.SavedSession
		if err := decodeJSON(resp, &saved); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(saved) == 0 {
			fmt.Fprintln(out, "No saved sessions.")
			return nil
		}
		for _, s := range saved {
			fmt.Fprintf(out, "%s  %s  %-20s %-10s q=%d avg=%.1f\n",
				colorize(colorCyan, s.ID),
				s.SavedAt.Format("2006-01-02 15:04"),
				s.Role,
				s.Phase,
				s.QuestionCount,
				s.AverageScore,
			)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <archive-id>",
	Short: "Show a saved interview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/load-session/"+args[0])
		if err != nil {
			return err
		}
		var saved storage.SavedSession
		if err := decodeJSON(resp, &saved); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), saved)
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <archive-id>",
	Short: "Delete a saved interview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/delete-session/"+args[0])
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted %s", args[0])
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().Int("limit", 20, "maximum number of sessions to list")
	sessionsCmd.AddCommand(sessionsSaveCmd, sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd)
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the feedback report as a PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := requireSession(cmd)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = "interview-report-" + id + ".pdf"
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/export-pdf", api.ExportRequest{SessionID: id})
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := checkStatus(resp); err != nil {
			return err
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		if _, err := io.Copy(f, resp.Body); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", output, err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		printSuccess("Report written to %s", output)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("output", "", "output file (default interview-report-<session>.pdf)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}

		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configUnsetCmd)
}
