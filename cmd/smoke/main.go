// Command smoke drives the API end to end against a running stack:
// create a judge, import a submission, assign the judge to every question,
// trigger a batch run and print the summary.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type importResp struct {
	WorkspaceID  string `json:"workspaceId"`
	SubmissionID string `json:"submissionId"`
	Questions    int    `json:"questions"`
}

type judgeResp struct {
	JudgeID string `json:"judgeId"`
}

type questionResp struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
}

type runResp struct {
	Success      bool `json:"success"`
	Processed    int  `json:"processed"`
	Passed       int  `json:"passed"`
	Failed       int  `json:"failed"`
	Inconclusive int  `json:"inconclusive"`
	Results      []struct {
		QuestionID string `json:"questionId"`
		JudgeID    string `json:"judgeId"`
		Verdict    string `json:"verdict"`
		Success    bool   `json:"success"`
		Error      string `json:"error,omitempty"`
	} `json:"results"`
}

type client struct {
	base        string
	apiToken    string
	clientToken string
	httpc       *http.Client
}

func main() {
	base := flag.String("base", envOr("API_BASE_URL", "http://localhost:8000"), "API base URL")
	apiToken := flag.String("token", envOr("API_TOKEN", "dev-secret-token"), "API token")
	clientToken := flag.String("client-token", envOr("CLIENT_TOKEN", "smoke-browser-1"), "opaque per-client identity token")
	model := flag.String("model", envOr("LLM_MODEL", "gpt-4o-mini"), "judge model")
	flag.Parse()

	c := &client{
		base:        *base,
		apiToken:    *apiToken,
		clientToken: *clientToken,
		httpc:       &http.Client{Timeout: 3 * time.Minute},
	}

	// 1) Create a judge
	var judge judgeResp
	must(c.do("POST", "/judges", map[string]any{
		"name":         "Smoke geography judge",
		"systemPrompt": "You grade geography answers. The correct answer to the capital question is B (Paris).",
		"model":        *model,
	}, &judge), "create judge")
	fmt.Println("judge:", judge.JudgeID)

	// 2) Import a submission into a fresh temporary workspace
	var imported importResp
	must(c.do("POST", "/workspaces/new/submissions", map[string]any{
		"name": "smoke batch",
		"questions": []map[string]any{
			{
				"text":   "What is the capital of France? A) Lyon B) Paris C) Nice",
				"type":   "multiple_choice",
				"answer": map[string]any{"choice": "B"},
			},
			{
				"text":   "Describe the climate of Paris.",
				"type":   "free_form",
				"answer": map[string]any{"text": "Temperate, with mild winters and warm summers."},
			},
		},
	}, &imported), "import submission")
	fmt.Printf("workspace %s, submission %s, %d questions\n",
		imported.WorkspaceID, imported.SubmissionID, imported.Questions)

	// 3) Assign the judge to every question
	var questions []questionResp
	must(c.do("GET", "/workspaces/"+imported.WorkspaceID+"/questions", nil, &questions), "list questions")
	for _, q := range questions {
		must(c.do("PUT", "/questions/"+q.QuestionID+"/judges",
			map[string]any{"judgeIds": []string{judge.JudgeID}}, nil), "assign judges")
	}
	fmt.Printf("assigned judge to %d questions\n", len(questions))

	// 4) Trigger the batch run
	var run runResp
	must(c.do("POST", "/workspaces/"+imported.WorkspaceID+"/evaluations", map[string]any{}, &run), "run evaluations")
	fmt.Printf("processed=%d passed=%d failed=%d inconclusive=%d\n",
		run.Processed, run.Passed, run.Failed, run.Inconclusive)
	for _, res := range run.Results {
		fmt.Printf("  question=%s verdict=%s success=%v %s\n", res.QuestionID, res.Verdict, res.Success, res.Error)
	}

	// 5) Keep the workspace: name it
	must(c.do("PATCH", "/workspaces/"+imported.WorkspaceID,
		map[string]any{"name": "smoke " + time.Now().Format(time.RFC3339)}, nil), "save workspace")
	fmt.Println("workspace saved")
}

func (c *client) do(method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("X-Client-Token", c.clientToken)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		return fmt.Errorf("%s %s: %d: %s", method, path, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func must(err error, what string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
