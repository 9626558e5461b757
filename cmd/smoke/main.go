package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aiuml/api/internal/handlers"
)

const requirements = `Customers browse a catalog and place orders.
Each order has line items and a shipping address.
Administrators approve refunds after reviewing the order history.`

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) do(method, path string, body, out interface{}) (int, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.base+path, r)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, raw)
	}
	if out != nil && len(raw) > 0 {
		return resp.StatusCode, json.Unmarshal(raw, out)
	}
	return resp.StatusCode, nil
}

// smoke drives a running server through register, project creation and
// one synchronous analysis.
func main() {
	base := flag.String("base", "http://localhost:8080/api/v1", "API base URL")
	kind := flag.String("kind", "class", "diagram kind")
	async := flag.Bool("async", false, "also start a workflow run and poll it")
	flag.Parse()

	c := &client{base: *base, http: &http.Client{Timeout: 3 * time.Minute}}

	email := fmt.Sprintf("smoke-%s@example.com", uuid.NewString()[:8])
	var auth handlers.AuthResponse
	if _, err := c.do(http.MethodPost, "/auth/register", handlers.RegisterRequest{
		Email:    email,
		Name:     "Smoke Test",
		Password: "smoke-password",
	}, &auth); err != nil {
		log.Fatalf("register: %v", err)
	}
	c.token = auth.Token
	log.Printf("registered %s", email)

	var project struct {
		ID uuid.UUID `json:"id"`
	}
	if _, err := c.do(http.MethodPost, "/projects", handlers.CreateProjectRequest{
		Name:         "Smoke Project",
		Requirements: requirements,
	}, &project); err != nil {
		log.Fatalf("create project: %v", err)
	}
	log.Printf("created project %s", project.ID)

	start := time.Now()
	var run handlers.AnalyzeResponse
	if _, err := c.do(http.MethodPost, "/projects/"+project.ID.String()+"/analyze",
		handlers.AnalyzeRequest{Kind: *kind}, &run); err != nil {
		log.Fatalf("analyze: %v", err)
	}
	log.Printf("analysis finished in %s (model=%q degraded=%t)",
		time.Since(start).Round(time.Millisecond), run.Diagram.Model, run.Diagram.Degraded)
	if run.Diagram.Degraded {
		log.Printf("failure: %s", run.Diagram.Failure)
	}
	fmt.Println(run.Diagram.Document)
	for _, p := range run.Patterns {
		fmt.Printf("- %s: %s\n", p.Name, p.Explanation)
	}

	if !*async {
		return
	}

	var started struct {
		WorkflowID string `json:"workflow_id"`
	}
	if _, err := c.do(http.MethodPost, "/projects/"+project.ID.String()+"/analyze/async",
		handlers.AnalyzeRequest{Kind: *kind}, &started); err != nil {
		log.Fatalf("analyze async: %v", err)
	}
	log.Printf("workflow %s started", started.WorkflowID)

	for i := 0; i < 60; i++ {
		var status struct {
			State string `json:"state"`
			Error string `json:"error"`
		}
		if _, err := c.do(http.MethodGet, "/analyses/"+started.WorkflowID, nil, &status); err != nil {
			log.Fatalf("workflow status: %v", err)
		}
		if !strings.Contains(strings.ToUpper(status.State), "RUNNING") {
			log.Printf("workflow %s: %s %s", started.WorkflowID, status.State, status.Error)
			return
		}
		time.Sleep(2 * time.Second)
	}
	log.Fatalf("workflow %s still running after 2m", started.WorkflowID)
}
