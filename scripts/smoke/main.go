// Command smoke drives a running deck-api instance through the full slide
// lifecycle and reports per-step results. It exits non-zero on the first
// failed step, which makes it usable as a deploy gate.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type step struct {
	Name     string
	Status   int
	Duration time.Duration
	Error    error
}

type client struct {
	base string
	http *http.Client
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		base    string
		prefix  string
		timeout time.Duration
		actor   string
	)
	flag.StringVar(&base, "base", "http://localhost:8080", "deck-api base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API route prefix")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.StringVar(&actor, "actor", "smoke-test", "value for the X-Actor-Id header")
	flag.Parse()

	c := &client{
		base: strings.TrimRight(base, "/") + prefix,
		http: &http.Client{Timeout: timeout},
	}

	var steps []step
	run := func(name string, fn func() (int, error)) bool {
		start := time.Now()
		status, err := fn()
		steps = append(steps, step{Name: name, Status: status, Duration: time.Since(start), Error: err})
		return err == nil
	}

	var (
		projectID string
		slideID   string
		token     string
		linkID    string
	)

	ok := run("health", func() (int, error) {
		return c.do(http.MethodGet, strings.TrimRight(base, "/")+"/health", nil, actor, nil)
	})
	ok = ok && run("create project", func() (int, error) {
		var out struct {
			ID string `json:"id"`
		}
		status, err := c.doAPI(http.MethodPost, "/projects", map[string]interface{}{"title": "Smoke Deck"}, actor, &out)
		projectID = out.ID
		return status, err
	})
	ok = ok && run("add slide", func() (int, error) {
		var out struct {
			ID string `json:"id"`
		}
		status, err := c.doAPI(http.MethodPost, "/projects/"+projectID+"/slides", map[string]interface{}{
			"layout":   "bullets",
			"headline": "Smoke headline",
			"content":  map[string]interface{}{"bullets": []string{"first", "second"}},
		}, actor, &out)
		slideID = out.ID
		return status, err
	})
	ok = ok && run("approve slide", func() (int, error) {
		return c.doAPI(http.MethodPost, "/slides/"+slideID+"/approve", nil, actor, nil)
	})
	ok = ok && run("create version", func() (int, error) {
		return c.doAPI(http.MethodPost, "/projects/"+projectID+"/versions", map[string]interface{}{"notes": "smoke"}, actor, nil)
	})
	ok = ok && run("create sharing link", func() (int, error) {
		var out struct {
			ID    string `json:"id"`
			Token string `json:"token"`
		}
		status, err := c.doAPI(http.MethodPost, "/projects/"+projectID+"/links", map[string]interface{}{"permission": "view"}, actor, &out)
		linkID = out.ID
		token = out.Token
		return status, err
	})
	ok = ok && run("resolve shared deck", func() (int, error) {
		return c.doAPI(http.MethodGet, "/shared/"+token, nil, "", nil)
	})
	ok = ok && run("deactivate link", func() (int, error) {
		return c.doAPI(http.MethodPost, "/links/"+linkID+"/deactivate", nil, actor, nil)
	})
	ok = ok && run("deactivated link is refused", func() (int, error) {
		status, err := c.doAPI(http.MethodGet, "/shared/"+token, nil, "", nil)
		if err == nil {
			return status, fmt.Errorf("expected a refusal, got %d", status)
		}
		if status != http.StatusForbidden {
			return status, fmt.Errorf("expected 403, got %d", status)
		}
		return status, nil
	})
	ok = ok && run("delete project", func() (int, error) {
		return c.doAPI(http.MethodDelete, "/projects/"+projectID, nil, actor, nil)
	})

	printReport(steps)
	if !ok {
		os.Exit(1)
	}
}

func (c *client) doAPI(method, path string, body interface{}, actor string, out interface{}) (int, error) {
	return c.do(method, c.base+path, body, actor, out)
}

func (c *client) do(method, url string, body interface{}, actor string, out interface{}) (int, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set("X-Actor-Id", actor)
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

	if resp.StatusCode >= 400 {
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Error != nil {
			return resp.StatusCode, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
		}
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return resp.StatusCode, fmt.Errorf("decode data: %w", err)
			}
		}
	}
	return resp.StatusCode, nil
}

func printReport(steps []step) {
	fmt.Println()
	fmt.Printf("%-30s %-8s %-10s %s\n", "STEP", "STATUS", "DURATION", "RESULT")
	for _, s := range steps {
		result := "ok"
		if s.Error != nil {
			result = s.Error.Error()
		}
		fmt.Printf("%-30s %-8d %-10s %s\n", s.Name, s.Status, s.Duration.Round(time.Millisecond), result)
	}
}
