// Command lifecycle_smoke drives a full degree-project lifecycle against a
// running instance: login, register a project, submit an iteration and walk
// the review chain to a terminal status. Exits non-zero on the first failed
// step so it can gate deploys.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

type step struct {
	Name     string
	Status   int
	Expected int
	Duration time.Duration
	Error    error
}

type client struct {
	base  string
	http  *http.Client
	token string
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func main() {
	var (
		base     string
		email    string
		password string
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&email, "email", "coordinador@uni.edu", "login email")
	flag.StringVar(&password, "password", "", "login password")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if password == "" {
		log.Fatal("missing -password")
	}

	c := &client{base: strings.TrimRight(base, "/"), http: &http.Client{Timeout: timeout}}
	var steps []step

	run := func(name string, expected int, fn func() (int, error)) bool {
		start := time.Now()
		status, err := fn()
		steps = append(steps, step{Name: name, Status: status, Expected: expected, Duration: time.Since(start), Error: err})
		return err == nil && status == expected
	}

	ok := run("login", http.StatusOK, func() (int, error) { return c.login(email, password) })

	var projectID string
	if ok {
		ok = run("create project", http.StatusCreated, func() (int, error) {
			var err error
			projectID, err = c.createProject()
			if err != nil {
				return 0, err
			}
			return http.StatusCreated, nil
		})
	}

	if ok {
		ok = run("submit iteration", http.StatusCreated, func() (int, error) {
			return c.submitIteration(projectID)
		})
	}

	reviews := []struct {
		name     string
		action   string
		expected string
		grade    *float64
	}{
		{"approve proposal", "APPROVE", "PROPUESTA", nil},
		{"approve review", "APPROVE", "EN_REVISION", nil},
		{"approve to development", "APPROVE", "APROBADO", nil},
		{"grade project", "GRADE", "EN_DESARROLLO", ptr(4.5)},
	}
	for _, rv := range reviews {
		if !ok {
			break
		}
		rv := rv
		ok = run(rv.name, http.StatusOK, func() (int, error) {
			return c.review(projectID, rv.action, rv.expected, rv.grade)
		})
	}

	if ok {
		ok = run("fetch history", http.StatusOK, func() (int, error) {
			return c.get("/projects/" + projectID + "/history")
		})
	}

	printReport(steps)
	if !ok {
		os.Exit(1)
	}
}

func (c *client) login(email, password string) (int, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := c.http.Post(c.base+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, err
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil {
		return resp.StatusCode, err
	}
	c.token = login.AccessToken
	return resp.StatusCode, nil
}

func (c *client) createProject() (string, error) {
	payload := map[string]interface{}{
		"title":            fmt.Sprintf("Smoke %d - validación de ciclo de vida", time.Now().Unix()),
		"summary":          "Proyecto sintético para verificación post-despliegue",
		"start_date":       time.Now().Format("2006-01-02"),
		"program_id":       os.Getenv("SMOKE_PROGRAM_ID"),
		"degree_option_id": os.Getenv("SMOKE_DEGREE_OPTION_ID"),
		"actors": []map[string]string{
			{"person_id": os.Getenv("SMOKE_STUDENT_ID"), "role": "ESTUDIANTE"},
			{"person_id": os.Getenv("SMOKE_JUROR_ID"), "role": "JURADO"},
		},
	}
	body, _ := json.Marshal(payload)
	resp, err := c.do(http.MethodPost, "/projects", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create project returned %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	var project struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &project); err != nil {
		return "", err
	}
	return project.ID, nil
}

func (c *client) submitIteration(projectID string) (int, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("description", "Entrega de humo")
	part, err := w.CreateFormFile("file", "avance.txt")
	if err != nil {
		return 0, err
	}
	if _, err := part.Write([]byte("contenido de prueba")); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	resp, err := c.do(http.MethodPost, "/projects/"+projectID+"/iteration", w.FormDataContentType(), &buf)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *client) review(projectID, action, expectedStatus string, grade *float64) (int, error) {
	payload := map[string]interface{}{
		"action_type":             action,
		"description":             "Paso de humo: " + action,
		"expected_current_status": expectedStatus,
	}
	if grade != nil {
		payload["grade"] = *grade
	}
	body, _ := json.Marshal(payload)
	resp, err := c.do(http.MethodPost, "/projects/"+projectID+"/review", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *client) get(path string) (int, error) {
	resp, err := c.do(http.MethodGet, path, "", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *client) do(method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

func printReport(steps []step) {
	fmt.Println("Lifecycle Smoke Report")
	fmt.Println("======================")
	for _, s := range steps {
		verdict := "OK"
		if s.Error != nil || s.Status != s.Expected {
			verdict = "FAIL"
		}
		fmt.Printf("[%s] %s\n", verdict, s.Name)
		fmt.Printf("  Status: %d (expected %d) in %s\n", s.Status, s.Expected, s.Duration)
		if s.Error != nil {
			fmt.Printf("  Error: %v\n", s.Error)
		}
	}
}

func ptr(v float64) *float64 { return &v }
