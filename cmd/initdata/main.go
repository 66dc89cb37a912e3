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

	"github.com/brianvoe/gofakeit/v6"
)

// ----------------------------------------------------------------------------
// Config ---------------------------------------------------------------------
var (
	baseURL  = flag.String("url", env("API_BASE_URL", "http://localhost:8080"), "Server base URL")
	username = flag.String("user", env("USERNAME", "demo"), "Username")
	email    = flag.String("email", env("EMAIL", "demo@example.com"), "User e-mail")
	pass     = flag.String("pass", env("PASSWORD", "Password123"), "User password")
	nNotes   = flag.Int("n", envInt("COUNT", 100), "How many notes to create")
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		i, err := fmt.Sscan(v, &i)
		if err != nil {
			return def
		}
		if i > 0 {
			return i
		}
	}
	return def
}

// ----------------------------------------------------------------------------
// HTTP helpers ---------------------------------------------------------------
func postJSON(method, path string, body any, hdr map[string]string) (*http.Response, error) {
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest(method, *baseURL+path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	return http.DefaultClient.Do(req)
}

func must(body io.ReadCloser) []byte {
	defer body.Close()
	data, _ := io.ReadAll(body)
	return data
}

// ----------------------------------------------------------------------------
// Main -----------------------------------------------------------------------
func main() {
	flag.Parse()
	gofakeit.Seed(time.Now().UnixNano())

	fmt.Printf("Init account %s (notes=%d) on %s\n", *email, *nNotes, *baseURL)

	token, err := ensureUser()
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	noteIDs, err := createNotes(token, *nNotes)
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	if err := shareSomeNotes(token, noteIDs); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	fmt.Println("✔ done")
}

// ----------------------------------------------------------------------------
// Step 1 – make sure the user exists -----------------------------------------
func ensureUser() (string, error) {
	signUp := map[string]string{"username": *username, "email": *email, "password": *pass}

	// Try sign-up first …
	if resp, err := postJSON(http.MethodPost, "/api/v1/auth/sign-up", signUp, nil); err == nil && resp.StatusCode < 300 {
		var r struct {
			Token string `json:"token"`
		}
		_ = json.Unmarshal(must(resp.Body), &r)
		fmt.Println("• signed-up new user")
		return r.Token, nil
	}

	// … otherwise fall back to sign-in.
	signIn := map[string]string{"email": *email, "password": *pass}
	resp, err := postJSON(http.MethodPost, "/api/v1/auth/sign-in", signIn, nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign-in failed (%d): %s", resp.StatusCode, must(resp.Body))
	}
	var r struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(must(resp.Body), &r)
	fmt.Println("• signed-in existing user")
	return r.Token, nil
}

// ----------------------------------------------------------------------------
// Step 2 – create notes, pin and tag a few ------------------------------------
func createNotes(token string, total int) ([]string, error) {
	h := map[string]string{"Authorization": "Bearer " + token}
	noteIDs := make([]string, 0, total)

	for i := 1; i <= total; i++ {
		note := map[string]any{
			"title":   gofakeit.Sentence(3),
			"content": gofakeit.Paragraph(1, 3, 40, " "),
			"color":   gofakeit.HexColor(),
		}

		resp, err := postJSON(http.MethodPost, "/api/v1/notes", note, h)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("create note %d failed (%d): %s", i, resp.StatusCode, must(resp.Body))
		}

		var created struct {
			Note struct {
				ID      string `json:"id"`
				Title   string `json:"title"`
				Content string `json:"content"`
				Color   string `json:"color"`
			} `json:"note"`
		}
		_ = json.Unmarshal(must(resp.Body), &created)
		if created.Note.ID != "" {
			noteIDs = append(noteIDs, created.Note.ID)
		}

		// Every fifth note gets pinned and tagged so the board isn't flat.
		if i%5 == 0 && created.Note.ID != "" {
			update := map[string]any{
				"title":     created.Note.Title,
				"content":   created.Note.Content,
				"color":     created.Note.Color,
				"is_pinned": true,
				"tags": []map[string]any{
					{"name": gofakeit.BuzzWord()},
				},
			}
			resp, err := postJSON(http.MethodPut, "/api/v1/notes/"+created.Note.ID, update, h)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("update note %d failed (%d): %s", i, resp.StatusCode, must(resp.Body))
			}
			must(resp.Body)
		}

		if i%25 == 0 || i == total {
			fmt.Printf("  … %d/%d\n", i, total)
		}
	}
	return noteIDs, nil
}

// ----------------------------------------------------------------------------
// Step 3 – share every tenth note with a buddy account ------------------------
func shareSomeNotes(ownerToken string, noteIDs []string) error {
	buddy := map[string]string{
		"username": *username + "-buddy",
		"email":    "buddy." + *email,
		"password": *pass,
	}

	resp, err := postJSON(http.MethodPost, "/api/v1/auth/sign-up", buddy, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		// Buddy already exists from a previous run; sign in instead.
		must(resp.Body)
		signIn := map[string]string{"email": buddy["email"], "password": buddy["password"]}
		resp, err = postJSON(http.MethodPost, "/api/v1/auth/sign-in", signIn, nil)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("buddy sign-in failed (%d): %s", resp.StatusCode, must(resp.Body))
		}
	}
	var auth struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(must(resp.Body), &auth)

	resp, err = postJSON(http.MethodGet, "/api/v1/me", nil, map[string]string{"Authorization": "Bearer " + auth.Token})
	if err != nil {
		return err
	}
	var me struct {
		UID string `json:"uid"`
	}
	_ = json.Unmarshal(must(resp.Body), &me)
	if me.UID == "" {
		return fmt.Errorf("could not resolve buddy user id")
	}

	h := map[string]string{"Authorization": "Bearer " + ownerToken}
	shared := 0
	for i, id := range noteIDs {
		if i%10 != 0 {
			continue
		}
		resp, err := postJSON(http.MethodPost, "/api/v1/notes/"+id+"/shares/users", map[string]string{"user_id": me.UID}, h)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusNoContent {
			return fmt.Errorf("share note %s failed (%d): %s", id, resp.StatusCode, must(resp.Body))
		}
		must(resp.Body)
		shared++
	}

	fmt.Printf("• shared %d notes with %s\n", shared, buddy["username"])
	return nil
}
