package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"
)

/*
Supabase wraps minimal calls to Supabase Storage REST API. Attachments shared
inside an assistance chat live here; the workflow core only ever sees object
keys.

Notes on authorization:
- If you use a legacy service_role JWT, send both `apikey` and `Authorization: Bearer <token>`.
- If you use a Secret API Key (sb_secret_...) that is NOT a JWT, some setups do NOT require the
  Authorization header. In that case, remove the `Authorization` header lines below.
*/

type Supabase struct {
	baseURL string // e.g. https://<project>.supabase.co
	apiKey  string // service_role JWT or secret API key
	bucket  string
	client  *http.Client
}

func NewSupabase(baseURL, apiKey, bucket string) *Supabase {
	return &Supabase{
		baseURL: baseURL,
		apiKey:  apiKey,
		bucket:  bucket,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// MakeObjectKey builds a tidy, per-request object key: assistance/<requestID>/<filename>
func (s *Supabase) MakeObjectKey(requestID, filename string) string {
	return path.Join("assistance", requestID, filename)
}

// Upload sends a new object to: POST /storage/v1/object/{bucket}/{objectName}
func (s *Supabase) Upload(key string, r io.Reader, contentType string, size int64) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)

	req, err := http.NewRequest(http.MethodPost, url, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("apikey", s.apiKey)
	// See header note at the top of the file.
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("supabase upload error: %s | %s", res.Status, string(body))
	}
	return nil
}

// SignedURL creates a short-lived signed URL:
// POST /storage/v1/object/sign/{bucket}/{objectName}  body: {"expiresIn": <seconds>}
func (s *Supabase) SignedURL(key string, expiresInSeconds int) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.baseURL, s.bucket, key)

	body, _ := json.Marshal(map[string]int{"expiresIn": expiresInSeconds})
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.apiKey)
	// See header note at the top of the file.
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("supabase sign error: %s | %s", res.Status, string(b))
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.SignedURL == "" {
		return "", fmt.Errorf("empty signedURL in response")
	}

	// API returns a relative path; convert to absolute URL.
	return s.baseURL + "/storage/v1" + out.SignedURL, nil
}

// Delete removes an object by key:
// DELETE /storage/v1/object/{bucket}/{objectName}
// This is idempotent: 404 is treated as success (already deleted).
func (s *Supabase) Delete(key string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)

	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.apiKey)
	// See header note at the top of the file.
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("supabase delete error: %s | %s", res.Status, string(b))
	}
	return nil
}
