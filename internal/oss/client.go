package oss

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Object describes one stored audio object: the storage key and the public
// URL a browser can fetch it from.
type Object struct {
	Key string `json:"objectKey"`
	URL string `json:"audioUrl"`
}

// Client signs and performs PUT requests against an S3-compatible object
// store using the legacy OSS header-signing scheme.
type Client struct {
	region        string
	bucket        string
	accessKeyID   string
	accessSecret  string
	publicBaseURL string
	aclDisabled   bool
	httpClient    *http.Client
}

// NewClient creates an OSS signing client.
func NewClient(region, bucket, accessKeyID, accessSecret, publicBaseURL string, aclDisabled bool) *Client {
	return &Client{
		region:        region,
		bucket:        bucket,
		accessKeyID:   accessKeyID,
		accessSecret:  accessSecret,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		aclDisabled:   aclDisabled,
		httpClient:    &http.Client{Timeout: 90 * time.Second},
	}
}

// endpoint returns the virtual-hosted bucket endpoint.
func (c *Client) endpoint() string {
	return fmt.Sprintf("https://%s.%s.aliyuncs.com", c.bucket, c.region)
}

// PublicURL returns the browser-facing URL for a stored key.
func (c *Client) PublicURL(key string) string {
	if c.publicBaseURL != "" {
		return c.publicBaseURL + "/" + key
	}
	return c.endpoint() + "/" + key
}

// Put uploads data under key and returns the stored object descriptor.
// A non-2xx response is fatal for the attempt; there is no retry.
func (c *Client) Put(ctx context.Context, key, contentType string, data []byte) (*Object, error) {
	date := time.Now().UTC().Format(http.TimeFormat)

	ossHeaders := map[string]string{}
	// A public base URL implies the bucket policy already exposes objects,
	// so the per-object ACL is skipped in that case.
	if !c.aclDisabled && c.publicBaseURL == "" {
		ossHeaders["x-oss-object-acl"] = "public-read"
	}

	resource := "/" + c.bucket + "/" + key
	canonical := CanonicalString(http.MethodPut, "", contentType, date, ossHeaders, resource)
	signature := Sign(c.accessSecret, canonical)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint()+"/"+key, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create PUT request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Date", date)
	req.Header.Set("Authorization", fmt.Sprintf("OSS %s:%s", c.accessKeyID, signature))
	for k, v := range ossHeaders {
		req.Header.Set(k, v)
	}

	log.Printf("[OSS] PUT %s (%d bytes, %s)", key, len(data), contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OSS PUT failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("OSS PUT returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return &Object{Key: key, URL: c.PublicURL(key)}, nil
}

// CanonicalString builds the exact byte sequence the legacy scheme signs:
//
//	METHOD \n Content-MD5 \n Content-Type \n Date \n [sorted x-oss-* headers \n] CanonicalResource
func CanonicalString(method, contentMD5, contentType, date string, ossHeaders map[string]string, resource string) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteString("\n")
	b.WriteString(contentMD5)
	b.WriteString("\n")
	b.WriteString(contentType)
	b.WriteString("\n")
	b.WriteString(date)
	b.WriteString("\n")

	keys := make([]string, 0, len(ossHeaders))
	for k := range ossHeaders {
		keys = append(keys, strings.ToLower(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(":")
		b.WriteString(ossHeaders[k])
		b.WriteString("\n")
	}

	b.WriteString(resource)
	return b.String()
}

// Sign computes base64(HMAC-SHA1(secret, canonical)).
func Sign(secret, canonical string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
