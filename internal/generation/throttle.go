// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package generation

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledClient decorates an http.Client with a token-bucket rate limit.
// Generation vendors meter requests aggressively, and a 5-second poll loop
// plus artifact downloads can burst past their quotas; the limiter smooths
// that out before the request leaves the process.
type ThrottledClient struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewThrottledClient builds a client allowing requestsPerSecond sustained
// requests with an equal burst.
func NewThrottledClient(requestsPerSecond int) *ThrottledClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &ThrottledClient{
		http:    &http.Client{Timeout: 2 * time.Minute},
		limiter: rate.NewLimiter(rate.Every(time.Second/time.Duration(requestsPerSecond)), requestsPerSecond),
	}
}

// Do waits for limiter clearance (honoring the request context) and then
// performs the request.
func (c *ThrottledClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// download fetches url and streams it to outputPath, creating parent
// directories as needed. Used by the async adapters to retrieve a completed
// job's artifact.
func (c *ThrottledClient) download(req *http.Request, outputPath string) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("artifact download returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write artifact to %s: %w", outputPath, err)
	}
	return out.Sync()
}
