// Copyright 2026 The TenantGate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tenantgate/tenantgate/internal/policy"
)

// DefaultIssueTimeout bounds a single exchange call so a slow issuer
// drives the state machine to a denial instead of an indefinite wait.
const DefaultIssueTimeout = 3 * time.Second

// HTTPIssuer exchanges policies for credentials against an external
// credential-issuing service over HTTP.
type HTTPIssuer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPIssuer creates an issuer client for the given endpoint. A
// non-positive timeout falls back to DefaultIssueTimeout.
func NewHTTPIssuer(endpoint string, timeout time.Duration) *HTTPIssuer {
	if timeout <= 0 {
		timeout = DefaultIssueTimeout
	}
	return &HTTPIssuer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type issueRequest struct {
	Policy          policy.Document `json:"policy"`
	SessionName     string          `json:"session_name"`
	DurationSeconds int             `json:"duration_seconds"`
}

type issueResponse struct {
	AccessKeyID     string    `json:"access_key_id"`
	SecretAccessKey string    `json:"secret_access_key"`
	SessionToken    string    `json:"session_token"`
	Expiration      time.Time `json:"expiration"`
}

// Issue performs the exchange. Transport failures and non-2xx responses
// both surface as ErrIssuanceFailed.
func (i *HTTPIssuer) Issue(ctx context.Context, doc policy.Document, sessionName string, duration time.Duration) (*ScopedCredentials, error) {
	body, err := json.Marshal(issueRequest{
		Policy:          doc,
		SessionName:     sessionName,
		DurationSeconds: int(duration.Seconds()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: issuer returned status %d", ErrIssuanceFailed, resp.StatusCode)
	}

	var out issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}

	return &ScopedCredentials{
		AccessKeyID:     out.AccessKeyID,
		SecretAccessKey: out.SecretAccessKey,
		SessionToken:    out.SessionToken,
		Expiration:      out.Expiration,
	}, nil
}
