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

package policy

import "encoding/json"

// DocumentVersion is the policy language version understood by the
// credential issuer.
const DocumentVersion = "2012-10-17"

// Store actions the gateway grants on data collections.
const (
	ActionGetItem    = "store:GetItem"
	ActionPutItem    = "store:PutItem"
	ActionUpdateItem = "store:UpdateItem"
	ActionDeleteItem = "store:DeleteItem"
	ActionQuery      = "store:Query"
	ActionScan       = "store:Scan"
)

// Document is an access policy handed to the credential issuer when
// exchanging for scoped credentials.
type Document struct {
	Version    string      `json:"Version"`
	Statements []Statement `json:"Statement"`
}

// Statement grants a set of actions on a set of collection resources,
// optionally constrained by a partition-key condition.
type Statement struct {
	Effect    string     `json:"Effect"`
	Actions   []string   `json:"Action"`
	Resources []string   `json:"Resource"`
	Condition *Condition `json:"Condition,omitempty"`
}

// Condition restricts every accessed partition key to a set of leading-key
// patterns. This is the tenant-isolation guarantee for pooled storage: two
// tenants share a physical collection, but credentials carrying this
// condition cannot touch a partition that does not begin with their own
// tenant identifier.
type Condition struct {
	LeadingKeys []string
}

// MarshalJSON renders the condition in the issuer's operator form.
func (c *Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string][]string{
		"ForAllValues:StringLike": {
			"store:LeadingKeys": c.LeadingKeys,
		},
	})
}

// UnmarshalJSON accepts the operator form produced by MarshalJSON.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.LeadingKeys = raw["ForAllValues:StringLike"]["store:LeadingKeys"]
	return nil
}

// JSON renders the canonical serialized form sent to the issuer.
func (d Document) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
