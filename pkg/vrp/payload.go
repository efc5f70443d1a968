// Copyright 2025 RPKI-viz Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vrp

import (
	"errors"
	"net/netip"
	"time"

	"github.com/goccy/go-json"

	"github.com/Arjun4522/RPKI-viz/pkg/private/serrors"
)

// ErrPayload indicates that the upstream payload could not be parsed as
// structured data at all. It aborts the whole ingestion cycle, in contrast to
// individual record rejections which are dropped and counted.
var ErrPayload = errors.New("malformed vrp payload")

// Payload is the normalized result of an upstream VRP export.
type Payload struct {
	// Generated is the generation timestamp reported by the validator.
	Generated time.Time
	// Entries are the schema-valid entries of the payload, in input order
	// and possibly containing duplicates.
	Entries []Entry
	// Rejected counts the records that failed schema validation and were
	// dropped.
	Rejected int
}

type rawExport struct {
	Metadata *rawMetadata `json:"metadata"`
	ROAs     []rawROA     `json:"roas"`
}

type rawMetadata struct {
	Generated int64 `json:"generated"`
}

type rawROA struct {
	ASN       string `json:"asn"`
	Prefix    string `json:"prefix"`
	MaxLength int    `json:"maxLength"`
	TA        string `json:"ta"`
}

// ParsePayload decodes and normalizes a raw validator JSON export. A payload
// that cannot be decoded, or that is missing the top-level structure, yields
// ErrPayload. Individual records that fail schema validation are dropped and
// reported in the Rejected count; they never fail the payload as a whole.
func ParsePayload(raw []byte) (*Payload, error) {
	var export rawExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, serrors.JoinNoStack(ErrPayload, err)
	}
	if export.Metadata == nil || export.ROAs == nil {
		return nil, serrors.JoinNoStack(ErrPayload, nil, "reason", "missing top-level fields")
	}
	if export.Metadata.Generated <= 0 {
		return nil, serrors.JoinNoStack(ErrPayload, nil,
			"reason", "invalid generation timestamp", "generated", export.Metadata.Generated)
	}

	p := &Payload{
		Generated: time.Unix(export.Metadata.Generated, 0).UTC(),
		Entries:   make([]Entry, 0, len(export.ROAs)),
	}
	for _, roa := range export.ROAs {
		entry, err := parseROA(roa)
		if err != nil {
			p.Rejected++
			continue
		}
		p.Entries = append(p.Entries, entry)
	}
	return p, nil
}

func parseROA(roa rawROA) (Entry, error) {
	asn, err := ParseASN(roa.ASN)
	if err != nil {
		return Entry{}, err
	}
	prefix, err := netip.ParsePrefix(roa.Prefix)
	if err != nil {
		return Entry{}, serrors.WrapNoStack("invalid prefix", err, "prefix", roa.Prefix)
	}
	entry := Entry{
		ASN:         asn,
		Prefix:      prefix,
		MaxLength:   roa.MaxLength,
		TrustAnchor: roa.TA,
	}
	if err := entry.Validate(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}
