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

package config

const apiSample = `
# The address the HTTP API listens on (host:port or ip:port or :port).
# (default ":8080")
addr = ":8080"
`

const ingestSample = `
# The base URL of the upstream RPKI validator. The JSON export is fetched
# from the /json path below it. (default "http://routinator:8323")
upstream = "http://routinator:8323"

# The time between two ingestion cycles. (default "10m")
interval = "10m"

# The timeout for a single fetch attempt. (default "1m")
fetch_timeout = "1m"

# How long historic snapshots are kept. The current and the previous snapshot
# are kept regardless. (default "168h")
retention = "168h"
`
