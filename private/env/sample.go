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

package env

import "fmt"

func generalSample(id string) string {
	if id == "" {
		id = "vrpd-1"
	}
	return fmt.Sprintf(`
# The ID of the service. (required)
id = "%s"
`, id)
}

const metricsSample = `
# The address to export prometheus metrics on (host:port or ip:port or :port).
# The metrics are also always available on the service API listener. (optional)
prometheus = ""
`
