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

package storage

const dbSample = `
# The path to the state database. (default "/share/data/vrpd.state.db")
connection = "/share/data/vrpd.state.db"

# The maximum number of open read connections to the database. If 0, the
# number of CPUs is used, with a floor of 4. (default 0)
max_open_read_conns = 0

# The maximum number of idle read connections to the database. If 0, the Go
# default is used. (default 0)
max_idle_read_conns = 0
`
