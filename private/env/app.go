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

import (
	"fmt"
	"runtime"

	"github.com/Arjun4522/RPKI-viz/pkg/log"
)

// Startup* variables are set during link time.
var (
	StartupVersion   = "dev"
	StartupBuildDate = "local builds have no build time"
)

// VersionInfo returns a multi-line string describing the build.
func VersionInfo() string {
	return fmt.Sprintf("  Version:    %s\n  Build date: %s\n  Go:         %s %s/%s\n",
		StartupVersion, StartupBuildDate,
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// LogAppStarted should be called by applications as soon as logging is
// initialized.
func LogAppStarted(svcType, elemID string) {
	log.Info(fmt.Sprintf("Service started %s %s\n%s", svcType, elemID, VersionInfo()))
}

// LogAppStopped should be deferred right after LogAppStarted.
func LogAppStopped(svcType, elemID string) {
	log.Info(fmt.Sprintf("Service stopped %s %s", svcType, elemID))
}
