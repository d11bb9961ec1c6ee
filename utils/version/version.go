/*
Copyright © 2020 Marvin

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package version

import (
	"fmt"
	"runtime"
)

// set by -ldflags "-X github.com/wentaojin/dbload/utils/version.Version=..." at build time
var (
	Version        = "None"
	GitHash        = "None"
	GitBranch      = "None"
	BuildTimestamp = "None"
)

func GetRawVersionInfo() string {
	var info string
	info += fmt.Sprintf("Release Version: %s\n", Version)
	info += fmt.Sprintf("Git Commit Hash: %s\n", GitHash)
	info += fmt.Sprintf("Git Branch: %s\n", GitBranch)
	info += fmt.Sprintf("UTC Build Time: %s\n", BuildTimestamp)
	info += fmt.Sprintf("Go Version: %s\n", runtime.Version())
	info += fmt.Sprintf("Platform: %s/%s", runtime.GOOS, runtime.GOARCH)
	return info
}
