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
package monitor

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func formatRate(tps float64) string {
	return decimal.NewFromFloat(tps).StringFixed(2)
}

func progressOf(done int64, total int) string {
	return fmt.Sprintf("%d/%d", done, total)
}

// ratio is the completed fraction of target, a zero target counts as complete
func ratio(written, target int) float64 {
	if target <= 0 {
		return 1
	}
	r := float64(written) / float64(target)
	if r > 1 {
		return 1
	}
	return r
}
