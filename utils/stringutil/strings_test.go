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
package stringutil

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathNotExistOrCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, PathNotExistOrCreate(dir))
	assert.DirExists(t, dir)
	require.NoError(t, PathNotExistOrCreate(dir))
}

func TestPromptFrom(t *testing.T) {
	var out bytes.Buffer
	ans := promptFrom(strings.NewReader("yes\r\n"), &out, "continue?")
	assert.Equal(t, "yes", ans)
	assert.Equal(t, "continue? ", out.String())

	assert.Equal(t, "no newline", promptFrom(strings.NewReader("no newline"), &out, ""))
	assert.Equal(t, "", promptFrom(strings.NewReader(""), &out, ""))
}

func TestBytesToString(t *testing.T) {
	assert.Equal(t, "dbload", BytesToString([]byte("dbload")))
}
