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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"unsafe"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// PromptForPassword reads a password from the terminal without echo
func PromptForPassword(format string, a ...any) string {
	defer fmt.Println("")

	fmt.Printf(format, a...)

	input, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(string(input), "\n"))
}

// PromptForAnswerOrAbortError aborts unless the user types answer exactly
func PromptForAnswerOrAbortError(answer string, format string, a ...any) error {
	if pass, ans := PromptForConfirmAnswer(answer, format, a...); !pass {
		return fmt.Errorf("operation aborted by user (with incorrect answer '%s')", ans)
	}
	return nil
}

func PromptForConfirmAnswer(answer string, format string, a ...any) (bool, string) {
	ans := Prompt(fmt.Sprintf(format, a...) + fmt.Sprintf("\n(Type \"%s\" to continue)\n:", color.CyanString(answer)))
	return ans == answer, ans
}

// Prompt reads one line from stdin
func Prompt(prompt string) string {
	return promptFrom(os.Stdin, os.Stdout, prompt)
}

func promptFrom(r io.Reader, w io.Writer, prompt string) string {
	if prompt != "" {
		prompt += " "
	}
	fmt.Fprint(w, prompt)

	input, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && input == "" {
		return ""
	}
	return strings.TrimRight(input, "\r\n")
}

// BytesToString converts without copying, b must not be modified afterwards
func BytesToString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}
