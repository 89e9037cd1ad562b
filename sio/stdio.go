/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/xStarless-Skyx/skparse/core"
)

// Stdio reads one JSON Request per line and writes one JSON Response
// per line.
type Stdio struct {
	In  io.Reader
	Out io.Writer

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool
}

// NewStdio makes a Stdio for os.Stdin and os.Stdout.
func NewStdio() *Stdio {
	return &Stdio{
		In:  os.Stdin,
		Out: os.Stdout,
	}
}

// Run processes input until EOF, a "quit" line, or the context is
// done.  Blank lines and lines starting with "#" are ignored.
func (s *Stdio) Run(ctx context.Context, svc *Service) error {
	printf := func(format string, args ...interface{}) {
		if s.Timestamps {
			ts := fmt.Sprintf("%-31s", core.Timestamp(time.Now()))
			format = ts + " " + format
		}
		fmt.Fprintf(s.Out, format, args...)
	}

	in := bufio.NewReader(s.In)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF

		trimmed := strings.TrimSpace(line)
		if trimmed == "quit" {
			return nil
		}
		if s.EchoInput && trimmed != "" {
			printf("input %s\n", trimmed)
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			js, _ := svc.HandleJSON(ctx, []byte(trimmed))
			printf("%s\n", js)
		}
		if eof {
			return nil
		}
	}
}
