/*
Copyright © 2026 SUSE LLC
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

package cct

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

func formatTime(ts int64) string {
	switch ts {
	case math.MinInt64:
		return "-inf"
	case math.MaxInt64:
		return "+inf"
	}
	return strconv.FormatInt(ts, 10)
}

func formatInterval(n Node) string {
	if n.Open {
		return fmt.Sprintf("[%s, ?]", formatTime(n.Start))
	}
	return fmt.Sprintf("[%s, %s]", formatTime(n.Start), formatTime(n.Stop))
}

func formatNode(n Node) string {
	if n.IsRoot() {
		return fmt.Sprintf("#%d (root) %s", n.ID, formatInterval(n))
	}
	label := fmt.Sprintf("#%d %s %s %s", n.ID, n.Event.Name, formatInterval(n), n.Event.Phase)
	if n.Event.Category != "" {
		label += " " + n.Event.Category
	}
	return label
}

// Fprint draws the tree as an indented outline.
func Fprint(w io.Writer, tree *Tree) error {
	out := bufio.NewWriter(w)
	var names []string
	if name := tree.Meta.ProcessName; name != nil {
		names = append(names, fmt.Sprintf("process %q", *name))
	}
	if name := tree.Meta.ThreadName; name != nil {
		names = append(names, fmt.Sprintf("thread %q", *name))
	}
	if len(names) > 0 {
		fmt.Fprintln(out, strings.Join(names, ", "))
	}

	children := tree.childLists()
	fmt.Fprintln(out, formatNode(tree.Root()))
	var walk func(id int, prefix string)
	walk = func(id int, prefix string) {
		for i, child := range children[id] {
			connector, indent := "├── ", "│   "
			if i == len(children[id])-1 {
				connector, indent = "└── ", "    "
			}
			fmt.Fprintln(out, prefix+connector+formatNode(tree.nodes[child]))
			walk(child, prefix+indent)
		}
	}
	walk(RootID, "")
	return out.Flush()
}

func (t *Tree) String() string {
	var builder strings.Builder
	_ = Fprint(&builder, t)
	return builder.String()
}
