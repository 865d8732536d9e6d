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

// Package report writes the trees of a forest in a choice of formats.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/rancher-sandbox/tracecct/pkg/cct"
)

type Format string

const (
	FormatText = Format("text")
	FormatJSON = Format("json")
	FormatYAML = Format("yaml")
)

var ErrUnknownFormat = errors.New("unknown report format")

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML}
}

// ParseFormat checks that value names a supported format.
func ParseFormat(value string) (Format, error) {
	format := Format(value)
	if !slices.Contains(Formats(), format) {
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, value)
	}
	return format, nil
}

// Document is the structured form of a report.
type Document struct {
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

type Task struct {
	Kind        string  `json:"kind" yaml:"kind"`
	Key         string  `json:"key" yaml:"key"`
	ProcessName *string `json:"process_name,omitempty" yaml:"process_name,omitempty"`
	ThreadName  *string `json:"thread_name,omitempty" yaml:"thread_name,omitempty"`
	Orphans     int     `json:"orphans" yaml:"orphans"`
	Nodes       []Node  `json:"nodes" yaml:"nodes"`
}

// Node is a tree node; the root has parent -1.
type Node struct {
	ID       int    `json:"id" yaml:"id"`
	Parent   int    `json:"parent" yaml:"parent"`
	Start    int64  `json:"start" yaml:"start"`
	Stop     int64  `json:"stop" yaml:"stop"`
	Open     bool   `json:"open,omitempty" yaml:"open,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Category string `json:"cat,omitempty" yaml:"cat,omitempty"`
	Phase    string `json:"ph,omitempty" yaml:"ph,omitempty"`
}

// NewDocument describes every tree of the forest, in task order.
func NewDocument(forest *cct.Forest) Document {
	document := Document{Tasks: make([]Task, 0, forest.Len())}
	for _, task := range forest.Tasks() {
		entry := Task{
			Kind:        task.Kind.String(),
			Key:         task.Key.String(),
			ProcessName: task.Tree.Meta.ProcessName,
			ThreadName:  task.Tree.Meta.ThreadName,
			Orphans:     task.Tree.Orphans,
		}
		for _, node := range task.Tree.Nodes() {
			entry.Nodes = append(entry.Nodes, newNode(node))
		}
		document.Tasks = append(document.Tasks, entry)
	}
	return document
}

func newNode(node cct.Node) Node {
	result := Node{
		ID:     node.ID,
		Parent: node.Parent,
		Start:  node.Start,
		Stop:   node.Stop,
		Open:   node.Open,
	}
	if !node.IsRoot() {
		result.Name = node.Event.Name
		result.Category = node.Event.Category
		result.Phase = node.Event.Phase.String()
	}
	return result
}

// Write writes a report of the forest to w.
func Write(w io.Writer, forest *cct.Forest, format Format) error {
	switch format {
	case FormatText:
		for _, task := range forest.Tasks() {
			if _, err := fmt.Fprintf(w, "%s\n", task); err != nil {
				return err
			}
			if err := cct.Fprint(w, task.Tree); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(NewDocument(forest)); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(NewDocument(forest)); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return encoder.Close()
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, format)
}
