// Package scene implements the persisted-node contract: nodes expose their
// state as string attributes, can be copied through those attributes, are
// told when a node they reference is removed, and can be saved to and
// restored from YAML.
package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"fibertracts/pkg/logging"
)

// ErrNodeNotFound is returned when a node id is not registered.
var ErrNodeNotFound = errors.New("scene: node not found")

// Node is anything whose state persists in a scene file.
type Node interface {
	ID() string
	NodeKind() string
	Attributes() Attributes
	SetAttributes(Attributes) error
}

// RemovalObserver is implemented by nodes that hold references to other
// nodes and must detach when those are removed.
type RemovalObserver interface {
	NodeRemoved(id string)
}

// Copy transfers the persisted state of src onto dst.
func Copy(dst, src Node) error {
	return dst.SetAttributes(src.Attributes())
}

// Scene is an ordered registry of nodes.
type Scene struct {
	nodes map[string]Node
	order []string
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{nodes: make(map[string]Node)}
}

// Add registers n, replacing any node with the same id.
func (s *Scene) Add(n Node) {
	if _, exists := s.nodes[n.ID()]; !exists {
		s.order = append(s.order, n.ID())
	}
	s.nodes[n.ID()] = n
}

// Get returns the node with the given id.
func (s *Scene) Get(id string) (Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns the registered nodes in insertion order.
func (s *Scene) Nodes() []Node {
	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Remove unregisters a node and notifies every remaining RemovalObserver.
func (s *Scene) Remove(id string) error {
	if _, ok := s.nodes[id]; !ok {
		return fmt.Errorf("remove %q: %w", id, ErrNodeNotFound)
	}
	delete(s.nodes, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for _, n := range s.Nodes() {
		if obs, ok := n.(RemovalObserver); ok {
			obs.NodeRemoved(id)
		}
	}
	return nil
}

type nodeRecord struct {
	ID         string     `yaml:"id"`
	Kind       string     `yaml:"kind"`
	Attributes Attributes `yaml:"attributes"`
}

type sceneFile struct {
	Nodes []nodeRecord `yaml:"nodes"`
}

// Marshal encodes every node's attributes as YAML.
func (s *Scene) Marshal() ([]byte, error) {
	var f sceneFile
	for _, n := range s.Nodes() {
		f.Nodes = append(f.Nodes, nodeRecord{ID: n.ID(), Kind: n.NodeKind(), Attributes: n.Attributes()})
	}
	return yaml.Marshal(&f)
}

// Apply decodes YAML produced by Marshal and restores the attributes of the
// nodes already registered under the same ids. Records for unknown nodes
// are skipped with a warning.
func (s *Scene) Apply(data []byte) error {
	var f sceneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("error parsing scene: %w", err)
	}
	for _, rec := range f.Nodes {
		n, ok := s.nodes[rec.ID]
		if !ok {
			logging.For("scene").WithField("node", rec.ID).Warn("skipping attributes for unknown node")
			continue
		}
		if err := n.SetAttributes(rec.Attributes); err != nil {
			return fmt.Errorf("restoring node %q: %w", rec.ID, err)
		}
	}
	return nil
}

// Save writes the scene to a YAML file, creating its directory.
func (s *Scene) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating scene directory: %w", err)
	}
	data, err := s.Marshal()
	if err != nil {
		return fmt.Errorf("error marshaling scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing scene file: %w", err)
	}
	return nil
}

// Load reads a scene file and applies it to the registered nodes.
func (s *Scene) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading scene file: %w", err)
	}
	return s.Apply(data)
}

// Attributes is the string key/value state of a node.
type Attributes map[string]string

// Keys returns the attribute names in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Float parses a float attribute. Missing keys return def.
func (a Attributes) Float(key string, def float64) (float64, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def, fmt.Errorf("attribute %s: %w", key, err)
	}
	return f, nil
}

// Int parses an integer attribute. Missing keys return def.
func (a Attributes) Int(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("attribute %s: %w", key, err)
	}
	return i, nil
}

// Bool parses a boolean attribute. Missing keys return def.
func (a Attributes) Bool(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("attribute %s: %w", key, err)
	}
	return b, nil
}

// Vec parses a "x y z" attribute. Missing keys return def.
func (a Attributes) Vec(key string, def r3.Vec) (r3.Vec, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	fields := strings.Fields(v)
	if len(fields) != 3 {
		return def, fmt.Errorf("attribute %s: expected 3 components, got %d", key, len(fields))
	}
	var c [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return def, fmt.Errorf("attribute %s: %w", key, err)
		}
		c[i] = x
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// SetFloat stores a float attribute.
func (a Attributes) SetFloat(key string, v float64) {
	a[key] = strconv.FormatFloat(v, 'g', -1, 64)
}

// SetInt stores an integer attribute.
func (a Attributes) SetInt(key string, v int) {
	a[key] = strconv.Itoa(v)
}

// SetBool stores a boolean attribute.
func (a Attributes) SetBool(key string, v bool) {
	a[key] = strconv.FormatBool(v)
}

// SetVec stores a vector attribute as "x y z".
func (a Attributes) SetVec(key string, v r3.Vec) {
	a[key] = fmt.Sprintf("%s %s %s",
		strconv.FormatFloat(v.X, 'g', -1, 64),
		strconv.FormatFloat(v.Y, 'g', -1, 64),
		strconv.FormatFloat(v.Z, 'g', -1, 64))
}
