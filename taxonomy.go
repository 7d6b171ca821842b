package floormap

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ObjectClass describes one detectable object class.  The taxonomy is
// externally supplied configuration so adding classes is a data change, not
// a code change.
type ObjectClass struct {
	// Label is the model output label
	Label string `yaml:"label"`
	// Type is the landmark type tag, landmarks only merge within a type
	Type string `yaml:"type"`
	// Display is the human readable category name
	Display string `yaml:"display"`
	// FootprintHalfWidth is the half width in meters of the obstacle
	// footprint stamped into the occupancy grid for this class
	FootprintHalfWidth float64 `yaml:"footprint_half_width"`
}

// Taxonomy is the data driven lookup table from model labels to object
// classes, with an explicit fallback for labels the table does not know
type Taxonomy struct {
	Classes  []ObjectClass `yaml:"classes"`
	Fallback ObjectClass   `yaml:"fallback"`

	byLabel map[string]ObjectClass
}

// NewTaxonomy returns a taxonomy over the given classes.  A zero fallback
// is replaced with an "unknown" class of modest footprint.
func NewTaxonomy(classes []ObjectClass, fallback ObjectClass) *Taxonomy {

	if fallback.Type == "" {
		fallback = ObjectClass{
			Type:               "unknown",
			Display:            "Unknown",
			FootprintHalfWidth: 0.25,
		}
	}

	t := &Taxonomy{
		Classes:  classes,
		Fallback: fallback,
		byLabel:  make(map[string]ObjectClass, len(classes)),
	}

	for _, c := range classes {
		t.byLabel[c.Label] = c
	}

	return t
}

// DefaultTaxonomy returns a taxonomy for a detector trained on common
// indoor object classes
func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy([]ObjectClass{
		{Label: "chair", Type: "chair", Display: "Chair", FootprintHalfWidth: 0.30},
		{Label: "couch", Type: "sofa", Display: "Sofa", FootprintHalfWidth: 0.90},
		{Label: "bed", Type: "bed", Display: "Bed", FootprintHalfWidth: 0.90},
		{Label: "dining table", Type: "table", Display: "Table", FootprintHalfWidth: 0.60},
		{Label: "door", Type: "door", Display: "Door", FootprintHalfWidth: 0.10},
		{Label: "tv", Type: "tv", Display: "Television", FootprintHalfWidth: 0.40},
		{Label: "refrigerator", Type: "appliance", Display: "Refrigerator", FootprintHalfWidth: 0.40},
		{Label: "potted plant", Type: "plant", Display: "Plant", FootprintHalfWidth: 0.20},
	}, ObjectClass{})
}

// LoadTaxonomy reads a taxonomy from the given YAML file
func LoadTaxonomy(file string) (*Taxonomy, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	var t Taxonomy

	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("error parsing taxonomy: %w", err)
	}

	if len(t.Classes) == 0 {
		return nil, fmt.Errorf("taxonomy %s defines no classes", file)
	}

	return NewTaxonomy(t.Classes, t.Fallback), nil
}

// ByLabel returns the object class for a model label, falling back to the
// explicit unknown class when the label is not in the table
func (t *Taxonomy) ByLabel(label string) ObjectClass {

	if c, ok := t.byLabel[label]; ok {
		return c
	}

	fallback := t.Fallback
	fallback.Label = label

	if fallback.Display == "" || fallback.Display == "Unknown" {
		fallback.Display = label
	}

	return fallback
}

// Labels returns the class labels in table order, indexed by model class
// number
func (t *Taxonomy) Labels() []string {

	labels := make([]string, len(t.Classes))

	for i, c := range t.Classes {
		labels[i] = c.Label
	}

	return labels
}

// LoadLabels reads the labels used to train the Model from the given text
// file.  It should contain one label per line.
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)

	var labels []string

	// read and trim each line
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		labels = append(labels, line)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}
