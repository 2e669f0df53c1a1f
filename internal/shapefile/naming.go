package shapefile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fixkaro/map-data-converter/internal/types"
	"github.com/fixkaro/map-data-converter/internal/validation"
)

// NameField is the attribute every output feature must carry.
const NameField = "name"

// NameSource tells which branch AssignNames took.
type NameSource string

const (
	NamesExplicit NameSource = "explicit"
	NamesExisting NameSource = "existing"
	NamesIndex    NameSource = "index"
)

// AssignNames makes sure every feature has a "name" attribute.
//
// BRANCHES (first match wins):
//  1. names given but len(names) != feature count -> *types.ValidationError,
//     nothing is assigned
//  2. names given -> feature i gets names[i], replacing any existing value
//  3. the attribute table already has a "name" column -> left untouched
//  4. otherwise -> "name" is the zero-based feature index as a string
func AssignNames(fs *types.FeatureSet, names []string) (NameSource, error) {
	if err := validation.ValidateNameList(names, fs.Len()); err != nil {
		return "", err
	}

	switch {
	case len(names) > 0:
		for i, feature := range fs.Features {
			feature.Properties.Set(NameField, names[i])
		}
	case fs.HasField(NameField):
		return NamesExisting, nil
	default:
		for i, feature := range fs.Features {
			feature.Properties.Set(NameField, strconv.Itoa(i))
		}
	}

	if !fs.HasField(NameField) {
		fs.Fields = append(fs.Fields, NameField)
	}

	if len(names) > 0 {
		return NamesExplicit, nil
	}
	return NamesIndex, nil
}

// ReadNamesFile reads one name per line from path. Surrounding whitespace is
// trimmed and blank lines are skipped.
func ReadNamesFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, &types.NotFoundError{Kind: "names file", Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open names file: %w", err)
	}
	defer file.Close()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read names file: %w", err)
	}

	return names, nil
}
