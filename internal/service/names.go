package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// cleanNames trims each name, keeping positions so errors can point at the
// original index.
func cleanNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.TrimSpace(n)
	}
	return out
}

// resolveIDs maps requested names to ids using the rows that were found.
// Every unknown name is reported as "<field>.<index>"; nothing is resolved
// partially when one name is missing.
func resolveIDs(field string, names []string, found map[string]uuid.UUID) ([]uuid.UUID, error) {
	verr := &ValidationError{}
	ids := make([]uuid.UUID, 0, len(names))
	seen := make(map[uuid.UUID]struct{}, len(names))
	for i, name := range names {
		id, ok := found[name]
		if !ok {
			key := fmt.Sprintf("%s.%d", field, i)
			verr.Add(key, fmt.Sprintf("The selected %s is invalid.", key))
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return ids, nil
}
