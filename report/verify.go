package report

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var reportSchema []byte

var ErrInvalidReport = errors.New("invalid report")

// Verification summarizes a report that passed VerifyJSON
type Verification struct {
	Groups  int
	Events  int
	Samples int
}

// VerifyJSON checks a JSON report against the report schema and the group
// invariants the schema cannot express: samples never outnumber the count and
// every sample belongs to its group's source
func VerifyJSON(r io.Reader) (*Verification, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(reportSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidReport, strings.Join(problems, "; "))
	}

	var groups map[string]entryJSON
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}

	v := &Verification{Groups: len(groups)}
	for key, entry := range groups {
		if len(entry.Samples) > entry.Count {
			return nil, fmt.Errorf("%w: group %s has %d samples for count %d",
				ErrInvalidReport, key, len(entry.Samples), entry.Count)
		}
		source := key[:strings.Index(key, ":")]
		for _, sample := range entry.Samples {
			if sample.Source.String() != source {
				return nil, fmt.Errorf("%w: group %s holds a %s sample", ErrInvalidReport, key, sample.Source)
			}
		}
		v.Events += entry.Count
		v.Samples += len(entry.Samples)
	}
	return v, nil
}
