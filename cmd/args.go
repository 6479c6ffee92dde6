package cmd

import (
	"fmt"
	"strconv"

	"github.com/provlab/traceline/internal/domain/provenance"
)

func parseNodeID(arg string) (provenance.NodeID, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid node id %q", arg)
	}
	return provenance.NodeID(id), nil
}

func parseItemID(arg string) (provenance.ItemID, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return provenance.ItemID(id), nil
}

func parseStepID(arg string) (provenance.StepID, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid step id %q", arg)
	}
	return provenance.StepID(id), nil
}
