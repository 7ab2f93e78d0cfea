package ranks

import (
	"errors"
	"fmt"
	"slices"
)

const (
	Unknown = "UNKNOWN"

	// NotFound is the priority of a rank missing from the consulted list.
	NotFound = 999
)

// Tables holds the two rank domains, each ordered highest first. The cadet
// list ends with the sentinel, which keeps its slot for priority lookups but
// never counts as a real rank.
type Tables struct {
	Staff    []string
	Cadet    []string
	Sentinel string
}

func Default() Tables {
	return Tables{
		Staff:    []string{"SQNLDR", "FLTLT", "FLGOFF", "PLTOFF", "WOFF", "FSGT", "SGT", "CPL", "LACW", "LAC", "ACW", "AC", "CIV"},
		Cadet:    []string{"CUO", "CWOFF", "CFSGT", "CSGT", "CCPL", "LCDT", "CDT", Unknown},
		Sentinel: Unknown,
	}
}

func (t Tables) Validate() error {
	if len(t.Staff) == 0 || len(t.Cadet) == 0 {
		return errors.New("rank tables must not be empty")
	}
	if t.Sentinel == "" || t.Cadet[len(t.Cadet)-1] != t.Sentinel {
		return fmt.Errorf("cadet ranks must end with sentinel %q", t.Sentinel)
	}
	for _, r := range t.Staff {
		if slices.Contains(t.Cadet, r) {
			return fmt.Errorf("rank %s appears in both staff and cadet tables", r)
		}
	}
	return nil
}

// Priority is the zero-based position of rank in the staff or cadet list.
func (t Tables) Priority(rank string, staff bool) int {
	list := t.Cadet
	if staff {
		list = t.Staff
	}
	if i := slices.Index(list, rank); i >= 0 {
		return i
	}
	return NotFound
}

// IsRank reports whether code is a real rank in either domain.
func (t Tables) IsRank(code string) bool {
	if code == "" || code == t.Sentinel {
		return false
	}
	return slices.Contains(t.Staff, code) || slices.Contains(t.Cadet, code)
}

func (t Tables) IsStaff(code string) bool {
	return slices.Contains(t.Staff, code)
}
