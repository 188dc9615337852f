package batch

import (
	"fmt"
	"slices"
	"strings"

	"vox2ksh/internal/chart"
)

// Testcase is a chart known to exercise a specific converter feature.
type Testcase struct {
	SongID     int
	Difficulty chart.Difficulty
}

var testcases = map[string]Testcase{
	"basic":                      {781, chart.DifficultyMaximum},
	"laser-range":                {1138, chart.DifficultyExhaust},
	"laser-range-refreshing-fix": {980, chart.DifficultyExhaust},
	"laser-effect-6":             {122, chart.DifficultyInfinite},
	"choppy-laser":               {1332, chart.DifficultyAdvanced},
	"slam-range":                 {529, chart.DifficultyExhaust},
	"time-signature":             {56, chart.DifficultyInfinite},
	"time-six-eight":             {744, chart.DifficultyExhaust},
	"bpm":                        {262, chart.DifficultyNovice},
	"early-version":              {1, chart.DifficultyNovice},
	"encoding":                   {656, chart.DifficultyExhaust},
	"diff-preview":               {26, chart.DifficultyInfinite},
	"new-fx":                     {1, chart.DifficultyInfinite},
	"crash-fx":                   {1208, chart.DifficultyExhaust},
	"double-fx":                  {1136, chart.DifficultyAdvanced},
	"highpass-fx":                {1014, chart.DifficultyMaximum},
	"old-vox-retrigger-fx":       {71, chart.DifficultyExhaust},
	"fx-chip-sound":              {1048, chart.DifficultyMaximum},
	"basic-rolls":                {271, chart.DifficultyExhaust},
	"camera":                     {250, chart.DifficultyInfinite},
	"tilt-mode":                  {34, chart.DifficultyInfinite},
	"spc-tilt":                   {71, chart.DifficultyInfinite},
	"wtf":                        {1361, chart.DifficultyMaximum},
	"removed-data":               {233, chart.DifficultyExhaust},
	"timesig-stop":               {1148, chart.DifficultyMaximum},
	"laser-centering":            {1244, chart.DifficultyMaximum},
}

// LookupTestcase resolves a named test case.
func LookupTestcase(name string) (Testcase, error) {
	tc, ok := testcases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Testcase{}, fmt.Errorf("unknown testcase %q (valid: %s)", name, strings.Join(TestcaseNames(), ", "))
	}
	return tc, nil
}

// TestcaseNames lists the known test cases in name order.
func TestcaseNames() []string {
	names := make([]string, 0, len(testcases))
	for name := range testcases {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
