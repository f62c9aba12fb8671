package history

import "strings"

// Counts maps a command name to how many times it was seen. Counts only
// ever grow.
type Counts map[string]int

// Increment adds one occurrence of name.
func (c Counts) Increment(name string) {
	c[name]++
}

// Total returns the sum of all occurrences.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Extractor turns logical commands into counted command names. It is owned
// by a single ingestion run.
type Extractor struct {
	filters          *FilterSet
	noHist           bool
	trackSubcommands bool
	counts           Counts
	counted          int
}

func NewExtractor(filters *FilterSet, noHist, trackSubcommands bool) *Extractor {
	return &Extractor{
		filters:          filters,
		noHist:           noHist,
		trackSubcommands: trackSubcommands,
		counts:           make(Counts),
	}
}

// Add splits a logical command into pipeline stages (history mode only) and
// counts the command name of every stage that yields one.
func (e *Extractor) Add(line string) {
	if e.noHist || !strings.Contains(line, "|") {
		e.addStage(line)
		return
	}
	for stage := range SplitPipeline(line) {
		e.addStage(stage)
	}
}

func (e *Extractor) addStage(stage string) {
	if name, ok := FirstWord(stage, e.filters, e.trackSubcommands); ok {
		e.counts.Increment(name)
		e.counted++
	}
}

// Counts returns the aggregated map.
func (e *Extractor) Counts() Counts {
	return e.counts
}
