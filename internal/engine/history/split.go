package history

import "iter"

// SplitPipeline yields the stages of line separated by '|' characters that
// sit outside single and double quotes. The two quote flags toggle
// independently; a '|' is masked while either one is open.
func SplitPipeline(line string) iter.Seq[string] {
	return func(yield func(string) bool) {
		inSingle, inDouble := false, false
		start := 0
		for i := 0; i < len(line); i++ {
			switch line[i] {
			case '\'':
				inSingle = !inSingle
			case '"':
				inDouble = !inDouble
			case '|':
				if inSingle || inDouble {
					continue
				}
				if !yield(line[start:i]) {
					return
				}
				start = i + 1
			}
		}
		yield(line[start:])
	}
}
