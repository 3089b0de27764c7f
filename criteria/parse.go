package criteria

import (
	"regexp"

	"golang.org/x/sync/errgroup"
)

// tokenTerminator is appended to every raw token before matching so the
// lazy value group has a fixed end to stop at.
const tokenTerminator = "|"

// filterPattern matches FIELD OP VALUE followed by the terminator.
// The search is unanchored: leading characters outside the grammar are
// skipped, the leftmost match wins.
var filterPattern = regexp.MustCompile(`([\w.]+?)(<=|>=|:|<|>|%|-|\(\))([\w\s(),.:-]+?)\|`)

// parallelThreshold is the token count from which parsing fans out to goroutines.
const parallelThreshold = 4

// Parse converts raw filter tokens into criteria.
// A nil or empty slice yields an empty result and no error.
// The first token that does not match the grammar aborts parsing with a
// *FormatError. The returned criteria keep the input order.
func Parse(tokens []string) ([]Criterion, error) {
	result := make([]Criterion, len(tokens))
	if len(tokens) == 0 {
		return result, nil
	}

	if len(tokens) < parallelThreshold {
		for i, token := range tokens {
			c, err := ParseOne(token)
			if err != nil {
				return nil, err
			}
			result[i] = c
		}
		return result, nil
	}

	// Each token is independent; slots are written by index so no locking is needed.
	var g errgroup.Group
	for i, token := range tokens {
		g.Go(func() error {
			c, err := ParseOne(token)
			if err != nil {
				return err
			}
			result[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// ParseOne parses a single raw filter token.
func ParseOne(token string) (Criterion, error) {
	m := filterPattern.FindStringSubmatch(token + tokenTerminator)
	if m == nil {
		return Criterion{}, &FormatError{Token: token}
	}

	return Criterion{
		Key:      m[1],
		Operator: Operator(m[2]),
		Value:    m[3],
	}, nil
}
