package sexy

import "fmt"

// Match reports whether actual has the shape of pattern. An ellipsis in a
// list pattern matches any number of remaining items; an ellipsis
// anywhere else matches any single datum. Integers compare by value, so
// -1 matches 18446744073709551615.
//
// The returned error describes the first mismatch and where it occurred.
func Match(pattern, actual *Node) error {
	return match(pattern, actual, "root")
}

func match(pattern, actual *Node, path string) error {
	if pattern.Type == NodeEllipsis {
		return nil
	}
	if actual == nil {
		return fmt.Errorf("at %s: expected %s, got nothing", path, pattern)
	}

	switch pattern.Type {
	case NodeInteger:
		if actual.Type != NodeInteger {
			return fmt.Errorf("at %s: expected integer %s, got %s", path, pattern, actual)
		}
		want, err := pattern.Int()
		if err != nil {
			return fmt.Errorf("at %s: %w", path, err)
		}
		got, err := actual.Int()
		if err != nil {
			return fmt.Errorf("at %s: %w", path, err)
		}
		if want != got {
			return fmt.Errorf("at %s: expected %s, got %s", path, pattern, actual)
		}
		return nil

	case NodeSymbol, NodeString:
		if actual.Type != pattern.Type || actual.Text != pattern.Text {
			return fmt.Errorf("at %s: expected %s, got %s", path, pattern, actual)
		}
		return nil

	case NodeList:
		if actual.Type != pattern.Type {
			return fmt.Errorf("at %s: expected %s, got %s", path, pattern.Type, actual)
		}
		for i, item := range pattern.Items {
			if item.Type == NodeEllipsis && i == len(pattern.Items)-1 {
				return nil
			}
			if i >= len(actual.Items) {
				return fmt.Errorf("at %s: expected %s at index %d, got end of %s", path, item, i, actual.Type)
			}
			if err := match(item, actual.Items[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		if len(actual.Items) > len(pattern.Items) {
			return fmt.Errorf("at %s: unexpected extra item %s", path, actual.Items[len(pattern.Items)])
		}
		return nil

	default:
		return fmt.Errorf("at %s: cannot match %s pattern", path, pattern.Type)
	}
}
